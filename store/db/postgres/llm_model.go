package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hrygo/wabot/store"
)

func (d *DB) CreateLLMModel(ctx context.Context, create *store.LLMModel) error {
	stmt := `INSERT INTO llm_model (provider, name)
		VALUES (` + placeholders(2) + `)
		ON CONFLICT (provider, name) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, create.Provider, create.Name); err != nil {
		return fmt.Errorf("failed to create llm model: %w", err)
	}
	return nil
}

func (d *DB) ListLLMModels(ctx context.Context, find *store.FindLLMModel) ([]*store.LLMModel, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.Provider; v != nil {
		where, args = append(where, "provider = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "name = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.AvailableAt; v != nil {
		where, args = append(where, "(suspended_until IS NULL OR suspended_until < "+placeholder(len(args)+1)+")"), append(args, *v)
	}

	query := `SELECT id, provider, name, suspended_until, error_count, last_error, created_ts
		FROM llm_model
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY error_count ASC, id ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query llm models: %w", err)
	}
	defer rows.Close()

	list := make([]*store.LLMModel, 0)
	for rows.Next() {
		model := &store.LLMModel{}
		var suspendedUntil sql.NullInt64
		var lastError sql.NullString
		if err := rows.Scan(
			&model.ID,
			&model.Provider,
			&model.Name,
			&suspendedUntil,
			&model.ErrorCount,
			&lastError,
			&model.CreatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan llm model: %w", err)
		}
		if suspendedUntil.Valid {
			model.SuspendedUntil = &suspendedUntil.Int64
		}
		if lastError.Valid {
			model.LastError = &lastError.String
		}
		list = append(list, model)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) RecordLLMModelFailure(ctx context.Context, record *store.RecordLLMModelFailure) error {
	stmt := `INSERT INTO llm_model (provider, name, suspended_until, error_count, last_error)
		VALUES (` + placeholder(1) + `, ` + placeholder(2) + `, ` + placeholder(3) + `, 1, ` + placeholder(4) + `)
		ON CONFLICT (provider, name) DO UPDATE SET
			suspended_until = EXCLUDED.suspended_until,
			error_count = llm_model.error_count + 1,
			last_error = EXCLUDED.last_error`
	if _, err := d.db.ExecContext(ctx, stmt, record.Provider, record.Name, record.SuspendedUntil, record.LastError); err != nil {
		return fmt.Errorf("failed to record llm model failure: %w", err)
	}
	return nil
}
