package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hrygo/wabot/store"
)

func (d *DB) UpsertChatSession(ctx context.Context, upsert *store.ChatSession) (*store.ChatSession, error) {
	updatedTs := upsert.UpdatedTs
	if updatedTs == 0 {
		updatedTs = time.Now().Unix()
	}

	stmt := `INSERT INTO chat_session (phone_number, active_module, active_submodule, history, created_ts, updated_ts)
		VALUES (` + placeholders(6) + `)
		ON CONFLICT (phone_number) DO UPDATE SET
			active_module = EXCLUDED.active_module,
			active_submodule = EXCLUDED.active_submodule,
			history = EXCLUDED.history,
			updated_ts = EXCLUDED.updated_ts
		RETURNING phone_number, active_module, active_submodule, history, created_ts, updated_ts`

	result := &store.ChatSession{}
	if err := d.db.QueryRowContext(ctx, stmt,
		upsert.PhoneNumber, upsert.ActiveModule, upsert.ActiveSubmodule, upsert.History, updatedTs, updatedTs,
	).Scan(
		&result.PhoneNumber,
		&result.ActiveModule,
		&result.ActiveSubmodule,
		&result.History,
		&result.CreatedTs,
		&result.UpdatedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to upsert chat session: %w", err)
	}
	return result, nil
}

func (d *DB) ListChatSessions(ctx context.Context, find *store.FindChatSession) ([]*store.ChatSession, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.PhoneNumber; v != nil {
		where, args = append(where, "phone_number = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UpdatedBefore; v != nil {
		where, args = append(where, "updated_ts < "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT phone_number, active_module, active_submodule, history, created_ts, updated_ts
		FROM chat_session
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query chat sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.ChatSession, 0)
	for rows.Next() {
		session := &store.ChatSession{}
		if err := rows.Scan(
			&session.PhoneNumber,
			&session.ActiveModule,
			&session.ActiveSubmodule,
			&session.History,
			&session.CreatedTs,
			&session.UpdatedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan chat session: %w", err)
		}
		list = append(list, session)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteChatSessions(ctx context.Context, delete *store.DeleteChatSession) (int64, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := delete.PhoneNumber; v != nil {
		where, args = append(where, "phone_number = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := delete.UpdatedBefore; v != nil {
		where, args = append(where, "updated_ts < "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(args) == 0 {
		return 0, fmt.Errorf("refusing to delete chat sessions without a condition")
	}

	result, err := d.db.ExecContext(ctx, `DELETE FROM chat_session WHERE `+strings.Join(where, " AND "), args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chat sessions: %w", err)
	}
	return result.RowsAffected()
}
