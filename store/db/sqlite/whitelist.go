package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/hrygo/wabot/store"
)

func (d *DB) CreateWhitelistEntry(ctx context.Context, create *store.WhitelistEntry) error {
	fields := []string{"phone_number"}
	args := []any{create.PhoneNumber}
	if create.CreatedTs != 0 {
		fields, args = append(fields, "created_ts"), append(args, create.CreatedTs)
	}

	stmt := `INSERT INTO whitelist (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		ON CONFLICT (phone_number) DO NOTHING`
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("failed to create whitelist entry: %w", err)
	}
	return nil
}

func (d *DB) ListWhitelistEntries(ctx context.Context, find *store.FindWhitelistEntry) ([]*store.WhitelistEntry, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.PhoneNumber; v != nil {
		where, args = append(where, "phone_number = "+placeholder(len(args)+1)), append(args, *v)
	}

	query := `SELECT phone_number, created_ts FROM whitelist
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY phone_number ASC`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query whitelist: %w", err)
	}
	defer rows.Close()

	list := make([]*store.WhitelistEntry, 0)
	for rows.Next() {
		entry := &store.WhitelistEntry{}
		if err := rows.Scan(&entry.PhoneNumber, &entry.CreatedTs); err != nil {
			return nil, fmt.Errorf("failed to scan whitelist entry: %w", err)
		}
		list = append(list, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}

func (d *DB) DeleteWhitelistEntry(ctx context.Context, delete *store.DeleteWhitelistEntry) error {
	stmt := `DELETE FROM whitelist WHERE phone_number = ` + placeholder(1)
	if _, err := d.db.ExecContext(ctx, stmt, delete.PhoneNumber); err != nil {
		return fmt.Errorf("failed to delete whitelist entry: %w", err)
	}
	return nil
}
