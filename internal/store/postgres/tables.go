package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"horae/internal/table"
)

func (c *Client) LoadTables(ctx context.Context, chat string) ([]*table.Table, error) {
	id, err := chatID(ctx, c.pool, chat)
	if err != nil {
		return nil, err
	}

	rows, err := c.pool.Query(ctx, `SELECT data FROM chat_tables WHERE chat_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, fmt.Errorf("loading tables: %w", err)
	}
	tables, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*table.Table, error) {
		var data []byte
		if err := row.Scan(&data); err != nil {
			return nil, err
		}
		var t table.Table
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("decoding table: %w", err)
		}
		return &t, nil
	})
	if err != nil {
		return nil, fmt.Errorf("loading tables: %w", err)
	}
	if tables == nil {
		tables = []*table.Table{}
	}
	return tables, nil
}

func (c *Client) SaveTables(ctx context.Context, chat string, tables []*table.Table) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	id, err := chatID(ctx, tx, chat)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM chat_tables WHERE chat_id = $1`, id); err != nil {
		return fmt.Errorf("clearing tables: %w", err)
	}
	for i, t := range tables {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encoding table %s: %w", t.Name, err)
		}
		if _, err := tx.Exec(ctx, `
INSERT INTO chat_tables (chat_id, name, position, data) VALUES ($1, $2, $3, $4)
`, id, t.Name, i, string(data)); err != nil {
			return fmt.Errorf("saving table %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing tables: %w", err)
	}
	return nil
}
