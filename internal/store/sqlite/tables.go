package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"horae/internal/table"
)

func (c *Client) LoadTables(ctx context.Context, chat string) ([]*table.Table, error) {
	id, err := c.chatID(ctx, c.db, chat)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `
	SELECT data FROM chat_tables WHERE chat_id = ? ORDER BY position ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("loading tables: %w", err)
	}
	defer rows.Close()

	tables := []*table.Table{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning table: %w", err)
		}
		var t table.Table
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("decoding table: %w", err)
		}
		tables = append(tables, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tables: %w", err)
	}
	return tables, nil
}

// SaveTables replaces the chat-local tables of chat.
func (c *Client) SaveTables(ctx context.Context, chat string, tables []*table.Table) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := c.chatID(ctx, tx, chat)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_tables WHERE chat_id = ?`, id); err != nil {
		return fmt.Errorf("clearing tables: %w", err)
	}
	for i, t := range tables {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("encoding table %s: %w", t.Name, err)
		}
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO chat_tables (chat_id, name, position, data) VALUES (?, ?, ?, ?)
		`, id, t.Name, i, string(data)); err != nil {
			return fmt.Errorf("saving table %s: %w", t.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing tables: %w", err)
	}
	return nil
}
