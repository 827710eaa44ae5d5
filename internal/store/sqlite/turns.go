package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"horae/internal/ledger"
	"horae/internal/parser"
	"horae/internal/store"
)

func (c *Client) chatID(ctx context.Context, q queryer, chat string) (int64, error) {
	var id int64
	err := q.QueryRowContext(ctx, `SELECT id FROM chats WHERE name = ?`, chat).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", chat, store.ErrChatNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("looking up chat %s: %w", chat, err)
	}
	return id, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func upsertChat(ctx context.Context, tx *sql.Tx, chat string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx, `
	INSERT INTO chats (name, updated_at) VALUES (?, ?)
	ON CONFLICT (name) DO UPDATE SET updated_at = excluded.updated_at
	RETURNING id
	`, chat, time.Now().UTC().Format(time.RFC3339Nano)).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upserting chat %s: %w", chat, err)
	}
	return id, nil
}

// ReplaceTurns stores turns as the full history of chat, creating the chat
// if needed.
func (c *Client) ReplaceTurns(ctx context.Context, chat string, turns []ledger.Turn) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	id, err := upsertChat(ctx, tx, chat)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE chat_id = ?`, id); err != nil {
		return fmt.Errorf("clearing turns: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO turns (chat_id, idx, is_user, name, body, sent_at, delta)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing turn insert: %w", err)
	}
	defer stmt.Close()

	for i, turn := range turns {
		delta, err := store.EncodeDelta(turn.Delta)
		if err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
		if _, err := stmt.ExecContext(ctx, id, i, turn.IsUser, turn.Name, turn.Body, formatTime(turn.SentAt), nullable(delta)); err != nil {
			return fmt.Errorf("inserting turn %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing turns: %w", err)
	}
	return nil
}

func (c *Client) ListTurns(ctx context.Context, chat string) ([]ledger.Turn, error) {
	id, err := c.chatID(ctx, c.db, chat)
	if err != nil {
		return nil, err
	}

	rows, err := c.db.QueryContext(ctx, `
	SELECT idx, is_user, name, body, sent_at, delta
	FROM turns
	WHERE chat_id = ?
	ORDER BY idx ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	var turns []ledger.Turn
	for rows.Next() {
		var turn ledger.Turn
		var sentAt string
		var delta []byte
		if err := rows.Scan(&turn.Index, &turn.IsUser, &turn.Name, &turn.Body, &sentAt, &delta); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.SentAt = parseTime(sentAt)
		if turn.Delta, err = store.DecodeDelta(delta); err != nil {
			return nil, fmt.Errorf("turn %d: %w", turn.Index, err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}
	return turns, nil
}

func (c *Client) SaveDelta(ctx context.Context, chat string, idx int, delta *parser.Delta) error {
	data, err := store.EncodeDelta(delta)
	if err != nil {
		return err
	}
	res, err := c.db.ExecContext(ctx, `
	UPDATE turns SET delta = ?
	WHERE chat_id = (SELECT id FROM chats WHERE name = ?) AND idx = ?
	`, nullable(data), chat, idx)
	if err != nil {
		return fmt.Errorf("saving delta: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving delta: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s turn %d: %w", chat, idx, store.ErrTurnNotFound)
	}
	return nil
}

func (c *Client) ListChats(ctx context.Context) ([]store.ChatSummary, error) {
	rows, err := c.db.QueryContext(ctx, `
	SELECT c.name, c.updated_at,
		   COUNT(t.idx),
		   COALESCE(SUM(CASE WHEN t.delta IS NOT NULL THEN 1 ELSE 0 END), 0)
	FROM chats c
	LEFT JOIN turns t ON t.chat_id = c.id
	GROUP BY c.id
	ORDER BY c.name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing chats: %w", err)
	}
	defer rows.Close()

	chats := []store.ChatSummary{}
	for rows.Next() {
		var chat store.ChatSummary
		var updated string
		if err := rows.Scan(&chat.Name, &updated, &chat.Turns, &chat.Annotated); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		chat.UpdatedAt = parseTime(updated)
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chats: %w", err)
	}
	return chats, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullable(data []byte) any {
	if data == nil {
		return nil
	}
	return string(data)
}
