package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"horae/internal/ledger"
	"horae/internal/parser"
	"horae/internal/store"
)

func chatID(ctx context.Context, q pgxQueryer, chat string) (int64, error) {
	var id int64
	err := q.QueryRow(ctx, `SELECT id FROM chats WHERE name = $1`, chat).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("%s: %w", chat, store.ErrChatNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("looking up chat %s: %w", chat, err)
	}
	return id, nil
}

type pgxQueryer interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (c *Client) ReplaceTurns(ctx context.Context, chat string, turns []ledger.Turn) error {
	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
INSERT INTO chats (name, updated_at) VALUES ($1, now())
ON CONFLICT (name) DO UPDATE SET updated_at = now()
RETURNING id
`, chat).Scan(&id)
	if err != nil {
		return fmt.Errorf("upserting chat %s: %w", chat, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM turns WHERE chat_id = $1`, id); err != nil {
		return fmt.Errorf("clearing turns: %w", err)
	}

	batch := &pgx.Batch{}
	for i, turn := range turns {
		delta, err := store.EncodeDelta(turn.Delta)
		if err != nil {
			return fmt.Errorf("turn %d: %w", i, err)
		}
		batch.Queue(`
INSERT INTO turns (chat_id, idx, is_user, name, body, sent_at, delta)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`, id, i, turn.IsUser, turn.Name, turn.Body, sentAt(turn.SentAt), jsonb(delta))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting turns: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing turns: %w", err)
	}
	return nil
}

func (c *Client) ListTurns(ctx context.Context, chat string) ([]ledger.Turn, error) {
	id, err := chatID(ctx, c.pool, chat)
	if err != nil {
		return nil, err
	}

	rows, err := c.pool.Query(ctx, `
SELECT idx, is_user, name, body, sent_at, delta
FROM turns
WHERE chat_id = $1
ORDER BY idx ASC
`, id)
	if err != nil {
		return nil, fmt.Errorf("listing turns: %w", err)
	}
	defer rows.Close()

	var turns []ledger.Turn
	for rows.Next() {
		var turn ledger.Turn
		var sent *time.Time
		var delta []byte
		if err := rows.Scan(&turn.Index, &turn.IsUser, &turn.Name, &turn.Body, &sent, &delta); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if sent != nil {
			turn.SentAt = sent.UTC()
		}
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
	tag, err := c.pool.Exec(ctx, `
UPDATE turns SET delta = $1
WHERE chat_id = (SELECT id FROM chats WHERE name = $2) AND idx = $3
`, jsonb(data), chat, idx)
	if err != nil {
		return fmt.Errorf("saving delta: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s turn %d: %w", chat, idx, store.ErrTurnNotFound)
	}
	return nil
}

func (c *Client) ListChats(ctx context.Context) ([]store.ChatSummary, error) {
	rows, err := c.pool.Query(ctx, `
SELECT c.name, c.updated_at,
       COUNT(t.idx)::int,
       COUNT(t.delta)::int
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
		if err := rows.Scan(&chat.Name, &chat.UpdatedAt, &chat.Turns, &chat.Annotated); err != nil {
			return nil, fmt.Errorf("scanning chat: %w", err)
		}
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chats: %w", err)
	}
	return chats, nil
}

func sentAt(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func jsonb(data []byte) any {
	if data == nil {
		return nil
	}
	return string(data)
}
