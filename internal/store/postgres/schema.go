package postgres

import (
	"context"
	"fmt"
)

// EnsureSchema creates the tables if missing. The DDL runs as one implicit
// transaction and is safe to repeat.
func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS chats (
    id         BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS turns (
    chat_id BIGINT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
    idx     INTEGER NOT NULL,
    is_user BOOLEAN NOT NULL DEFAULT FALSE,
    name    TEXT NOT NULL DEFAULT '',
    body    TEXT NOT NULL DEFAULT '',
    sent_at TIMESTAMPTZ,
    delta   JSONB,
    PRIMARY KEY (chat_id, idx)
);

CREATE TABLE IF NOT EXISTS chat_tables (
    chat_id  BIGINT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
    name     TEXT NOT NULL,
    position INTEGER NOT NULL,
    data     JSONB NOT NULL,
    PRIMARY KEY (chat_id, name)
);

CREATE INDEX IF NOT EXISTS idx_turns_annotated ON turns (chat_id) WHERE delta IS NOT NULL;
`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
