// Package store persists chats, their turns with each turn's stored delta,
// and chat-local tables. The fold itself never touches a store; commands
// load a ledger, derive from it, and write deltas back.
package store

import (
	"context"
	"errors"
	"fmt"

	"horae/internal/ledger"
	"horae/internal/parser"
	"horae/internal/table"
)

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrTurnNotFound = errors.New("turn not found")
	ErrReadOnly     = errors.New("only read-only statements are allowed")
)

type Store interface {
	Close(ctx context.Context) error
	EnsureSchema(ctx context.Context) error

	ReplaceTurns(ctx context.Context, chat string, turns []ledger.Turn) error
	ListTurns(ctx context.Context, chat string) ([]ledger.Turn, error)
	SaveDelta(ctx context.Context, chat string, idx int, delta *parser.Delta) error
	ListChats(ctx context.Context) ([]ChatSummary, error)

	LoadTables(ctx context.Context, chat string) ([]*table.Table, error)
	SaveTables(ctx context.Context, chat string, tables []*table.Table) error

	SearchTurns(ctx context.Context, chat, query string) ([]SearchResult, error)
	RunSQL(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
}

// LoadLedger reads a chat's turns into a ledger.
func LoadLedger(ctx context.Context, s Store, chat string) (*ledger.Ledger, error) {
	turns, err := s.ListTurns(ctx, chat)
	if err != nil {
		return nil, err
	}
	return ledger.New(turns...), nil
}

// SaveDeltas writes every stored delta of l back to the chat.
func SaveDeltas(ctx context.Context, s Store, chat string, l *ledger.Ledger) error {
	for _, turn := range l.Turns() {
		if err := s.SaveDelta(ctx, chat, turn.Index, turn.Delta); err != nil {
			return fmt.Errorf("saving delta for turn %d: %w", turn.Index, err)
		}
	}
	return nil
}
