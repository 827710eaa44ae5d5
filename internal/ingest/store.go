package ingest

import (
	"context"

	"horae/internal/ledger"
	"horae/internal/table"
)

// Store is the part of store.Store an import needs.
type Store interface {
	EnsureSchema(ctx context.Context) error
	ListTurns(ctx context.Context, chat string) ([]ledger.Turn, error)
	ReplaceTurns(ctx context.Context, chat string, turns []ledger.Turn) error
	LoadTables(ctx context.Context, chat string) ([]*table.Table, error)
	SaveTables(ctx context.Context, chat string, tables []*table.Table) error
}
