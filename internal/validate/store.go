package validate

import (
	"context"

	"horae/internal/ledger"
	"horae/internal/table"
)

type Store interface {
	ListTurns(ctx context.Context, chat string) ([]ledger.Turn, error)
	LoadTables(ctx context.Context, chat string) ([]*table.Table, error)
}
