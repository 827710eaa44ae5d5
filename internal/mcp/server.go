package mcp

import (
	"context"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"horae/internal/config"
	"horae/internal/ledger"
	"horae/internal/store"
	"horae/internal/table"
)

// Querier is the read side of store.Store the tools use.
type Querier interface {
	ListTurns(ctx context.Context, chat string) ([]ledger.Turn, error)
	ListChats(ctx context.Context) ([]store.ChatSummary, error)
	LoadTables(ctx context.Context, chat string) ([]*table.Table, error)
	SearchTurns(ctx context.Context, chat, query string) ([]store.SearchResult, error)
}

// Settings are the project options the tools honour.
type Settings struct {
	Loose     bool
	MaxEvents int
	Tables    []config.TableDef
}

type Server struct {
	db       Querier
	settings Settings
	mcp      *sdk.Server
}

func NewServer(db Querier, settings Settings, version string) *Server {
	s := &Server{
		db:       db,
		settings: settings,
		mcp: sdk.NewServer(&sdk.Implementation{
			Name:    "horae",
			Version: version,
		}, nil),
	}
	s.registerTools()
	return s
}

func (s *Server) Run(ctx context.Context, transport sdk.Transport) error {
	return s.mcp.Run(ctx, transport)
}
