package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"horae/internal/mcp"
	"horae/internal/store"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return withStore(ctx, func(p *project, db store.Store) error {
		if err := db.EnsureSchema(ctx); err != nil {
			return err
		}
		server := mcp.NewServer(db, mcp.Settings{
			Loose:     p.cfg.Parser.LooseFallback,
			MaxEvents: p.cfg.Summary.MaxEvents,
			Tables:    p.tables,
		}, version)
		return server.Run(ctx, &sdk.StdioTransport{})
	})
}
