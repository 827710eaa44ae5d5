package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"horae/internal/ingest"
	"horae/internal/store"
)

var ingestFull bool

func ingestCmd() *cobra.Command {
	var chat string
	cmd := &cobra.Command{
		Use:   "ingest <transcript.jsonl>",
		Short: "Import a chat transcript and rebuild its tables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if chat == "" {
				chat = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			return runIngest(cmd, args[0], chat)
		},
	}
	cmd.Flags().StringVar(&chat, "chat", "", "Chat name (defaults to the file name)")
	cmd.Flags().BoolVar(&ingestFull, "full", false, "Re-parse every turn instead of keeping stored deltas for unchanged bodies")
	return cmd
}

func runIngest(cmd *cobra.Command, path, chat string) error {
	ctx := context.Background()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening transcript: %w", err)
	}
	defer f.Close()

	return withStore(ctx, func(p *project, db store.Store) error {
		result, err := ingest.Run(ctx, db, chat, f, ingest.Options{
			Full:   ingestFull,
			Loose:  p.cfg.Parser.LooseFallback,
			Tables: p.tables,
		})
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Imported %s.\n", chat)
		fmt.Fprintf(out, "  Turns:          %d\n", result.Turns)
		fmt.Fprintf(out, "  Annotated:      %d\n", result.Annotated)
		fmt.Fprintf(out, "  Reused:         %d\n", result.Reused)
		fmt.Fprintf(out, "  Missing:        %d\n", len(result.Missing))
		fmt.Fprintf(out, "  Agenda done:    %d\n", result.Completed)
		fmt.Fprintf(out, "  Table writes:   %d (%d blocked)\n", result.TablesWritten, result.TablesBlocked)

		if len(result.Unresolved) > 0 {
			fmt.Fprintf(out, "  Unknown tables: %s\n", strings.Join(result.Unresolved, ", "))
		}
		if len(result.Errors) > 0 {
			fmt.Fprintf(out, "\nErrors (%d):\n", len(result.Errors))
			for _, item := range result.Errors {
				fmt.Fprintf(out, "  - %v\n", item)
			}
			return fmt.Errorf("ingestion completed with errors")
		}
		return nil
	})
}
