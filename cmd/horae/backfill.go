package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"horae/internal/config"
	"horae/internal/ledger"
	"horae/internal/state"
	"horae/internal/store"
	"horae/internal/table"
)

func backfillCmd() *cobra.Command {
	var chat string
	var analyzer string
	cmd := &cobra.Command{
		Use:   "backfill",
		Short: "Annotate turns that carry no annotation using an external analyzer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chat == "" {
				return fmt.Errorf("--chat is required")
			}
			if analyzer == "" {
				return fmt.Errorf("--analyzer is required")
			}
			return runBackfill(cmd, chat, analyzer)
		},
	}
	cmd.Flags().StringVar(&chat, "chat", "", "Chat name")
	cmd.Flags().StringVar(&analyzer, "analyzer", "", "Command that reads a turn on stdin and prints annotation text")
	return cmd
}

func runBackfill(cmd *cobra.Command, chat, command string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	analyze, err := commandAnalyzer(command)
	if err != nil {
		return err
	}

	return withStore(ctx, func(p *project, db store.Store) error {
		l, err := store.LoadLedger(ctx, db, chat)
		if err != nil {
			return err
		}
		missing := l.Missing()
		if len(missing) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing to backfill.")
			return nil
		}
		// Turns that parse locally never reach the analyzer.
		parsed := ledger.Annotate(l, ledger.AnnotateOptions{Loose: p.cfg.Parser.LooseFallback})

		progress := func(percent, done, total int) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r%3d%% (%d/%d)", percent, done, total)
		}
		result, runErr := ledger.Backfill(ctx, l, analyze, progress)
		fmt.Fprintln(cmd.ErrOrStderr())

		// Whatever was filled before a cancellation is still saved.
		applied, err := saveBackfill(ctx, db, chat, l, missing, p.tables)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Backfill: %d parsed, %d filled, %d empty, %d failed\n",
			parsed.Annotated, result.Filled, result.Empty, result.Failed)
		fmt.Fprintf(cmd.OutOrStdout(), "Tables: %d written, %d blocked\n", applied.Written, applied.Blocked)
		return runErr
	})
}

// saveBackfill applies the agenda completions of the newly filled turns,
// stores every delta and rebuilds the chat's tables from the updated history.
func saveBackfill(ctx context.Context, db store.Store, chat string, l *ledger.Ledger, filled []int, defs []config.TableDef) (table.ApplyResult, error) {
	for _, idx := range filled {
		state.ApplyAgendaCompletions(l, idx)
	}
	state.StampIDs(l, state.Fold(l, state.Options{}))
	if err := store.SaveDeltas(ctx, db, chat, l); err != nil {
		return table.ApplyResult{}, err
	}

	saved, err := db.LoadTables(ctx, chat)
	if err != nil {
		return table.ApplyResult{}, err
	}
	global := table.FromDefs(defs)
	engine := table.NewEngine(table.LocalOnly(saved, global), global)
	applied := engine.Rebuild(l)
	if err := db.SaveTables(ctx, chat, engine.Tables()); err != nil {
		return table.ApplyResult{}, fmt.Errorf("saving tables: %w", err)
	}
	return applied, nil
}
