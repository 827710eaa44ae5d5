package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"horae/internal/state"
	"horae/internal/store"
	"horae/internal/summary"
)

func stateCmd() *cobra.Command {
	var chat string
	var skipLast int
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "state",
		Short: "Fold a chat's history and print its current world state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chat == "" {
				return fmt.Errorf("--chat is required")
			}
			if skipLast < 0 {
				return fmt.Errorf("--skip-last must not be negative")
			}
			return runState(cmd, chat, skipLast, asJSON)
		},
	}
	cmd.Flags().StringVar(&chat, "chat", "", "Chat name")
	cmd.Flags().IntVar(&skipLast, "skip-last", 0, "Ignore the most recent turns")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full state as JSON")
	return cmd
}

func runState(cmd *cobra.Command, chat string, skipLast int, asJSON bool) error {
	ctx := context.Background()
	return withStore(ctx, func(p *project, db store.Store) error {
		l, err := store.LoadLedger(ctx, db, chat)
		if err != nil {
			return err
		}
		st := state.Fold(l, state.Options{SkipLast: skipLast})

		if asJSON {
			payload, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return fmt.Errorf("encoding state: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(payload))
			return nil
		}

		text := summary.Render(st, summary.Options{MaxEvents: p.cfg.Summary.MaxEvents})
		if text == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No state recorded yet.")
			return nil
		}
		fmt.Fprint(cmd.OutOrStdout(), text)
		return nil
	})
}
