package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"horae/internal/store"
	"horae/internal/table"
)

func tablesCmd() *cobra.Command {
	var chat string
	var rebuild bool
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Show a chat's tables, optionally rebuilding them from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chat == "" {
				return fmt.Errorf("--chat is required")
			}
			return runTables(cmd, chat, rebuild)
		},
	}
	cmd.Flags().StringVar(&chat, "chat", "", "Chat name")
	cmd.Flags().BoolVar(&rebuild, "rebuild", false, "Replay history into the tables and save the result")
	return cmd
}

func runTables(cmd *cobra.Command, chat string, rebuild bool) error {
	ctx := context.Background()
	return withStore(ctx, func(p *project, db store.Store) error {
		saved, err := db.LoadTables(ctx, chat)
		if err != nil {
			return err
		}
		tables := saved

		if rebuild {
			l, err := store.LoadLedger(ctx, db, chat)
			if err != nil {
				return err
			}
			global := table.FromDefs(p.tables)
			engine := table.NewEngine(table.LocalOnly(saved, global), global)
			result := engine.Rebuild(l)
			if err := db.SaveTables(ctx, chat, engine.Tables()); err != nil {
				return err
			}
			tables = engine.Tables()

			fmt.Fprintf(cmd.OutOrStdout(), "Rebuilt: %d written, %d blocked, %d header cells kept\n\n",
				result.Written, result.Blocked, result.HeaderSkipped)
			if len(result.Unresolved) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Unknown tables: %s\n\n", strings.Join(result.Unresolved, ", "))
			}
		}

		if len(tables) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No tables.")
			return nil
		}
		for i, t := range tables {
			if i > 0 {
				fmt.Fprintln(cmd.OutOrStdout())
			}
			if err := t.Render(cmd.OutOrStdout()); err != nil {
				return err
			}
		}
		return nil
	})
}
