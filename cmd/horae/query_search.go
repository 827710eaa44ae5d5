package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"horae/internal/store"
)

func querySearchCmd() *cobra.Command {
	var chat string
	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Search turn bodies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuerySearch(cmd, strings.Join(args, " "), chat)
		},
	}
	cmd.Flags().StringVar(&chat, "chat", "", "Limit the search to one chat")
	return cmd
}

func runQuerySearch(cmd *cobra.Command, query, chat string) error {
	ctx := context.Background()
	return withStore(ctx, func(p *project, db store.Store) error {
		results, err := db.SearchTurns(ctx, chat, query)
		if err != nil {
			return err
		}
		if len(results) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No matches found.")
			return nil
		}

		for _, result := range results {
			speaker := "char"
			if result.IsUser {
				speaker = "user"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s #%d [%s] score=%.2f\n  %s\n",
				result.Chat, result.Turn, speaker, result.Score, result.Snippet)
		}
		return nil
	})
}
