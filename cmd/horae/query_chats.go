package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"horae/internal/store"
)

func queryChatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chats",
		Short: "List imported chats",
		Args:  cobra.NoArgs,
		RunE:  runQueryChats,
	}
}

func runQueryChats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	return withStore(ctx, func(p *project, db store.Store) error {
		chats, err := db.ListChats(ctx)
		if err != nil {
			return err
		}
		if len(chats) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No chats found.")
			return nil
		}

		for _, chat := range chats {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d turns, %d annotated) updated %s\n",
				chat.Name, chat.Turns, chat.Annotated, chat.UpdatedAt.Local().Format(time.DateTime))
		}
		return nil
	})
}
