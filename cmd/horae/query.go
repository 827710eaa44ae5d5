package main

import "github.com/spf13/cobra"

func queryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query stored chats from the CLI",
	}
	cmd.AddCommand(querySQLCmd())
	cmd.AddCommand(queryChatsCmd())
	cmd.AddCommand(querySearchCmd())
	return cmd
}
