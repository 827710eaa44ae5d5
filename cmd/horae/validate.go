package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"horae/internal/store"
	"horae/internal/validate"
)

func validateCmd() *cobra.Command {
	var chat string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Run consistency checks against a chat's annotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if chat == "" {
				return fmt.Errorf("--chat is required")
			}
			return runValidate(cmd, chat)
		},
	}
	cmd.Flags().StringVar(&chat, "chat", "", "Chat name")
	return cmd
}

func runValidate(cmd *cobra.Command, chat string) error {
	ctx := context.Background()
	return withStore(ctx, func(p *project, db store.Store) error {
		report, err := validate.Run(ctx, db, chat, p.tables)
		if err != nil {
			return err
		}

		var errorIssues []validate.Issue
		var warnIssues []validate.Issue
		for _, issue := range report.Issues {
			switch issue.Severity {
			case validate.SeverityError:
				errorIssues = append(errorIssues, issue)
			case validate.SeverityWarn:
				warnIssues = append(warnIssues, issue)
			}
		}

		out := cmd.OutOrStdout()
		if len(errorIssues) == 0 && len(warnIssues) == 0 {
			fmt.Fprintln(out, "No issues found.")
			return nil
		}

		if len(errorIssues) > 0 {
			fmt.Fprintf(out, "Errors (%d):\n", len(errorIssues))
			printIssues(out, errorIssues)
		}
		if len(warnIssues) > 0 {
			if len(errorIssues) > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "Warnings (%d):\n", len(warnIssues))
			printIssues(out, warnIssues)
		}

		if len(errorIssues) > 0 {
			return fmt.Errorf("validation found errors")
		}
		return nil
	})
}

func printIssues(out io.Writer, issues []validate.Issue) {
	for _, issue := range issues {
		fmt.Fprintf(out, "  - turn %d: %s (%s)\n", issue.Turn, issue.Message, issue.Code)
	}
}
