package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"horae/internal/parser"
)

func parseCmd() *cobra.Command {
	var loose bool
	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse one turn's annotation and print the delta as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening %s: %w", args[0], err)
				}
				defer f.Close()
				in = f
			}
			return runParse(cmd, in, loose)
		},
	}
	cmd.Flags().BoolVar(&loose, "loose", false, "Accept unwrapped key:value lines")
	return cmd
}

func runParse(cmd *cobra.Command, in io.Reader, loose bool) error {
	text, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	delta, err := parser.ParseText(string(text), loose)
	if errors.Is(err, parser.ErrNoAnnotation) {
		fmt.Fprintln(cmd.OutOrStdout(), "No annotation found.")
		return nil
	}
	if err != nil {
		return err
	}

	payload, err := json.MarshalIndent(delta, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding delta: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(payload))
	if delta.Discarded > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d malformed line(s) ignored\n", delta.Discarded)
	}
	return nil
}
