package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"horae/internal/ledger"
	"horae/internal/parser"
)

// commandAnalyzer runs an external command per turn. The command gets the
// turn body on stdin and prints annotation text, tagged or bare.
func commandAnalyzer(command string) (ledger.AnalyzeFunc, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, fmt.Errorf("analyzer command is empty")
	}
	return func(ctx context.Context, body string) (*parser.Delta, error) {
		var stdout, stderr bytes.Buffer
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdin = strings.NewReader(body)
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("running analyzer: %w: %s", err, strings.TrimSpace(stderr.String()))
		}

		delta, err := parser.ParseText(stdout.String(), true)
		if errors.Is(err, parser.ErrNoAnnotation) {
			return nil, nil
		}
		return delta, err
	}, nil
}
