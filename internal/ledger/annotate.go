package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"horae/internal/parser"
)

type AnnotateOptions struct {
	// Loose enables the unwrapped key:value fallback for turns that carry no
	// annotation tags.
	Loose bool
	// Overwrite re-parses turns that already hold a delta.
	Overwrite bool
}

type AnnotateResult struct {
	Annotated int
	Missing   []int
}

// Annotate parses every assistant turn that lacks a delta and stores the
// result in its slot. Turns without any annotation stay missing.
func Annotate(l *Ledger, opts AnnotateOptions) AnnotateResult {
	var result AnnotateResult
	for i := range l.turns {
		t := &l.turns[i]
		if t.IsUser || (t.Annotated() && !opts.Overwrite) {
			continue
		}
		delta, err := parser.ParseText(t.Body, opts.Loose)
		if err != nil {
			result.Missing = append(result.Missing, t.Index)
			continue
		}
		t.Delta = delta
		result.Annotated++
	}
	return result
}

// AnalyzeFunc produces an annotation for a turn body that carried none. A nil
// delta with a nil error means the analyzer found nothing to record.
type AnalyzeFunc func(ctx context.Context, body string) (*parser.Delta, error)

// ProgressFunc is called after every backfilled turn.
type ProgressFunc func(percent, done, total int)

type BackfillResult struct {
	Filled int
	Failed int
	Empty  int
}

// Backfill walks the missing assistant turns in order and asks analyze for
// each one. Analyzer failures are logged and leave the turn without a delta.
// Only context cancellation between turns stops the walk early.
func Backfill(ctx context.Context, l *Ledger, analyze AnalyzeFunc, progress ProgressFunc) (BackfillResult, error) {
	var result BackfillResult
	missing := l.Missing()
	total := len(missing)

	for done, idx := range missing {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("backfill stopped at turn %d: %w", idx, err)
		}

		delta, err := analyze(ctx, l.turns[idx].Body)
		switch {
		case err != nil:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return result, fmt.Errorf("backfill stopped at turn %d: %w", idx, err)
			}
			log.Warn().Err(err).Int("turn", idx).Msg("backfill analysis failed")
			result.Failed++
		case delta == nil:
			result.Empty++
		default:
			l.turns[idx].Delta = delta
			result.Filled++
		}

		if progress != nil {
			progress((done+1)*100/total, done+1, total)
		}
	}
	return result, nil
}
