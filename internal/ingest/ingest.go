package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"horae/internal/config"
	"horae/internal/ledger"
	"horae/internal/parser"
	"horae/internal/state"
	"horae/internal/store"
	"horae/internal/table"
)

type Result struct {
	Turns     int
	Annotated int
	// Reused counts turns whose stored delta was kept because the body did
	// not change since the last import.
	Reused        int
	Missing       []int
	Completed     int
	TablesWritten int
	TablesBlocked int
	Unresolved    []string
	Errors        []error
}

type Options struct {
	// Full re-parses every turn instead of keeping stored deltas for
	// unchanged bodies.
	Full bool
	// Loose enables the unwrapped key:value fallback.
	Loose bool
	// Tables are the global table definitions.
	Tables []config.TableDef
}

// Run imports a JSONL transcript into chat, replacing its stored history.
func Run(ctx context.Context, db Store, chat string, r io.Reader, options Options) (*Result, error) {
	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	transcript, errs := ReadTranscript(r)
	result := &Result{Turns: len(transcript.Turns), Errors: errs}

	previous := map[int]ledger.Turn{}
	if !options.Full {
		turns, err := db.ListTurns(ctx, chat)
		if err != nil && !errors.Is(err, store.ErrChatNotFound) {
			return nil, fmt.Errorf("list stored turns: %w", err)
		}
		for _, t := range turns {
			previous[t.Index] = t
		}
	}

	l := ledger.New(transcript.Turns...)
	for i := range l.Len() {
		turn, _ := l.Turn(i)
		if !turn.IsUser && !turn.Annotated() {
			if delta := reuse(previous, turn); delta != nil {
				_ = l.SetDelta(i, delta)
				result.Reused++
			} else if delta, err := parser.ParseText(turn.Body, options.Loose); err == nil {
				_ = l.SetDelta(i, delta)
				result.Annotated++
			}
		}
		// Completions run in turn order, before later turns are parsed.
		result.Completed += state.ApplyAgendaCompletions(l, i)
	}
	result.Missing = l.Missing()
	state.StampIDs(l, state.Fold(l, state.Options{}))

	if err := db.ReplaceTurns(ctx, chat, l.Turns()); err != nil {
		return nil, fmt.Errorf("store turns: %w", err)
	}

	local := transcript.Tables
	if local == nil {
		saved, err := db.LoadTables(ctx, chat)
		if err != nil {
			return nil, fmt.Errorf("load tables: %w", err)
		}
		local = saved
	}
	global := table.FromDefs(options.Tables)
	engine := table.NewEngine(table.LocalOnly(local, global), global)
	applied := engine.Rebuild(l)
	result.TablesWritten = applied.Written
	result.TablesBlocked = applied.Blocked
	result.Unresolved = applied.Unresolved

	if err := db.SaveTables(ctx, chat, engine.Tables()); err != nil {
		result.Errors = append(result.Errors, fmt.Errorf("saving tables: %w", err))
	}

	log.Debug().
		Str("chat", chat).
		Int("turns", result.Turns).
		Int("annotated", result.Annotated).
		Int("reused", result.Reused).
		Msg("transcript imported")
	return result, nil
}

// reuse returns the stored delta of the same turn when its body is unchanged.
func reuse(previous map[int]ledger.Turn, turn ledger.Turn) *parser.Delta {
	old, ok := previous[turn.Index]
	if !ok || old.Delta == nil || old.IsUser != turn.IsUser {
		return nil
	}
	if old.Body != turn.Body {
		return nil
	}
	return old.Delta
}
