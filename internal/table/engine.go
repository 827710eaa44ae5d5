package table

import (
	"strings"

	"github.com/rs/zerolog/log"

	"horae/internal/ledger"
	"horae/internal/parser"
)

// Engine resolves table names against a chat-local set first and the global
// set second.
type Engine struct {
	Local  []*Table
	Global []*Table
}

func NewEngine(local, global []*Table) *Engine {
	return &Engine{Local: local, Global: global}
}

type ApplyResult struct {
	Written       int
	Blocked       int
	HeaderSkipped int
	Unresolved    []string
}

func (r *ApplyResult) add(other ApplyResult) {
	r.Written += other.Written
	r.Blocked += other.Blocked
	r.HeaderSkipped += other.HeaderSkipped
	r.Unresolved = append(r.Unresolved, other.Unresolved...)
}

func (e *Engine) Resolve(name string) *Table {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	for _, set := range [][]*Table{e.Local, e.Global} {
		for _, t := range set {
			if strings.TrimSpace(t.Name) == name {
				return t
			}
		}
	}
	return nil
}

// Apply writes each batch into its table. Batches naming an unknown table
// are logged and skipped.
func (e *Engine) Apply(updates []parser.TableUpdate) ApplyResult {
	var result ApplyResult
	for _, update := range updates {
		t := e.Resolve(update.Name)
		if t == nil {
			log.Warn().Str("table", update.Name).Msg("table not found, skipping update")
			result.Unresolved = append(result.Unresolved, update.Name)
			continue
		}
		for _, cell := range update.Cells {
			switch t.write(cell) {
			case written:
				result.Written++
			case blocked:
				result.Blocked++
			case headerSkipped:
				result.HeaderSkipped++
			}
		}
	}
	return result
}

// Rebuild resets every table and replays all stored table batches in turn
// order. The outcome depends only on the ledger and the baselines.
func (e *Engine) Rebuild(l *ledger.Ledger) ApplyResult {
	for _, set := range [][]*Table{e.Local, e.Global} {
		for _, t := range set {
			t.Reset()
		}
	}
	var result ApplyResult
	for _, turn := range l.Turns() {
		if turn.Delta == nil || len(turn.Delta.Tables) == 0 {
			continue
		}
		result.add(e.Apply(turn.Delta.Tables))
	}
	return result
}

// Tables returns every table known to the engine, local first.
func (e *Engine) Tables() []*Table {
	out := make([]*Table, 0, len(e.Local)+len(e.Global))
	out = append(out, e.Local...)
	return append(out, e.Global...)
}
