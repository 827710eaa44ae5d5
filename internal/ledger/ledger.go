// Package ledger holds the ordered turn history that the aggregator and the
// table engine re-derive their output from. Each turn owns one Delta slot.
package ledger

import (
	"errors"
	"fmt"
	"time"

	"horae/internal/parser"
)

var ErrTurnOutOfRange = errors.New("turn index out of range")

type Turn struct {
	Index  int
	IsUser bool
	Name   string
	Body   string
	SentAt time.Time
	Delta  *parser.Delta
}

// Annotated reports whether the turn already holds a stored delta.
func (t Turn) Annotated() bool {
	return t.Delta != nil
}

// Ledger is an append-only sequence of turns. Apart from SetDelta and the
// agenda-completion rewrite done through Delta, turns are never mutated.
type Ledger struct {
	turns []Turn
}

func New(turns ...Turn) *Ledger {
	l := &Ledger{}
	for _, t := range turns {
		l.Append(t)
	}
	return l
}

// Append adds a turn and returns its index. The turn's Index field is
// overwritten with its position in the ledger.
func (l *Ledger) Append(t Turn) int {
	t.Index = len(l.turns)
	l.turns = append(l.turns, t)
	return t.Index
}

func (l *Ledger) Len() int {
	return len(l.turns)
}

func (l *Ledger) Turn(i int) (Turn, bool) {
	if i < 0 || i >= len(l.turns) {
		return Turn{}, false
	}
	return l.turns[i], true
}

// Turns returns a copy of the turn slice. Deltas are shared, not copied.
func (l *Ledger) Turns() []Turn {
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Delta returns the stored delta of turn i, or nil.
func (l *Ledger) Delta(i int) *parser.Delta {
	if i < 0 || i >= len(l.turns) {
		return nil
	}
	return l.turns[i].Delta
}

func (l *Ledger) SetDelta(i int, d *parser.Delta) error {
	if i < 0 || i >= len(l.turns) {
		return fmt.Errorf("set delta on turn %d: %w", i, ErrTurnOutOfRange)
	}
	l.turns[i].Delta = d
	return nil
}

// Missing lists the indices of assistant turns without a stored delta.
func (l *Ledger) Missing() []int {
	var out []int
	for _, t := range l.turns {
		if !t.IsUser && !t.Annotated() {
			out = append(out, t.Index)
		}
	}
	return out
}
