package state

import (
	"strings"

	"horae/internal/ledger"
)

// RemoveCompletedAgenda deletes every stored agenda entry, across all turns,
// whose text equals, contains or is contained in one of targets. It rewrites
// the stored deltas and returns the number of entries removed.
func RemoveCompletedAgenda(l *ledger.Ledger, targets []string) int {
	var cleaned []string
	for _, t := range targets {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return 0
	}

	removed := 0
	for i := range l.Len() {
		d := l.Delta(i)
		if d == nil || len(d.Agenda) == 0 {
			continue
		}
		kept := d.Agenda[:0]
		for _, entry := range d.Agenda {
			if agendaMatches(entry.Text, cleaned) {
				removed++
				continue
			}
			kept = append(kept, entry)
		}
		d.Agenda = kept
	}
	return removed
}

// ApplyAgendaCompletions runs the completion targets recorded in turn i
// against the whole ledger.
func ApplyAgendaCompletions(l *ledger.Ledger, i int) int {
	d := l.Delta(i)
	if d == nil {
		return 0
	}
	return RemoveCompletedAgenda(l, d.AgendaCompleted)
}

func agendaMatches(text string, targets []string) bool {
	for _, t := range targets {
		if text == t || strings.Contains(text, t) || strings.Contains(t, text) {
			return true
		}
	}
	return false
}
