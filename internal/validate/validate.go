package validate

import (
	"context"
	"fmt"
	"strings"

	"horae/internal/config"
	"horae/internal/ledger"
	"horae/internal/parser"
	"horae/internal/state"
	"horae/internal/table"
)

type Severity string

const (
	SeverityError Severity = "error"
	SeverityWarn  Severity = "warning"
)

const (
	codeMissingAnnotation = "missing_annotation"
	codeUnresolvedTable   = "unresolved_table"
	codeProtectedConflict = "protected_field_conflict"
	codeDuplicateAgenda   = "duplicate_agenda"
	codeEmptyItemName     = "empty_item_name"
)

type Issue struct {
	Severity Severity
	Code     string
	Turn     int
	Message  string
}

type Report struct {
	Issues []Issue
}

func (r *Report) Count(severity Severity) int {
	n := 0
	for _, issue := range r.Issues {
		if issue.Severity == severity {
			n++
		}
	}
	return n
}

// Run checks a stored chat against the global table definitions.
func Run(ctx context.Context, db Store, chat string, defs []config.TableDef) (*Report, error) {
	if db == nil {
		return nil, fmt.Errorf("store is required")
	}

	turns, err := db.ListTurns(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("list turns: %w", err)
	}
	saved, err := db.LoadTables(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("load tables: %w", err)
	}
	global := table.FromDefs(defs)
	engine := table.NewEngine(table.LocalOnly(saved, global), global)

	return &Report{Issues: Check(ledger.New(turns...), engine)}, nil
}

// Check reports every issue in l, in turn order.
func Check(l *ledger.Ledger, engine *table.Engine) []Issue {
	issues := make([]Issue, 0)
	missing := make(map[int]bool)
	for _, idx := range l.Missing() {
		missing[idx] = true
	}

	protected := make(map[string]map[string]string)
	agenda := make(map[string]int)

	for _, turn := range l.Turns() {
		if missing[turn.Index] {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeMissingAnnotation,
				Turn:     turn.Index,
				Message:  "assistant turn has no annotation",
			})
			continue
		}
		d := turn.Delta
		if d == nil {
			continue
		}

		for _, item := range d.Items {
			if emptyItemName(item.Name) {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     codeEmptyItemName,
					Turn:     turn.Index,
					Message:  fmt.Sprintf("item update has no name: %q", item.Name),
				})
			}
		}

		for _, npc := range d.NPCs {
			issues = append(issues, checkProtected(protected, turn.Index, npc)...)
		}

		for _, entry := range d.Agenda {
			text := strings.TrimSpace(entry.Text)
			if first, ok := agenda[text]; ok {
				issues = append(issues, Issue{
					Severity: SeverityWarn,
					Code:     codeDuplicateAgenda,
					Turn:     turn.Index,
					Message:  fmt.Sprintf("agenda %q already recorded at turn %d", text, first),
				})
				continue
			}
			agenda[text] = turn.Index
		}

		if engine == nil {
			continue
		}
		for _, update := range d.Tables {
			if engine.Resolve(update.Name) == nil {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Code:     codeUnresolvedTable,
					Turn:     turn.Index,
					Message:  fmt.Sprintf("table %q is not defined", update.Name),
				})
			}
		}
	}
	return issues
}

func emptyItemName(name string) bool {
	_, rest := parser.SplitIcon(strings.TrimSpace(name))
	return state.BaseName(rest) == ""
}

// checkProtected records the first gender and race seen for an NPC and
// flags later updates that disagree. The fold keeps the first value.
func checkProtected(seen map[string]map[string]string, turn int, npc parser.NpcUpdate) []Issue {
	fields := []struct {
		label string
		value *string
	}{
		{"性别", npc.Gender},
		{"种族", npc.Race},
	}

	locked, ok := seen[npc.Name]
	if !ok {
		locked = make(map[string]string)
		seen[npc.Name] = locked
	}

	var issues []Issue
	for _, field := range fields {
		if field.value == nil || strings.TrimSpace(*field.value) == "" {
			continue
		}
		value := strings.TrimSpace(*field.value)
		prev, ok := locked[field.label]
		if !ok {
			locked[field.label] = value
			continue
		}
		if prev != value {
			issues = append(issues, Issue{
				Severity: SeverityWarn,
				Code:     codeProtectedConflict,
				Turn:     turn,
				Message:  fmt.Sprintf("%s %s changes from %q to %q; the first value is kept", npc.Name, field.label, prev, value),
			})
		}
	}
	return issues
}
