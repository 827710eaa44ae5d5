// Package summary renders a folded state as compact key:value lines, using
// the same keys as the annotation grammar, for re-injection into a prompt.
package summary

import (
	"fmt"
	"strings"

	"horae/internal/parser"
	"horae/internal/state"
	"horae/internal/storydate"
)

type Options struct {
	// MaxEvents keeps only the most recent events. Zero keeps all.
	MaxEvents int
	// MinLevel drops events below this level. Empty keeps every level.
	MinLevel string
}

func Render(st *state.State, opts Options) string {
	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	current := st.Timestamp.StoryDate

	if ts := strings.TrimSpace(current + " " + st.Timestamp.StoryTime); ts != "" {
		line("time:%s", ts)
	}
	if st.Scene.Location != "" {
		line("location:%s", st.Scene.Location)
	}
	if st.Scene.Atmosphere != "" {
		line("atmosphere:%s", st.Scene.Atmosphere)
	}
	if len(st.Scene.Characters) > 0 {
		line("characters:%s", strings.Join(st.Scene.Characters, ","))
	}
	for name, outfit := range st.Costumes.All() {
		line("costume:%s=%s", name, outfit)
	}

	for name, item := range st.Items.All() {
		line("%s", itemLine(name, item))
	}

	for name, npc := range st.NPCs.All() {
		line("%s", npcLine(name, *npc, current))
	}

	for name, value := range st.Affection.All() {
		line("affection:%s=%d", name, value)
	}

	seen := make(map[string]bool)
	for _, entry := range st.Agenda {
		if entry.Done || seen[entry.Text] {
			continue
		}
		seen[entry.Text] = true
		line("agenda:%s|%s%s", entry.Date, entry.Text, relative(entry.Date, current))
	}

	var events []state.EventRecord
	for _, e := range st.Events {
		if levelRank[e.Level] >= levelRank[opts.MinLevel] {
			events = append(events, e)
		}
	}
	if opts.MaxEvents > 0 && len(events) > opts.MaxEvents {
		events = events[len(events)-opts.MaxEvents:]
	}
	for _, e := range events {
		line("event:%s|%s%s", e.Level, e.Summary, relative(e.Date, current))
	}

	return b.String()
}

func itemLine(name string, item *state.ItemRecord) string {
	var b strings.Builder
	b.WriteString("item")
	b.WriteString(item.Importance.String())
	b.WriteByte(':')
	b.WriteString(item.Icon)
	b.WriteString(name)
	if item.Description != "" {
		b.WriteByte('|')
		b.WriteString(item.Description)
	}
	if item.Holder != "" || item.Location != "" {
		b.WriteByte('=')
		b.WriteString(item.Holder)
		b.WriteByte('@')
		b.WriteString(item.Location)
	}
	return b.String()
}

func npcLine(name string, npc state.NpcRecord, current string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "npc:%s|%s=%s@%s", name, npc.Appearance, npc.Personality, npc.Relationship)
	extensions := []struct{ key, value string }{
		{"性别", npc.Gender},
		{"年龄", state.CalcCurrentAge(npc, current)},
		{"种族", npc.Race},
		{"职业", npc.Job},
		{"补充", npc.Note},
	}
	for _, ext := range extensions {
		if ext.value != "" {
			fmt.Fprintf(&b, "~%s:%s", ext.key, ext.value)
		}
	}
	return b.String()
}

// relative labels a dated entry against the current story date, e.g.
// " (昨天)". It is empty when either date is missing or the distance cannot
// be computed.
func relative(date, current string) string {
	if date == "" || current == "" {
		return ""
	}
	label, ok := storydate.RelativeLabel(date, current)
	if !ok {
		return ""
	}
	return " (" + label + ")"
}

var levelRank = map[string]int{
	parser.LevelNormal:    0,
	parser.LevelImportant: 1,
	parser.LevelCritical:  2,
}
