// Package state folds the per-turn deltas of a ledger into one cumulative
// world state.
//
// The fold keeps nothing between calls. Every call re-derives the state from
// the ledger, so folding the same history twice yields the same result.
package state

import (
	"time"

	"horae/internal/ledger"
	"horae/internal/parser"
)

type State struct {
	Timestamp parser.Timestamp      `json:"timestamp"`
	Scene     parser.Scene          `json:"scene"`
	Costumes  *Ordered[string]      `json:"costumes"`
	Items     *Ordered[*ItemRecord] `json:"items"`
	NPCs      *Ordered[*NpcRecord]  `json:"npcs"`
	Affection *Ordered[int]         `json:"affection"`
	Agenda    []AgendaItem          `json:"agenda"`
	Events    []EventRecord         `json:"events"`
}

func New() *State {
	return &State{
		Costumes:  NewOrdered[string](),
		Items:     NewOrdered[*ItemRecord](),
		NPCs:      NewOrdered[*NpcRecord](),
		Affection: NewOrdered[int](),
	}
}

type ItemRecord struct {
	ID          string            `json:"_id,omitempty"`
	Icon        string            `json:"icon,omitempty"`
	Importance  parser.Importance `json:"importance,omitempty"`
	Holder      string            `json:"holder,omitempty"`
	Location    string            `json:"location,omitempty"`
	Description string            `json:"description,omitempty"`
}

type NpcRecord struct {
	ID           string    `json:"_id,omitempty"`
	Appearance   string    `json:"appearance"`
	Personality  string    `json:"personality"`
	Relationship string    `json:"relationship"`
	Gender       string    `json:"gender"`
	Age          string    `json:"age"`
	AgeRefDate   string    `json:"_ageRefDate,omitempty"`
	Race         string    `json:"race"`
	Job          string    `json:"job"`
	Note         string    `json:"note"`
	FirstSeen    time.Time `json:"first_seen"`
	LastSeen     time.Time `json:"last_seen"`
}

const (
	SourceUser      = "user"
	SourceAssistant = "assistant"
)

type AgendaItem struct {
	Date   string `json:"date"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Done   bool   `json:"done"`
	Turn   int    `json:"turn"`
}

type EventRecord struct {
	Turn    int    `json:"turn"`
	Date    string `json:"date,omitempty"`
	Time    string `json:"time,omitempty"`
	Level   string `json:"level"`
	Summary string `json:"summary"`
}

type Options struct {
	// Cursor is the exclusive end of the folded range. Zero or a value past
	// the end folds the whole ledger.
	Cursor int
	// SkipLast drops the most recent turns from the range, e.g. while a turn
	// is being redrafted.
	SkipLast int
	// Now stamps NPC sightings on turns without a send time when no earlier
	// turn has one either. Nil leaves those sightings zero.
	Now func() time.Time
}

func (o Options) end(n int) int {
	end := o.Cursor
	if end <= 0 || end > n {
		end = n
	}
	end -= o.SkipLast
	if end < 0 {
		end = 0
	}
	return end
}

// Fold reduces the ledger's deltas in turn order and then assigns item and
// NPC identifiers.
func Fold(l *ledger.Ledger, opts Options) *State {
	st := New()
	turns := l.Turns()
	var lastSent time.Time
	for _, turn := range turns[:opts.end(len(turns))] {
		if !turn.SentAt.IsZero() {
			lastSent = turn.SentAt
		}
		if turn.Delta == nil {
			continue
		}
		seen := lastSent
		if seen.IsZero() && opts.Now != nil {
			seen = opts.Now()
		}
		st.apply(turn, seen)
	}
	assignIDs(st.Items)
	assignIDs(st.NPCs)
	return st
}

func (st *State) apply(turn ledger.Turn, seen time.Time) {
	d := turn.Delta

	if d.Timestamp != nil {
		if d.Timestamp.StoryDate != "" {
			st.Timestamp.StoryDate = d.Timestamp.StoryDate
		}
		if d.Timestamp.StoryTime != "" {
			st.Timestamp.StoryTime = d.Timestamp.StoryTime
		}
	}
	if d.Scene != nil {
		if d.Scene.Location != "" {
			st.Scene.Location = d.Scene.Location
		}
		if d.Scene.Atmosphere != "" {
			st.Scene.Atmosphere = d.Scene.Atmosphere
		}
		if len(d.Scene.Characters) > 0 {
			st.Scene.Characters = append([]string(nil), d.Scene.Characters...)
		}
	}
	for _, c := range d.Costumes {
		if c.Character != "" && c.Outfit != "" {
			st.Costumes.Set(c.Character, c.Outfit)
		}
	}

	for _, item := range d.Items {
		st.upsertItem(item)
	}
	for _, name := range d.DeletedItems {
		st.deleteItem(name)
	}

	for _, a := range d.Affection {
		if a.Name == "" {
			continue
		}
		current, _ := st.Affection.Get(a.Name)
		if a.Kind == parser.AffectionAbsolute {
			current = a.Value
		} else {
			current += a.Value
		}
		st.Affection.Set(a.Name, current)
	}

	for _, npc := range d.NPCs {
		st.upsertNPC(npc, seen)
	}

	source := SourceAssistant
	if turn.IsUser {
		source = SourceUser
	}
	added := make(map[string]bool)
	for _, entry := range d.Agenda {
		if entry.Text == "" || added[entry.Text] {
			continue
		}
		added[entry.Text] = true
		st.Agenda = append(st.Agenda, AgendaItem{
			Date:   entry.Date,
			Text:   entry.Text,
			Source: source,
			Turn:   turn.Index,
		})
	}

	for _, e := range d.Events {
		st.Events = append(st.Events, EventRecord{
			Turn:    turn.Index,
			Date:    st.Timestamp.StoryDate,
			Time:    st.Timestamp.StoryTime,
			Level:   e.Level,
			Summary: e.Summary,
		})
	}
}
