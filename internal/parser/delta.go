package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Delta is one turn's parsed annotation. It is a plain value; the only code
// that edits a stored Delta afterwards is agenda completion.
type Delta struct {
	Timestamp       *Timestamp        `json:"timestamp,omitempty"`
	Scene           *Scene            `json:"scene,omitempty"`
	Costumes        []Costume         `json:"costumes,omitempty"`
	Items           []ItemUpdate      `json:"items,omitempty"`
	DeletedItems    []string          `json:"deleted_items,omitempty"`
	Events          []Event           `json:"events,omitempty"`
	Affection       []AffectionUpdate `json:"affection,omitempty"`
	NPCs            []NpcUpdate       `json:"npcs,omitempty"`
	Agenda          []AgendaEntry     `json:"agenda,omitempty"`
	AgendaCompleted []string          `json:"agenda_completed,omitempty"`
	Tables          []TableUpdate     `json:"tables,omitempty"`

	// Discarded counts lines that carried a known key but failed its grammar.
	Discarded int `json:"-"`
}

// UnmarshalJSON accepts costumes, items, affection and npcs either as the
// arrays Delta marshals to or as objects keyed by name, in which case the
// key order is kept.
func (d *Delta) UnmarshalJSON(data []byte) error {
	type plain Delta
	*d = Delta{}
	raw := struct {
		*plain
		Costumes  json.RawMessage `json:"costumes"`
		Items     json.RawMessage `json:"items"`
		Affection json.RawMessage `json:"affection"`
		NPCs      json.RawMessage `json:"npcs"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding delta: %w", err)
	}

	var err error
	if d.Costumes, err = decodeKeyed("costumes", raw.Costumes, keyedCostume); err != nil {
		return err
	}
	if d.Items, err = decodeKeyed("items", raw.Items, keyedItem); err != nil {
		return err
	}
	if d.Affection, err = decodeKeyed("affection", raw.Affection, keyedAffection); err != nil {
		return err
	}
	if d.NPCs, err = decodeKeyed("npcs", raw.NPCs, keyedNPC); err != nil {
		return err
	}
	return nil
}

func decodeKeyed[T any](field string, data json.RawMessage, keyed func(name string, value json.RawMessage) (T, error)) ([]T, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] == '[' {
		var out []T
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, fmt.Errorf("decoding %s: %w", field, err)
		}
		return out, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("decoding %s: expected an array or an object", field)
	}
	var out []T
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", field, err)
		}
		name, _ := tok.(string)
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decoding %s %q: %w", field, name, err)
		}
		entry, err := keyed(strings.TrimSpace(name), value)
		if err != nil {
			return nil, fmt.Errorf("decoding %s %q: %w", field, name, err)
		}
		out = append(out, entry)
	}
	return out, nil
}

func keyedCostume(name string, value json.RawMessage) (Costume, error) {
	var outfit string
	if err := json.Unmarshal(value, &outfit); err != nil {
		return Costume{}, err
	}
	return Costume{Character: name, Outfit: outfit}, nil
}

func keyedItem(name string, value json.RawMessage) (ItemUpdate, error) {
	var u ItemUpdate
	if err := json.Unmarshal(value, &u); err != nil {
		return ItemUpdate{}, err
	}
	u.Name = name
	return u, nil
}

func keyedNPC(name string, value json.RawMessage) (NpcUpdate, error) {
	var u NpcUpdate
	if err := json.Unmarshal(value, &u); err != nil {
		return NpcUpdate{}, err
	}
	u.Name = name
	return u, nil
}

// keyedAffection takes either an update object or a bare legacy value,
// which is a relative change.
func keyedAffection(name string, value json.RawMessage) (AffectionUpdate, error) {
	var a AffectionUpdate
	if trimmed := bytes.TrimSpace(value); len(trimmed) == 0 || trimmed[0] != '{' {
		value = append(append([]byte(`{"value":`), trimmed...), '}')
	}
	if err := a.UnmarshalJSON(value); err != nil {
		return AffectionUpdate{}, err
	}
	a.Name = name
	return a, nil
}

type Timestamp struct {
	StoryDate string `json:"story_date,omitempty"`
	StoryTime string `json:"story_time,omitempty"`
}

type Scene struct {
	Location   string   `json:"location,omitempty"`
	Atmosphere string   `json:"atmosphere,omitempty"`
	Characters []string `json:"characters_present,omitempty"`
}

type Costume struct {
	Character string `json:"character"`
	Outfit    string `json:"outfit"`
}

type ItemUpdate struct {
	Name        string      `json:"name"`
	ID          string      `json:"_id,omitempty"`
	Icon        string      `json:"icon,omitempty"`
	Importance  Importance  `json:"importance,omitempty"`
	Holder      *string     `json:"holder,omitempty"`
	Location    *string     `json:"location,omitempty"`
	Description Description `json:"description,omitzero"`
}

type Event struct {
	Level   string `json:"level"`
	Summary string `json:"summary"`
}

const (
	LevelNormal    = "一般"
	LevelImportant = "重要"
	LevelCritical  = "关键"
)

type AffectionKind string

const (
	AffectionAbsolute AffectionKind = "absolute"
	AffectionRelative AffectionKind = "relative"
)

type AffectionUpdate struct {
	Name  string        `json:"name"`
	Kind  AffectionKind `json:"type"`
	Value int           `json:"value"`
}

// UnmarshalJSON accepts the value as a number or as a signed string such as
// "+5". A bare number with no type is a legacy relative delta. Non-numeric
// strings become 0.
func (a *AffectionUpdate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Kind  AffectionKind   `json:"type"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding affection update: %w", err)
	}
	a.Name = raw.Name
	a.Kind = raw.Kind
	if a.Kind != AffectionAbsolute {
		a.Kind = AffectionRelative
	}
	a.Value = 0

	var number float64
	if err := json.Unmarshal(raw.Value, &number); err == nil {
		a.Value = int(number)
		return nil
	}
	var text string
	if err := json.Unmarshal(raw.Value, &text); err == nil {
		a.Value, _ = strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(text), "+"))
	}
	return nil
}

type NpcUpdate struct {
	Name         string     `json:"name"`
	ID           string     `json:"_id,omitempty"`
	Appearance   *string    `json:"appearance,omitempty"`
	Personality  *string    `json:"personality,omitempty"`
	Relationship *string    `json:"relationship,omitempty"`
	Gender       *string    `json:"gender,omitempty"`
	Age          *string    `json:"age,omitempty"`
	Race         *string    `json:"race,omitempty"`
	Job          *string    `json:"job,omitempty"`
	Note         *string    `json:"note,omitempty"`
	LastSeen     *time.Time `json:"last_seen,omitempty"`
}

type AgendaEntry struct {
	Date string `json:"date"`
	Text string `json:"text"`
}

type TableUpdate struct {
	Name  string      `json:"name"`
	Cells []CellWrite `json:"cells"`
}

type CellWrite struct {
	Row  int    `json:"row"`
	Col  int    `json:"col"`
	Text string `json:"text"`
}

// Key is the "r-c" coordinate used by table cell maps.
func (c CellWrite) Key() string {
	return CellKey(c.Row, c.Col)
}

func CellKey(row, col int) string {
	return strconv.Itoa(row) + "-" + strconv.Itoa(col)
}

// IsEmpty reports whether the delta carries no update at all.
func (d *Delta) IsEmpty() bool {
	if d == nil {
		return true
	}
	return d.Timestamp == nil &&
		d.Scene == nil &&
		len(d.Costumes) == 0 &&
		len(d.Items) == 0 &&
		len(d.DeletedItems) == 0 &&
		len(d.Events) == 0 &&
		len(d.Affection) == 0 &&
		len(d.NPCs) == 0 &&
		len(d.Agenda) == 0 &&
		len(d.AgendaCompleted) == 0 &&
		len(d.Tables) == 0
}

func (d *Delta) scene() *Scene {
	if d.Scene == nil {
		d.Scene = &Scene{}
	}
	return d.Scene
}

func (d *Delta) table(name string) *TableUpdate {
	for i := range d.Tables {
		if d.Tables[i].Name == name {
			return &d.Tables[i]
		}
	}
	d.Tables = append(d.Tables, TableUpdate{Name: name})
	return &d.Tables[len(d.Tables)-1]
}
