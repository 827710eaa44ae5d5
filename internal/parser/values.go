package parser

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Importance of a tracked item, encoded in annotations by trailing "!" marks.
type Importance int

const (
	ImportanceNone Importance = iota
	ImportanceImportant
	ImportanceCritical
)

func (i Importance) String() string {
	switch i {
	case ImportanceImportant:
		return "!"
	case ImportanceCritical:
		return "!!"
	default:
		return ""
	}
}

func (i Importance) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

func (i *Importance) UnmarshalText(text []byte) error {
	switch strings.TrimSpace(string(text)) {
	case "", "none":
		*i = ImportanceNone
	case "!", "important":
		*i = ImportanceImportant
	case "!!", "critical":
		*i = ImportanceCritical
	default:
		return fmt.Errorf("unknown importance %q", text)
	}
	return nil
}

// Max returns the higher of the two levels.
func (i Importance) Max(other Importance) Importance {
	if other > i {
		return other
	}
	return i
}

// Description is an item's optional description with three states: unset
// (leave the stored description alone), cleared (written but blank), or a
// value.
type Description struct {
	set  bool
	text string
}

func DescriptionUnset() Description { return Description{} }

func DescriptionCleared() Description { return Description{set: true} }

func DescriptionOf(text string) Description {
	return Description{set: true, text: text}
}

func (d Description) IsZero() bool { return !d.set }

func (d Description) IsSet() bool { return d.set }

func (d Description) Text() string { return d.text }

// HasValue reports whether the description is set to non-blank text.
func (d Description) HasValue() bool {
	return d.set && strings.TrimSpace(d.text) != ""
}

func (d Description) MarshalJSON() ([]byte, error) {
	if !d.set {
		return []byte("null"), nil
	}
	return json.Marshal(d.text)
}

func (d *Description) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Description{}
		return nil
	}
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return fmt.Errorf("decoding description: %w", err)
	}
	*d = DescriptionOf(text)
	return nil
}
