package store

import (
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"horae/internal/parser"
)

type ChatSummary struct {
	Name      string
	Turns     int
	Annotated int
	UpdatedAt time.Time
}

type SearchResult struct {
	Chat    string
	Turn    int
	IsUser  bool
	Score   float64
	Snippet string
}

// EncodeDelta returns the JSON column value for a delta, nil for none.
func EncodeDelta(d *parser.Delta) ([]byte, error) {
	if d == nil {
		return nil, nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encoding delta: %w", err)
	}
	return data, nil
}

func DecodeDelta(data []byte) (*parser.Delta, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var d parser.Delta
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("decoding delta: %w", err)
	}
	return &d, nil
}

var readOnlyPattern = regexp.MustCompile(`(?is)^\s*(select|with|explain|pragma\s+table_info)\b`)

// IsReadOnly reports whether query starts like a read-only statement.
func IsReadOnly(query string) bool {
	return readOnlyPattern.MatchString(query)
}

// PositionalArgs orders params keyed "1", "2", ... into an argument list.
func PositionalArgs(params map[string]any) []any {
	args := make([]any, 0, len(params))
	for i := 1; i <= len(params); i++ {
		if val, ok := params[fmt.Sprint(i)]; ok {
			args = append(args, val)
		}
	}
	return args
}
