package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"horae/internal/store"
)

func TestFTS5Query(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "simple term", input: "麦酒桶", expected: `"麦酒桶"`},
		{name: "multiple terms", input: "银杯酒馆 家传长剑", expected: `"银杯酒馆" AND "家传长剑"`},
		{name: "explicit AND", input: "dragon AND sword", expected: `"dragon" AND "sword"`},
		{name: "explicit OR", input: "dragon OR sword", expected: `"dragon" OR "sword"`},
		{name: "negation", input: "dragon -fire", expected: `"dragon" NOT "fire"`},
		{name: "NOT operator", input: "dragon NOT fire", expected: `"dragon" NOT "fire"`},
		{name: "leading negation trails", input: "-fire dragon", expected: `"dragon" NOT "fire"`},
		{name: "phrase", input: `"red dragon"`, expected: `"red dragon"`},
		{name: "phrase with other term", input: `"red dragon" castle`, expected: `"red dragon" AND "castle"`},
		{name: "punctuation is quoted", input: `time:2024/3/5`, expected: `"time:2024/3/5"`},
		{name: "fullwidth space separates", input: "银杯酒馆　家传长剑", expected: `"银杯酒馆" AND "家传长剑"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, fts5(store.ParseQuery(tt.input)))
		})
	}
}

func TestShortQuery(t *testing.T) {
	assert.False(t, short(store.ParseQuery("银杯酒馆")))
	assert.True(t, short(store.ParseQuery("艾伦")))
	assert.True(t, short(store.ParseQuery("银杯酒馆 剑")))
	assert.True(t, short(store.ParseQuery("-dragon")))
}
