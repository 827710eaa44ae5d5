package summary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horae/internal/ledger"
	"horae/internal/parser"
	"horae/internal/state"
)

func fold(t *testing.T, bodies ...string) *state.State {
	t.Helper()
	l := ledger.New()
	for _, body := range bodies {
		delta, err := parser.Parse("<horae>\n" + body + "\n</horae>")
		require.NoError(t, err)
		l.Append(ledger.Turn{Delta: delta})
	}
	return state.Fold(l, state.Options{})
}

func TestRender(t *testing.T) {
	st := fold(t,
		"time:2024/3/5 14:00\nlocation:酒馆\ncharacters:艾伦,莉娜\ncostume:艾伦=皮甲\n"+
			"item!:🍺麦酒(50L)|自酿=U@柜子\nitem:护身符\n"+
			"npc:艾伦|金发=开朗@旧友~性别:男~年龄:20\naffection:艾伦=30\n"+
			"agenda:3/14|赴约\nevent:重要|重逢",
		"time:2026/3/6\nevent:一般|启程\nagenda:3/20|赴约",
	)

	want := "time:2026/3/6 14:00\n" +
		"location:酒馆\n" +
		"characters:艾伦,莉娜\n" +
		"costume:艾伦=皮甲\n" +
		"item!:🍺麦酒(50L)|自酿=U@柜子\n" +
		"item:护身符\n" +
		"npc:艾伦|金发=开朗@旧友~性别:男~年龄:22\n" +
		"affection:艾伦=30\n" +
		"agenda:3/14|赴约 (下周六)\n" +
		"event:重要|重逢 (2年前)\n" +
		"event:一般|启程 (今天)\n"

	assert.Equal(t, want, Render(st, Options{}))
}

func TestRenderEventFilters(t *testing.T) {
	st := fold(t,
		"event:一般|甲",
		"event:关键|乙",
		"event:重要|丙",
		"event:一般|丁",
	)

	assert.Equal(t, "event:重要|丙\nevent:一般|丁\n", Render(st, Options{MaxEvents: 2}))
	assert.Equal(t, "event:关键|乙\nevent:重要|丙\n", Render(st, Options{MinLevel: parser.LevelImportant}))
}

func TestRenderEmpty(t *testing.T) {
	assert.Empty(t, Render(state.New(), Options{}))
}
