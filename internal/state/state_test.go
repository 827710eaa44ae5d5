package state

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"horae/internal/ledger"
	"horae/internal/parser"
)

var fixedNow = func() time.Time { return time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC) }

func ledgerOf(t *testing.T, bodies ...string) *ledger.Ledger {
	t.Helper()
	l := ledger.New()
	for _, body := range bodies {
		delta, err := parser.Parse("<horae>\n" + body + "\n</horae>")
		require.NoError(t, err)
		l.Append(ledger.Turn{Body: body, Delta: delta})
	}
	return l
}

func TestFoldIdempotent(t *testing.T) {
	l := ledgerOf(t,
		"time:2024/3/5 14:00\nlocation:酒馆\nitem:🍺麦酒(50L)=U@柜子\nnpc:艾伦|金发=开朗@旧友~性别:男~年龄:20",
		"item!:信|封蜡完好=艾伦@口袋\naffection:艾伦+5\nagenda:3/14|赴约",
		"time:2024/3/6\nitem:🍺麦酒(25L)=U@柜子\nnpc:莉娜|黑发",
	)

	first := Fold(l, Options{Now: fixedNow})
	second := Fold(l, Options{Now: fixedNow})

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestFoldScalars(t *testing.T) {
	l := ledgerOf(t,
		"time:2024/3/5 14:00\nlocation:酒馆\natmosphere:热闹\ncharacters:艾伦,莉娜\ncostume:艾伦=皮甲",
		"time:2024/3/5\nlocation:\ncostume:莉娜=长袍\ncostume:艾伦=礼服",
	)
	st := Fold(l, Options{Now: fixedNow})

	assert.Equal(t, parser.Timestamp{StoryDate: "2024/3/5", StoryTime: "14:00"}, st.Timestamp)
	assert.Equal(t, "酒馆", st.Scene.Location)
	assert.Equal(t, "热闹", st.Scene.Atmosphere)
	assert.Equal(t, []string{"艾伦", "莉娜"}, st.Scene.Characters)
	assert.Equal(t, []string{"艾伦", "莉娜"}, st.Costumes.Keys())
	outfit, _ := st.Costumes.Get("艾伦")
	assert.Equal(t, "礼服", outfit)
}

func TestFoldCursor(t *testing.T) {
	l := ledgerOf(t, "location:一", "location:二", "location:三")

	assert.Equal(t, "三", Fold(l, Options{}).Scene.Location)
	assert.Equal(t, "二", Fold(l, Options{Cursor: 2}).Scene.Location)
	assert.Equal(t, "二", Fold(l, Options{SkipLast: 1}).Scene.Location)
	assert.Equal(t, "一", Fold(l, Options{Cursor: 2, SkipLast: 1}).Scene.Location)
	assert.Empty(t, Fold(l, Options{SkipLast: 5}).Scene.Location)
}

func TestItemLifecycle(t *testing.T) {
	l := ledgerOf(t,
		"item:🍺麦酒(50L)=U@柜子",
		"item:🍺麦酒(25L)=U@柜子",
		"item-:麦酒",
	)

	st := Fold(l, Options{Cursor: 2})
	require.Equal(t, 1, st.Items.Len())
	rec, ok := st.Items.Get("麦酒(25L)")
	require.True(t, ok)
	assert.Equal(t, "U", rec.Holder)
	assert.Equal(t, "柜子", rec.Location)
	assert.Equal(t, "🍺", rec.Icon)
	assert.Equal(t, "001", rec.ID)

	st = Fold(l, Options{})
	assert.Equal(t, 0, st.Items.Len())
}

func TestItemConsumption(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{name: "zero quantity", line: "item:面包(0)=U@背包"},
		{name: "zero with unit", line: "item:面包(0个)=U@背包"},
		{name: "consumed marker", line: "item:面包(已消耗)=U@背包"},
		{name: "consumed holder", line: "item:面包=无@"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := ledgerOf(t, "item:面包(3个)=U@背包", tt.line)
			assert.Equal(t, 1, Fold(l, Options{Cursor: 1}).Items.Len())
			assert.Equal(t, 0, Fold(l, Options{}).Items.Len())
		})
	}
}

func TestItemMerge(t *testing.T) {
	t.Run("importance never decreases", func(t *testing.T) {
		l := ledgerOf(t, "item!!:王冠=U@", "item:王冠=莉娜@宝库", "item!:王冠=@")
		rec, ok := Fold(l, Options{}).Items.Get("王冠")
		require.True(t, ok)
		assert.Equal(t, parser.ImportanceCritical, rec.Importance)
		assert.Empty(t, rec.Holder)
		assert.Empty(t, rec.Location)
	})

	t.Run("description is sticky", func(t *testing.T) {
		l := ledgerOf(t, "item:信|封蜡完好=U@", "item:信|=U@", "item:信=U@")
		rec, _ := Fold(l, Options{}).Items.Get("信")
		assert.Equal(t, "封蜡完好", rec.Description)

		l = ledgerOf(t, "item:信|封蜡完好=U@", "item:信|封蜡破损=U@")
		rec, _ = Fold(l, Options{}).Items.Get("信")
		assert.Equal(t, "封蜡破损", rec.Description)
	})

	t.Run("holder untouched without target", func(t *testing.T) {
		l := ledgerOf(t, "item:信=U@桌上", "item:📜信")
		rec, _ := Fold(l, Options{}).Items.Get("信")
		assert.Equal(t, "U", rec.Holder)
		assert.Equal(t, "桌上", rec.Location)
		assert.Equal(t, "📜", rec.Icon)
	})

	t.Run("case-insensitive identity keeps id", func(t *testing.T) {
		l := ledgerOf(t, "item:Iron Key=U@", "item:剑=U@", "item:iron key(2)=U@")
		st := Fold(l, Options{})
		assert.Equal(t, []string{"剑", "iron key(2)"}, st.Items.Keys())
		key, _ := st.Items.Get("iron key(2)")
		sword, _ := st.Items.Get("剑")
		assert.Equal(t, "001", sword.ID)
		assert.Equal(t, "002", key.ID)
	})
}

func TestAffection(t *testing.T) {
	l := ledger.New(
		ledger.Turn{Delta: &parser.Delta{Affection: []parser.AffectionUpdate{{Name: "艾伦", Kind: parser.AffectionAbsolute, Value: 50}}}},
		ledger.Turn{Delta: &parser.Delta{Affection: []parser.AffectionUpdate{{Name: "艾伦", Kind: parser.AffectionRelative, Value: 5}}}},
	)
	v, _ := Fold(l, Options{}).Affection.Get("艾伦")
	assert.Equal(t, 55, v)

	l = ledgerOf(t, "affection:莉娜+10", "affection:莉娜-3")
	v, _ = Fold(l, Options{}).Affection.Get("莉娜")
	assert.Equal(t, 7, v)
}

func TestAffectionFromStoredJSON(t *testing.T) {
	var first, second parser.Delta
	require.NoError(t, json.Unmarshal([]byte(`{"affection":[{"name":"艾伦","type":"absolute","value":50}]}`), &first))
	require.NoError(t, json.Unmarshal([]byte(`{"affection":[{"name":"艾伦","type":"relative","value":"+5"}]}`), &second))

	l := ledger.New(ledger.Turn{Delta: &first}, ledger.Turn{Delta: &second})
	v, _ := Fold(l, Options{}).Affection.Get("艾伦")
	assert.Equal(t, 55, v)
}

func TestNPCMerge(t *testing.T) {
	sent := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	later := sent.Add(time.Hour)

	first, err := parser.Parse("<horae>\ntime:2024/1/1\nnpc:艾伦|金发=开朗@旧友~性别:男~年龄:20\n</horae>")
	require.NoError(t, err)
	second, err := parser.Parse("<horae>\ntime:2024/5/1\nnpc:艾伦|=@挚友~性别:女~年龄:20~种族:人类\n</horae>")
	require.NoError(t, err)
	third, err := parser.Parse("<horae>\ntime:2025/5/1\nnpc:艾伦|~年龄:21\n</horae>")
	require.NoError(t, err)

	l := ledger.New(
		ledger.Turn{SentAt: sent, Delta: first},
		ledger.Turn{SentAt: later, Delta: second},
	)
	rec, ok := Fold(l, Options{}).NPCs.Get("艾伦")
	require.True(t, ok)
	assert.Equal(t, "金发", rec.Appearance)
	assert.Equal(t, "开朗", rec.Personality)
	assert.Equal(t, "挚友", rec.Relationship)
	assert.Equal(t, "男", rec.Gender)
	assert.Equal(t, "人类", rec.Race)
	assert.Equal(t, "2024/1/1", rec.AgeRefDate)
	assert.Equal(t, sent, rec.FirstSeen)
	assert.Equal(t, later, rec.LastSeen)
	assert.Equal(t, "001", rec.ID)

	l.Append(ledger.Turn{SentAt: later, Delta: third})
	rec, _ = Fold(l, Options{}).NPCs.Get("艾伦")
	assert.Equal(t, "21", rec.Age)
	assert.Equal(t, "2025/5/1", rec.AgeRefDate)
}

func TestNPCFirstAgeStampsReference(t *testing.T) {
	l := ledgerOf(t, "time:2024/1/1\nnpc:莉娜|黑发", "time:2024/2/1\nnpc:莉娜|~年龄:十七")
	rec, _ := Fold(l, Options{Now: fixedNow}).NPCs.Get("莉娜")
	assert.Equal(t, "十七", rec.Age)
	assert.Equal(t, "2024/2/1", rec.AgeRefDate)
	assert.Equal(t, fixedNow(), rec.FirstSeen)
}

func TestNPCSightingsWithoutSendTime(t *testing.T) {
	sent := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	first, err := parser.Parse("<horae>\nnpc:艾伦|金发\n</horae>")
	require.NoError(t, err)
	second, err := parser.Parse("<horae>\nnpc:莉娜|黑发\n</horae>")
	require.NoError(t, err)

	t.Run("unsent history folds identically", func(t *testing.T) {
		l := ledger.New(ledger.Turn{Delta: first}, ledger.Turn{Delta: second})
		a, err := json.Marshal(Fold(l, Options{}))
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
		b, err := json.Marshal(Fold(l, Options{}))
		require.NoError(t, err)
		assert.JSONEq(t, string(a), string(b))

		rec, _ := Fold(l, Options{}).NPCs.Get("艾伦")
		assert.True(t, rec.FirstSeen.IsZero())
	})

	t.Run("inherits the nearest earlier send time", func(t *testing.T) {
		l := ledger.New(
			ledger.Turn{IsUser: true, SentAt: sent},
			ledger.Turn{Delta: first},
			ledger.Turn{Delta: second},
		)
		st := Fold(l, Options{Now: fixedNow})
		alan, _ := st.NPCs.Get("艾伦")
		lina, _ := st.NPCs.Get("莉娜")
		assert.Equal(t, sent, alan.FirstSeen)
		assert.Equal(t, sent, lina.LastSeen)
	})
}

func TestCalcCurrentAge(t *testing.T) {
	rec := NpcRecord{Age: "20", AgeRefDate: "2024/1/1"}
	tests := []struct {
		name    string
		rec     NpcRecord
		current string
		want    string
	}{
		{name: "two years", rec: rec, current: "2026/1/2", want: "22"},
		{name: "birthday not reached", rec: rec, current: "2025/12/31", want: "21"},
		{name: "same year", rec: rec, current: "2024/12/31", want: "20"},
		{name: "earlier date", rec: rec, current: "2020/1/1", want: "20"},
		{name: "no year", rec: rec, current: "3/5", want: "20"},
		{name: "fantasy date", rec: rec, current: "霜月第三日", want: "20"},
		{name: "non numeric age", rec: NpcRecord{Age: "约二十", AgeRefDate: "2024/1/1"}, current: "2026/1/2", want: "约二十"},
		{name: "no reference", rec: NpcRecord{Age: "20"}, current: "2026/1/2", want: "20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalcCurrentAge(tt.rec, tt.current))
		})
	}
}

func TestAgenda(t *testing.T) {
	l := ledgerOf(t,
		"agenda:3/14|艾伦邀请U情人节晚上约会\nagenda:3/14|艾伦邀请U情人节晚上约会",
		"agenda:|归还斗篷\nagenda:4/1|艾伦邀请U情人节晚上约会",
	)
	st := Fold(l, Options{})
	require.Len(t, st.Agenda, 3)
	assert.Equal(t, AgendaItem{Date: "3/14", Text: "艾伦邀请U情人节晚上约会", Source: SourceAssistant, Turn: 0}, st.Agenda[0])

	// The stored deltas still hold the duplicate written in turn 0.
	removed := RemoveCompletedAgenda(l, []string{"情人节晚上约会"})
	assert.Equal(t, 3, removed)
	st = Fold(l, Options{})
	require.Len(t, st.Agenda, 1)
	assert.Equal(t, "归还斗篷", st.Agenda[0].Text)

	removed = RemoveCompletedAgenda(l, []string{"已经归还斗篷了"})
	assert.Equal(t, 1, removed)
	assert.Empty(t, Fold(l, Options{}).Agenda)

	assert.Equal(t, 0, RemoveCompletedAgenda(l, []string{"  "}))
}

func TestApplyAgendaCompletions(t *testing.T) {
	l := ledgerOf(t, "agenda:3/14|赴约", "agenda-:3/14|赴约")
	assert.Equal(t, 1, ApplyAgendaCompletions(l, 1))
	assert.Empty(t, Fold(l, Options{}).Agenda)
}

func TestEvents(t *testing.T) {
	l := ledgerOf(t,
		"time:2024/3/5 14:00\nevent:重要|重逢",
		"time:2024/3/6\nevent:一般|启程",
	)
	st := Fold(l, Options{})
	assert.Equal(t, []EventRecord{
		{Turn: 0, Date: "2024/3/5", Time: "14:00", Level: parser.LevelImportant, Summary: "重逢"},
		{Turn: 1, Date: "2024/3/6", Time: "14:00", Level: parser.LevelNormal, Summary: "启程"},
	}, st.Events)
}

func TestStampIDs(t *testing.T) {
	l := ledgerOf(t, "item:剑=U@\nnpc:艾伦|金发", "item:盾=U@", "item:剑(2)=U@")
	st := Fold(l, Options{})

	assert.Equal(t, 4, StampIDs(l, st))
	assert.Equal(t, "002", l.Delta(0).Items[0].ID)
	assert.Equal(t, "001", l.Delta(0).NPCs[0].ID)
	assert.Equal(t, "001", l.Delta(1).Items[0].ID)
	assert.Equal(t, "002", l.Delta(2).Items[0].ID)

	partial := Fold(l, Options{SkipLast: 2})
	rec, _ := partial.Items.Get("剑")
	assert.Equal(t, "002", rec.ID)
	assert.Equal(t, 0, StampIDs(l, st))
}

func TestAssignIDsContinuesFromMax(t *testing.T) {
	l := ledger.New(ledger.Turn{Delta: &parser.Delta{Items: []parser.ItemUpdate{
		{Name: "甲"},
		{Name: "乙", ID: "007"},
		{Name: "丙"},
	}}})
	st := Fold(l, Options{})
	ids := map[string]string{}
	for k, rec := range st.Items.All() {
		ids[k] = rec.ID
	}
	assert.Equal(t, map[string]string{"甲": "008", "乙": "007", "丙": "009"}, ids)
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "麦酒", BaseName("麦酒(50L)"))
	assert.Equal(t, "麦酒", BaseName("麦酒（2.5 升）"))
	assert.Equal(t, "长剑", BaseName("长剑(1把)"))
	assert.Equal(t, "面包", BaseName("面包(已消耗)"))
	assert.Equal(t, "信", BaseName("信"))
}

func TestOrderedJSON(t *testing.T) {
	m := NewOrdered[int]()
	m.Set("b", 1)
	m.Set("a", 2)
	m.Set("b", 3)
	m.Delete("missing")
	payload, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"b":3,"a":2}`, string(payload))
}
