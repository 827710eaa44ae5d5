package storydate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  StoryDate
	}{
		{
			name:  "full numeric with clock",
			input: "2024/3/5 14:00",
			want:  StoryDate{Kind: KindStandard, Year: 2024, Month: 3, Day: 5},
		},
		{
			name:  "dashed full numeric",
			input: "1999-12-31",
			want:  StoryDate{Kind: KindStandard, Year: 1999, Month: 12, Day: 31},
		},
		{
			name:  "short numeric",
			input: "10/1",
			want:  StoryDate{Kind: KindStandard, Month: 10, Day: 1},
		},
		{
			name:  "calendar prefix kept verbatim",
			input: "帝国历1024年3月5日",
			want:  StoryDate{Kind: KindStandard, Year: 1024, Month: 3, Day: 5, CalendarPrefix: "帝国历"},
		},
		{
			name:  "bare month day",
			input: "3月15日 傍晚",
			want:  StoryDate{Kind: KindStandard, Month: 3, Day: 15},
		},
		{
			name:  "weekday hint stripped",
			input: "2024/3/6(三)",
			want:  StoryDate{Kind: KindStandard, Year: 2024, Month: 3, Day: 6, Weekday: "三"},
		},
		{
			name:  "ordinal chinese day",
			input: "第三日",
			want:  StoryDate{Kind: KindFantasy, Day: 3},
		},
		{
			name:  "named fantasy month",
			input: "霜降月第十二日",
			want:  StoryDate{Kind: KindFantasy, MonthID: "霜降", Day: 12},
		},
		{
			name:  "chinese numeral month",
			input: "星历三月初五",
			want:  StoryDate{Kind: KindFantasy, MonthID: "3", Day: 5},
		},
		{
			name:  "placeholder short circuits",
			input: "2024/xx/3",
			want:  StoryDate{Kind: KindFantasy},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			require.True(t, ok)
			tt.want.Raw = got.Raw
			assert.Equal(t, tt.want, got)
			assert.NotEmpty(t, got.Raw)
		})
	}
}

func TestParse_Unrecognised(t *testing.T) {
	for _, input := range []string{"", "   ", "黄昏时分", "a rainy evening"} {
		_, ok := Parse(input)
		assert.False(t, ok, "input %q", input)
	}
}

func TestSplitClock(t *testing.T) {
	date, clock := SplitClock("2024/3/5 14:00")
	assert.Equal(t, "2024/3/5", date)
	assert.Equal(t, "14:00", clock)

	date, clock = SplitClock("霜降月第三日 9：30")
	assert.Equal(t, "霜降月第三日", date)
	assert.Equal(t, "9:30", clock)

	date, clock = SplitClock("黄昏")
	assert.Equal(t, "黄昏", date)
	assert.Empty(t, clock)
}

func TestParseNumeral(t *testing.T) {
	cases := map[string]int{"三": 3, "十": 10, "十二": 12, "二十": 20, "二十三": 23, "廿三": 23, "三十一": 31, "15": 15}
	for input, want := range cases {
		got, ok := parseNumeral(input)
		require.True(t, ok, input)
		assert.Equal(t, want, got, input)
	}
	_, ok := parseNumeral("abc")
	assert.False(t, ok)
}

func TestCalculateRelativeTime(t *testing.T) {
	tests := []struct {
		name string
		from string
		to   string
		want int
		ok   bool
	}{
		{name: "identical date prefix", from: "2024/3/5 08:00", to: "2024/3/5 22:00", want: 0, ok: true},
		{name: "standard past", from: "2024/3/1", to: "2024/3/5", want: 4, ok: true},
		{name: "standard future", from: "2024/3/10", to: "2024/3/5", want: -5, ok: true},
		{name: "year borrowed", from: "3/1", to: "2023/3/5", want: 4, ok: true},
		{name: "year boundary", from: "2023/12/31", to: "2024/1/1", want: 1, ok: true},
		{name: "fantasy same month", from: "霜降月第三日", to: "霜降月第十日", want: 7, ok: true},
		{name: "fantasy no month", from: "第三日", to: "第五日", want: 2, ok: true},
		{name: "fantasy one side missing day", from: "霜降月", to: "霜降月第五日", want: Earlier, ok: true},
		{name: "fantasy different month later", from: "霜降月第九日", to: "雪落月第二日", want: After, ok: true},
		{name: "fantasy different month earlier", from: "霜降月第一日", to: "雪落月第二日", want: Before, ok: true},
		{name: "different month ordered by day", from: "星历五月初一", to: "星历三月初九", want: Before, ok: true},
		{name: "unparseable", from: "黄昏", to: "2024/3/5", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CalculateRelativeTime(tt.from, tt.to)
			require.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestFormatRelativeTime(t *testing.T) {
	at := func(y, m, d int) *time.Time {
		v := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
		return &v
	}

	tests := []struct {
		name string
		days int
		opts RelativeOptions
		want string
	}{
		{name: "earlier sentinel", days: Earlier, want: "较早"},
		{name: "after sentinel", days: After, want: "之后"},
		{name: "before sentinel", days: Before, want: "之前"},
		{name: "today", days: 0, want: "今天"},
		{name: "yesterday", days: 1, want: "昨天"},
		{name: "three days ago", days: 3, want: "大前天"},
		{name: "tomorrow", days: -1, want: "明天"},
		{name: "in three days", days: -3, want: "大后天"},
		{name: "last week weekday", days: 6, opts: RelativeOptions{From: at(2024, 3, 6), To: at(2024, 3, 12)}, want: "上周三"},
		{name: "next week weekday", days: -7, opts: RelativeOptions{From: at(2024, 3, 17), To: at(2024, 3, 10)}, want: "下周日"},
		{name: "week without instant", days: 5, want: "5天前"},
		{name: "last month", days: 25, opts: RelativeOptions{From: at(2024, 2, 20), To: at(2024, 3, 16)}, want: "上个月20号"},
		{name: "next month", days: -25, opts: RelativeOptions{From: at(2024, 4, 10), To: at(2024, 3, 16)}, want: "下个月10号"},
		{name: "last year", days: 320, opts: RelativeOptions{From: at(2023, 5, 1), To: at(2024, 3, 16)}, want: "去年5月1日"},
		{name: "weeks bucket", days: 16, want: "2周前"},
		{name: "months bucket future", days: -90, want: "3个月后"},
		{name: "years bucket", days: 800, want: "2年前"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatRelativeTime(tt.days, tt.opts))
		})
	}
}

func TestRelativeLabel(t *testing.T) {
	label, ok := RelativeLabel("2024/3/6", "2024/3/12")
	require.True(t, ok)
	assert.Equal(t, "上周三", label)

	label, ok = RelativeLabel("第三日", "第四日")
	require.True(t, ok)
	assert.Equal(t, "昨天", label)

	_, ok = RelativeLabel("", "2024/3/12")
	assert.False(t, ok)
}
