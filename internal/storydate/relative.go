package storydate

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultYear fills in a missing year when neither side of a comparison
// supplies one. It is a leap year so that 2/29 stays representable.
const DefaultYear = 2024

// Sentinel day counts returned when a precise distance cannot be computed.
const (
	Earlier = -999 // indeterminate, older
	After   = -998 // from lies after to, distance unknown
	Before  = -997 // from lies before to, distance unknown
)

// IsSentinel reports whether days is one of the non-numeric markers.
func IsSentinel(days int) bool {
	return days == Earlier || days == After || days == Before
}

// CalculateRelativeTime returns to-from in days, so a positive result means
// from lies in the past of to. It reports false when either side does not
// parse or when neither side carries a day number.
func CalculateRelativeTime(fromText, toText string) (int, bool) {
	fromDate, _ := SplitClock(fromText)
	toDate, _ := SplitClock(toText)
	if fromDate != "" && fromDate == toDate {
		return 0, true
	}

	from, ok := Parse(fromText)
	if !ok {
		return 0, false
	}
	to, ok := Parse(toText)
	if !ok {
		return 0, false
	}

	if from.IsStandard() && to.IsStandard() {
		fromTime, toTime := Instants(from, to)
		return daysBetween(fromTime, toTime), true
	}
	return fantasyDistance(from, to)
}

// Instants builds calendar instants for two Standard dates. A missing year
// borrows the other side's year, else DefaultYear.
func Instants(from, to StoryDate) (time.Time, time.Time) {
	fromYear, toYear := from.Year, to.Year
	switch {
	case fromYear == 0 && toYear == 0:
		fromYear, toYear = DefaultYear, DefaultYear
	case fromYear == 0:
		fromYear = toYear
	case toYear == 0:
		toYear = fromYear
	}
	return instant(fromYear, from.Month, from.Day), instant(toYear, to.Month, to.Day)
}

func instant(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

func daysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

func fantasyDistance(from, to StoryDate) (int, bool) {
	fromMonth, fromDay := fantasyParts(from)
	toMonth, toDay := fantasyParts(to)

	switch {
	case fromDay == 0 && toDay == 0:
		return 0, false
	case fromDay == 0 || toDay == 0:
		return Earlier, true
	case fromMonth == toMonth:
		return toDay - fromDay, true
	}

	// Month tokens carry no order; only the day numbers decide.
	if fromDay > toDay {
		return After, true
	}
	return Before, true
}

func fantasyParts(d StoryDate) (monthID string, day int) {
	if d.IsStandard() {
		return strconv.Itoa(d.Month), d.Day
	}
	return d.MonthID, d.Day
}

// RelativeOptions carries the optional calendar instants behind a day count.
type RelativeOptions struct {
	From *time.Time
	To   *time.Time
}

var nearLabels = map[int]string{
	0:  "今天",
	1:  "昨天",
	2:  "前天",
	3:  "大前天",
	-1: "明天",
	-2: "后天",
	-3: "大后天",
}

var weekdayNames = [...]string{"日", "一", "二", "三", "四", "五", "六"}

// FormatRelativeTime renders a day count as a short human label.
func FormatRelativeTime(days int, opts RelativeOptions) string {
	switch days {
	case Earlier:
		return "较早"
	case After:
		return "之后"
	case Before:
		return "之前"
	}
	if label, ok := nearLabels[days]; ok {
		return label
	}

	abs := days
	direction := "前"
	if days < 0 {
		abs = -days
		direction = "后"
	}

	if abs >= 4 && abs <= 13 && opts.From != nil {
		prefix := "上周"
		if days < 0 {
			prefix = "下周"
		}
		return prefix + weekdayNames[opts.From.Weekday()]
	}

	if opts.From != nil && opts.To != nil {
		from, to := *opts.From, *opts.To
		if abs >= 20 && abs < 60 && monthIndex(from) != monthIndex(to) {
			gap := monthIndex(to) - monthIndex(from)
			if gap == 1 {
				return fmt.Sprintf("上个月%d号", from.Day())
			}
			if gap == -1 {
				return fmt.Sprintf("下个月%d号", from.Day())
			}
		}
		if abs >= 300 && abs < 730 {
			if to.Year()-from.Year() == 1 {
				return fmt.Sprintf("去年%d月%d日", int(from.Month()), from.Day())
			}
			if from.Year()-to.Year() == 1 {
				return fmt.Sprintf("明年%d月%d日", int(from.Month()), from.Day())
			}
		}
	}

	switch {
	case abs < 7:
		return fmt.Sprintf("%d天%s", abs, direction)
	case abs < 30:
		return fmt.Sprintf("%d周%s", abs/7, direction)
	case abs < 365:
		return fmt.Sprintf("%d个月%s", abs/30, direction)
	default:
		return fmt.Sprintf("%d年%s", abs/365, direction)
	}
}

func monthIndex(t time.Time) int {
	return t.Year()*12 + int(t.Month()) - 1
}

// RelativeLabel combines CalculateRelativeTime and FormatRelativeTime,
// attaching calendar instants when both dates are Standard.
func RelativeLabel(fromText, toText string) (string, bool) {
	days, ok := CalculateRelativeTime(fromText, toText)
	if !ok {
		return "", false
	}
	var opts RelativeOptions
	from, fromOK := Parse(fromText)
	to, toOK := Parse(toText)
	if fromOK && toOK && from.IsStandard() && to.IsStandard() {
		fromTime, toTime := Instants(from, to)
		opts = RelativeOptions{From: &fromTime, To: &toTime}
	}
	return FormatRelativeTime(days, opts), true
}
