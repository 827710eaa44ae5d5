// Package storydate parses in-fiction date expressions and measures the
// distance between two of them.
//
// A story date is either a Standard calendar date (optional year, month, day)
// or a Fantasy date that keeps the original text and whatever month token and
// day number could be recognised in it.
package storydate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

type Kind int

const (
	KindStandard Kind = iota + 1
	KindFantasy
)

func (k Kind) String() string {
	switch k {
	case KindStandard:
		return "standard"
	case KindFantasy:
		return "fantasy"
	default:
		return "unknown"
	}
}

// StoryDate is immutable once produced by Parse.
//
// Year, Month and Day are meaningful for KindStandard only, except that a
// Fantasy date carries its recognised day number in Day (0 when unknown).
// Year 0 means no year was written.
type StoryDate struct {
	Kind           Kind
	Year           int
	Month          int
	Day            int
	CalendarPrefix string
	MonthID        string
	Raw            string
	Weekday        string
}

func (d StoryDate) IsStandard() bool { return d.Kind == KindStandard }

func (d StoryDate) HasYear() bool { return d.Kind == KindStandard && d.Year > 0 }

var (
	placeholderPattern = regexp.MustCompile(`(?i)xx|\?\?|？？`)
	weekdayPattern     = regexp.MustCompile(`[(（]\s*((?:星期|周|礼拜)?[一二三四五六日天七]|(?i:mon|tue|wed|thu|fri|sat|sun)[a-z]*\.?)\s*[)）]`)
	clockPattern       = regexp.MustCompile(`\s*(\d{1,2}[:：]\d{2})\s*$`)

	fullNumericPattern  = regexp.MustCompile(`(\d{4,})\s*[/\-.]\s*(\d{1,2})\s*[/\-.]\s*(\d{1,2})`)
	shortNumericPattern = regexp.MustCompile(`(?:^|[^\d])(\d{1,2})\s*[/\-.]\s*(\d{1,2})(?:$|[^\d])`)
	cjkFullPattern      = regexp.MustCompile(`^(.*?)(\d+)\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*[日号]`)
	cjkMonthDayPattern  = regexp.MustCompile(`(\d{1,2})\s*月\s*(\d{1,2})\s*[日号]`)
)

const cnDigits = `零〇一二三四五六七八九十廿卅两`

var cnDigitValues = map[rune]int{
	'一': 1, '二': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

var dayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`第\s*(\d+)\s*[日天]`),
	regexp.MustCompile(`第\s*([` + cnDigits + `]+)\s*[日天]`),
	regexp.MustCompile(`初\s*([` + cnDigits + `]+)`),
	regexp.MustCompile(`(\d+)\s*[日号]`),
	regexp.MustCompile(`([` + cnDigits + `]+)\s*[日号]`),
	regexp.MustCompile(`(?i)\bday\s*(\d+)`),
}

type recognizer func(text string) (StoryDate, bool)

// recognizers run in order; the first success wins.
var recognizers = []recognizer{
	parseFullNumeric,
	parseShortNumeric,
	parseCJKFull,
	parseCJKMonthDay,
	parseFantasy,
}

// Parse recognises a single date expression. A trailing HH:MM clock is
// ignored. It reports false when nothing date-like is present.
func Parse(text string) (StoryDate, bool) {
	raw := strings.TrimSpace(text)
	if raw == "" {
		return StoryDate{}, false
	}
	if placeholderPattern.MatchString(raw) {
		return StoryDate{Kind: KindFantasy, Raw: raw}, true
	}

	body, _ := SplitClock(raw)
	weekday := ""
	if m := weekdayPattern.FindStringSubmatch(body); m != nil {
		weekday = m[1]
		body = strings.TrimSpace(weekdayPattern.ReplaceAllString(body, " "))
	}

	for _, recognize := range recognizers {
		date, ok := recognize(body)
		if !ok {
			continue
		}
		date.Raw = raw
		date.Weekday = weekday
		return date, true
	}
	return StoryDate{}, false
}

// SplitClock separates a trailing HH:MM clock from the date text.
func SplitClock(text string) (date, clock string) {
	text = strings.TrimSpace(text)
	loc := clockPattern.FindStringSubmatchIndex(text)
	if loc == nil {
		return text, ""
	}
	clock = strings.Replace(text[loc[2]:loc[3]], "：", ":", 1)
	return strings.TrimSpace(text[:loc[0]]), clock
}

func parseFullNumeric(text string) (StoryDate, bool) {
	m := fullNumericPattern.FindStringSubmatch(text)
	if m == nil {
		return StoryDate{}, false
	}
	return standard(atoi(m[1]), atoi(m[2]), atoi(m[3]), "")
}

func parseShortNumeric(text string) (StoryDate, bool) {
	m := shortNumericPattern.FindStringSubmatch(text)
	if m == nil {
		return StoryDate{}, false
	}
	return standard(0, atoi(m[1]), atoi(m[2]), "")
}

func parseCJKFull(text string) (StoryDate, bool) {
	m := cjkFullPattern.FindStringSubmatch(text)
	if m == nil {
		return StoryDate{}, false
	}
	return standard(atoi(m[2]), atoi(m[3]), atoi(m[4]), strings.TrimSpace(m[1]))
}

func parseCJKMonthDay(text string) (StoryDate, bool) {
	m := cjkMonthDayPattern.FindStringSubmatch(text)
	if m == nil {
		return StoryDate{}, false
	}
	return standard(0, atoi(m[1]), atoi(m[2]), "")
}

func parseFantasy(text string) (StoryDate, bool) {
	monthID := findMonthID(text)
	day := findDay(text)
	if monthID == "" && day == 0 {
		return StoryDate{}, false
	}
	return StoryDate{Kind: KindFantasy, MonthID: monthID, Day: day}, true
}

func standard(year, month, day int, prefix string) (StoryDate, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return StoryDate{}, false
	}
	return StoryDate{
		Kind:           KindStandard,
		Year:           year,
		Month:          month,
		Day:            day,
		CalendarPrefix: prefix,
	}, true
}

// findMonthID returns the token in front of the first 月: a decimal string
// when it is numeric, otherwise up to four letters of the month name.
func findMonthID(text string) string {
	idx := strings.Index(text, "月")
	if idx <= 0 {
		return ""
	}
	before := []rune(text[:idx])

	end := len(before)
	start := end
	for start > 0 && (unicode.IsDigit(before[start-1]) || strings.ContainsRune(cnDigits, before[start-1])) {
		start--
	}
	if start < end {
		if n, ok := parseNumeral(string(before[start:end])); ok {
			return strconv.Itoa(n)
		}
	}

	start = end
	for start > 0 && end-start < 4 && unicode.IsLetter(before[start-1]) {
		start--
	}
	return string(before[start:end])
}

func findDay(text string) int {
	for _, pattern := range dayPatterns {
		m := pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if n, ok := parseNumeral(m[1]); ok && n > 0 {
			return n
		}
	}
	return 0
}

// parseNumeral accepts Arabic digits or a Chinese numeral below one hundred.
func parseNumeral(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}

	total := 0
	current := 0
	for _, r := range s {
		switch r {
		case '零', '〇':
			current = 0
		case '十':
			if current == 0 {
				current = 1
			}
			total += current * 10
			current = 0
		case '廿':
			total += 20
		case '卅':
			total += 30
		default:
			digit, ok := cnDigitValues[r]
			if !ok {
				return 0, false
			}
			current = digit
		}
	}
	return total + current, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
