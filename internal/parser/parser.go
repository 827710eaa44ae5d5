// Package parser turns the inline annotation carried by a narrative turn into
// a Delta.
//
// Strict mode reads the payload of a <horae> block (or the legacy
// <!--horae ... --> comment), any <horaeevent> blocks and any
// <horaetable:name> blocks. Loose mode scans unwrapped text for the same
// key:value lines.
package parser

import (
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

var ErrNoAnnotation = errors.New("no annotation found")

var (
	blockPattern   = regexp.MustCompile(`(?s)<horae>(.*?)</horae>`)
	commentPattern = regexp.MustCompile(`(?s)<!--\s*horae(.*?)-->`)
	eventPattern   = regexp.MustCompile(`(?s)<horaeevent>(.*?)</horaeevent>`)
	tablePattern   = regexp.MustCompile(`(?s)<horaetable\s*[:：]\s*([^>]+?)\s*>(.*?)</horaetable>`)
)

// Parse reads the tagged annotation from text. It returns ErrNoAnnotation
// when the text holds no annotation block, event block or table block.
func Parse(text string) (*Delta, error) {
	payloads := submatches(blockPattern, text)
	if len(payloads) == 0 {
		payloads = submatches(commentPattern, text)
	}
	events := submatches(eventPattern, text)
	tables := tablePattern.FindAllStringSubmatch(text, -1)

	if len(payloads) == 0 && len(events) == 0 && len(tables) == 0 {
		return nil, ErrNoAnnotation
	}

	delta := &Delta{}
	for _, payload := range append(payloads, events...) {
		for _, line := range strings.Split(payload, "\n") {
			parseLine(delta, line)
		}
	}
	for _, match := range tables {
		parseTableBlock(delta, match[1], match[2])
	}
	return delta, nil
}

// ParseLoose scans text without tag wrappers for annotation lines. It
// returns ErrNoAnnotation when no line matched.
func ParseLoose(text string) (*Delta, error) {
	delta := &Delta{}
	matched := false
	for _, line := range strings.Split(text, "\n") {
		if parseLine(delta, line) {
			matched = true
		}
	}
	if !matched {
		return nil, ErrNoAnnotation
	}
	return delta, nil
}

// ParseText tries strict mode first and falls back to loose mode when
// allowed and no tag wrapper is present.
func ParseText(text string, loose bool) (*Delta, error) {
	delta, err := Parse(text)
	if errors.Is(err, ErrNoAnnotation) && loose {
		return ParseLoose(text)
	}
	return delta, err
}

func submatches(pattern *regexp.Regexp, text string) []string {
	var out []string
	for _, m := range pattern.FindAllStringSubmatch(text, -1) {
		out = append(out, m[1])
	}
	return out
}

// splitKey separates "key:value" at the first ASCII or fullwidth colon and
// folds the key to its narrow lower-case form.
func splitKey(line string) (key, value string, ok bool) {
	idx := strings.IndexAny(line, ":：")
	if idx <= 0 {
		return "", "", false
	}
	key = strings.ToLower(strings.TrimSpace(width.Fold.String(line[:idx])))
	_, size := utf8.DecodeRuneInString(line[idx:])
	return key, strings.TrimSpace(line[idx+size:]), true
}

func trimBullet(line string) string {
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"- ", "* ", "• "} {
		line = strings.TrimPrefix(line, prefix)
	}
	return strings.TrimSpace(line)
}
