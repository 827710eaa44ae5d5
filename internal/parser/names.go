package parser

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// SingleCountWords are classifiers that carry no information when paired with
// a count of one, e.g. "(1个)" or "(把)".
const SingleCountWords = `个|件|把|只|条|张|本|枚|块|瓶|支|根|颗|套|份|双|顶|副|盒|杯|袋|片|封|串|粒|台|辆|头|匹|柄|面|盏|幅|罐|包`

var trivialQuantityPattern = regexp.MustCompile(`[(（]\s*(?:1\s*(?:` + SingleCountWords + `)?|(?:` + SingleCountWords + `))\s*[)）]`)

// StripTrivialQuantity removes "(1)", "(1个)" and bare "(个)" markers from an
// item name. Brackets with a real amount or unit, like "(5斤)", are kept.
func StripTrivialQuantity(name string) string {
	return strings.TrimSpace(trivialQuantityPattern.ReplaceAllString(name, ""))
}

// SplitIcon peels a single leading emoji grapheme cluster off s.
func SplitIcon(s string) (icon, rest string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	cluster, remainder, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	if !isEmoji(cluster) {
		return "", s
	}
	return cluster, strings.TrimSpace(remainder)
}

func isEmoji(cluster string) bool {
	r, _ := utf8.DecodeRuneInString(cluster)
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return true
	case r >= 0x2600 && r <= 0x27BF:
		return true
	case r >= 0x2300 && r <= 0x23FF:
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r >= 0x2190 && r <= 0x21FF:
		return true
	case r >= 0x25A0 && r <= 0x25FF:
		return true
	case r >= 0x2900 && r <= 0x297F:
		return true
	}
	switch r {
	case 0x00A9, 0x00AE, 0x203C, 0x2049, 0x2122, 0x2139, 0x24C2, 0x3030, 0x303D, 0x3297, 0x3299:
		return true
	}
	return false
}
