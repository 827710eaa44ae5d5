package parser

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

var (
	cellCoordPattern   = regexp.MustCompile(`^(\d+)\s*[,\-]\s*(\d+)$`)
	placeholderPattern = regexp.MustCompile(`^(?:[(（\[【]\s*空\s*[)）\]】]|[-—–─－]+)$`)
)

func parseTableBlock(delta *Delta, name, body string) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}
	update := delta.table(name)
	for _, line := range strings.Split(body, "\n") {
		for _, segment := range strings.Split(line, "|") {
			cell, ok := parseCell(segment)
			if !ok {
				continue
			}
			update.Cells = append(update.Cells, cell)
		}
	}
}

// parseCell reads "row,col:content". Placeholder contents such as "(空)" or
// "---" are dropped.
func parseCell(segment string) (CellWrite, bool) {
	idx := strings.IndexAny(segment, ":：")
	if idx <= 0 {
		return CellWrite{}, false
	}
	coord := strings.TrimSpace(width.Fold.String(segment[:idx]))
	m := cellCoordPattern.FindStringSubmatch(coord)
	if m == nil {
		return CellWrite{}, false
	}

	content := segment[idx:]
	content = strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(content, ":"), "："))
	if placeholderPattern.MatchString(content) {
		return CellWrite{}, false
	}

	row, _ := strconv.Atoi(m[1])
	col, _ := strconv.Atoi(m[2])
	return CellWrite{Row: row, Col: col, Text: content}, true
}
