package table

import (
	"io"
	"strings"

	"github.com/rivo/uniseg"
)

// Render writes the table as an aligned text grid. Column widths count
// terminal cells, so CJK text and emoji line up. Locked cells are marked
// with a trailing *.
func (t *Table) Render(w io.Writer) error {
	widths := make([]int, t.Cols)
	cells := make([][]string, t.Rows)
	for r := range t.Rows {
		cells[r] = make([]string, t.Cols)
		for c := range t.Cols {
			text := strings.ReplaceAll(t.Cell(r, c), "\n", " ")
			if text != "" && t.Locked(r, c) {
				text += "*"
			}
			cells[r][c] = text
			widths[c] = max(widths[c], uniseg.StringWidth(text))
		}
	}

	var b strings.Builder
	b.WriteString("## " + t.Name + "\n")
	for r, row := range cells {
		for c, text := range row {
			if c > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(text)
			if c < len(row)-1 {
				b.WriteString(strings.Repeat(" ", widths[c]-uniseg.StringWidth(text)))
			}
		}
		b.WriteByte('\n')
		if r == 0 {
			for c, width := range widths {
				if c > 0 {
					b.WriteString("-+-")
				}
				b.WriteString(strings.Repeat("-", width))
			}
			b.WriteByte('\n')
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
