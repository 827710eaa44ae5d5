// Package table applies the cell writes carried by deltas to named tables.
//
// Row 0 and column 0 hold headers. A header cell that already has text is
// never overwritten, and writes into locked rows, columns or cells are
// counted as blocked instead of applied.
package table

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"horae/internal/parser"
)

type Table struct {
	Name        string            `json:"name"`
	Rows        int               `json:"rows"`
	Cols        int               `json:"cols"`
	Data        map[string]string `json:"data"`
	LockedRows  []int             `json:"locked_rows,omitempty"`
	LockedCols  []int             `json:"locked_cols,omitempty"`
	LockedCells []string          `json:"locked_cells,omitempty"`
	BaseData    map[string]string `json:"base_data,omitempty"`
	BaseRows    int               `json:"base_rows,omitempty"`
	BaseCols    int               `json:"base_cols,omitempty"`
}

func New(name string, rows, cols int) *Table {
	return &Table{
		Name: strings.TrimSpace(name),
		Rows: rows,
		Cols: cols,
		Data: make(map[string]string),
	}
}

func (t *Table) Cell(row, col int) string {
	return t.Data[parser.CellKey(row, col)]
}

func (t *Table) Locked(row, col int) bool {
	return slices.Contains(t.LockedRows, row) ||
		slices.Contains(t.LockedCols, col) ||
		slices.Contains(t.LockedCells, parser.CellKey(row, col))
}

// SetBaseline snapshots the current cells and bounds. Rebuild restores this
// snapshot before replaying history.
func (t *Table) SetBaseline() {
	t.BaseData = maps.Clone(t.Data)
	if t.BaseData == nil {
		t.BaseData = make(map[string]string)
	}
	t.BaseRows = t.Rows
	t.BaseCols = t.Cols
}

func (t *Table) HasBaseline() bool {
	return t.BaseData != nil
}

// Reset restores the baseline, or without one drops every non-header cell.
func (t *Table) Reset() {
	if t.HasBaseline() {
		t.Data = maps.Clone(t.BaseData)
		t.Rows = t.BaseRows
		t.Cols = t.BaseCols
		return
	}
	if t.Data == nil {
		t.Data = make(map[string]string)
	}
	for key := range t.Data {
		row, col, ok := ParseCellKey(key)
		if ok && (row == 0 || col == 0) {
			continue
		}
		delete(t.Data, key)
	}
}

// write applies one cell write and reports how it was handled.
func (t *Table) write(cell parser.CellWrite) outcome {
	if t.Data == nil {
		t.Data = make(map[string]string)
	}
	key := cell.Key()
	if (cell.Row == 0 || cell.Col == 0) && strings.TrimSpace(t.Data[key]) != "" {
		return headerSkipped
	}
	if t.Locked(cell.Row, cell.Col) {
		return blocked
	}
	t.Data[key] = cell.Text
	if cell.Row+1 > t.Rows {
		t.Rows = cell.Row + 1
	}
	if cell.Col+1 > t.Cols {
		t.Cols = cell.Col + 1
	}
	return written
}

type outcome int

const (
	written outcome = iota
	blocked
	headerSkipped
)

// ParseCellKey splits an "r-c" key.
func ParseCellKey(key string) (row, col int, ok bool) {
	r, c, found := strings.Cut(key, "-")
	if !found {
		return 0, 0, false
	}
	row, errRow := strconv.Atoi(r)
	col, errCol := strconv.Atoi(c)
	if errRow != nil || errCol != nil || row < 0 || col < 0 {
		return 0, 0, false
	}
	return row, col, true
}
