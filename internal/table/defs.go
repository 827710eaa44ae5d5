package table

import (
	"maps"
	"strings"

	"horae/internal/config"
)

// FromDefs builds global tables from their definitions. The defined cells
// become each table's baseline.
func FromDefs(defs []config.TableDef) []*Table {
	out := make([]*Table, 0, len(defs))
	for _, def := range defs {
		t := New(def.Name, def.Rows, def.Cols)
		maps.Copy(t.Data, def.Cells)
		for key := range def.Cells {
			if row, col, ok := ParseCellKey(key); ok {
				t.Rows = max(t.Rows, row+1)
				t.Cols = max(t.Cols, col+1)
			}
		}
		t.LockedRows = def.LockedRows
		t.LockedCols = def.LockedCols
		t.LockedCells = def.LockedCells
		t.SetBaseline()
		out = append(out, t)
	}
	return out
}

// LocalOnly drops the saved tables that shadow a global definition, so a
// chat always picks up the current global layout.
func LocalOnly(saved, global []*Table) []*Table {
	names := make(map[string]bool, len(global))
	for _, t := range global {
		names[strings.TrimSpace(t.Name)] = true
	}
	out := make([]*Table, 0, len(saved))
	for _, t := range saved {
		if !names[strings.TrimSpace(t.Name)] {
			out = append(out, t)
		}
	}
	return out
}
