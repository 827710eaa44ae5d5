package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var cellKeyPattern = regexp.MustCompile(`^\d+-\d+$`)

type TableFile struct {
	Version int        `yaml:"version"`
	Tables  []TableDef `yaml:"tables"`
}

// TableDef describes a global table. Cells are keyed "row-col"; row 0 and
// column 0 are headers.
type TableDef struct {
	Name        string            `yaml:"name"`
	Rows        int               `yaml:"rows"`
	Cols        int               `yaml:"cols"`
	Cells       map[string]string `yaml:"cells"`
	LockedRows  []int             `yaml:"locked_rows"`
	LockedCols  []int             `yaml:"locked_cols"`
	LockedCells []string          `yaml:"locked_cells"`
}

func LoadTableDefs(path string) ([]TableDef, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading table definitions: %w", err)
	}

	var file TableFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("loading table definitions: %w", err)
	}

	if err := validateTableFile(&file); err != nil {
		return nil, fmt.Errorf("loading table definitions: %w", err)
	}

	return file.Tables, nil
}

func validateTableFile(f *TableFile) error {
	if f.Version != 1 {
		return fmt.Errorf("unsupported version: %d", f.Version)
	}

	names := make(map[string]struct{})
	for i, def := range f.Tables {
		name := strings.TrimSpace(def.Name)
		if name == "" {
			return fmt.Errorf("table %d name is required", i)
		}
		if _, exists := names[name]; exists {
			return fmt.Errorf("duplicate table name: %s", name)
		}
		names[name] = struct{}{}

		if def.Rows < 0 || def.Cols < 0 {
			return fmt.Errorf("table %s has negative dimensions", name)
		}
		for key := range def.Cells {
			if !cellKeyPattern.MatchString(key) {
				return fmt.Errorf("table %s has malformed cell key: %q", name, key)
			}
		}
		for _, key := range def.LockedCells {
			if !cellKeyPattern.MatchString(key) {
				return fmt.Errorf("table %s has malformed locked cell: %q", name, key)
			}
		}
		for _, row := range def.LockedRows {
			if row < 0 {
				return fmt.Errorf("table %s has negative locked row", name)
			}
		}
		for _, col := range def.LockedCols {
			if col < 0 {
				return fmt.Errorf("table %s has negative locked column", name)
			}
		}
	}

	return nil
}
