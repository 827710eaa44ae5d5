package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultMaxEvents = 30

type ProjectConfig struct {
	Project  string         `yaml:"project"`
	Version  int            `yaml:"version"`
	LogLevel string         `yaml:"log_level"`
	Database DatabaseConfig `yaml:"database"`
	Parser   ParserConfig   `yaml:"parser"`
	Summary  SummaryConfig  `yaml:"summary"`
	Tables   string         `yaml:"tables"`

	dir string
}

type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

type ParserConfig struct {
	// LooseFallback lets turns without annotation tags be scanned for bare
	// key:value lines.
	LooseFallback bool `yaml:"loose_fallback"`
}

type SummaryConfig struct {
	MaxEvents int `yaml:"max_events"`
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	cfg.dir = filepath.Dir(path)

	if err := cfg.ApplyEnv(); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}
	if cfg.Summary.MaxEvents == 0 {
		cfg.Summary.MaxEvents = DefaultMaxEvents
	}

	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if cfg.Summary.MaxEvents < 0 {
		return fmt.Errorf("summary max_events must not be negative")
	}
	return nil
}

// TablesPath resolves the global table definitions file relative to the
// config file. It is empty when no tables file is configured.
func (cfg *ProjectConfig) TablesPath() string {
	if cfg.Tables == "" || filepath.IsAbs(cfg.Tables) {
		return cfg.Tables
	}
	return filepath.Join(cfg.dir, cfg.Tables)
}
