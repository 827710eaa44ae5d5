package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Env holds the environment overrides for a project config.
type Env struct {
	DSN      string `env:"HORAE_DSN"`
	LogLevel string `env:"HORAE_LOG_LEVEL"`
	Tables   string `env:"HORAE_TABLES"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyEnv overrides file values with any HORAE_* variables that are set.
func (cfg *ProjectConfig) ApplyEnv() error {
	var e Env
	if err := ParseEnv(&e); err != nil {
		return err
	}
	if e.DSN != "" {
		cfg.Database.DSN = e.DSN
	}
	if e.LogLevel != "" {
		cfg.LogLevel = e.LogLevel
	}
	if e.Tables != "" {
		cfg.Tables = e.Tables
	}
	return nil
}
