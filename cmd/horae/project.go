package main

import (
	"context"
	"fmt"
	"strings"

	"horae/internal/config"
	"horae/internal/logging"
	"horae/internal/store"
	"horae/internal/store/postgres"
	"horae/internal/store/sqlite"
)

type project struct {
	cfg    *config.ProjectConfig
	tables []config.TableDef
}

// loadProject reads the config named by --config and its table definitions.
// A log level from the config or environment applies unless --log-level
// was given.
func loadProject() (*project, error) {
	cfg, err := config.LoadProjectConfig(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel == "" && cfg.LogLevel != "" {
		if err := logging.Init(cfg.LogLevel); err != nil {
			return nil, err
		}
	}

	p := &project{cfg: cfg}
	if path := cfg.TablesPath(); path != "" {
		defs, err := config.LoadTableDefs(path)
		if err != nil {
			return nil, err
		}
		p.tables = defs
	}
	return p, nil
}

func openStore(ctx context.Context, dsn string) (store.Store, error) {
	switch {
	case sqlite.IsDSN(dsn):
		client, err := sqlite.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	case postgres.IsDSN(dsn):
		client, err := postgres.New(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	scheme, _, _ := strings.Cut(dsn, "://")
	return nil, fmt.Errorf("unsupported database scheme %q: expected sqlite:// or postgres://", scheme)
}

// withStore loads the project, opens its store and runs fn.
func withStore(ctx context.Context, fn func(p *project, db store.Store) error) error {
	p, err := loadProject()
	if err != nil {
		return err
	}
	db, err := openStore(ctx, p.cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer db.Close(ctx)
	return fn(p, db)
}
