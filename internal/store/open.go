// Package store selects a core.Store backend from configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"dsr-ledger/internal/config"
	"dsr-ledger/internal/core"
	"dsr-ledger/internal/db"
	"dsr-ledger/internal/store/jsonfile"
	"dsr-ledger/internal/store/postgres"
	"dsr-ledger/internal/store/sqlite"
)

// Open returns the configured backend and a function that releases it.
func Open(ctx context.Context, cfg config.DataConfig) (core.Store, func(), error) {
	switch cfg.Driver {
	case "", "json":
		s, err := jsonfile.New(jsonfile.Paths{Entries: cfg.EntriesFile, Users: cfg.UsersFile, Notes: cfg.NotesFile})
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("using json store", "entries", cfg.EntriesFile)
		return s, func() {}, nil

	case "sqlite":
		s, err := sqlite.New(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("using sqlite store", "path", cfg.SQLitePath)
		return s, func() { _ = s.Close() }, nil

	case "postgres":
		pool, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Debug("using postgres store")
		return postgres.New(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q (want json, sqlite or postgres)", cfg.Driver)
}
