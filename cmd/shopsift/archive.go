package main

import (
	"context"
	"fmt"

	"github.com/FranksOps/shopsift/internal/config"
	"github.com/FranksOps/shopsift/internal/storage"
	"github.com/FranksOps/shopsift/internal/storage/jsonbackend"
	"github.com/FranksOps/shopsift/internal/storage/postgres"
	"github.com/FranksOps/shopsift/internal/storage/sqlite"
)

// openArchive returns the configured archive backend, or nil when archiving
// is off.
func openArchive(ctx context.Context, cfg config.ArchiveConfig) (storage.Backend, error) {
	var (
		b   storage.Backend
		err error
	)
	switch cfg.Driver {
	case config.ArchiveNone, "":
		return nil, nil
	case config.ArchiveJSON:
		b, err = jsonbackend.New(cfg.DSN)
	case config.ArchiveSQLite:
		b, err = sqlite.New(cfg.DSN)
	case config.ArchivePostgres:
		b, err = postgres.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown archive driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s archive: %w", cfg.Driver, err)
	}
	return b, nil
}
