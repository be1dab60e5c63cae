package store

import (
	"context"
	"fmt"

	"github.com/nvandessel/polisim/internal/config"
)

// Open returns the Store selected by cfg.Backend.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case config.BackendSQLite, "":
		return NewSQLiteStore(ctx, cfg.Dir)
	case config.BackendPostgres:
		return NewPostgresStore(ctx, cfg.DSN)
	case config.BackendMemory:
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
