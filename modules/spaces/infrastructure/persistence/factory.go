package persistence

import (
	"context"
	"fmt"
	"strings"
)

type Config struct {
	Driver      string
	SQLitePath  string
	PostgresDSN string
}

// OpenStore selects the backend named by cfg.Driver (memory|sqlite|postgres).
func OpenStore(ctx context.Context, cfg Config) (*Store, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		p, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return Open(ctx, p)
	case "postgres":
		p, err := OpenPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return Open(ctx, p)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q (expected memory|sqlite|postgres)", cfg.Driver)
	}
}
