package kvstore

import (
	"context"
	"fmt"

	"lead_quality_backend/platform/config"
	"lead_quality_backend/platform/db"
)

// Pinger reports store readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Backend is an opened store with its readiness check and cleanup.
// Health is nil for the in-memory store.
type Backend struct {
	Store  Store
	Health Pinger
	Close  func()
}

// Open builds the store selected by STORE_BACKEND. The postgres backend
// applies pending migrations before connecting.
func Open(ctx context.Context, cfg config.StoreConfig) (*Backend, error) {
	switch cfg.GetStoreBackend() {
	case config.StoreBackendMemory, "":
		return &Backend{Store: NewMemory(), Close: func() {}}, nil

	case config.StoreBackendRedis:
		r, err := DialRedis(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure(), cfg.GetStoreKeyPrefix())
		if err != nil {
			return nil, err
		}
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, err
		}
		return &Backend{Store: r, Health: r, Close: func() { _ = r.Close() }}, nil

	case config.StoreBackendPostgres:
		if err := db.RunMigrations(ctx, cfg); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		pool, err := db.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return &Backend{Store: NewPostgres(pool), Health: db.NewPoolAdapter(pool), Close: pool.Close}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.GetStoreBackend())
	}
}
