package factory

import (
	"context"
	"fmt"

	"github.com/hsdfat8/drivetrack/internal/adapters/cache"
	"github.com/hsdfat8/drivetrack/internal/adapters/mongodb"
	"github.com/hsdfat8/drivetrack/internal/domain/ports"
)

// PerformanceStore is a connected snapshot repository with its shutdown hook
type PerformanceStore struct {
	Repository ports.PerformanceRepository
	Close      func(ctx context.Context) error
}

func noopClose(context.Context) error { return nil }

// CreatePerformanceStore returns the snapshot repository selected by storeType.
// The primary store reuses the engine database.
func CreatePerformanceStore(ctx context.Context, storeType ports.PerformanceStoreType, mongoCfg *ports.MongoDBConfig, db ports.DatabaseAdapter) (*PerformanceStore, error) {
	switch storeType {
	case "", ports.PerformanceStorePrimary:
		if db == nil {
			return nil, fmt.Errorf("primary performance store requires a database adapter")
		}
		return &PerformanceStore{Repository: db.GetPerformanceRepository(), Close: noopClose}, nil

	case ports.PerformanceStoreMongoDB:
		if err := ValidateMongoDBConfig(mongoCfg); err != nil {
			return nil, fmt.Errorf("invalid mongodb configuration: %w", err)
		}
		store := mongodb.NewPerformanceStore(mongoCfg)
		if err := store.Connect(ctx); err != nil {
			return nil, err
		}
		return &PerformanceStore{Repository: store.Repository(), Close: store.Disconnect}, nil

	default:
		return nil, fmt.Errorf("unsupported performance store: %s", storeType)
	}
}

// CreateAttentionCache connects the Redis attention cache. It returns nil when disabled.
func CreateAttentionCache(ctx context.Context, enabled bool, cfg cache.Config) (*cache.AttentionCache, error) {
	if !enabled {
		return nil, nil
	}
	if cfg.Host == "" {
		return nil, fmt.Errorf("redis host is required")
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("redis port must be between 1 and 65535")
	}

	c := cache.NewAttentionCache(cache.NewClient(cfg), cfg.TTL)
	if err := c.Ping(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return c, nil
}
