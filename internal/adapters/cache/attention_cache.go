package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hsdfat8/drivetrack/internal/domain/models"
	"github.com/redis/go-redis/v9"
)

const (
	// AttentionKey holds the serialized users-needing-attention list
	AttentionKey = "drivetrack:performance:attention"

	// DefaultTTL bounds staleness when a batch never runs
	DefaultTTL = 15 * time.Minute
)

// Config holds the Redis connection settings
type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
	TTL      time.Duration
}

// NewClient creates a Redis client from the config
func NewClient(cfg Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// AttentionCache implements ports.AttentionCache on Redis
type AttentionCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewAttentionCache creates the cache. A zero ttl uses DefaultTTL.
func NewAttentionCache(rdb *redis.Client, ttl time.Duration) *AttentionCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AttentionCache{rdb: rdb, ttl: ttl}
}

// Get returns the cached list and whether it was present
func (c *AttentionCache) Get(ctx context.Context) ([]*models.OperatorPerformance, bool, error) {
	raw, err := c.rdb.Get(ctx, AttentionKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read attention cache: %w", err)
	}

	var snapshots []*models.OperatorPerformance
	if err := json.Unmarshal(raw, &snapshots); err != nil {
		return nil, false, fmt.Errorf("failed to decode attention cache: %w", err)
	}
	return snapshots, true, nil
}

// Set stores the list with the configured TTL
func (c *AttentionCache) Set(ctx context.Context, snapshots []*models.OperatorPerformance) error {
	if snapshots == nil {
		snapshots = []*models.OperatorPerformance{}
	}
	raw, err := json.Marshal(snapshots)
	if err != nil {
		return fmt.Errorf("failed to encode attention cache: %w", err)
	}
	if err := c.rdb.Set(ctx, AttentionKey, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write attention cache: %w", err)
	}
	return nil
}

// Invalidate drops the cached list
func (c *AttentionCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, AttentionKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate attention cache: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (c *AttentionCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the underlying client
func (c *AttentionCache) Close() error {
	return c.rdb.Close()
}
