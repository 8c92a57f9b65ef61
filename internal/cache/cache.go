// Package cache keeps rendered labyrinth snapshots close to the API so repeat
// reads skip the database.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/lawnchairsociety/epsilon/server/internal/config"
	"github.com/lawnchairsociety/epsilon/server/internal/logger"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache: miss")

// Cache stores opaque snapshots keyed by labyrinth ID.
type Cache interface {
	Get(ctx context.Context, id string) ([]byte, error)
	Set(ctx context.Context, id string, snapshot []byte) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// New returns a Redis-backed cache when an address is configured and an
// in-process LRU otherwise.
func New(ctx context.Context, cfg config.CacheConfig) (Cache, error) {
	if cfg.RedisAddr == "" {
		logger.Info("Using in-memory labyrinth cache", "size", cfg.Size, "ttl", cfg.TTL)
		return NewMemoryCache(cfg.Size, cfg.TTL), nil
	}

	c, err := NewRedisCache(ctx, RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TTL:      cfg.TTL,
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Using Redis labyrinth cache", "addr", cfg.RedisAddr, "ttl", cfg.TTL)
	return c, nil
}

// normalizeTTL maps non-positive durations to "no expiry".
func normalizeTTL(ttl time.Duration) time.Duration {
	if ttl < 0 {
		return 0
	}
	return ttl
}
