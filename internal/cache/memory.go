package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is a size-bounded LRU with per-entry expiry.
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemoryCache holds up to size snapshots for ttl each. A zero ttl never expires.
func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](size, nil, normalizeTTL(ttl))}
}

func (c *MemoryCache) Get(_ context.Context, id string) ([]byte, error) {
	v, ok := c.lru.Get(id)
	if !ok {
		return nil, ErrMiss
	}
	return v, nil
}

func (c *MemoryCache) Set(_ context.Context, id string, snapshot []byte) error {
	c.lru.Add(id, snapshot)
	return nil
}

func (c *MemoryCache) Delete(_ context.Context, id string) error {
	c.lru.Remove(id)
	return nil
}

// Len returns the number of live entries.
func (c *MemoryCache) Len() int {
	return c.lru.Len()
}

func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}
