package server

import (
	"context"
	"sync"

	"github.com/lawnchairsociety/epsilon/server/internal/cache"
)

// snapshotGuard versions cached labyrinth snapshots so a reader that loaded
// the store before a tile change cannot write its stale copy back afterwards.
type snapshotGuard struct {
	mu       sync.Mutex
	cache    cache.Cache
	versions map[string]uint64
}

func newSnapshotGuard(c cache.Cache) *snapshotGuard {
	return &snapshotGuard{cache: c, versions: make(map[string]uint64)}
}

// version must be read before loading the labyrinth from the store.
func (g *snapshotGuard) version(id string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.versions[id]
}

// store caches data only if no invalidation happened since version was read.
func (g *snapshotGuard) store(ctx context.Context, id string, version uint64, data []byte) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.versions[id] != version {
		return false, nil
	}
	return true, g.cache.Set(ctx, id, data)
}

// invalidate bumps the version and drops the cached snapshot.
func (g *snapshotGuard) invalidate(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.versions[id]++
	return g.cache.Delete(ctx, id)
}
