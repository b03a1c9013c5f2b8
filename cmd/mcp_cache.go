package cmd

import (
	"context"
	"sync"
	"time"

	"github.com/mj1618/uipilot/internal/engine"
	"github.com/mj1618/uipilot/internal/refs"
)

// snapCacheKey identifies a unique snapshot scope.
type snapCacheKey struct {
	InteractiveOnly bool
	IncludeHidden   bool
	MaxDepth        int
	Compact         bool
}

// snapCacheEntry holds a cached snapshot with its timestamp.
type snapCacheEntry struct {
	snap      *refs.Snapshot
	timestamp time.Time
}

// snapshotCache provides a TTL-based cache for surface snapshots, so a burst
// of MCP tool calls does not re-walk the element tree each time. Write
// actions invalidate it.
type snapshotCache struct {
	mu      sync.Mutex
	entries map[snapCacheKey]snapCacheEntry
	ttl     time.Duration
}

// newSnapshotCache creates a new cache. A ttl of 0 disables caching.
func newSnapshotCache(ttl time.Duration) *snapshotCache {
	return &snapshotCache{
		entries: make(map[snapCacheKey]snapCacheEntry),
		ttl:     ttl,
	}
}

// snapshot returns a cached snapshot if within TTL, otherwise captures fresh.
func (c *snapshotCache) snapshot(ctx context.Context, eng *engine.Engine, opts refs.Options) (*refs.Snapshot, error) {
	if c.ttl == 0 {
		return eng.Snapshot(ctx, opts)
	}

	key := snapCacheKey{
		InteractiveOnly: opts.InteractiveOnly,
		IncludeHidden:   opts.IncludeHidden,
		MaxDepth:        opts.MaxDepth,
		Compact:         opts.Compact,
	}

	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && time.Since(entry.timestamp) < c.ttl {
		snap := entry.snap
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()

	snap, err := eng.Snapshot(ctx, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = snapCacheEntry{snap: snap, timestamp: time.Now()}
	c.mu.Unlock()

	return snap, nil
}

// invalidateAll clears the entire cache.
func (c *snapshotCache) invalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[snapCacheKey]snapCacheEntry)
}
