package server

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// queryCache memoises materialised query results between index rebuilds.
// Keys are xxhash digests of the query text; the watcher flushes the whole
// cache whenever a posting list file changes, so entries never go stale.
type queryCache struct {
	mu      sync.RWMutex
	entries map[uint64][]uint64
	max     int
}

func newQueryCache(max int) *queryCache {
	return &queryCache{entries: make(map[uint64][]uint64), max: max}
}

func (c *queryCache) get(query string) ([]uint64, bool) {
	key := xxhash.Sum64String(query)
	c.mu.RLock()
	defer c.mu.RUnlock()
	ids, ok := c.entries[key]
	return ids, ok
}

func (c *queryCache) put(query string, ids []uint64) {
	key := xxhash.Sum64String(query)
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= c.max {
		// Full flush beats tracking recency for a cache this small.
		c.entries = make(map[uint64][]uint64)
	}
	c.entries[key] = ids
}

func (c *queryCache) flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[uint64][]uint64)
}

func (c *queryCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
