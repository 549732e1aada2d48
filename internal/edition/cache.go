package edition

import (
	"sync"
	"time"
)

// CacheKey identifies one rendered output of one snapshot.
type CacheKey struct {
	Generation uint64
	Kind       string // "text", "html", "compare", ...
	Witness    string // witness id, or "a/b" for comparisons
	Force      bool
	Variant    string // kind-specific qualifier, e.g. the anchor prefix
}

type cacheEntry[V any] struct {
	value     V
	updatedAt time.Time
}

// Cache is a thread-safe in-memory store of rendered outputs with TTL
// eviction.
type Cache[V any] struct {
	mu      sync.Mutex
	entries map[CacheKey]cacheEntry[V]
	ttl     time.Duration
}

func NewCache[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		entries: make(map[CacheKey]cacheEntry[V]),
		ttl:     ttl,
	}
}

func (c *Cache[V]) Put(key CacheKey, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry[V]{value: v, updatedAt: time.Now()}
}

// Get returns the cached value unless it is missing or expired.
func (c *Cache[V]) Get(key CacheKey) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || time.Since(e.updatedAt) > c.ttl {
		var zero V
		return zero, false
	}
	return e.value, true
}

// Cleanup removes expired entries and entries of generations older than
// keepFrom.
func (c *Cache[V]) Cleanup(keepFrom uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	for key, e := range c.entries {
		if key.Generation < keepFrom || now.Sub(e.updatedAt) > c.ttl {
			delete(c.entries, key)
		}
	}
}

func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
