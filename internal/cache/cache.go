package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Default cache sizing.
const (
	DefaultSize = 512
	DefaultTTL  = 5 * time.Minute
)

// Cache is a bounded, TTL-expiring LRU keyed by request fingerprint. Entries
// are best-effort memoization: stale reads during concurrent recomputation
// are acceptable, so no coherence is enforced across writers beyond the LRU's
// own locking. Hit and miss counters are exposed for the stats surface.
type Cache[V any] struct {
	lru    *expirable.LRU[string, V]
	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a cache holding up to size entries, each expiring after ttl.
// Non-positive arguments fall back to the defaults.
func New[V any](size int, ttl time.Duration) *Cache[V] {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		lru: expirable.NewLRU[string, V](size, nil, ttl),
	}
}

// Get returns the cached value for key, counting the lookup as a hit or miss.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// Put stores a value under key.
func (c *Cache[V]) Put(key string, v V) {
	c.lru.Add(key, v)
}

// Len returns the number of live entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

// Purge drops every entry. Counters are preserved.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
}

// Counters returns the cumulative hit and miss counts.
func (c *Cache[V]) Counters() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
