// Package cache provides a TTL key/value store used to avoid re-parsing
// unchanged files. Expiry is checked lazily at read time; no background
// sweeper is required for correctness.
package cache

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is used when Set is called with a negative ttl.
const DefaultTTL = 5 * time.Minute

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Stats holds cache counters. Hits, Misses and Invalidations accumulate
// monotonically until ResetStats; Size reflects the current entry count.
type Stats struct {
	Hits          int64
	Misses        int64
	Invalidations int64
	Size          int
}

// Cache is a mutex-guarded TTL store. Values are logically immutable once
// cached; callers must not mutate a value returned by Get in place.
type Cache struct {
	mu         sync.Mutex
	entries    map[string]entry
	defaultTTL time.Duration
	stats      Stats

	now func() time.Time
}

// New creates a cache with the given default TTL. A non-positive defaultTTL
// selects DefaultTTL.
func New(defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Cache{
		entries:    make(map[string]entry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// Get returns the cached value for key. An entry past its expiry is treated
// as absent and removed. Every call counts as exactly one hit or one miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	return e.value, true
}

// Set stores value under key with expiry now+ttl. A ttl of zero means the
// entry is expired on its very next read, not "never expires". A negative
// ttl selects the cache's default TTL.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl < 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
}

// Invalidate removes one entry and increments the invalidation counter by
// exactly one, whether or not the key was present.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
	c.stats.Invalidations++
}

// InvalidatePattern removes every key containing the substring and increments
// invalidations by the number removed.
func (c *Cache) InvalidatePattern(substring string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.entries {
		if strings.Contains(key, substring) {
			delete(c.entries, key)
			removed++
		}
	}
	c.stats.Invalidations += int64(removed)
	return removed
}

// InvalidateAll clears everything and increments invalidations by the prior size.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Invalidations += int64(len(c.entries))
	c.entries = make(map[string]entry)
}

// CleanupExpired reclaims memory held by expired entries. Optional; Get
// already treats expired entries as absent.
func (c *Cache) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	now := c.now()
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Stats returns a copy of the counters at call time. Later cache mutation
// never changes a previously returned snapshot.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats := c.stats
	stats.Size = len(c.entries)
	return stats
}

// ResetStats zeroes the accumulated counters.
func (c *Cache) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = Stats{}
}
