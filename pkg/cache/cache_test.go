package cache

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(defaultTTL time.Duration) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	c := New(defaultTTL)
	c.now = clock.Now
	return c, clock
}

func TestSetGet(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("spec:demo", "v1", time.Minute)
	v, ok := c.Get("spec:demo")
	require.True(t, ok)
	assert.Equal(t, "v1", v)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestTTLExpiry(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	c.Set("k", "v", 10*time.Second)

	_, ok := c.Get("k")
	require.True(t, ok, "entry should be live before its ttl elapses")

	clock.Advance(10 * time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok, "entry should expire once its ttl elapses")

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 0, stats.Size, "expired entry is removed on read")
}

func TestZeroTTLExpiresOnNextRead(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	// ttl=0 means expired immediately, not "never expires".
	c.Set("k", "v", 0)
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().Misses)
}

func TestNegativeTTLUsesDefault(t *testing.T) {
	c, clock := newTestCache(30 * time.Second)

	c.Set("k", "v", -1)
	_, ok := c.Get("k")
	require.True(t, ok)

	clock.Advance(29 * time.Second)
	_, ok = c.Get("k")
	require.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get("k")
	assert.False(t, ok)
}

func TestInvalidate(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("k", "v", time.Minute)
	c.Invalidate("k")
	_, ok := c.Get("k")
	assert.False(t, ok)
	assert.Equal(t, int64(1), c.Stats().Invalidations)

	// Absent key still counts exactly one invalidation.
	c.Invalidate("missing")
	assert.Equal(t, int64(2), c.Stats().Invalidations)
}

func TestInvalidatePattern(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("spec:alpha", 1, time.Minute)
	c.Set("spec:beta", 2, time.Minute)
	c.Set("fix:alpha", 3, time.Minute)

	removed := c.InvalidatePattern("spec:")
	assert.Equal(t, 2, removed)
	assert.Equal(t, int64(2), c.Stats().Invalidations)

	// Non-matching entries are unaffected.
	_, ok := c.Get("fix:alpha")
	assert.True(t, ok)

	// No matches increments nothing.
	removed = c.InvalidatePattern("recap:")
	assert.Equal(t, 0, removed)
	assert.Equal(t, int64(2), c.Stats().Invalidations)
}

func TestInvalidateAll(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Set("c", 3, time.Minute)

	c.InvalidateAll()
	stats := c.Stats()
	assert.Equal(t, int64(3), stats.Invalidations)
	assert.Equal(t, 0, stats.Size)
}

func TestCleanupExpired(t *testing.T) {
	c, clock := newTestCache(time.Minute)

	c.Set("live", 1, time.Hour)
	c.Set("dead1", 2, time.Second)
	c.Set("dead2", 3, time.Second)

	clock.Advance(2 * time.Second)
	removed := c.CleanupExpired()
	assert.Equal(t, 2, removed)

	stats := c.Stats()
	assert.Equal(t, 1, stats.Size)
	// Cleanup is not a read; no hits or misses recorded.
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
}

func TestStatsSnapshotIsImmutable(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("k", "v", time.Minute)
	c.Get("k")
	before := c.Stats()

	c.Get("k")
	c.Invalidate("k")

	assert.Equal(t, int64(1), before.Hits, "earlier snapshot must not change retroactively")
	assert.Equal(t, int64(0), before.Invalidations)

	after := c.Stats()
	assert.Equal(t, int64(2), after.Hits)
	assert.Equal(t, int64(1), after.Invalidations)
}

func TestResetStats(t *testing.T) {
	c, _ := newTestCache(time.Minute)

	c.Set("k", "v", time.Minute)
	c.Get("k")
	c.Get("missing")
	c.Invalidate("k")

	c.ResetStats()
	stats := c.Stats()
	assert.Equal(t, int64(0), stats.Hits)
	assert.Equal(t, int64(0), stats.Misses)
	assert.Equal(t, int64(0), stats.Invalidations)
}

func TestConcurrentAccess(t *testing.T) {
	c := New(time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Set("k", j, time.Minute)
				c.Get("k")
				c.Stats()
			}
		}()
	}
	wg.Wait()

	stats := c.Stats()
	assert.Equal(t, int64(1600), stats.Hits+stats.Misses)
}
