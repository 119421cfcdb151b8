package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(maxSize int, ttl time.Duration) (*LRUCache[string], *time.Time) {
	c := NewLRUCache[string](maxSize, ttl)
	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return clock }
	return c, &clock
}

func TestLRUGetSet(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("a", "1")
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "1", got)

	c.Set("a", "2")
	got, _ = c.Get("a")
	assert.Equal(t, "2", got)
	assert.Equal(t, 1, c.Size())

	stats := c.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 2.0/3.0, stats.HitRatio(), 0.001)
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, _ := newTestCache(2, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Get("a")
	c.Set("c", "3")

	_, ok := c.Get("b")
	assert.False(t, ok, "b was least recently used")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRUExpiry(t *testing.T) {
	c, clock := newTestCache(10, time.Minute)
	c.Set("a", "1")
	*clock = clock.Add(30 * time.Second)
	c.Set("b", "2")

	*clock = clock.Add(45 * time.Second)
	_, ok := c.Get("a")
	assert.False(t, ok)

	assert.Equal(t, 0, c.CleanExpired())
	*clock = clock.Add(time.Minute)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Size())
}

func TestLRUPurgeAndDelete(t *testing.T) {
	c, _ := newTestCache(10, time.Minute)
	c.Set("a", "1")
	c.Set("b", "2")
	c.Delete("a")
	assert.Equal(t, 1, c.Size())
	c.Purge()
	assert.Equal(t, 0, c.Size())
	c.Set("c", "3")
	assert.Equal(t, 1, c.Size())
}

func TestManagerSweepAndStop(t *testing.T) {
	c, clock := newTestCache(10, time.Second)
	c.Set("a", "1")
	*clock = clock.Add(time.Minute)

	var cleaned int
	m := NewManager()
	m.Register(c)
	m.OnClean(func(n int) { cleaned += n })
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, cleaned)

	m.StartCleanup(time.Hour)
	m.StartCleanup(time.Hour)
	m.Stop()
	m.Stop()
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()
	m.Stop()
}

var _ Cache[int] = (*LRUCache[int])(nil)
