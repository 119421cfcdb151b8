package cache

import (
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCache is a size-bounded LRU whose entries also expire after ttl.
type LRUCache[T any] struct {
	entries *lru.Cache[string, entry[T]]
	ttl     time.Duration
	now     func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
}

type entry[T any] struct {
	value   T
	expires time.Time
}

// Stats is a snapshot of cache effectiveness.
type Stats struct {
	Hits   int64
	Misses int64
	Size   int
}

// HitRatio is hits over lookups, 0 with no lookups.
func (s Stats) HitRatio() float64 {
	if lookups := s.Hits + s.Misses; lookups > 0 {
		return float64(s.Hits) / float64(lookups)
	}
	return 0
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	// lru.New only fails for a non-positive size.
	entries, _ := lru.New[string, entry[T]](max(maxSize, 1))
	return &LRUCache[T]{entries: entries, ttl: ttl, now: time.Now}
}

func (c *LRUCache[T]) Get(key string) (T, bool) {
	e, ok := c.entries.Get(key)
	if ok && c.now().After(e.expires) {
		c.entries.Remove(key)
		ok = false
	}
	if !ok {
		c.misses.Add(1)
		var zero T
		return zero, false
	}
	c.hits.Add(1)
	return e.value, true
}

func (c *LRUCache[T]) Set(key string, value T) {
	c.entries.Add(key, entry[T]{value: value, expires: c.now().Add(c.ttl)})
}

func (c *LRUCache[T]) Delete(key string) {
	c.entries.Remove(key)
}

func (c *LRUCache[T]) Purge() {
	c.entries.Purge()
}

// CleanExpired drops every expired entry and returns how many went.
func (c *LRUCache[T]) CleanExpired() int {
	now := c.now()
	removed := 0
	for _, key := range c.entries.Keys() {
		if e, ok := c.entries.Peek(key); ok && now.After(e.expires) {
			if c.entries.Remove(key) {
				removed++
			}
		}
	}
	return removed
}

func (c *LRUCache[T]) Size() int {
	return c.entries.Len()
}

func (c *LRUCache[T]) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load(), Size: c.Size()}
}
