// Package cache holds the in-process caches used by the HTTP layer to avoid
// re-listing expenses on every page view.
package cache

import (
	"sync"
	"time"
)

// Cache is the lookup surface the HTTP layer relies on.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	// Purge drops every entry, used after a write invalidates the list.
	Purge()
	Size() int
}

// Expirer is a cache that can drop its expired entries on demand.
type Expirer interface {
	CleanExpired() int
}

// Manager sweeps the registered caches on a ticker.
type Manager struct {
	mu      sync.Mutex
	caches  []Expirer
	onClean func(removed int)

	running bool
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
}

func NewManager() *Manager {
	return &Manager{stop: make(chan struct{}), done: make(chan struct{})}
}

// OnClean sets a callback run after each sweep that removed entries.
func (m *Manager) OnClean(fn func(removed int)) {
	m.mu.Lock()
	m.onClean = fn
	m.mu.Unlock()
}

func (m *Manager) Register(c Expirer) {
	m.mu.Lock()
	m.caches = append(m.caches, c)
	m.mu.Unlock()
}

// StartCleanup sweeps every interval until Stop. Only the first call starts
// the loop.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return
	}
	m.running = true
	go m.loop(interval)
}

// Sweep runs one pass and returns the number of removed entries.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	caches, onClean := append([]Expirer(nil), m.caches...), m.onClean
	m.mu.Unlock()

	removed := 0
	for _, c := range caches {
		removed += c.CleanExpired()
	}
	if removed > 0 && onClean != nil {
		onClean(removed)
	}
	return removed
}

func (m *Manager) loop(interval time.Duration) {
	defer close(m.done)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-m.stop:
			return
		case <-t.C:
			m.Sweep()
		}
	}
}

// Stop ends the loop and waits for it. Repeated calls, and calls without a
// prior StartCleanup, are fine.
func (m *Manager) Stop() {
	m.once.Do(func() {
		m.mu.Lock()
		wasRunning := m.running
		m.running = true
		m.mu.Unlock()

		close(m.stop)
		if wasRunning {
			<-m.done
		}
	})
}
