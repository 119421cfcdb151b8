// Package ratelimit throttles state-changing requests per client with one
// token bucket per IP. A bucket holds a minute's worth of requests and
// refills continuously.
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

type Config struct {
	RequestsPerMinute int
	// CleanupInterval is how often idle buckets are dropped.
	CleanupInterval time.Duration
}

func DefaultConfig() Config {
	return Config{RequestsPerMinute: 60, CleanupInterval: 5 * time.Minute}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter keeps a bucket per client IP.
type Limiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time

	limit rate.Limit
	burst int
	idle  time.Duration

	rejected atomic.Int64
	quit     chan struct{}
	stopOnce sync.Once
}

// NewLimiter starts a limiter and its sweeper. Call Stop to end it.
func NewLimiter(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = def.RequestsPerMinute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = def.CleanupInterval
	}
	l := &Limiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
		limit:   rate.Limit(float64(cfg.RequestsPerMinute) / time.Minute.Seconds()),
		burst:   cfg.RequestsPerMinute,
		idle:    2 * cfg.CleanupInterval,
		quit:    make(chan struct{}),
	}
	go l.sweepEvery(cfg.CleanupInterval)
	return l
}

func (l *Limiter) bucketFor(ip string, now time.Time) *bucket {
	b, ok := l.buckets[ip]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	return b
}

// Allow takes one token from ip's bucket, reporting false when it is empty.
func (l *Limiter) Allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if l.bucketFor(ip, now).limiter.AllowN(now, 1) {
		return true
	}
	l.rejected.Add(1)
	return false
}

// RetryAfter is the whole number of seconds until ip has a token again.
func (l *Limiter) RetryAfter(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.buckets[ip]
	if !ok {
		return 0
	}
	missing := 1 - b.limiter.TokensAt(l.now())
	if missing <= 0 {
		return 0
	}
	// the epsilon absorbs float error in the refill rate
	return int(math.Ceil(missing/float64(l.limit) - 1e-9))
}

func (l *Limiter) sweepEvery(interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-l.quit:
			return
		case <-t.C:
			l.sweep()
		}
	}
}

// sweep forgets clients idle for longer than twice the cleanup interval.
// Their buckets would be full again by then.
func (l *Limiter) sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := l.now().Add(-l.idle)
	for ip, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}

func (l *Limiter) ActiveClients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Stop ends the sweeper. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.quit) })
}

// Stats counts rejected requests and tracked clients.
type Stats struct {
	Rejected int64
	Clients  int64
}

func (l *Limiter) Stats() Stats {
	return Stats{Rejected: l.rejected.Load(), Clients: int64(l.ActiveClients())}
}

// Middleware limits requests whose method is in methods (all methods when
// empty). onLimit renders the rejection; nil uses a plain 429.
func (l *Limiter) Middleware(clientIP func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request), methods ...string) func(http.Handler) http.Handler {
	guarded := func(string) bool { return true }
	if len(methods) > 0 {
		set := make(map[string]struct{}, len(methods))
		for _, m := range methods {
			set[m] = struct{}{}
		}
		guarded = func(m string) bool { _, ok := set[m]; return ok }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !guarded(r.Method) {
				next.ServeHTTP(w, r)
				return
			}
			ip := clientIP(r)
			if l.Allow(ip) {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("Retry-After", strconv.Itoa(l.RetryAfter(ip)))
			if onLimit == nil {
				http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
				return
			}
			onLimit(w, r)
		})
	}
}
