package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"manageexpense/internal/cache"
	"manageexpense/internal/core"
	"manageexpense/internal/log"
	"manageexpense/internal/middleware/ratelimit"
	"manageexpense/internal/middleware/security"
	"manageexpense/internal/middleware/trace"
	"manageexpense/internal/store"
	appweb "manageexpense/web"
)

const (
	fieldEndpoint = "/ui/expense-form/field"
	listCacheKey  = "expenses"
	storeTimeout  = 7 * time.Second
)

// ExpenseService is the store the handlers write through. Ping backs the
// readiness probe.
type ExpenseService interface {
	store.Store
	Ping(ctx context.Context) error
}

// Options tune the server. Zero values pick the defaults.
type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// CacheTTL of 0 disables the list cache.
	CacheTTL time.Duration
}

type Server struct {
	http.Server
	templates *template.Template
	svc       ExpenseService
	logger    *log.Logger

	listCache    *cache.LRUCache[[]core.Expense]
	cacheManager *cache.Manager
	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer parses the embedded templates, configures routes and the
// middleware chain, and returns a ready-to-run server.
func NewServer(addr string, svc ExpenseService, opts Options) (*Server, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates:    t,
		svc:          svc,
		logger:       logger,
		cacheManager: cache.NewManager(),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMinute,
		}),
		tracer:  trace.NewMiddleware(logger, clientIP),
		started: time.Now(),
	}

	if opts.CacheTTL > 0 {
		s.listCache = cache.NewLRUCache[[]core.Expense](16, opts.CacheTTL)
		s.cacheManager.Register(s.listCache)
		cacheLogger := logger.WithComponent(log.ComponentCache)
		s.cacheManager.OnClean(func(n int) {
			cacheLogger.Debug("Cache cleanup completed", "entries_removed", n)
		})
		s.cacheManager.StartCleanup(opts.CacheTTL)
	}

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.Static(3600)(static))

	page := func(h http.HandlerFunc) http.Handler { return security.NoStore(h) }

	mux.Handle("GET /{$}", page(s.handleList))
	mux.Handle("GET /expenses/new", page(s.handleNew))
	mux.Handle("GET /expenses/{id}/edit", page(s.handleEdit))
	mux.Handle("POST /expenses", page(s.handleCreate))
	mux.Handle("POST /expenses/{id}", page(s.handleUpdate))
	mux.Handle("POST /expenses/{id}/delete", page(s.handleDelete))
	mux.Handle("POST "+fieldEndpoint, page(s.handleFieldChange))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	limit := s.limiter.Middleware(clientIP, s.onRateLimited, http.MethodPost)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = security.Headers(security.DefaultPolicy())(handler)
	handler = s.tracer.Middleware(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, clientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	errorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.").Write(w)
}

// Shutdown stops background routines and drains the HTTP server. It runs
// once; later calls return nil.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// listExpenses serves the list from cache when possible. The returned slice
// is a copy.
func (s *Server) listExpenses(ctx context.Context) ([]core.Expense, error) {
	if s.listCache != nil {
		if items, ok := s.listCache.Get(listCacheKey); ok {
			return append([]core.Expense(nil), items...), nil
		}
	}

	cctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	items, err := s.svc.List(cctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	if s.listCache != nil {
		s.listCache.Set(listCacheKey, append([]core.Expense(nil), items...))
	}
	return items, nil
}

func (s *Server) invalidateList() {
	if s.listCache != nil {
		s.listCache.Purge()
	}
}
