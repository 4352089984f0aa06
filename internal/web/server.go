// Package web provides the HTTP API for imports and the retailer and
// customer portals.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/telepoint/emi-portal/internal/config"
	"github.com/telepoint/emi-portal/internal/core"
	"github.com/telepoint/emi-portal/internal/metrics"
	"github.com/telepoint/emi-portal/internal/web/middleware"
)

// Deps are the collaborators a Server needs. Metrics may be nil.
type Deps struct {
	Service *core.Service
	Tokens  middleware.TokenValidator
	Metrics *metrics.Metrics
	Health  []HealthCheck
}

// Server is the portal HTTP server.
type Server struct {
	cfg     *config.Config
	service *core.Service
	tokens  middleware.TokenValidator
	metrics *metrics.Metrics
	health  []HealthCheck
	limiter *rateLimiter
	router  *chi.Mux
	server  *http.Server
}

// NewServer builds the router.
func NewServer(cfg *config.Config, deps Deps) *Server {
	s := &Server{
		cfg:     cfg,
		service: deps.Service,
		tokens:  deps.Tokens,
		metrics: deps.Metrics,
		health:  deps.Health,
		router:  chi.NewRouter(),
	}
	if cfg.Rate.Enabled && cfg.Rate.RequestsPerMinute > 0 {
		s.limiter = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	if s.metrics != nil {
		s.router.Use(middleware.Metrics(s.metrics))
	}
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders)
	if s.limiter != nil {
		s.router.Use(s.rateLimit)
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(s.tokens))

		// Customer portal login; no account needed.
		r.Post("/portal/lookup", s.handleLookup)

		r.Route("/imports", func(r chi.Router) {
			r.Use(middleware.RequireRole(core.RoleAdmin))
			r.Post("/", s.handleImportJSON)
			r.Post("/file", s.handleImportFile)
			r.Get("/status", s.handleImportStatus)
			r.Get("/{importID}", s.handleGetImport)
		})

		r.Route("/customers", func(r chi.Router) {
			r.With(middleware.RequireRole(core.RoleRetailer)).Get("/search", s.handleSearch)
			r.With(middleware.RequireRole(core.RoleRetailer)).Get("/upcoming", s.handleUpcoming)
			r.With(middleware.RequireRole(core.RoleRetailer)).Get("/payment-requests", s.handlePaymentRequests)
			r.With(middleware.RequireRole(core.RoleAdmin, core.RoleRetailer)).
				Get("/{customerID}/due-breakdown", s.handleDueBreakdown)
		})

		r.With(middleware.RequireRole(core.RoleAdmin, core.RoleRetailer)).Get("/export", s.handleExport)
	})
}

// Start listens until Shutdown is called.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter is a fixed-window request counter per client IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
	now      func() time.Time
	done     chan struct{}
	once     sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup drops visitors idle for two windows.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, v := range rl.visitors {
				if rl.now().Sub(v.lastReset) > rl.window*2 {
					delete(rl.visitors, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}

// allow consumes a token for ip, refilling once the window has passed.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v, ok := rl.visitors[ip]
	if !ok || now.Sub(v.lastReset) > rl.window {
		rl.visitors[ip] = &visitor{tokens: rl.rate - 1, lastReset: now}
		return true
	}
	if v.tokens <= 0 {
		return false
	}
	v.tokens--
	return true
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.allow(clientHost(r.RemoteAddr)) {
			w.Header().Set("Retry-After", "60")
			s.respondError(w, r, errRateLimited)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientHost strips the port so one client's connections share a budget.
func clientHost(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
