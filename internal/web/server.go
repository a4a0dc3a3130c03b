// Package web provides the HTTP server and handlers for the cohort matrix UI
// and JSON API.
package web

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/cohort/internal/config"
	"github.com/JonMunkholm/cohort/internal/core"
	mw "github.com/JonMunkholm/cohort/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Pinger is a dependency checked by the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the cohort application.
type Server struct {
	service  *core.Service
	cfg      *config.Config
	store    Pinger
	router   *chi.Mux
	server   *http.Server
	limiters []*rateLimiter
}

// NewServer creates a new Server instance. store may be nil.
func NewServer(service *core.Service, cfg *config.Config, store Pinger) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		store:   store,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))
	}

	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.newLimiter(s.cfg.Rate.RequestsPerMinute).middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	importLimit := s.routeLimit(s.cfg.Rate.ImportLimit)
	insightLimit := s.routeLimit(s.cfg.Rate.InsightLimit)

	s.router.Get("/health", s.handleHealth)

	s.router.Get(loginPath, s.handleLoginPage)
	s.router.Post(loginPath, s.handleLogin)

	// Pages
	s.router.Group(func(r chi.Router) {
		r.Use(mw.PageAuth(&s.cfg.Security, loginPath))

		r.Get("/", s.handleMatrixPage)
		r.With(importLimit).Post("/import", s.handleImportForm)
		r.Get("/export.xlsx", s.handleExport)
		r.With(insightLimit).Post("/insights", s.handleInsightsForm)
	})

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.With(importLimit).Post("/import", s.handleImport)
		r.Get("/import/last", s.handleLastImport)
		r.Post("/import/reload", s.handleReloadImport)
		r.Get("/imports/status", s.handleImportStatus)

		r.Get("/cohorts", s.handleCohorts)
		r.Get("/export.xlsx", s.handleExport)

		r.With(insightLimit).Post("/insights", s.handleInsights)
	})
}

// routeLimit returns a per-route limiter, or a no-op when limiting is off.
func (s *Server) routeLimit(perMinute int) func(http.Handler) http.Handler {
	if !s.cfg.Rate.Enabled || perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return s.newLimiter(perMinute).middleware
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and its background workers.
func (s *Server) Shutdown(ctx context.Context) error {
	for _, rl := range s.limiters {
		rl.stop()
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

// securityHeaders adds security headers to all responses.
func securityHeaders(csp bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Inline styles are used by the heatmap cells
			if csp {
				w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
			}

			next.ServeHTTP(w, r)
		})
	}
}
