// Package api exposes the projection engine over HTTP: on-demand recompute,
// stored projection rows, and forecast summaries. Routing and middleware
// follow a fixed order so every response carries a request ID and every
// request is logged and bounded by a deadline.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aquaplan/internal/config"
)

// Server owns the router and global middleware chain.
type Server struct {
	router chi.Router
	cfg    config.ServerConfig
	logger *slog.Logger

	projections *ProjectionHandler
	health      *HealthHandler
}

// NewServer creates a Server and mounts all routes.
func NewServer(cfg config.ServerConfig, projections *ProjectionHandler, health *HealthHandler, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		router:      chi.NewRouter(),
		cfg:         cfg,
		logger:      logger,
		projections: projections,
		health:      health,
	}
	s.mountRoutes()
	return s
}

// Handler returns the fully-assembled HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// mountRoutes registers the global middleware chain and all endpoints.
// Middleware order matters: the recoverer is outermost so it catches panics
// from everything below; the request ID must be set before the logger reads
// it.
func (s *Server) mountRoutes() {
	s.router.Use(Recoverer(s.logger))
	s.router.Use(ContextTimeoutMiddleware(s.cfg.RequestTimeout))
	s.router.Use(RequestIDMiddleware)
	s.router.Use(RequestLogger(s.logger))

	s.router.Route("/v1", func(r chi.Router) {
		s.projections.RegisterRoutes(r)
	})

	s.router.Get("/health", s.health.HandleHealth)
}
