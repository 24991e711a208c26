// Package admin serves the read-only operational API for a running daemon:
// health, the effective report catalog, and recent ledger runs.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"omnirelay/internal/config"
	"omnirelay/internal/ledger"
	"omnirelay/internal/report"
)

// Server is the admin HTTP server. Every endpoint is read-only; mutation
// happens through the CLI and the scheduler, never over HTTP.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// New builds the server over the open ledger and the effective catalog.
func New(cfg *config.Config, led *ledger.Ledger, catalog *report.Catalog, logger *slog.Logger) *Server {
	logger = logger.With("component", "admin")
	h := &handler{
		ledger:  led,
		catalog: catalog,
		logger:  logger,
		started: time.Now(),
	}

	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.health)
	r.Get("/v1/reports", h.reports)
	r.Get("/v1/runs", h.runs)
	r.Get("/v1/runs/{id}", h.run)

	return &Server{
		http: &http.Server{
			Addr:              cfg.AdminListenAddr,
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the routed handler, for tests.
func (s *Server) Handler() http.Handler { return s.http.Handler }

// Run serves until ctx is canceled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.logger.Info("shutting down admin server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.http.Shutdown(shutdownCtx)
	}()

	s.logger.Info("admin server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("admin server: %w", err)
	}
	return nil
}
