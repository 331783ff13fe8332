// Package server exposes the calculator over HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rsned/craftimizer-server/internal/craftimizer/engine"
	"github.com/rsned/craftimizer-server/internal/craftimizer/metrics"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Server hosts the HTTP API around a Calculator and the catalog search.
type Server struct {
	httpServer *http.Server
	calc       *engine.Calculator
	catalog    engine.Catalog
	logger     *slog.Logger
	validate   *validator.Validate
	ready      func() bool
}

// NewServer creates a Server listening on the given port. ready gates the
// edit endpoints until the initial catalog sync has completed.
func NewServer(port int, calc *engine.Calculator, catalog engine.Catalog, ready func() bool, logger *slog.Logger) *Server {
	if ready == nil {
		ready = func() bool { return true }
	}

	s := &Server{
		calc:     calc,
		catalog:  catalog,
		logger:   logger,
		validate: validator.New(),
		ready:    ready,
	}

	r := chi.NewRouter()
	r.Use(metricsMiddleware)
	r.Use(s.loggingMiddleware)

	r.Get("/healthz", s.handleHealthz())
	r.Get("/readyz", s.handleReadyz())
	r.Get("/version", s.handleVersion())
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/items", s.handleSearchItems())

		r.Group(func(r chi.Router) {
			r.Use(s.requireReady)
			r.Put("/tracked", s.handleSetTracked())
			r.Patch("/tracked/{name}/sell-price", s.handleSetSellPrice())
			r.Put("/overrides/{name}", s.handleSetOverride())
			r.Put("/ingredients/{name}/cost", s.handleSetIngredientCost())
			r.Post("/recompute", s.handleRecompute())
		})
	})

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler (used in tests).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until the context is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return ctx.Err()
	}
}

// requireReady rejects edits until the first catalog sync has finished, so
// no recompute can observe a half-imported catalog.
func (s *Server) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready() {
			respondError(w, http.StatusServiceUnavailable, "catalog sync in progress")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"duration", time.Since(start),
		)
	})
}

func metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(sw.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
