// Package api implements the HTTP API for the autofit service.
//
// The API exposes the solver over HTTP for clients that cannot run it in
// process. Requests describe the content profile, page geometry, and search
// ranges; the server runs the optimization against the reference text
// metrics estimator, persists the run, and returns the final parameters
// with the full step trace.
//
// Routes:
//
//	POST /v1/solve       run the optimizer for a content profile
//	GET  /v1/runs        list recent runs, newest first
//	GET  /v1/runs/{id}   fetch one run with its trace
//	GET  /healthz        liveness probe
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/typeset-tools/autofit/pkg/cache"
	"github.com/typeset-tools/autofit/pkg/history"
)

// Config holds the server's tunables.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// RequestTimeout bounds a single solve request end to end.
	RequestTimeout time.Duration
}

// DefaultConfig returns the standard server configuration.
func DefaultConfig() Config {
	return Config{
		Addr:           ":8080",
		RequestTimeout: 30 * time.Second,
	}
}

// Server wires the solver, run store, and result cache behind the router.
type Server struct {
	cfg    Config
	store  history.Store
	cache  cache.Cache
	keyer  cache.Keyer
	logger *log.Logger
	router chi.Router
}

// NewServer creates a server. A nil store falls back to an in-memory store,
// a nil cache disables caching, and a nil logger uses log.Default().
func NewServer(cfg Config, store history.Store, c cache.Cache, logger *log.Logger) *Server {
	if store == nil {
		store = history.NewMemoryStore()
	}
	if logger == nil {
		logger = log.Default()
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}

	s := &Server{
		cfg:    cfg,
		store:  store,
		cache:  cache.Instrument(c),
		keyer:  cache.NewDefaultKeyer(),
		logger: logger,
	}
	s.router = s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	r.Use(s.hooksMiddleware)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/solve", s.handleSolve)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})

	return r
}

// Serve runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.logger.Info("api stopped")
		return nil
	case err := <-errCh:
		return err
	}
}
