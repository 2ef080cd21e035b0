// internal/httpserver/server.go
package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clsdenji/Spark/internal/config"
	"github.com/clsdenji/Spark/internal/httpserver/deps"
	"github.com/clsdenji/Spark/internal/httpserver/mw"
	"github.com/clsdenji/Spark/internal/httpserver/routes"
	"github.com/clsdenji/Spark/internal/logger"
)

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http    *http.Server
	logger  logger.Logger
	started time.Time
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.Config, loggerClient logger.Logger, d deps.Deps) *Server {
	r := chi.NewRouter()

	// --- Global middlewares (safe defaults)
	r.Use(middleware.GetHead)
	r.Use(middleware.RequestID)     // X-Request-ID on each request
	r.Use(middleware.Recoverer)     // never crash the process on panic
	r.Use(mw.Log(loggerClient))     // structured access logs
	r.Use(mw.CORS(cfg.CORSOrigins)) // the app frontend calls from another origin

	// The websocket stream is long-lived and cannot sit behind the
	// per-request timeout, so it lives outside the timed group.
	if d.Hub != nil {
		r.Get("/ws", d.Hub.ServeHTTP)
	}

	// Auto-register all API and ops routes
	r.Group(func(api chi.Router) {
		api.Use(middleware.Timeout(2 * time.Second)) // per-request timeout (adjust if needed)
		routes.RegisterAll(api, d)
	})

	s := &http.Server{
		Addr:              cfg.ListenPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return &Server{
		http:    s,
		logger:  loggerClient,
		started: d.StartTime,
	}
}

// Handler exposes the configured router, mainly for tests that drive
// the full middleware stack through httptest.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Infof("HTTP server listening on %s", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down...")
	return s.http.Shutdown(ctx)
}
