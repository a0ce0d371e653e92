package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/breakup-etl/internal/pipeline"
)

// RunStatus exposes the batch runner to the HTTP layer.
type RunStatus interface {
	sharedobs.ReadinessChecker
	Latest() *pipeline.Report
}

// Server exposes health, readiness, metrics, and last-run HTTP endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /rollup routes.
func NewServer(addr string, runs RunStatus, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(runs))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /rollup", handleRollup(runs))

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// handleRollup returns the report of the last completed run, 404 before the
// first one finishes.
func handleRollup(runs RunStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rep := runs.Latest()
		if rep == nil {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"status": "no completed run"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, rep)
	}
}
