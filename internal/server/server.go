// If you are AI: This file implements the HTTP server lifecycle and routing.

package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"roomlink/internal/core/bus"
	"roomlink/internal/svc/api"
	"roomlink/internal/svc/events"
	"roomlink/internal/svc/health"
)

// Deps are the services the HTTP surface exposes.
type Deps struct {
	Manager  api.SessionManager
	Checker  health.Checker
	Hub      *bus.Hub
	Drops    events.DropCounter
	Gatherer prometheus.Gatherer
	Version  string
	Logger   *slog.Logger
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// New creates a new server listening on port.
// The server is not started until Start is called.
func New(port int, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	mux := http.NewServeMux()

	health.New(deps.Checker).RegisterRoutes(mux)
	if deps.Manager != nil {
		api.NewService(deps.Manager, deps.Version).RegisterRoutes(mux)
	}
	if deps.Hub != nil {
		events.NewHandler(deps.Hub, events.DefaultBufferSize, deps.Drops, deps.Logger).RegisterRoutes(mux)
	}
	if deps.Gatherer != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		log:        deps.Logger,
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving HTTP requests.
// This method blocks until the server is stopped or encounters an error.
func (s *Server) Start() error {
	s.log.Info("http server listening", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server.
// Websocket event streams are hijacked connections and are closed by their handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
