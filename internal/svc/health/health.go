// If you are AI: This file implements the health check endpoint for monitoring.
// The check fails while the primary session is not connected.

package health

import (
	"net/http"
)

// Checker reports whether the primary session is up.
type Checker interface {
	IsConnected() bool
}

// Service provides health check functionality.
type Service struct {
	checker Checker
}

// New creates a new health service instance.
func New(checker Checker) *Service {
	return &Service{checker: checker}
}

// RegisterRoutes adds health check routes to the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", s.handleHealth)
}

// handleHealth responds 200 when the primary session is connected and 503 otherwise.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.checker != nil && !s.checker.IsConnected() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("primary session not connected\n"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}
