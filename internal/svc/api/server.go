// If you are AI: This file provides HTTP API service integration.
// The API exposes session state and forwards application commands to the lifecycle manager.

package api

import (
	"context"
	"net/http"
	"time"

	"roomlink/internal/core/protocol/amf0"
	"roomlink/internal/core/protocol/rtmp"
	"roomlink/internal/svc/lifecycle"
)

// SessionManager is the part of lifecycle.Manager the API uses.
type SessionManager interface {
	State(slot lifecycle.Slot) lifecycle.State
	Session(slot lifecycle.Slot) *rtmp.Session
	Uptime() time.Duration
	Call(slot lifecycle.Slot, name string, params ...amf0.Value) error
	Refresh(ctx context.Context) error
}

// Service provides HTTP API functionality.
type Service struct {
	manager   SessionManager
	version   string
	startTime time.Time
}

// NewService creates a new API service.
func NewService(manager SessionManager, version string) *Service {
	return &Service{
		manager:   manager,
		version:   version,
		startTime: time.Now(),
	}
}

// RegisterRoutes registers API routes on the provided mux.
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/server", s.handleServer)
	mux.HandleFunc("/api/sessions", s.handleSessions)
	mux.HandleFunc("/api/call", s.handleCall)
	mux.HandleFunc("/api/refresh", s.handleRefresh)
}
