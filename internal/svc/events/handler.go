// If you are AI: This file implements the websocket handler for the event stream.
// Handles GET /events[?slot=primary|secondary] and manages the subscriber lifecycle.

package events

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"roomlink/internal/core/bus"
)

// DefaultBufferSize is the per-client event buffer.
const DefaultBufferSize = 1024

// Handler handles event stream requests.
type Handler struct {
	hub      *bus.Hub
	capacity uint32
	drops    DropCounter
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewHandler creates an event stream handler over hub.
func NewHandler(hub *bus.Hub, capacity uint32, drops DropCounter, log *slog.Logger) *Handler {
	if capacity == 0 {
		capacity = DefaultBufferSize
	}
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		hub:      hub,
		capacity: capacity,
		drops:    drops,
		log:      log,
		upgrader: websocket.Upgrader{
			// The stream is read-only and carries no credentials.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and streams events until the client goes away.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	slot := r.URL.Query().Get("slot")
	switch slot {
	case "", "primary", "secondary":
	default:
		http.Error(w, "unknown slot", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade failed, response already sent
		return
	}
	defer conn.Close()

	sub := h.hub.Subscribe(h.capacity, bus.BackpressureDropOldest)
	defer h.hub.Unsubscribe(sub.ID())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Reading is required to observe the client's close frame.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.log.Debug("event stream attached", "subscriber", sub.ID(), "slot", slot)
	if err := NewSubscriber(conn, sub, slot, h.drops).Run(ctx); err != nil {
		h.log.Debug("event stream closed", "subscriber", sub.ID(), "error", err)
	}
}

// RegisterRoutes registers the event stream route on the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("/events", h)
}
