// If you are AI: This file implements HTTP API handlers.
// Handlers never touch a session's reader; commands go through the session writer lock.

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"roomlink/internal/core/protocol/amf0"
	"roomlink/internal/core/protocol/rtmp"
	"roomlink/internal/svc/lifecycle"
)

// ServerResponse represents the /api/server response.
type ServerResponse struct {
	Version       string `json:"version"`
	Uptime        int64  `json:"uptime"`         // seconds since the process started
	SessionUptime int64  `json:"session_uptime"` // seconds reported by the manager
	GoVersion     string `json:"go_version"`
}

// SessionInfo describes one slot.
type SessionInfo struct {
	Slot      string  `json:"slot"`
	State     string  `json:"state"`
	SessionID string  `json:"session_id,omitempty"`
	Address   string  `json:"address,omitempty"`
	App       string  `json:"app,omitempty"`
	StreamID  *uint32 `json:"stream_id,omitempty"`
}

// SessionsResponse represents the /api/sessions response.
type SessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}

// CallRequest is the body of POST /api/call.
type CallRequest struct {
	Slot   string        `json:"slot"`
	Name   string        `json:"name"`
	Params []interface{} `json:"params"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// handleServer handles GET /api/server.
func (s *Service) handleServer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	response := ServerResponse{
		Version:       s.version,
		Uptime:        int64(time.Since(s.startTime).Seconds()),
		SessionUptime: int64(s.manager.Uptime().Seconds()),
		GoVersion:     runtime.Version(),
	}
	s.writeJSON(w, http.StatusOK, response)
}

// handleSessions handles GET /api/sessions.
func (s *Service) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	sessions := make([]SessionInfo, 0, len(lifecycle.Slots))
	for _, slot := range lifecycle.Slots {
		info := SessionInfo{
			Slot:  slot.String(),
			State: s.manager.State(slot).String(),
		}
		if sess := s.manager.Session(slot); sess != nil {
			desc := sess.Descriptor()
			info.SessionID = sess.ID()
			info.Address = desc.Address()
			info.App = desc.App
			if id, ok := sess.StreamID(); ok {
				info.StreamID = &id
			}
		}
		sessions = append(sessions, info)
	}
	s.writeJSON(w, http.StatusOK, SessionsResponse{Sessions: sessions})
}

// handleCall handles POST /api/call.
// The command is sent on the slot's current session; 409 means the slot has none.
func (s *Service) handleCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var req CallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		s.writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	slot, err := lifecycle.ParseSlot(req.Slot)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := make([]amf0.Value, len(req.Params))
	for i, p := range req.Params {
		params[i] = toValue(p)
	}
	if err := s.manager.Call(slot, req.Name, params...); err != nil {
		if errors.Is(err, rtmp.ErrNotConnected) {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

// handleRefresh handles POST /api/refresh.
func (s *Service) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if err := s.manager.Refresh(r.Context()); err != nil {
		s.writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

// toValue converts decoded JSON into the AMF0 shapes the encoder understands.
func toValue(v interface{}) amf0.Value {
	switch t := v.(type) {
	case map[string]interface{}:
		obj := make(amf0.Object, len(t))
		for k, e := range t {
			obj[k] = toValue(e)
		}
		return obj
	case []interface{}:
		arr := make(amf0.Array, len(t))
		for i, e := range t {
			arr[i] = toValue(e)
		}
		return arr
	default:
		return t
	}
}

// writeJSON writes a JSON response.
func (s *Service) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func (s *Service) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message})
}
