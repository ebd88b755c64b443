// If you are AI: This file manages one RTMP client connection.
// A Session is created per connection attempt and never reused; its reader belongs to the receive loop
// and its writer is shared under writeMu with callers issuing commands.

package rtmp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"roomlink/internal/core/protocol/amf0"
)

// DefaultFlashVersion is announced in the connect command.
const DefaultFlashVersion = "WIN 22.0.0.209"

// Dialer opens the transport for a session, optionally through a proxy.
type Dialer interface {
	Dial(ctx context.Context, addr, proxy string) (net.Conn, error)
}

// SessionConfig holds the protocol settings shared by every session of a slot.
type SessionConfig struct {
	// ChunkSize is the outbound chunk size negotiated right after the handshake.
	ChunkSize    uint32
	FlashVersion string
	Expect       Expectations
	Routes       RoutePolicy
	// OnControl, when set, is called for every message the control handler consumes.
	OnControl func(MessageType)
}

// DefaultSessionConfig returns the settings the target server expects.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		ChunkSize:    DefaultChunkSize,
		FlashVersion: DefaultFlashVersion,
		Expect:       DefaultExpectations(),
		Routes:       DefaultRoutePolicy(),
	}
}

// Session is one end-to-end connection: socket, handshake, reader, writer and control state.
type Session struct {
	id     string
	desc   Descriptor
	cfg    SessionConfig
	dialer Dialer
	log    *slog.Logger

	conn    net.Conn
	reader  *Reader
	control *ControlHandler

	writeMu sync.Mutex
	writer  *Writer

	mu            sync.Mutex
	streamID      uint32
	streamKnown   bool
	pending       string
	txn           uint32
	sharedObjects map[string]*SharedObjectState

	connected atomic.Bool
	closed    bool // guarded by mu
	closeOnce sync.Once
}

// SharedObjectState is the client-side view of a remote shared object in use.
type SharedObjectState struct {
	Name    string
	Version uint32
	Data    amf0.Object
}

// NewSession creates an unconnected session for desc.
func NewSession(desc Descriptor, cfg SessionConfig, dialer Dialer, log *slog.Logger) *Session {
	if log == nil {
		log = slog.Default()
	}
	id := uuid.NewString()
	return &Session{
		id:            id,
		desc:          desc,
		cfg:           cfg,
		dialer:        dialer,
		log:           log.With("session", id, "addr", desc.Address()),
		pending:       desc.PublishName,
		txn:           firstTransactionID,
		sharedObjects: make(map[string]*SharedObjectState),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Descriptor returns the descriptor the session was created with.
func (s *Session) Descriptor() Descriptor {
	return s.desc
}

// Connect dials, performs the handshake and sends the connect command.
// Cancelling ctx aborts a connect in progress by closing the socket.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	used := s.closed || s.conn != nil
	s.mu.Unlock()
	if used {
		return ErrSessionClosed
	}
	conn, err := s.dialer.Dial(ctx, s.desc.Address(), s.desc.Proxy)
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.desc.Address(), err)
	}

	// A Shutdown that ran during the dial owns the outcome.
	s.mu.Lock()
	if s.closed || s.conn != nil {
		s.mu.Unlock()
		conn.Close()
		return ErrSessionClosed
	}
	s.conn = conn
	s.mu.Unlock()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	if err := PerformClientHandshake(conn); err != nil {
		s.Shutdown()
		return err
	}

	s.reader = NewReader(conn)
	s.writer = NewWriter(conn, s.cfg.Routes)
	s.control = NewControlHandler(sessionHooks{s}, s.cfg.Expect, s.log)
	s.connected.Store(true)

	if size := s.cfg.ChunkSize; size != 0 && size != DefaultChunkSize {
		if err := s.negotiateChunkSize(size); err != nil {
			s.Shutdown()
			return err
		}
	}
	if err := s.Send(s.connectCommand()); err != nil {
		s.Shutdown()
		return fmt.Errorf("send connect: %w", err)
	}
	s.log.Info("session connected", "app", s.desc.App)
	return nil
}

// negotiateChunkSize announces size to the peer and switches the writer.
func (s *Session) negotiateChunkSize(size uint32) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.writer.Write(NewSetChunkSize(size)); err != nil {
		return err
	}
	if err := s.writer.Flush(); err != nil {
		return err
	}
	return s.writer.SetChunkSize(size)
}

// connectCommand builds the NetConnection connect call.
func (s *Session) connectCommand() *Message {
	obj := amf0.Object{
		"videoCodecs":    252,
		"audioCodecs":    3575,
		"flashVer":       s.cfg.FlashVersion,
		"app":            s.desc.App,
		"tcUrl":          s.desc.StreamURL,
		"videoFunction":  1,
		"capabilities":   239,
		"pageUrl":        s.desc.PageURL,
		"fpad":           false,
		"swfUrl":         s.desc.SWFURL,
		"objectEncoding": 0,
	}
	msg := NewCommand("connect", 1, obj)
	if params := s.desc.connectParams(); params != nil {
		msg.Values = append(msg.Values, params)
	}
	return msg
}

// Receive blocks until the next message that the control handler does not consume.
// Only the session's receive loop may call it.
func (s *Session) Receive() (*Message, error) {
	if s.reader == nil {
		return nil, ErrNotConnected
	}
	for {
		msg, err := s.reader.Next()
		if err != nil {
			return nil, err
		}
		handled, err := s.control.Handle(msg)
		if err != nil {
			return nil, err
		}
		if handled {
			if s.cfg.OnControl != nil {
				s.cfg.OnControl(msg.Type)
			}
			continue
		}
		if msg.Type == TypeSharedObject {
			s.applySharedObject(msg.SharedObject)
		}
		if st, ok := StatusOf(msg); ok {
			s.log.Debug("status received", "code", st.Code, "level", st.Level)
		}
		return msg, nil
	}
}

// Send writes msg and flushes it to the peer.
func (s *Session) Send(msg *Message) error {
	if !s.connected.Load() {
		return ErrNotConnected
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := s.writer.Write(msg); err != nil {
		return err
	}
	return s.writer.Flush()
}

// StreamID returns the bound stream id and whether one has been assigned.
func (s *Session) StreamID() (uint32, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamID, s.streamKnown
}

// IsConnected reports whether the socket is open and the handshake completed.
func (s *Session) IsConnected() bool {
	return s.connected.Load()
}

// Shutdown closes the socket and retires the session; a later Connect fails with ErrSessionClosed.
// It is safe to call repeatedly; close errors are logged, not returned.
func (s *Session) Shutdown() {
	s.closeOnce.Do(func() {
		s.connected.Store(false)
		s.mu.Lock()
		s.closed = true
		conn := s.conn
		s.mu.Unlock()
		if conn == nil {
			return
		}
		if err := conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			s.log.Warn("socket close failed", "error", err)
		}
		s.log.Info("session closed")
	})
}
