// If you are AI: This file auto-answers protocol control messages.
// Handled messages are consumed; everything else is surfaced to the caller unchanged.

package rtmp

import (
	"bytes"
	"encoding/binary"
	"log/slog"

	"roomlink/internal/core/protocol/amf0"
)

// ControlHooks is the session state the control handler reads and mutates.
type ControlHooks interface {
	// Send writes and flushes one message.
	Send(msg *Message) error
	// SetReadChunkSize applies a peer chunk size to the inbound reader.
	SetReadChunkSize(size uint32) error
	// StreamKnown reports whether a stream id has already been bound.
	StreamKnown() bool
	// StreamCreated binds the stream id and publishes the pending stream name.
	StreamCreated(id uint32) error
}

// Expectations are the control values the server is expected to announce.
// A zero field disables that check.
type Expectations struct {
	WindowAckSize      uint32
	PeerBandwidth      uint32
	PeerBandwidthLimit byte
}

// DefaultExpectations returns the values the target server announces after connect.
func DefaultExpectations() Expectations {
	return Expectations{
		WindowAckSize:      DefaultWindowAckSize,
		PeerBandwidth:      DefaultPeerBandwidth,
		PeerBandwidthLimit: DefaultPeerBandwidthLimit,
	}
}

// ControlHandler intercepts control messages for one session.
type ControlHandler struct {
	hooks  ControlHooks
	expect Expectations
	log    *slog.Logger
}

// NewControlHandler creates a handler bound to hooks.
func NewControlHandler(hooks ControlHooks, expect Expectations, log *slog.Logger) *ControlHandler {
	if log == nil {
		log = slog.Default()
	}
	return &ControlHandler{hooks: hooks, expect: expect, log: log}
}

// Handle reacts to msg and reports whether it was consumed.
// Returned errors are hard failures for the session.
func (c *ControlHandler) Handle(msg *Message) (bool, error) {
	switch msg.Type {
	case TypeUserControl:
		return c.handleUserControl(msg)
	case TypeWindowAckSize:
		if c.expect.WindowAckSize != 0 && msg.WindowAckSize != c.expect.WindowAckSize {
			return true, controlErrorf("window ack size %d, expected %d", msg.WindowAckSize, c.expect.WindowAckSize)
		}
		c.log.Debug("window ack size received", "size", msg.WindowAckSize)
		return true, c.hooks.Send(NewWindowAckSize(msg.WindowAckSize))
	case TypeSetPeerBandwidth:
		if c.expect.PeerBandwidth != 0 && msg.WindowAckSize != c.expect.PeerBandwidth {
			return true, controlErrorf("peer bandwidth %d, expected %d", msg.WindowAckSize, c.expect.PeerBandwidth)
		}
		if c.expect.PeerBandwidthLimit != 0 && msg.LimitType != c.expect.PeerBandwidthLimit {
			return true, controlErrorf("peer bandwidth limit type %d, expected %d", msg.LimitType, c.expect.PeerBandwidthLimit)
		}
		c.log.Debug("peer bandwidth received", "size", msg.WindowAckSize, "limit", msg.LimitType)
		return true, nil
	case TypeSetChunkSize:
		if err := c.hooks.SetReadChunkSize(msg.ChunkSize); err != nil {
			return true, err
		}
		c.log.Debug("peer chunk size applied", "size", msg.ChunkSize)
		return true, nil
	case TypeCommand:
		id, ok := createStreamResult(msg)
		if !ok || c.hooks.StreamKnown() {
			return false, nil
		}
		c.log.Info("create stream response received", "stream_id", id)
		return true, c.hooks.StreamCreated(id)
	case TypeAbort, TypeAck, TypeAudio, TypeVideo, TypeData, TypeAMF3Data,
		TypeAMF3Command, TypeSharedObject:
		return false, nil
	case TypeNone, TypeAMF3SharedObject, TypeAggregate:
		return false, framingErrorf("unsupported message type %d reached control handler", msg.Type)
	default:
		return false, framingErrorf("unknown message type %d reached control handler", msg.Type)
	}
}

// handleUserControl answers pings and validates stream-begin.
// Other user control events are surfaced.
func (c *ControlHandler) handleUserControl(msg *Message) (bool, error) {
	switch msg.Event {
	case ControlPingRequest:
		data := append([]byte(nil), msg.EventData...)
		return true, c.hooks.Send(NewUserControl(ControlPingResponse, data))
	case ControlPingResponse:
		if len(msg.EventData) == 4 {
			c.log.Debug("ping response from server", "time", binary.BigEndian.Uint32(msg.EventData))
		}
		return true, nil
	case ControlStreamBegin:
		if !bytes.Equal(msg.EventData, []byte{0, 0, 0, 0}) {
			return true, controlErrorf("stream begin payload %x, expected zero stream", msg.EventData)
		}
		return true, nil
	default:
		return false, nil
	}
}

// createStreamResult matches a ["_result", txn, null, <integer>] reply and returns the stream id.
func createStreamResult(msg *Message) (uint32, bool) {
	if len(msg.Values) != 4 || msg.CommandName() != "_result" {
		return 0, false
	}
	id, ok := amf0.Integer(msg.Values[3])
	if !ok || id < 0 || id > int64(^uint32(0)) {
		return 0, false
	}
	return uint32(id), true
}
