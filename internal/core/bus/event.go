// If you are AI: This file defines Event, the unit flowing through the bus.
// Events carry surfaced protocol messages and session status changes to observers.

package bus

import (
	"time"

	"roomlink/internal/core/protocol/rtmp"
)

// Kind says what an Event carries.
type Kind uint8

const (
	// KindMessage carries a message surfaced by a session.
	KindMessage Kind = iota
	// KindStatus carries a session slot state change.
	KindStatus
)

// Event represents one observation published to the bus.
// Ownership: events are immutable once published; every subscriber receives the same pointer.
type Event struct {
	Seq     uint64        // Assigned by the hub, strictly increasing
	Kind    Kind          // Message or status
	Slot    string        // Session slot (primary, secondary)
	Session string        // Session identifier
	Time    time.Time     // When the event was observed
	Message *rtmp.Message // Set for KindMessage
	State   string        // Set for KindStatus
	Delay   time.Duration // Reconnect delay for KindStatus, zero otherwise
	Err     string        // Failure that caused a status change, if any
}

// NewMessageEvent wraps a surfaced message.
func NewMessageEvent(slot, session string, msg *rtmp.Message) *Event {
	return &Event{Kind: KindMessage, Slot: slot, Session: session, Time: time.Now(), Message: msg}
}

// NewStatusEvent wraps a slot state change.
func NewStatusEvent(slot, state string, delay time.Duration, err error) *Event {
	ev := &Event{Kind: KindStatus, Slot: slot, State: state, Delay: delay, Time: time.Now()}
	if err != nil {
		ev.Err = err.Error()
	}
	return ev
}

// String returns a human-readable representation of the event kind.
func (k Kind) String() string {
	switch k {
	case KindMessage:
		return "message"
	case KindStatus:
		return "status"
	default:
		return "unknown"
	}
}
