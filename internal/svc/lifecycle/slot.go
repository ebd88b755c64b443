// If you are AI: This file defines session slots, their connection states and the events emitted on transitions.

package lifecycle

import (
	"fmt"
	"time"

	"roomlink/internal/core/protocol/rtmp"
)

// Slot identifies one of the sessions a manager owns.
type Slot int

const (
	// SlotPrimary is the main session. It always exists while the manager runs.
	SlotPrimary Slot = iota
	// SlotSecondary is the restricted-area session, run only when the descriptor asks for it.
	SlotSecondary
)

// String returns the slot name used in logs and metric labels.
func (s Slot) String() string {
	switch s {
	case SlotPrimary:
		return "primary"
	case SlotSecondary:
		return "secondary"
	default:
		return "unknown"
	}
}

// ParseSlot converts a slot name. The empty string means the primary slot.
func ParseSlot(name string) (Slot, error) {
	switch name {
	case "", "primary":
		return SlotPrimary, nil
	case "secondary":
		return SlotSecondary, nil
	default:
		return 0, fmt.Errorf("lifecycle: unknown slot %q", name)
	}
}

// Slots lists every slot in order.
var Slots = []Slot{SlotPrimary, SlotSecondary}

// State is the connection state of a slot.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// Event reports a slot state transition.
// Delay is set for StateReconnecting and holds the countdown before the next attempt.
type Event struct {
	Slot    Slot
	State   State
	Session string
	Delay   time.Duration
	Err     error
}

// Notifier receives state transitions. Notify must not block.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

// Notify calls f(ev).
func (f NotifierFunc) Notify(ev Event) {
	f(ev)
}

// Dispatcher receives every message a session surfaces, in wire order.
// It runs on the slot's receive loop and must not block for long.
type Dispatcher interface {
	Dispatch(slot Slot, session string, msg *rtmp.Message)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(slot Slot, session string, msg *rtmp.Message)

// Dispatch calls f.
func (f DispatcherFunc) Dispatch(slot Slot, session string, msg *rtmp.Message) {
	f(slot, session, msg)
}

// Observer collects lifecycle counters. The metrics package implements it.
type Observer interface {
	MessageReceived(slot, msgType string)
	ControlHandled(slot, msgType string)
	ReadFailure(slot, class string)
	Reconnect(slot string)
	SetState(slot string, state int)
}

// nopObserver discards everything.
type nopObserver struct{}

// MessageReceived does nothing.
func (nopObserver) MessageReceived(string, string) {}

// ControlHandled does nothing.
func (nopObserver) ControlHandled(string, string) {}

// ReadFailure does nothing.
func (nopObserver) ReadFailure(string, string) {}

// Reconnect does nothing.
func (nopObserver) Reconnect(string) {}

// SetState does nothing.
func (nopObserver) SetState(string, int) {}
