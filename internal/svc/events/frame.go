// If you are AI: This file defines the JSON frame written to event stream clients.

package events

import (
	"time"

	"roomlink/internal/core/bus"
	"roomlink/internal/core/protocol/amf0"
)

// Frame is one websocket text message.
type Frame struct {
	Seq     uint64     `json:"seq,omitempty"`
	Kind    string     `json:"kind"`
	Slot    string     `json:"slot,omitempty"`
	Session string     `json:"session,omitempty"`
	Time    time.Time  `json:"time"`
	Type    string     `json:"type,omitempty"`
	Command string     `json:"command,omitempty"`
	Values  amf0.Array `json:"values,omitempty"`
	Status  string     `json:"status,omitempty"`
	State   string     `json:"state,omitempty"`
	DelayMS int64      `json:"delay_ms,omitempty"`
	Error   string     `json:"error,omitempty"`
	// Dropped is set on "dropped" frames: events lost since the previous frame.
	Dropped uint64 `json:"dropped,omitempty"`
}

// NewFrame converts a bus event.
// Audio and video payloads are not forwarded, only their type.
func NewFrame(ev *bus.Event) Frame {
	f := Frame{
		Seq:     ev.Seq,
		Kind:    ev.Kind.String(),
		Slot:    ev.Slot,
		Session: ev.Session,
		Time:    ev.Time,
		State:   ev.State,
		DelayMS: ev.Delay.Milliseconds(),
		Error:   ev.Err,
	}
	if msg := ev.Message; msg != nil {
		f.Type = msg.Type.String()
		f.Command = msg.CommandName()
		f.Values = msg.Values
		if so := msg.SharedObject; so != nil {
			f.Command = so.Name
		}
		if st, ok := statusOf(ev); ok {
			f.Status = st
		}
	}
	return f
}

// droppedFrame reports n events lost to backpressure.
func droppedFrame(n uint64) Frame {
	return Frame{Kind: "dropped", Time: time.Now(), Dropped: n}
}
