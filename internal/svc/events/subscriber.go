// If you are AI: This file implements the event stream subscriber that reads from the bus and writes JSON frames.
// Subscriber manages one websocket connection for its lifetime.

package events

import (
	"context"
	"encoding/json"

	"github.com/gorilla/websocket"

	"roomlink/internal/core/bus"
	"roomlink/internal/core/protocol/rtmp"
)

// batchSize bounds how many events are written between wake-ups.
const batchSize = 64

// WebSocketConn defines the websocket operations a subscriber needs.
type WebSocketConn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// DropCounter receives the number of events a subscriber lost.
type DropCounter interface {
	EventsDropped(n uint64)
}

// Subscriber streams hub events to one websocket client.
type Subscriber struct {
	conn     WebSocketConn
	sub      *bus.Subscriber
	slot     string
	drops    DropCounter
	reported uint64
}

// NewSubscriber creates a subscriber writing events from sub to conn.
// A non-empty slot filters events to that slot.
func NewSubscriber(conn WebSocketConn, sub *bus.Subscriber, slot string, drops DropCounter) *Subscriber {
	return &Subscriber{conn: conn, sub: sub, slot: slot, drops: drops}
}

// Run writes events until ctx is done or a write fails.
func (s *Subscriber) Run(ctx context.Context) error {
	for {
		if err := s.reportDropped(); err != nil {
			return err
		}
		n, err := s.sub.Process(batchSize, s.write)
		if err != nil {
			return err
		}
		if n > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-s.sub.Ready():
		}
	}
}

// write sends one event as a text frame, skipping other slots.
func (s *Subscriber) write(ev *bus.Event) error {
	if s.slot != "" && ev.Slot != s.slot {
		return nil
	}
	return s.writeFrame(NewFrame(ev))
}

// reportDropped tells the client how many events it lost since the last report.
func (s *Subscriber) reportDropped() error {
	total := s.sub.Dropped()
	if total == s.reported {
		return nil
	}
	n := total - s.reported
	s.reported = total
	if s.drops != nil {
		s.drops.EventsDropped(n)
	}
	return s.writeFrame(droppedFrame(n))
}

// writeFrame marshals f. Values that JSON cannot carry are replaced by an error frame.
func (s *Subscriber) writeFrame(f Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		f.Values = nil
		f.Error = "unencodable values: " + err.Error()
		if data, err = json.Marshal(f); err != nil {
			return err
		}
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// statusOf extracts the NetConnection/NetStream status code carried by a message event.
func statusOf(ev *bus.Event) (string, bool) {
	st, ok := rtmp.StatusOf(ev.Message)
	if !ok {
		return "", false
	}
	return st.Code, true
}
