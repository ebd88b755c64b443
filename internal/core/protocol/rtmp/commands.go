// If you are AI: This file holds the outbound command helpers and shared-object tracking of a Session.

package rtmp

import (
	"time"

	"roomlink/internal/core/protocol/amf0"
)

// Call invokes a remote procedure: [name, txn, null, params...].
func (s *Session) Call(name string, txn uint32, params ...amf0.Value) error {
	values := append([]amf0.Value{name, txn, nil}, params...)
	return s.Send(NewCommand(values...))
}

// NextTransactionID returns a transaction id, wrapping back to 2 after 8388607.
func (s *Session) NextTransactionID() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.txn
	s.txn++
	if s.txn > maxTransactionID {
		s.txn = firstTransactionID
	}
	return id
}

// CreateStream requests a stream id; publishName is published once the server answers.
func (s *Session) CreateStream(publishName string) error {
	s.mu.Lock()
	if publishName != "" {
		s.pending = publishName
	}
	s.mu.Unlock()
	return s.Call("createStream", s.NextTransactionID())
}

// CloseStream closes the session's stream.
func (s *Session) CloseStream() error {
	return s.Call("closeStream", 0)
}

// DeleteStream deletes the session's stream.
func (s *Session) DeleteStream() error {
	return s.Call("deleteStream", 0)
}

// Publish publishes name on the session's stream; kind is live, record or append.
func (s *Session) Publish(name, kind string) error {
	if kind == "" {
		kind = "live"
	}
	return s.Call("publish", 0, name, kind)
}

// Ping sends a ping request carrying the current time.
func (s *Session) Ping() error {
	return s.Send(NewPingRequest(time.Now()))
}

// UseSharedObject asks the server for a shared object and starts tracking its state.
func (s *Session) UseSharedObject(name string) error {
	s.mu.Lock()
	if _, ok := s.sharedObjects[name]; ok {
		s.mu.Unlock()
		return nil
	}
	s.sharedObjects[name] = &SharedObjectState{Name: name, Data: make(amf0.Object)}
	s.mu.Unlock()

	return s.Send(&Message{
		Type:         TypeSharedObject,
		SharedObject: &SharedObject{Name: name, Events: []SharedObjectEvent{{Type: SOUse}}},
	})
}

// SharedObject returns a copy of a tracked shared object's state.
func (s *Session) SharedObject(name string) (SharedObjectState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	so, ok := s.sharedObjects[name]
	if !ok {
		return SharedObjectState{}, false
	}
	out := SharedObjectState{Name: so.Name, Version: so.Version, Data: make(amf0.Object, len(so.Data))}
	for k, v := range so.Data {
		out.Data[k] = v
	}
	return out, true
}

// applySharedObject folds inbound events into a tracked shared object.
func (s *Session) applySharedObject(so *SharedObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.sharedObjects[so.Name]
	if !ok {
		return
	}
	state.Version = so.Version
	for _, ev := range so.Events {
		switch ev.Type {
		case SOChange:
			for k, v := range ev.Changes {
				state.Data[k] = v
			}
		case SORemove:
			delete(state.Data, ev.Name)
		case SOClear:
			state.Data = make(amf0.Object)
		}
	}
}
