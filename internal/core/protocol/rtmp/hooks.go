// If you are AI: This file exposes session state to the control handler.

package rtmp

// sessionHooks exposes session state to the control handler without widening Session's API.
type sessionHooks struct {
	s *Session
}

// Send writes a control reply.
func (h sessionHooks) Send(msg *Message) error {
	return h.s.Send(msg)
}

// SetReadChunkSize applies the peer's chunk size to the reader.
func (h sessionHooks) SetReadChunkSize(size uint32) error {
	return h.s.reader.SetChunkSize(size)
}

// StreamKnown reports whether a stream id is bound.
func (h sessionHooks) StreamKnown() bool {
	_, ok := h.s.StreamID()
	return ok
}

// StreamCreated binds id once and publishes the pending name.
func (h sessionHooks) StreamCreated(id uint32) error {
	s := h.s
	s.mu.Lock()
	if s.streamKnown {
		s.mu.Unlock()
		return nil
	}
	s.streamID = id
	s.streamKnown = true
	name := s.pending
	s.pending = ""
	s.mu.Unlock()

	s.writeMu.Lock()
	s.writer.SetStreamID(id)
	s.writeMu.Unlock()

	if name == "" {
		return nil
	}
	return s.Publish(name, "live")
}
