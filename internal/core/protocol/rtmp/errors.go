// If you are AI: This file defines the protocol error taxonomy.
// Framing and control violations are hard failures; everything else from a read is transient.

package rtmp

import (
	"errors"
	"fmt"
)

var (
	// ErrFraming marks a byte stream that can no longer be interpreted.
	ErrFraming = errors.New("rtmp: framing error")
	// ErrControlViolation marks a control message carrying unexpected values.
	ErrControlViolation = errors.New("rtmp: control violation")
	// ErrHandshake marks a failed handshake exchange.
	ErrHandshake = errors.New("rtmp: handshake failed")
	// ErrInvalidVersion is returned when the peer answers with a version other than 3.
	ErrInvalidVersion = errors.New("rtmp: invalid version")
	// ErrNotConnected is returned when sending on a session without a live socket.
	ErrNotConnected = errors.New("rtmp: session not connected")
	// ErrSessionClosed is returned by Connect on a session that was shut down or already used.
	ErrSessionClosed = errors.New("rtmp: session closed")
)

// framingErrorf wraps ErrFraming with context.
func framingErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrFraming, fmt.Sprintf(format, args...))
}

// controlErrorf wraps ErrControlViolation with context.
func controlErrorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrControlViolation, fmt.Sprintf(format, args...))
}

// IsHardFailure reports whether err means the session byte stream or state is unusable.
func IsHardFailure(err error) bool {
	return errors.Is(err, ErrFraming) || errors.Is(err, ErrControlViolation)
}
