// If you are AI: This file implements the RTMP client-side handshake.
// C0/C1 out, S0/S1 in, C2 echoes S1 verbatim, S2 is read and discarded.

package rtmp

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"time"
)

// HandshakePacket is one 1536-byte handshake leg.
type HandshakePacket struct {
	Time    uint32
	Echo    uint32
	Payload [HandshakeSize - 8]byte
}

// newC1 builds the client's first packet: time, four zero bytes and random filler.
func newC1(now time.Time) (*HandshakePacket, error) {
	p := &HandshakePacket{Time: uint32(now.Unix())}
	if _, err := rand.Read(p.Payload[:]); err != nil {
		return nil, err
	}
	return p, nil
}

// Bytes serializes the packet into its wire form.
func (p *HandshakePacket) Bytes() []byte {
	buf := make([]byte, HandshakeSize)
	binary.BigEndian.PutUint32(buf[0:4], p.Time)
	binary.BigEndian.PutUint32(buf[4:8], p.Echo)
	copy(buf[8:], p.Payload[:])
	return buf
}

// readHandshakePacket reads one full handshake leg.
func readHandshakePacket(r io.Reader) (*HandshakePacket, error) {
	buf := make([]byte, HandshakeSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	p := &HandshakePacket{
		Time: binary.BigEndian.Uint32(buf[0:4]),
		Echo: binary.BigEndian.Uint32(buf[4:8]),
	}
	copy(p.Payload[:], buf[8:])
	return p, nil
}

// PerformClientHandshake performs the client side of RTMP handshake.
// Any I/O error or short read is returned wrapped in ErrHandshake; nothing is retried here.
func PerformClientHandshake(conn io.ReadWriter) error {
	c1, err := newC1(time.Now())
	if err != nil {
		return fmt.Errorf("%w: build C1: %v", ErrHandshake, err)
	}

	// C0 and C1 go out in a single write
	c0c1 := make([]byte, 0, 1+HandshakeSize)
	c0c1 = append(c0c1, RTMPVersion)
	c0c1 = append(c0c1, c1.Bytes()...)
	if _, err := conn.Write(c0c1); err != nil {
		return fmt.Errorf("%w: write C0+C1: %w", ErrHandshake, err)
	}

	// Read S0 (version)
	var s0 [1]byte
	if _, err := io.ReadFull(conn, s0[:]); err != nil {
		return fmt.Errorf("%w: read S0: %w", ErrHandshake, err)
	}
	if s0[0] != RTMPVersion {
		return fmt.Errorf("%w: %w 0x%02x", ErrHandshake, ErrInvalidVersion, s0[0])
	}

	s1, err := readHandshakePacket(conn)
	if err != nil {
		return fmt.Errorf("%w: read S1: %w", ErrHandshake, err)
	}

	// C2 is S1 echoed back unchanged
	if _, err := conn.Write(s1.Bytes()); err != nil {
		return fmt.Errorf("%w: write C2: %w", ErrHandshake, err)
	}

	// S2 content is not validated; completing the read is the success signal
	if _, err := readHandshakePacket(conn); err != nil {
		return fmt.Errorf("%w: read S2: %w", ErrHandshake, err)
	}
	return nil
}
