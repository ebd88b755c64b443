// If you are AI: This file implements the compressed chunk header codec.
// Compression state is the previous header on the same channel; the caller keeps one per channel.

package rtmp

import (
	"encoding/binary"
	"io"
	"math"
)

// Header is one physical chunk header.
// Fields set to Omitted were not on the wire and inherit from the previous header on the channel.
type Header struct {
	ChannelID         uint32
	Timestamp         int64
	MessageType       MessageType
	BodyLength        int32
	StreamID          int64
	ExtendedTimestamp bool
}

// NewHeader returns a header for channelID with every other field omitted.
func NewHeader(channelID uint32) Header {
	return Header{
		ChannelID:   channelID,
		Timestamp:   Omitted,
		MessageType: TypeNone,
		BodyLength:  Omitted,
		StreamID:    Omitted,
	}
}

// IsContinuation reports whether the header restates nothing but its channel.
func (h Header) IsContinuation() bool {
	return h.Timestamp == Omitted && h.MessageType == TypeNone &&
		h.BodyLength == Omitted && h.StreamID == Omitted
}

// isComplete reports whether every field carries a value.
func (h Header) isComplete() bool {
	return h.Timestamp != Omitted && h.MessageType != TypeNone &&
		h.BodyLength != Omitted && h.StreamID != Omitted
}

// inherit fills omitted fields from prev.
func (h Header) inherit(prev Header) Header {
	if h.Timestamp == Omitted {
		h.Timestamp = prev.Timestamp
		h.ExtendedTimestamp = prev.ExtendedTimestamp
	}
	if h.MessageType == TypeNone {
		h.MessageType = prev.MessageType
	}
	if h.BodyLength == Omitted {
		h.BodyLength = prev.BodyLength
	}
	if h.StreamID == Omitted {
		h.StreamID = prev.StreamID
	}
	return h
}

// headerFormat picks the smallest chunk format that lets the peer rebuild h from prev.
func headerFormat(h Header, prev *Header) byte {
	if prev == nil || prev.StreamID != h.StreamID {
		return ChunkFmt0
	}
	if prev.MessageType == h.MessageType && prev.BodyLength == h.BodyLength {
		if prev.Timestamp == h.Timestamp {
			return ChunkFmt3
		}
		return ChunkFmt2
	}
	return ChunkFmt1
}

// validateHeader checks that h is fully populated and representable on the wire.
func validateHeader(h Header) error {
	if h.ChannelID < MinChannelID || h.ChannelID > MaxChannelID {
		return framingErrorf("channel id %d out of range", h.ChannelID)
	}
	if !h.isComplete() {
		return framingErrorf("header on channel %d has omitted fields", h.ChannelID)
	}
	if h.Timestamp < 0 || h.Timestamp > math.MaxUint32 {
		return framingErrorf("timestamp %d out of range", h.Timestamp)
	}
	if h.BodyLength < 0 || h.BodyLength > 0xFFFFFF {
		return framingErrorf("body length %d out of range", h.BodyLength)
	}
	if h.StreamID < 0 || h.StreamID > math.MaxUint32 {
		return framingErrorf("stream id %d out of range", h.StreamID)
	}
	return nil
}

// EncodeHeader writes h compressed against prev, the last header sent on the same channel.
// A nil prev forces a full header.
func EncodeHeader(w io.Writer, h Header, prev *Header) error {
	if err := validateHeader(h); err != nil {
		return err
	}
	if prev != nil && prev.ChannelID != h.ChannelID {
		return framingErrorf("channel mismatch on diff: %d vs %d", prev.ChannelID, h.ChannelID)
	}

	fmt := headerFormat(h, prev)
	var buf [18]byte
	n := putBasicHeader(buf[:], fmt, h.ChannelID)

	extended := h.Timestamp >= extendedTimestamp
	if fmt <= ChunkFmt2 {
		ts := uint32(h.Timestamp)
		if extended {
			ts = extendedTimestamp
		}
		putUint24(buf[n:], ts)
		n += 3
	}
	if fmt <= ChunkFmt1 {
		putUint24(buf[n:], uint32(h.BodyLength))
		buf[n+3] = byte(h.MessageType)
		n += 4
	}
	if fmt == ChunkFmt0 {
		// Stream ID is little-endian in RTMP
		binary.LittleEndian.PutUint32(buf[n:], uint32(h.StreamID))
		n += 4
	}
	if extended {
		binary.BigEndian.PutUint32(buf[n:], uint32(h.Timestamp))
		n += 4
	}
	_, err := w.Write(buf[:n])
	return err
}

// putBasicHeader writes the format bits and channel id in one, two or three bytes.
func putBasicHeader(buf []byte, fmt byte, channelID uint32) int {
	switch {
	case channelID <= MaxOneByteChannel:
		buf[0] = fmt<<6 | byte(channelID)
		return 1
	case channelID <= MaxTwoByteChannel:
		buf[0] = fmt << 6
		buf[1] = byte(channelID - 64)
		return 2
	default:
		id := channelID - 64
		buf[0] = fmt<<6 | 1
		buf[1] = byte(id)
		buf[2] = byte(id >> 8)
		return 3
	}
}

// DecodeHeader reads one chunk header and fills omitted fields from prev.
// prev must be the last header seen on the same channel; a compressed header without one is a framing error.
func DecodeHeader(r io.Reader, prev *Header) (Header, error) {
	fmt, channelID, err := readBasicHeader(r)
	if err != nil {
		return Header{}, err
	}
	if prev != nil && prev.ChannelID != channelID {
		return Header{}, framingErrorf("header for channel %d decoded against channel %d", channelID, prev.ChannelID)
	}
	raw, err := readMessageHeader(r, fmt, channelID, prev)
	if err != nil {
		return Header{}, err
	}
	return resolveHeader(raw, prev)
}

// resolveHeader merges raw with prev, failing when raw omits fields and there is nothing to inherit.
func resolveHeader(raw Header, prev *Header) (Header, error) {
	if raw.isComplete() {
		return raw, nil
	}
	if prev == nil {
		return Header{}, framingErrorf("compressed header on channel %d without a previous header", raw.ChannelID)
	}
	return raw.inherit(*prev), nil
}

// readBasicHeader reads the format bits and the one to three byte channel id.
func readBasicHeader(r io.Reader) (byte, uint32, error) {
	var b [1]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, 0, err
	}
	fmt := b[0] >> 6
	channelID := uint32(b[0] & 0x3F)

	switch channelID {
	case 0:
		if _, err := io.ReadFull(r, b[:]); err != nil {
			return 0, 0, unexpected(err)
		}
		channelID = uint32(b[0]) + 64
	case 1:
		var ext [2]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return 0, 0, unexpected(err)
		}
		channelID = uint32(ext[0]) + 64 + uint32(ext[1])<<8
	}
	return fmt, channelID, nil
}

// readMessageHeader reads the fields present for fmt.
// Returned fields not on the wire are Omitted.
func readMessageHeader(r io.Reader, fmt byte, channelID uint32, prev *Header) (Header, error) {
	h := NewHeader(channelID)

	var buf [11]byte
	size := [4]int{11, 7, 3, 0}[fmt]
	if size > 0 {
		if _, err := io.ReadFull(r, buf[:size]); err != nil {
			return h, unexpected(err)
		}
		h.Timestamp = int64(uint24(buf[0:3]))
	}
	if fmt <= ChunkFmt1 {
		h.BodyLength = int32(uint24(buf[3:6]))
		if buf[6] > 0x7F {
			return h, framingErrorf("message type %d on channel %d", buf[6], channelID)
		}
		h.MessageType = MessageType(buf[6])
	}
	if fmt == ChunkFmt0 {
		h.StreamID = int64(binary.LittleEndian.Uint32(buf[7:11]))
	}

	readExtended := h.Timestamp == extendedTimestamp ||
		(fmt == ChunkFmt3 && prev != nil && (prev.ExtendedTimestamp || prev.Timestamp >= extendedTimestamp))
	if readExtended {
		var ext [4]byte
		if _, err := io.ReadFull(r, ext[:]); err != nil {
			return h, unexpected(err)
		}
		h.Timestamp = int64(binary.BigEndian.Uint32(ext[:]))
		h.ExtendedTimestamp = true
	}
	return h, nil
}

// putUint24 writes v as a 24-bit big-endian integer.
func putUint24(buf []byte, v uint32) {
	buf[0] = byte(v >> 16)
	buf[1] = byte(v >> 8)
	buf[2] = byte(v)
}

// uint24 reads a 24-bit big-endian integer.
func uint24(buf []byte) uint32 {
	return uint32(buf[0])<<16 | uint32(buf[1])<<8 | uint32(buf[2])
}

// unexpected turns io.EOF in the middle of a structure into io.ErrUnexpectedEOF.
func unexpected(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}
