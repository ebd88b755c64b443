// If you are AI: This file tests the chunk header codec: compression, channel widths and extended timestamps.
package rtmp

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fullHeader returns a complete header on channelID.
func fullHeader(channelID uint32, ts int64, t MessageType, length int32, stream int64) Header {
	return Header{ChannelID: channelID, Timestamp: ts, MessageType: t, BodyLength: length, StreamID: stream}
}

// assertSameFields compares everything but the extended timestamp flag.
func assertSameFields(t *testing.T, want, got Header) {
	t.Helper()
	assert.Equal(t, want.ChannelID, got.ChannelID, "channel")
	assert.Equal(t, want.Timestamp, got.Timestamp, "timestamp")
	assert.Equal(t, want.MessageType, got.MessageType, "type")
	assert.Equal(t, want.BodyLength, got.BodyLength, "length")
	assert.Equal(t, want.StreamID, got.StreamID, "stream")
}

func TestHeaderRoundTripAgainstPrevious(t *testing.T) {
	prev := fullHeader(5, 1000, TypeCommand, 120, 1)

	cases := []struct {
		name string
		next Header
		fmt  byte
	}{
		{"identical", prev, ChunkFmt3},
		{"timestamp only", fullHeader(5, 2000, TypeCommand, 120, 1), ChunkFmt2},
		{"new length", fullHeader(5, 1000, TypeCommand, 64, 1), ChunkFmt1},
		{"new type", fullHeader(5, 3000, TypeData, 120, 1), ChunkFmt1},
		{"new stream", fullHeader(5, 1000, TypeCommand, 120, 2), ChunkFmt0},
		{"extended timestamp", fullHeader(5, 0x1000000, TypeCommand, 120, 1), ChunkFmt2},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeHeader(&buf, tc.next, &prev))
			assert.Equal(t, tc.fmt, buf.Bytes()[0]>>6)

			got, err := DecodeHeader(&buf, &prev)
			require.NoError(t, err)
			assertSameFields(t, tc.next, got)
			assert.Zero(t, buf.Len(), "decoder must consume the whole header")
		})
	}
}

func TestHeaderWithoutPreviousIsFull(t *testing.T) {
	h := fullHeader(3, 0, TypeCommand, 10, 0)
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, h, nil))
	assert.Equal(t, 12, buf.Len())

	got, err := DecodeHeader(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestHeaderCompressedWithoutPreviousFails(t *testing.T) {
	for _, first := range []byte{ChunkFmt1<<6 | 3, ChunkFmt2<<6 | 3, ChunkFmt3<<6 | 3} {
		raw := append([]byte{first}, make([]byte, 10)...)
		_, err := DecodeHeader(bytes.NewReader(raw), nil)
		assert.ErrorIs(t, err, ErrFraming, "fmt %d", first>>6)
	}
}

func TestChannelIDWidths(t *testing.T) {
	cases := []struct {
		id    uint32
		width int
	}{
		{2, 1}, {63, 1}, {64, 2}, {65, 2}, {319, 2}, {320, 3}, {321, 3}, {65599, 3},
	}
	for _, tc := range cases {
		h := fullHeader(tc.id, 7, TypeAudio, 3, 1)
		var buf bytes.Buffer
		require.NoError(t, EncodeHeader(&buf, h, nil), "id %d", tc.id)
		assert.Equal(t, tc.width+11, buf.Len(), "id %d", tc.id)

		got, err := DecodeHeader(&buf, nil)
		require.NoError(t, err, "id %d", tc.id)
		assert.Equal(t, tc.id, got.ChannelID)
	}
}

// Ids 0 and 1 in the first byte select the two and three byte forms, so no
// message can travel on them. Encoding them is refused rather than round-tripped.
func TestChannelIDEscapeValuesRejected(t *testing.T) {
	for _, id := range []uint32{0, 1, 65600} {
		err := EncodeHeader(io.Discard, fullHeader(id, 0, TypeAudio, 0, 0), nil)
		assert.ErrorIs(t, err, ErrFraming, "id %d", id)
	}

	// first byte 0 is read as the two byte form: 64 + next byte
	raw := []byte{0x00, 0x05, 0, 0, 0, 0, 0, 3, byte(TypeAudio), 1, 0, 0, 0}
	got, err := DecodeHeader(bytes.NewReader(raw), nil)
	require.NoError(t, err)
	assert.Equal(t, uint32(69), got.ChannelID)
}

func TestExtendedTimestamp(t *testing.T) {
	below := fullHeader(4, extendedTimestamp-1, TypeVideo, 9, 1)
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, below, nil))
	assert.Equal(t, 12, buf.Len(), "no escape below the sentinel")

	for _, ts := range []int64{extendedTimestamp, extendedTimestamp + 1, 0xFFFFFFFF} {
		h := fullHeader(4, ts, TypeVideo, 9, 1)
		buf.Reset()
		require.NoError(t, EncodeHeader(&buf, h, nil))
		assert.Equal(t, 16, buf.Len(), "ts %#x", ts)
		assert.Equal(t, []byte{0xFF, 0xFF, 0xFF}, buf.Bytes()[1:4])

		got, err := DecodeHeader(&buf, nil)
		require.NoError(t, err)
		assert.Equal(t, ts, got.Timestamp)
		assert.True(t, got.ExtendedTimestamp)
	}
}

func TestExtendedTimestampOnContinuation(t *testing.T) {
	h := fullHeader(6, 0x01000000, TypeVideo, 300, 1)
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, h, &h))
	assert.Equal(t, 5, buf.Len(), "basic header plus extended timestamp")

	got, err := DecodeHeader(&buf, &h)
	require.NoError(t, err)
	assertSameFields(t, h, got)
}

func TestHeaderTruncated(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeHeader(&buf, fullHeader(3, 1, TypeCommand, 5, 0), nil))
	raw := buf.Bytes()[:6]
	_, err := DecodeHeader(bytes.NewReader(raw), nil)
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
}

func TestHeaderHighTypeByteIsFraming(t *testing.T) {
	raw := []byte{0x03, 0, 0, 0, 0, 0, 1, 0xFF, 0, 0, 0, 0}
	_, err := DecodeHeader(bytes.NewReader(raw), nil)
	assert.ErrorIs(t, err, ErrFraming)
}
