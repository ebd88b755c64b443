// If you are AI: This file splits outbound messages into chunks.
// Header compression diffs against the last header sent on the same channel; callers serialize access.

package rtmp

import (
	"bufio"
	"io"
)

// Writer encodes messages into a chunked byte stream.
type Writer struct {
	w         *bufio.Writer
	chunkSize uint32
	streamID  uint32
	routes    RoutePolicy
	sent      map[uint32]Header
}

// NewWriter creates a writer with the default chunk size and empty channel history.
func NewWriter(w io.Writer, routes RoutePolicy) *Writer {
	return &Writer{
		w:         bufio.NewWriterSize(w, 64*1024),
		chunkSize: DefaultChunkSize,
		routes:    routes,
		sent:      make(map[uint32]Header),
	}
}

// SetChunkSize changes the outbound chunk size.
// The peer must be told first with a Set Chunk Size message.
func (w *Writer) SetChunkSize(size uint32) error {
	if size < MinChunkSize || size > MaxChunkSize {
		return framingErrorf("chunk size %d out of range %d-%d", size, MinChunkSize, MaxChunkSize)
	}
	w.chunkSize = size
	return nil
}

// ChunkSize returns the outbound chunk size in effect.
func (w *Writer) ChunkSize() uint32 {
	return w.chunkSize
}

// SetStreamID sets the session stream id used by stream-bound routes.
func (w *Writer) SetStreamID(id uint32) {
	w.streamID = id
}

// StreamID returns the session stream id.
func (w *Writer) StreamID() uint32 {
	return w.streamID
}

// Write serializes msg and writes it as one or more chunks.
// A zero msg.ChannelID selects the channel from the route policy; otherwise msg.ChannelID and msg.StreamID are used as given.
// Nothing reaches the peer until Flush.
func (w *Writer) Write(msg *Message) error {
	body, err := encodeBody(msg)
	if err != nil {
		return err
	}
	if len(body) > 0xFFFFFF {
		return framingErrorf("%s body of %d bytes exceeds 24-bit length", msg.Type, len(body))
	}

	channelID, streamID := msg.ChannelID, msg.StreamID
	if channelID == 0 {
		channelID, streamID = w.routes.Resolve(msg, w.streamID)
	}
	h := Header{
		ChannelID:   channelID,
		Timestamp:   int64(msg.Timestamp),
		MessageType: msg.Type,
		BodyLength:  int32(len(body)),
		StreamID:    int64(streamID),
	}
	return w.writeChunks(h, body)
}

// writeChunks emits the compressed header and the body in chunk-size slices.
func (w *Writer) writeChunks(h Header, body []byte) error {
	var prev *Header
	if last, ok := w.sent[h.ChannelID]; ok {
		prev = &last
	}
	if err := EncodeHeader(w.w, h, prev); err != nil {
		return err
	}
	w.sent[h.ChannelID] = h

	size := int(w.chunkSize)
	for off := 0; off < len(body); off += size {
		if off > 0 {
			if err := EncodeHeader(w.w, h, &h); err != nil {
				return err
			}
		}
		end := min(off+size, len(body))
		if _, err := w.w.Write(body[off:end]); err != nil {
			return err
		}
	}
	return nil
}

// Flush sends buffered chunks to the underlying stream.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
