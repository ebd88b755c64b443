// If you are AI: This file reassembles RTMP messages from interleaved chunks.
// Each channel keeps its own last header and partial body; only the owning receive loop calls Next.

package rtmp

import (
	"bufio"
	"io"
	"slices"
)

// chunkStream is the inbound state of one chunk channel.
type chunkStream struct {
	header  Header
	known   bool
	active  bool
	pending []byte
}

// Reader decodes complete messages from a chunked byte stream.
type Reader struct {
	r         *bufio.Reader
	chunkSize uint32
	streams   map[uint32]*chunkStream
	bytesRead uint64
}

// NewReader creates a reader with the default chunk size and empty channel history.
func NewReader(r io.Reader) *Reader {
	return &Reader{
		r:         bufio.NewReaderSize(r, 64*1024),
		chunkSize: DefaultChunkSize,
		streams:   make(map[uint32]*chunkStream),
	}
}

// SetChunkSize changes the inbound chunk size announced by the peer.
func (r *Reader) SetChunkSize(size uint32) error {
	if size < MinChunkSize || size > MaxChunkSize {
		return framingErrorf("chunk size %d out of range %d-%d", size, MinChunkSize, MaxChunkSize)
	}
	r.chunkSize = size
	return nil
}

// ChunkSize returns the inbound chunk size in effect.
func (r *Reader) ChunkSize() uint32 {
	return r.chunkSize
}

// BytesRead returns the number of bytes consumed from the stream.
func (r *Reader) BytesRead() uint64 {
	return r.bytesRead
}

// Next blocks until one message is fully reassembled and decoded.
// io.EOF is returned only when the stream ends exactly on a chunk boundary.
func (r *Reader) Next() (*Message, error) {
	for {
		stream, done, err := r.readChunk()
		if err != nil {
			return nil, err
		}
		if !done {
			continue
		}
		body := stream.pending
		stream.pending = nil
		stream.active = false
		return decodeBody(stream.header, body)
	}
}

// readChunk reads one header and its slice of body, reporting whether the channel's message is complete.
func (r *Reader) readChunk() (*chunkStream, bool, error) {
	counted := &countingReader{r: r.r}

	fmt, channelID, err := readBasicHeader(counted)
	if err != nil {
		r.bytesRead += counted.n
		return nil, false, err
	}
	stream, ok := r.streams[channelID]
	if !ok {
		stream = &chunkStream{}
		r.streams[channelID] = stream
	}
	var prev *Header
	if stream.known {
		prev = &stream.header
	}

	raw, err := readMessageHeader(counted, fmt, channelID, prev)
	if err != nil {
		r.bytesRead += counted.n
		return nil, false, err
	}
	h, err := resolveHeader(raw, prev)
	if err != nil {
		r.bytesRead += counted.n
		return nil, false, err
	}
	if stream.active && fmt != ChunkFmt3 {
		r.bytesRead += counted.n
		return nil, false, framingErrorf("channel %d restated its header with %d of %d body bytes pending",
			channelID, len(stream.pending), stream.header.BodyLength)
	}

	stream.header = h
	stream.known = true
	if !stream.active {
		stream.active = true
		// The declared length is not trusted for allocation; the body grows as chunks arrive.
		stream.pending = make([]byte, 0, min(uint32(h.BodyLength), r.chunkSize))
	}

	remaining := uint32(h.BodyLength) - uint32(len(stream.pending))
	n := min(remaining, r.chunkSize)
	start := len(stream.pending)
	stream.pending = slices.Grow(stream.pending, int(n))[:start+int(n)]
	if _, err := io.ReadFull(counted, stream.pending[start:]); err != nil {
		stream.pending = stream.pending[:start]
		r.bytesRead += counted.n
		return nil, false, unexpected(err)
	}
	r.bytesRead += counted.n

	return stream, len(stream.pending) == int(h.BodyLength), nil
}

// countingReader counts bytes passed through it.
type countingReader struct {
	r io.Reader
	n uint64
}

// Read forwards to the wrapped reader and counts the result.
func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += uint64(n)
	return n, err
}
