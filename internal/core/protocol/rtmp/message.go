// If you are AI: This file handles RTMP message parsing and creation.
// Message is a closed tagged variant keyed by Type; body codecs switch over every known type.

package rtmp

import (
	"encoding/binary"
	"fmt"
	"time"

	"roomlink/internal/core/protocol/amf0"
)

// Message represents a complete, reassembled RTMP message.
// Only the fields belonging to Type are meaningful.
type Message struct {
	Type      MessageType
	ChannelID uint32
	Timestamp uint32
	StreamID  uint32

	ChunkSize     uint32           // TypeSetChunkSize
	AbortChannel  uint32           // TypeAbort
	Sequence      uint32           // TypeAck
	Event         UserControlEvent // TypeUserControl
	EventData     []byte           // TypeUserControl
	WindowAckSize uint32           // TypeWindowAckSize, TypeSetPeerBandwidth
	LimitType     byte             // TypeSetPeerBandwidth

	Values       amf0.Array    // TypeCommand, TypeData, TypeAMF3Command, TypeAMF3Data
	SharedObject *SharedObject // TypeSharedObject
	Payload      []byte        // TypeAudio, TypeVideo
}

// NewCommand creates an AMF0 command message from its positional values.
func NewCommand(values ...amf0.Value) *Message {
	return &Message{Type: TypeCommand, Values: amf0.Array(values)}
}

// NewUserControl creates a user control message.
func NewUserControl(event UserControlEvent, data []byte) *Message {
	return &Message{Type: TypeUserControl, Event: event, EventData: data}
}

// NewPingRequest creates a ping request carrying t as a 32-bit unix time.
func NewPingRequest(t time.Time) *Message {
	data := make([]byte, 4)
	binary.BigEndian.PutUint32(data, uint32(t.Unix()))
	return NewUserControl(ControlPingRequest, data)
}

// NewSetChunkSize creates a Set Chunk Size message.
func NewSetChunkSize(size uint32) *Message {
	return &Message{Type: TypeSetChunkSize, ChunkSize: size}
}

// NewWindowAckSize creates a Window Acknowledgement Size message.
func NewWindowAckSize(size uint32) *Message {
	return &Message{Type: TypeWindowAckSize, WindowAckSize: size}
}

// CommandName returns the first value of a command or data message when it is a string.
func (m *Message) CommandName() string {
	if len(m.Values) == 0 {
		return ""
	}
	name, _ := m.Values[0].(string)
	return name
}

// String returns a short description for logs.
func (m *Message) String() string {
	switch m.Type {
	case TypeCommand, TypeAMF3Command, TypeData, TypeAMF3Data:
		return fmt.Sprintf("%s(%s)", m.Type, m.CommandName())
	case TypeUserControl:
		return fmt.Sprintf("%s(event=%d)", m.Type, m.Event)
	default:
		return m.Type.String()
	}
}

// decodeBody interprets a reassembled body according to the header's message type.
func decodeBody(h Header, body []byte) (*Message, error) {
	msg := &Message{
		Type:      h.MessageType,
		ChannelID: h.ChannelID,
		Timestamp: uint32(h.Timestamp),
		StreamID:  uint32(h.StreamID),
	}

	switch h.MessageType {
	case TypeSetChunkSize:
		v, err := fixedUint32(h.MessageType, body)
		msg.ChunkSize = v
		return msg, err
	case TypeAbort:
		v, err := fixedUint32(h.MessageType, body)
		msg.AbortChannel = v
		return msg, err
	case TypeAck:
		v, err := fixedUint32(h.MessageType, body)
		msg.Sequence = v
		return msg, err
	case TypeWindowAckSize:
		v, err := fixedUint32(h.MessageType, body)
		msg.WindowAckSize = v
		return msg, err
	case TypeSetPeerBandwidth:
		if len(body) != 5 {
			return nil, framingErrorf("%s body of %d bytes", h.MessageType, len(body))
		}
		msg.WindowAckSize = binary.BigEndian.Uint32(body[0:4])
		msg.LimitType = body[4]
		return msg, nil
	case TypeUserControl:
		if len(body) < 2 {
			return nil, framingErrorf("%s body of %d bytes", h.MessageType, len(body))
		}
		msg.Event = UserControlEvent(binary.BigEndian.Uint16(body[0:2]))
		msg.EventData = append([]byte(nil), body[2:]...)
		return msg, nil
	case TypeAudio, TypeVideo:
		msg.Payload = body
		return msg, nil
	case TypeCommand, TypeData:
		values, err := amf0.DecodeAll(body)
		if err != nil {
			return nil, framingErrorf("%s body: %v", h.MessageType, err)
		}
		msg.Values = values
		return msg, nil
	case TypeAMF3Command, TypeAMF3Data:
		// AMF3 command bodies carry a zero format byte ahead of AMF0 values
		if len(body) > 0 && body[0] != 0 {
			return nil, framingErrorf("%s format byte 0x%02x", h.MessageType, body[0])
		}
		var values amf0.Array
		var err error
		if len(body) > 0 {
			values, err = amf0.DecodeAll(body[1:])
		}
		if err != nil {
			return nil, framingErrorf("%s body: %v", h.MessageType, err)
		}
		msg.Values = values
		return msg, nil
	case TypeSharedObject:
		so, err := decodeSharedObject(body)
		if err != nil {
			return nil, err
		}
		msg.SharedObject = so
		return msg, nil
	case TypeNone, TypeAMF3SharedObject, TypeAggregate:
		return nil, framingErrorf("unsupported message type %d", h.MessageType)
	default:
		return nil, framingErrorf("unknown message type %d", h.MessageType)
	}
}

// fixedUint32 decodes a body that must be exactly one big-endian uint32.
func fixedUint32(t MessageType, body []byte) (uint32, error) {
	if len(body) != 4 {
		return 0, framingErrorf("%s body of %d bytes", t, len(body))
	}
	return binary.BigEndian.Uint32(body), nil
}

// encodeBody serializes the type-specific fields of msg.
func encodeBody(msg *Message) ([]byte, error) {
	switch msg.Type {
	case TypeSetChunkSize:
		return putUint32(msg.ChunkSize), nil
	case TypeAbort:
		return putUint32(msg.AbortChannel), nil
	case TypeAck:
		return putUint32(msg.Sequence), nil
	case TypeWindowAckSize:
		return putUint32(msg.WindowAckSize), nil
	case TypeSetPeerBandwidth:
		return append(putUint32(msg.WindowAckSize), msg.LimitType), nil
	case TypeUserControl:
		body := make([]byte, 2, 2+len(msg.EventData))
		binary.BigEndian.PutUint16(body, uint16(msg.Event))
		return append(body, msg.EventData...), nil
	case TypeAudio, TypeVideo:
		return msg.Payload, nil
	case TypeCommand, TypeData:
		return amf0.EncodeCommand(msg.Values)
	case TypeAMF3Command, TypeAMF3Data:
		body, err := amf0.EncodeCommand(msg.Values)
		if err != nil {
			return nil, err
		}
		return append([]byte{0}, body...), nil
	case TypeSharedObject:
		if msg.SharedObject == nil {
			return nil, framingErrorf("shared object message without payload")
		}
		return encodeSharedObject(msg.SharedObject)
	case TypeNone, TypeAMF3SharedObject, TypeAggregate:
		return nil, framingErrorf("cannot encode message type %d", msg.Type)
	default:
		return nil, framingErrorf("unknown message type %d", msg.Type)
	}
}

// putUint32 returns v as four big-endian bytes.
func putUint32(v uint32) []byte {
	body := make([]byte, 4)
	binary.BigEndian.PutUint32(body, v)
	return body
}
