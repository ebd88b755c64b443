// If you are AI: This file defines RTMP protocol constants and message types.

package rtmp

// RTMP version constant
const RTMPVersion = 3

// HandshakeSize is the size of every C1/S1/C2/S2 packet.
const HandshakeSize = 1536

// Default chunk size
const DefaultChunkSize = 128

// Chunk size bounds accepted from the peer and from configuration.
const (
	MinChunkSize = 1
	MaxChunkSize = 65536
)

// Omitted marks a header field that was not present on the wire.
const Omitted = -1

// Chunk basic header format types
const (
	ChunkFmt0 = 0 // 11-byte header
	ChunkFmt1 = 1 // 7-byte header
	ChunkFmt2 = 2 // 3-byte header
	ChunkFmt3 = 3 // 0-byte header
)

// Channel id limits for the one, two and three byte basic header forms.
const (
	MinChannelID      = 2
	MaxOneByteChannel = 63
	MaxTwoByteChannel = 319
	MaxChannelID      = 65599
)

// Fixed chunk stream channels.
const (
	ControlChannel = 2
	CommandChannel = 3
)

// extendedTimestamp is the 24-bit sentinel announcing a 32-bit timestamp field.
const extendedTimestamp = 0xFFFFFF

// Expected control constants sent by the target server.
const (
	DefaultWindowAckSize      = 2500000
	DefaultPeerBandwidth      = 2500000
	DefaultPeerBandwidthLimit = 2
)

// maxTransactionID is the last transaction id handed out before wrapping.
const maxTransactionID = 8388607

// firstTransactionID is where the transaction counter starts and wraps to.
// Id 1 is reserved for connect.
const firstTransactionID = 2

// MessageType identifies the body layout of a logical message.
type MessageType int8

// Message type IDs
const (
	TypeNone             MessageType = Omitted
	TypeSetChunkSize     MessageType = 1
	TypeAbort            MessageType = 2
	TypeAck              MessageType = 3
	TypeUserControl      MessageType = 4
	TypeWindowAckSize    MessageType = 5
	TypeSetPeerBandwidth MessageType = 6
	TypeAudio            MessageType = 8
	TypeVideo            MessageType = 9
	TypeAMF3Data         MessageType = 15
	TypeAMF3SharedObject MessageType = 16
	TypeAMF3Command      MessageType = 17
	TypeData             MessageType = 18
	TypeSharedObject     MessageType = 19
	TypeCommand          MessageType = 20
	TypeAggregate        MessageType = 22
)

// String returns the protocol name of the message type.
func (t MessageType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeSetChunkSize:
		return "set_chunk_size"
	case TypeAbort:
		return "abort"
	case TypeAck:
		return "ack"
	case TypeUserControl:
		return "user_control"
	case TypeWindowAckSize:
		return "window_ack_size"
	case TypeSetPeerBandwidth:
		return "set_peer_bandwidth"
	case TypeAudio:
		return "audio"
	case TypeVideo:
		return "video"
	case TypeAMF3Data:
		return "amf3_data"
	case TypeAMF3SharedObject:
		return "amf3_shared_object"
	case TypeAMF3Command:
		return "amf3_command"
	case TypeData:
		return "data"
	case TypeSharedObject:
		return "shared_object"
	case TypeCommand:
		return "command"
	case TypeAggregate:
		return "aggregate"
	default:
		return "unknown"
	}
}

// isProtocolControl reports whether t is one of the protocol control types (1-7).
func (t MessageType) isProtocolControl() bool {
	return t >= TypeSetChunkSize && t <= 7
}

// UserControlEvent identifies a user control event.
type UserControlEvent uint16

// Control message types
const (
	ControlStreamBegin      UserControlEvent = 0
	ControlStreamEOF        UserControlEvent = 1
	ControlStreamDry        UserControlEvent = 2
	ControlSetBufferLength  UserControlEvent = 3
	ControlStreamIsRecorded UserControlEvent = 4
	ControlPingRequest      UserControlEvent = 6
	ControlPingResponse     UserControlEvent = 7
)

// SharedObjectEventType identifies a shared-object sub-event.
type SharedObjectEventType uint8

// Shared object event types
const (
	SOUse           SharedObjectEventType = 1
	SORelease       SharedObjectEventType = 2
	SORequestChange SharedObjectEventType = 3
	SOChange        SharedObjectEventType = 4
	SOSuccess       SharedObjectEventType = 5
	SOSendMessage   SharedObjectEventType = 6
	SOStatus        SharedObjectEventType = 7
	SOClear         SharedObjectEventType = 8
	SORemove        SharedObjectEventType = 9
	SORequestRemove SharedObjectEventType = 10
	SOUseSuccess    SharedObjectEventType = 11
)
