// If you are AI: This file encodes and decodes shared-object message bodies.
// Every sub-event declares its own length, which must be consumed exactly.

package rtmp

import (
	"bytes"
	"encoding/binary"
	"io"
	"sort"

	"roomlink/internal/core/protocol/amf0"
)

// SharedObject is the payload of a shared-object message.
type SharedObject struct {
	Name    string
	Version uint32
	Flags   [8]byte
	Events  []SharedObjectEvent
}

// SharedObjectEvent is one typed sub-event.
// Changes is set for SOChange, Values for SOSendMessage and Name for SORemove.
type SharedObjectEvent struct {
	Type    SharedObjectEventType
	Changes amf0.Object
	Values  amf0.Array
	Name    string
}

// decodeSharedObject parses the name, version, flags and sub-events of a shared-object body.
func decodeSharedObject(body []byte) (*SharedObject, error) {
	r := bytes.NewReader(body)
	so := &SharedObject{}

	name, err := amf0.ReadString(r)
	if err != nil {
		return nil, framingErrorf("shared object name: %v", err)
	}
	so.Name = name
	if err := binary.Read(r, binary.BigEndian, &so.Version); err != nil {
		return nil, framingErrorf("shared object version: %v", err)
	}
	if _, err := io.ReadFull(r, so.Flags[:]); err != nil {
		return nil, framingErrorf("shared object flags: %v", err)
	}

	for r.Len() > 0 {
		var head [5]byte
		if _, err := io.ReadFull(r, head[:]); err != nil {
			return nil, framingErrorf("shared object event header: %v", err)
		}
		size := binary.BigEndian.Uint32(head[1:5])
		if int64(size) > int64(r.Len()) {
			return nil, framingErrorf("shared object event of %d bytes with %d remaining", size, r.Len())
		}
		sub := make([]byte, size)
		if _, err := io.ReadFull(r, sub); err != nil {
			return nil, framingErrorf("shared object event body: %v", err)
		}
		event, err := decodeSharedObjectEvent(SharedObjectEventType(head[0]), sub)
		if err != nil {
			return nil, err
		}
		so.Events = append(so.Events, event)
	}
	return so, nil
}

// decodeSharedObjectEvent decodes one sub-event body, which must be fully consumed.
func decodeSharedObjectEvent(t SharedObjectEventType, sub []byte) (SharedObjectEvent, error) {
	event := SharedObjectEvent{Type: t}
	r := bytes.NewReader(sub)

	switch t {
	case SOUse, SORelease, SOClear, SOUseSuccess:
		if len(sub) != 0 {
			return event, framingErrorf("shared object event %d with %d byte body", t, len(sub))
		}
	case SOChange:
		event.Changes = make(amf0.Object)
		for r.Len() > 0 {
			key, err := amf0.ReadString(r)
			if err != nil {
				return event, framingErrorf("shared object change key: %v", err)
			}
			if _, dup := event.Changes[key]; dup {
				return event, framingErrorf("shared object change repeats key %q", key)
			}
			value, err := amf0.Decode(r)
			if err != nil {
				return event, framingErrorf("shared object change value: %v", err)
			}
			event.Changes[key] = value
		}
	case SOSendMessage:
		values, err := amf0.DecodeAll(sub)
		if err != nil {
			return event, framingErrorf("shared object send message: %v", err)
		}
		event.Values = values
	case SORemove:
		name, err := amf0.ReadString(r)
		if err != nil {
			return event, framingErrorf("shared object remove: %v", err)
		}
		if r.Len() != 0 {
			return event, framingErrorf("shared object remove left %d bytes", r.Len())
		}
		event.Name = name
	default:
		return event, framingErrorf("unknown shared object event %d", t)
	}
	return event, nil
}

// encodeSharedObject serializes a shared-object body.
func encodeSharedObject(so *SharedObject) ([]byte, error) {
	var buf bytes.Buffer
	if err := amf0.WriteString(&buf, so.Name); err != nil {
		return nil, err
	}
	binary.Write(&buf, binary.BigEndian, so.Version)
	buf.Write(so.Flags[:])

	for _, event := range so.Events {
		sub, err := encodeSharedObjectEvent(event)
		if err != nil {
			return nil, err
		}
		buf.WriteByte(byte(event.Type))
		binary.Write(&buf, binary.BigEndian, uint32(len(sub)))
		buf.Write(sub)
	}
	return buf.Bytes(), nil
}

// encodeSharedObjectEvent serializes one sub-event body.
func encodeSharedObjectEvent(event SharedObjectEvent) ([]byte, error) {
	var buf bytes.Buffer
	switch event.Type {
	case SOUse, SORelease, SOClear, SOUseSuccess:
	case SOChange:
		for _, key := range sortedKeys(event.Changes) {
			if err := amf0.WriteString(&buf, key); err != nil {
				return nil, err
			}
			if err := amf0.Encode(&buf, event.Changes[key]); err != nil {
				return nil, err
			}
		}
	case SOSendMessage:
		body, err := amf0.EncodeCommand(event.Values)
		if err != nil {
			return nil, err
		}
		buf.Write(body)
	case SORemove:
		if err := amf0.WriteString(&buf, event.Name); err != nil {
			return nil, err
		}
	default:
		return nil, framingErrorf("cannot encode shared object event %d", event.Type)
	}
	return buf.Bytes(), nil
}

// sortedKeys returns the keys of obj in lexical order so encoded frames are deterministic.
func sortedKeys(obj amf0.Object) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
