// If you are AI: This file implements AMF0 encoding for RTMP command messages.
// Object keys are written in sorted order so identical values encode identically.

package amf0

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sort"
	"time"
)

// Encode writes an AMF0 value to the writer.
// Go integer types are widened to AMF0 numbers.
func Encode(w io.Writer, val Value) error {
	switch v := val.(type) {
	case float64:
		return encodeNumber(w, v)
	case float32:
		return encodeNumber(w, float64(v))
	case int:
		return encodeNumber(w, float64(v))
	case int32:
		return encodeNumber(w, float64(v))
	case int64:
		return encodeNumber(w, float64(v))
	case uint32:
		return encodeNumber(w, float64(v))
	case uint64:
		return encodeNumber(w, float64(v))
	case bool:
		return encodeBoolean(w, v)
	case string:
		return encodeString(w, v)
	case nil:
		return encodeNull(w)
	case Object:
		return encodeObject(w, v)
	case map[string]interface{}:
		obj := make(Object, len(v))
		for k, x := range v {
			obj[k] = x
		}
		return encodeObject(w, obj)
	case Array:
		return encodeArray(w, v)
	case []interface{}:
		arr := make(Array, len(v))
		for i, x := range v {
			arr[i] = x
		}
		return encodeArray(w, arr)
	case time.Time:
		return encodeDate(w, v)
	default:
		return fmt.Errorf("%w: cannot encode %T", ErrUnexpectedType, val)
	}
}

// encodeNumber encodes an AMF0 number.
func encodeNumber(w io.Writer, num float64) error {
	if err := binary.Write(w, binary.BigEndian, byte(TypeNumber)); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, num)
}

// encodeBoolean encodes an AMF0 boolean.
func encodeBoolean(w io.Writer, b bool) error {
	if err := binary.Write(w, binary.BigEndian, byte(TypeBoolean)); err != nil {
		return err
	}
	var val byte
	if b {
		val = 1
	}
	return binary.Write(w, binary.BigEndian, val)
}

// encodeString encodes an AMF0 string, switching to a long string past 65535 bytes.
func encodeString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		if err := binary.Write(w, binary.BigEndian, byte(TypeLongString)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
			return err
		}
		_, err := io.WriteString(w, s)
		return err
	}
	if err := binary.Write(w, binary.BigEndian, byte(TypeString)); err != nil {
		return err
	}
	return WriteString(w, s)
}

// WriteString writes a marker-less string: a 16-bit length followed by the bytes.
func WriteString(w io.Writer, s string) error {
	if len(s) > math.MaxUint16 {
		return fmt.Errorf("%w: string of %d bytes", ErrInvalidData, len(s))
	}
	if err := binary.Write(w, binary.BigEndian, uint16(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// encodeNull encodes an AMF0 null.
func encodeNull(w io.Writer) error {
	return binary.Write(w, binary.BigEndian, byte(TypeNull))
}

// encodeObject encodes an AMF0 object.
func encodeObject(w io.Writer, obj Object) error {
	if err := binary.Write(w, binary.BigEndian, byte(TypeObject)); err != nil {
		return err
	}
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := WriteString(w, key); err != nil {
			return err
		}
		if err := Encode(w, obj[key]); err != nil {
			return err
		}
	}
	// Object end marker
	if err := binary.Write(w, binary.BigEndian, uint16(0)); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, byte(TypeObjectEnd))
}

// encodeArray encodes an AMF0 strict array.
func encodeArray(w io.Writer, arr Array) error {
	if err := binary.Write(w, binary.BigEndian, byte(TypeStrictArray)); err != nil {
		return err
	}
	count := uint32(len(arr))
	if err := binary.Write(w, binary.BigEndian, count); err != nil {
		return err
	}
	for _, val := range arr {
		if err := Encode(w, val); err != nil {
			return err
		}
	}
	return nil
}

// encodeDate encodes an AMF0 date with a zero timezone.
func encodeDate(w io.Writer, t time.Time) error {
	if err := binary.Write(w, binary.BigEndian, byte(TypeDate)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, float64(t.UnixMilli())); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, int16(0))
}

// EncodeCommand encodes command items back to back, without an array wrapper.
// RTMP command bodies start with the first item's own type marker.
func EncodeCommand(arr Array) ([]byte, error) {
	var buf bytes.Buffer
	for _, val := range arr {
		if err := Encode(&buf, val); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
