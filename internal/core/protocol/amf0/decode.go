// If you are AI: This file implements AMF0 decoding for RTMP command and shared-object bodies.
// Decoding is strict: an unknown marker is an error, never skipped.

package amf0

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"time"
)

var (
	ErrUnexpectedType = errors.New("unexpected AMF0 type")
	ErrInvalidData    = errors.New("invalid AMF0 data")
)

// Decode reads and decodes a single AMF0 value from the reader.
// Returns the decoded value and any error.
func Decode(r io.Reader) (Value, error) {
	var typeMarker byte
	if err := binary.Read(r, binary.BigEndian, &typeMarker); err != nil {
		return nil, err
	}

	switch typeMarker {
	case TypeNumber:
		return decodeNumber(r)
	case TypeBoolean:
		return decodeBoolean(r)
	case TypeString:
		return ReadString(r)
	case TypeLongString:
		return decodeLongString(r)
	case TypeNull, TypeUndefined:
		return nil, nil
	case TypeObject:
		return decodeObject(r)
	case TypeECMAArray:
		return decodeECMAArray(r)
	case TypeStrictArray:
		return decodeStrictArray(r)
	case TypeDate:
		return decodeDate(r)
	default:
		return nil, ErrUnexpectedType
	}
}

// DecodeAll decodes consecutive AMF0 values until body is exhausted.
// A value truncated by the end of body is reported as io.ErrUnexpectedEOF.
func DecodeAll(body []byte) (Array, error) {
	r := bytes.NewReader(body)
	values := make(Array, 0, 4)
	for r.Len() > 0 {
		v, err := Decode(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = io.ErrUnexpectedEOF
			}
			return values, err
		}
		values = append(values, v)
	}
	return values, nil
}

// DecodeString reads an AMF0 string value, marker included.
func DecodeString(r io.Reader) (string, error) {
	var typeMarker byte
	if err := binary.Read(r, binary.BigEndian, &typeMarker); err != nil {
		return "", err
	}
	if typeMarker != TypeString {
		return "", ErrUnexpectedType
	}
	return ReadString(r)
}

// ReadString reads a marker-less UTF-8 string: a 16-bit length followed by the bytes.
// Object keys and shared-object names use this form.
func ReadString(r io.Reader) (string, error) {
	var length uint16
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	buf, err := readBytes(r, int64(length))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// decodeNumber decodes an AMF0 number (double precision float64).
func decodeNumber(r io.Reader) (float64, error) {
	var num float64
	err := binary.Read(r, binary.BigEndian, &num)
	return num, err
}

// decodeBoolean decodes an AMF0 boolean.
func decodeBoolean(r io.Reader) (bool, error) {
	var b byte
	if err := binary.Read(r, binary.BigEndian, &b); err != nil {
		return false, err
	}
	return b != 0, nil
}

// decodeLongString decodes an AMF0 long string (32-bit length).
func decodeLongString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", err
	}
	buf, err := readBytes(r, int64(length))
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// readBytes reads exactly n bytes. A declared length longer than what the
// reader still holds fails before anything is allocated.
func readBytes(r io.Reader, n int64) ([]byte, error) {
	if l, ok := r.(interface{ Len() int }); ok && int64(l.Len()) < n {
		return nil, io.ErrUnexpectedEOF
	}
	buf, err := io.ReadAll(io.LimitReader(r, n))
	if err != nil {
		return nil, err
	}
	if int64(len(buf)) < n {
		return nil, io.ErrUnexpectedEOF
	}
	return buf, nil
}

// decodeObject decodes an AMF0 object.
func decodeObject(r io.Reader) (Object, error) {
	obj := make(Object)
	for {
		key, err := ReadString(r)
		if err != nil {
			return nil, err
		}
		if key == "" {
			// Object end marker
			var endMarker byte
			if err := binary.Read(r, binary.BigEndian, &endMarker); err != nil {
				return nil, err
			}
			if endMarker != TypeObjectEnd {
				return nil, ErrInvalidData
			}
			return obj, nil
		}
		value, err := Decode(r)
		if err != nil {
			return nil, err
		}
		obj[key] = value
	}
}

// decodeECMAArray decodes an AMF0 ECMA array.
func decodeECMAArray(r io.Reader) (Object, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	// ECMA arrays are decoded as objects
	return decodeObject(r)
}

// decodeStrictArray decodes an AMF0 strict array.
func decodeStrictArray(r io.Reader) (Array, error) {
	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return nil, err
	}
	arr := make(Array, 0, min(count, 64))
	for i := uint32(0); i < count; i++ {
		v, err := Decode(r)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
	return arr, nil
}

// decodeDate decodes an AMF0 date: milliseconds since epoch plus an unused timezone.
func decodeDate(r io.Reader) (time.Time, error) {
	var ms float64
	if err := binary.Read(r, binary.BigEndian, &ms); err != nil {
		return time.Time{}, err
	}
	var tz int16
	if err := binary.Read(r, binary.BigEndian, &tz); err != nil {
		return time.Time{}, err
	}
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return time.Time{}, ErrInvalidData
	}
	return time.UnixMilli(int64(ms)).UTC(), nil
}
