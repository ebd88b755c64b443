// If you are AI: This file defines AMF0 type constants and basic types.
// Values cross the codec as plain Go values: float64, bool, string, nil, Object, Array.

package amf0

import "math"

// AMF0 type markers
const (
	TypeNumber      = 0
	TypeBoolean     = 1
	TypeString      = 2
	TypeObject      = 3
	TypeNull        = 5
	TypeUndefined   = 6
	TypeReference   = 7
	TypeECMAArray   = 8
	TypeObjectEnd   = 9
	TypeStrictArray = 10
	TypeDate        = 11
	TypeLongString  = 12
	TypeXMLDocument = 15
	TypeTypedObject = 16
)

// Value represents a decoded AMF0 value.
type Value interface{}

// Object represents an AMF0 object (key-value pairs).
type Object map[string]Value

// Array represents an AMF0 strict array.
type Array []Value

// Integer reports whether v is a number holding an integral value.
// AMF0 has a single numeric type, so integers arrive as float64.
func Integer(v Value) (int64, bool) {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}
