// Package tuple implements the order-preserving tuple codec the key-space
// layout is built on. spec.md treats this codec as an external collaborator
// with a documented ordering law (lexicographic byte order matches
// tuple-lexicographic order over the supported element types); no such
// library is present in the retrieved corpus (FoundationDB's tuple layer
// being the obvious real-world instance), so it is implemented directly
// from that law here.
package tuple

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Kind identifies the variant carried by a Value.
type Kind byte

const (
	kindNull Kind = iota
	kindBytes
	kindString
	kindInt
	kindUint
	kindFloat
	kindBool
	kindTuple
)

// Value is one element of a packable tuple. Construct with the Str, Int,
// Uint, Float, Bool, Bytes, Nested, or Null helpers.
type Value struct {
	kind   Kind
	str    string
	i      int64
	u      uint64
	f      float64
	b      bool
	bytes  []byte
	nested []Value
}

// Null returns the tuple null value.
func Null() Value { return Value{kind: kindNull} }

// Str returns a string tuple value.
func Str(s string) Value { return Value{kind: kindString, str: s} }

// Int returns a signed 64-bit integer tuple value.
func Int(i int64) Value { return Value{kind: kindInt, i: i} }

// Uint returns an unsigned 64-bit integer tuple value.
func Uint(u uint64) Value { return Value{kind: kindUint, u: u} }

// Float returns an IEEE-754 binary64 tuple value.
func Float(f float64) Value { return Value{kind: kindFloat, f: f} }

// Bool returns a boolean tuple value.
func Bool(b bool) Value { return Value{kind: kindBool, b: b} }

// Bytes returns a byte-string tuple value.
func Bytes(b []byte) Value { return Value{kind: kindBytes, bytes: b} }

// Nested returns a tuple value that embeds another tuple.
func Nested(values ...Value) Value { return Value{kind: kindTuple, nested: values} }

// IsNull reports whether v is the null value.
func (v Value) IsNull() bool { return v.kind == kindNull }

// AsString returns the string payload of v; ok is false for non-string values.
func (v Value) AsString() (s string, ok bool) { return v.str, v.kind == kindString }

// AsInt returns the int64 payload of v; ok is false for non-int values.
func (v Value) AsInt() (i int64, ok bool) { return v.i, v.kind == kindInt }

// AsUint returns the uint64 payload of v; ok is false for non-uint values.
func (v Value) AsUint() (u uint64, ok bool) { return v.u, v.kind == kindUint }

// AsFloat returns the float64 payload of v; ok is false for non-float values.
func (v Value) AsFloat() (f float64, ok bool) { return v.f, v.kind == kindFloat }

// AsBool returns the bool payload of v; ok is false for non-bool values.
func (v Value) AsBool() (b bool, ok bool) { return v.b, v.kind == kindBool }

// AsBytes returns the byte-string payload of v; ok is false for non-bytes values.
func (v Value) AsBytes() (b []byte, ok bool) { return v.bytes, v.kind == kindBytes }

// Pack encodes values into a byte string whose lexicographic order matches
// the tuple-lexicographic order of values. A nested tuple is packed as a
// 4-byte big-endian length followed by its elements, so nested tuples order
// by packed length before content; for every other element kind the byte
// order matches the value order.
func Pack(values ...Value) []byte {
	var out []byte
	for _, v := range values {
		out = appendValue(out, v)
	}
	return out
}

// PackInt64 packs a single int64, the shape used for row-id values.
func PackInt64(i int64) []byte { return Pack(Int(i)) }

// UnpackInt64 unpacks a single int64 previously packed by PackInt64.
func UnpackInt64(b []byte) (int64, error) {
	values, err := Unpack(b)
	if err != nil {
		return 0, err
	}
	if len(values) != 1 {
		return 0, fmt.Errorf("tuple: expected exactly one element, got %d", len(values))
	}
	i, ok := values[0].AsInt()
	if !ok {
		return 0, fmt.Errorf("tuple: expected int element, got kind %d", values[0].kind)
	}
	return i, nil
}

func appendValue(out []byte, v Value) []byte {
	switch v.kind {
	case kindNull:
		return append(out, byte(kindNull))
	case kindBytes:
		out = append(out, byte(kindBytes))
		return appendEscaped(out, v.bytes)
	case kindString:
		out = append(out, byte(kindString))
		return appendEscaped(out, []byte(v.str))
	case kindInt:
		out = append(out, byte(kindInt))
		var buf [8]byte
		// Flip the sign bit so two's-complement order becomes unsigned order.
		binary.BigEndian.PutUint64(buf[:], uint64(v.i)^signBit)
		return append(out, buf[:]...)
	case kindUint:
		out = append(out, byte(kindUint))
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], v.u)
		return append(out, buf[:]...)
	case kindFloat:
		out = append(out, byte(kindFloat))
		var buf [8]byte
		binary.BigEndian.PutUint64(buf[:], floatOrderedBits(v.f))
		return append(out, buf[:]...)
	case kindBool:
		out = append(out, byte(kindBool))
		if v.b {
			return append(out, 1)
		}
		return append(out, 0)
	case kindTuple:
		out = append(out, byte(kindTuple))
		inner := Pack(v.nested...)
		var lenBuf [4]byte
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(inner)))
		out = append(out, lenBuf[:]...)
		return append(out, inner...)
	default:
		return out
	}
}

const signBit = uint64(1) << 63

// floatOrderedBits maps an IEEE-754 float64 to a uint64 whose unsigned
// ordering matches the float's numeric ordering (the standard total-order
// transform: flip the sign bit for non-negatives, flip every bit for
// negatives).
func floatOrderedBits(f float64) uint64 {
	bits := math.Float64bits(f)
	if bits&signBit != 0 {
		return ^bits
	}
	return bits | signBit
}

func floatFromOrderedBits(ordered uint64) float64 {
	if ordered&signBit != 0 {
		return math.Float64frombits(ordered &^ signBit)
	}
	return math.Float64frombits(^ordered)
}

// appendEscaped writes a 0x00-escaped, 0x0000-terminated byte string, the
// standard technique for making variable-length elements sort correctly
// ahead of whatever follows them in the same tuple.
func appendEscaped(out, b []byte) []byte {
	for _, c := range b {
		if c == 0x00 {
			out = append(out, 0x00, 0xFF)
		} else {
			out = append(out, c)
		}
	}
	return append(out, 0x00, 0x00)
}

// Unpack decodes a byte string previously produced by Pack.
func Unpack(b []byte) ([]Value, error) {
	var values []Value
	for len(b) > 0 {
		v, rest, err := decodeOne(b)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		b = rest
	}
	return values, nil
}

func decodeOne(b []byte) (Value, []byte, error) {
	if len(b) == 0 {
		return Value{}, nil, fmt.Errorf("tuple: unexpected end of input")
	}
	kind := Kind(b[0])
	rest := b[1:]
	switch kind {
	case kindNull:
		return Null(), rest, nil
	case kindBytes:
		raw, tail, err := readEscaped(rest)
		if err != nil {
			return Value{}, nil, err
		}
		return Bytes(raw), tail, nil
	case kindString:
		raw, tail, err := readEscaped(rest)
		if err != nil {
			return Value{}, nil, err
		}
		return Str(string(raw)), tail, nil
	case kindInt:
		if len(rest) < 8 {
			return Value{}, nil, fmt.Errorf("tuple: truncated int")
		}
		u := binary.BigEndian.Uint64(rest[:8])
		return Int(int64(u ^ signBit)), rest[8:], nil
	case kindUint:
		if len(rest) < 8 {
			return Value{}, nil, fmt.Errorf("tuple: truncated uint")
		}
		u := binary.BigEndian.Uint64(rest[:8])
		return Uint(u), rest[8:], nil
	case kindFloat:
		if len(rest) < 8 {
			return Value{}, nil, fmt.Errorf("tuple: truncated float")
		}
		u := binary.BigEndian.Uint64(rest[:8])
		return Float(floatFromOrderedBits(u)), rest[8:], nil
	case kindBool:
		if len(rest) < 1 {
			return Value{}, nil, fmt.Errorf("tuple: truncated bool")
		}
		return Bool(rest[0] != 0), rest[1:], nil
	case kindTuple:
		if len(rest) < 4 {
			return Value{}, nil, fmt.Errorf("tuple: truncated nested length")
		}
		n := binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
		if uint64(len(rest)) < uint64(n) {
			return Value{}, nil, fmt.Errorf("tuple: truncated nested payload")
		}
		inner, err := Unpack(rest[:n])
		if err != nil {
			return Value{}, nil, err
		}
		return Nested(inner...), rest[n:], nil
	default:
		return Value{}, nil, fmt.Errorf("tuple: unknown tag byte %d", kind)
	}
}

// readEscaped reads an escaped, terminator-delimited byte string written by
// appendEscaped, returning the unescaped payload and the remaining input.
func readEscaped(b []byte) (payload, rest []byte, err error) {
	var out []byte
	i := 0
	for {
		if i >= len(b) {
			return nil, nil, fmt.Errorf("tuple: unterminated escaped value")
		}
		if b[i] == 0x00 {
			if i+1 >= len(b) {
				return nil, nil, fmt.Errorf("tuple: truncated escape sequence")
			}
			switch b[i+1] {
			case 0xFF:
				out = append(out, 0x00)
				i += 2
				continue
			case 0x00:
				return out, b[i+2:], nil
			default:
				return nil, nil, fmt.Errorf("tuple: invalid escape sequence 0x00 0x%02x", b[i+1])
			}
		}
		out = append(out, b[i])
		i++
	}
}
