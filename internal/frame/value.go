package frame

import (
	"math"
	"strconv"
)

type valueKind uint8

const (
	nullValue valueKind = iota
	stringValue
	intValue
	floatValue
	bytesValue
)

// Value is a single null-aware cell. The zero Value is the null marker.
type Value struct {
	kind valueKind
	s    string
	i    int64
	f    float64
	b    []byte
}

// Null returns the null marker.
func Null() Value { return Value{} }

// String returns a string cell.
func String(s string) Value { return Value{kind: stringValue, s: s} }

// Int returns an integer cell.
func Int(i int64) Value { return Value{kind: intValue, i: i} }

// Float returns a floating point cell. NaN is stored as null.
func Float(f float64) Value {
	if math.IsNaN(f) {
		return Null()
	}
	return Value{kind: floatValue, f: f}
}

// Bytes returns a binary cell. A nil slice is stored as null.
func Bytes(b []byte) Value {
	if b == nil {
		return Null()
	}
	return Value{kind: bytesValue, b: b}
}

// IsNull reports whether v is the null marker.
func (v Value) IsNull() bool { return v.kind == nullValue }

// IsNumeric reports whether v holds an int or a float.
func (v Value) IsNumeric() bool { return v.kind == intValue || v.kind == floatValue }

// IsInt reports whether v holds an int.
func (v Value) IsInt() bool { return v.kind == intValue }

// Str returns the string payload and whether v is a string cell.
func (v Value) Str() (string, bool) { return v.s, v.kind == stringValue }

// Int64 returns the integer payload. Integral floats are accepted.
func (v Value) Int64() (int64, bool) {
	switch v.kind {
	case intValue:
		return v.i, true
	case floatValue:
		if v.f == math.Trunc(v.f) && !math.IsInf(v.f, 0) {
			return int64(v.f), true
		}
	}
	return 0, false
}

// Float64 returns the numeric payload widened to float64.
func (v Value) Float64() (float64, bool) {
	switch v.kind {
	case intValue:
		return float64(v.i), true
	case floatValue:
		return v.f, true
	}
	return 0, false
}

// BytesValue returns the binary payload and whether v is a bytes cell.
func (v Value) BytesValue() ([]byte, bool) { return v.b, v.kind == bytesValue }

// Text renders v the way it would appear in a delimited file.
// Null renders as the empty string.
func (v Value) Text() string {
	switch v.kind {
	case stringValue:
		return v.s
	case intValue:
		return strconv.FormatInt(v.i, 10)
	case floatValue:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case bytesValue:
		return string(v.b)
	}
	return ""
}

// Equal reports whether two cells hold the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case stringValue:
		return v.s == o.s
	case intValue:
		return v.i == o.i
	case floatValue:
		return v.f == o.f
	case bytesValue:
		return string(v.b) == string(o.b)
	}
	return true
}

// String implements fmt.Stringer for test output.
func (v Value) String() string {
	if v.IsNull() {
		return "<null>"
	}
	return v.Text()
}
