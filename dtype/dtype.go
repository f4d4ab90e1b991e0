// Package dtype describes the fixed-width integer element types voxpipe stages operate on.
package dtype

import (
	"fmt"
	"strings"
	"unsafe"
)

// Type identifies the element type of a sample buffer.
type Type uint8

const (
	// Invalid is the zero Type.
	Invalid Type = iota
	// Uint8 is an unsigned 8-bit sample.
	Uint8
	// Int8 is a signed 8-bit sample.
	Int8
	// Uint16 is an unsigned 16-bit sample.
	Uint16
	// Int16 is a signed 16-bit sample.
	Int16
)

// Sample is the set of element types supported by the transform kernels.
type Sample interface {
	~uint8 | ~int8 | ~uint16 | ~int16
}

// String returns the stable tag of the type as written into headers.
func (t Type) String() string {
	switch t {
	case Uint8:
		return "uint8"
	case Int8:
		return "int8"
	case Uint16:
		return "uint16"
	case Int16:
		return "int16"
	default:
		return "invalid"
	}
}

// Parse parses a type tag. Tags are case-insensitive.
func Parse(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "uint8", "u8", "byte":
		return Uint8, nil
	case "int8", "i8":
		return Int8, nil
	case "uint16", "u16":
		return Uint16, nil
	case "int16", "i16":
		return Int16, nil
	default:
		return Invalid, fmt.Errorf("dtype: unknown element type %q", s)
	}
}

// Valid reports whether t is one of the supported element types.
func (t Type) Valid() bool {
	return t >= Uint8 && t <= Int16
}

// Size returns the width of one element in bytes.
func (t Type) Size() int {
	switch t {
	case Uint8, Int8:
		return 1
	case Uint16, Int16:
		return 2
	default:
		return 0
	}
}

// Bits returns the width of one element in bits.
func (t Type) Bits() int { return t.Size() * 8 }

// Signed reports whether t is a signed type.
func (t Type) Signed() bool { return t == Int8 || t == Int16 }

// SignedCounterpart returns the signed type of the same width.
func (t Type) SignedCounterpart() Type {
	switch t {
	case Uint8:
		return Int8
	case Uint16:
		return Int16
	default:
		return t
	}
}

// UnsignedCounterpart returns the unsigned type of the same width.
func (t Type) UnsignedCounterpart() Type {
	switch t {
	case Int8:
		return Uint8
	case Int16:
		return Uint16
	default:
		return t
	}
}

// Of returns the Type tag of the Sample type parameter T.
func Of[T Sample]() Type {
	var zero T
	switch any(zero).(type) {
	case uint8:
		return Uint8
	case int8:
		return Int8
	case uint16:
		return Uint16
	case int16:
		return Int16
	}
	// Named types fall back to size and signedness.
	size := unsafe.Sizeof(zero)
	signed := ^zero < 0
	switch {
	case size == 1 && signed:
		return Int8
	case size == 1:
		return Uint8
	case signed:
		return Int16
	default:
		return Uint16
	}
}

// View reinterprets b as a slice of T without copying.
// len(b) must be a multiple of the element size; trailing bytes are ignored.
func View[T Sample](b []byte) []T {
	var zero T
	n := len(b) / int(unsafe.Sizeof(zero))
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n) //nolint:gosec // element views over caller buffers
}

// Bytes reinterprets s as its underlying bytes without copying.
func Bytes[T Sample](s []T) []byte {
	if len(s) == 0 {
		return nil
	}
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*int(unsafe.Sizeof(zero))) //nolint:gosec // element views over caller buffers
}
