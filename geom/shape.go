// Package geom provides shape, neighborhood and halo arithmetic for row-major volumes.
//
// Axes are ordered z,y,x with x varying fastest. Every helper in this package is a
// pure function of its arguments.
package geom

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxRank is the highest supported number of axes.
const MaxRank = 3

// ErrInvalidShape is returned for shapes with no axes, too many axes or a non-positive extent.
var ErrInvalidShape = errors.New("geom: invalid shape")

// Shape holds the extents of a volume, outermost axis first (z,y,x).
type Shape []int

// Rank returns the number of axes.
func (s Shape) Rank() int { return len(s) }

// Len returns the number of elements covered by the shape.
func (s Shape) Len() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, e := range s {
		n *= e
	}
	return n
}

// Validate checks rank and extents.
func (s Shape) Validate() error {
	if len(s) == 0 || len(s) > MaxRank {
		return fmt.Errorf("%w: rank %d", ErrInvalidShape, len(s))
	}
	for i, e := range s {
		if e <= 0 {
			return fmt.Errorf("%w: extent %d on axis %d", ErrInvalidShape, e, i)
		}
	}
	return nil
}

// Pad3 returns a rank-3 copy of s, left-padded with extents of 1.
func (s Shape) Pad3() Shape {
	out := Shape{1, 1, 1}
	copy(out[MaxRank-len(s):], s)
	return out
}

// Equal reports whether both shapes have the same extents.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of s.
func (s Shape) Clone() Shape {
	return append(Shape(nil), s...)
}

// String formats the shape as "ZxYxX", e.g. "8x16x32".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, e := range s {
		parts[i] = strconv.Itoa(e)
	}
	return strings.Join(parts, "x")
}

// Strides returns the row-major element stride of each axis.
func (s Shape) Strides() []int {
	st := make([]int, len(s))
	acc := 1
	for i := len(s) - 1; i >= 0; i-- {
		st[i] = acc
		acc *= s[i]
	}
	return st
}

// ParseShape parses the String form of a shape.
func ParseShape(str string) (Shape, error) {
	fields := strings.Split(str, "x")
	s := make(Shape, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidShape, str)
		}
		s = append(s, v)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
