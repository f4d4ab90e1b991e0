package filter

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/bits-and-blooms/bitset"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/verbatim"
)

var (
	errOutOfRange  = errors.New("out of range for element type")
	errNotCausal   = errors.New("neighborhood must precede the element in raster order")
	errNotPositive = errors.New("must be positive")
)

// valueRange returns the smallest and largest value of t.
func valueRange(t dtype.Type) (lo, hi int) {
	if t.Signed() {
		return -(1 << (t.Bits() - 1)), 1<<(t.Bits()-1) - 1
	}
	return 0, 1<<t.Bits() - 1
}

func inRange(t dtype.Type, v int) bool {
	lo, hi := valueRange(t)
	return v >= lo && v <= hi
}

// floorDiv divides rounding towards negative infinity.
func floorDiv(a, b int64) int64 {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// median returns the rounded median of v. v is sorted in place.
func median[T dtype.Sample](v []T) float64 {
	if len(v) == 0 {
		return 0
	}
	slices.Sort(v)
	n := len(v)
	return math.Round((float64(v[(n-1)/2]) + float64(v[n/2])) / 2)
}

// FormatDecodeMap serializes a reorder map as little-endian uint32 words inside a
// verbatim block.
func FormatDecodeMap(m []uint32) string {
	buf := make([]byte, 4*len(m))
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[4*i:], v)
	}
	return verbatim.Encode(buf)
}

// ParseDecodeMap reverses FormatDecodeMap.
func ParseDecodeMap(s string) ([]uint32, error) {
	raw, err := verbatim.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("%w: %d bytes is not a multiple of 4", verbatim.ErrMalformed, len(raw))
	}
	m := make([]uint32, len(raw)/4)
	for i := range m {
		m[i] = binary.LittleEndian.Uint32(raw[4*i:])
	}
	return m, nil
}

// checkPermutation verifies that m holds every index in [0,n) exactly once.
func checkPermutation(name string, m []uint32, n int) error {
	if len(m) != n {
		return &ErrInvalidDecodeMap{Stage: name, Want: n, Got: len(m)}
	}
	seen := bitset.New(uint(n))
	for i, v := range m {
		if int(v) >= n {
			return &ErrInvalidDecodeMap{Stage: name, Want: n, Got: len(m),
				cause: fmt.Errorf("entry %d points to block %d", i, v)}
		}
		if seen.Test(uint(v)) {
			return &ErrInvalidDecodeMap{Stage: name, Want: n, Got: len(m),
				cause: fmt.Errorf("block %d appears twice", v)}
		}
		seen.Set(uint(v))
	}
	return nil
}
