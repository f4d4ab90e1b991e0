package conv

import (
	"fmt"
	"math"
)

// Integer is the set of built-in integer types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64
}

// ToInt converts v to int.
func ToInt[T Integer](v T) (int, error) {
	if v < 0 {
		if int64(v) < math.MinInt {
			return 0, fmt.Errorf("integer overflow: %d cannot be converted to int (too small)", v)
		}
		return int(v), nil
	}
	if uint64(v) > math.MaxInt {
		return 0, fmt.Errorf("integer overflow: %d cannot be converted to int (too large)", v)
	}
	return int(v), nil
}

// Extent converts a header extent to int and requires it to be positive.
func Extent[T Integer](v T) (int, error) {
	n, err := ToInt(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("extent %d is not positive", v)
	}
	return n, nil
}

// MulInt multiplies non-negative factors and fails on overflow.
func MulInt(factors ...int) (int, error) {
	p := 1
	for _, f := range factors {
		if f < 0 {
			return 0, fmt.Errorf("negative factor %d", f)
		}
		if f != 0 && p > math.MaxInt/f {
			return 0, fmt.Errorf("integer overflow: product exceeds %d", math.MaxInt)
		}
		p *= f
	}
	return p, nil
}
