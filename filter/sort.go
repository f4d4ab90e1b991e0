package filter

import (
	"cmp"
	"slices"
)

// ascendingOrder returns the block indices sorted by metric. Equal metrics keep their
// original order, so the first unused block with a given metric is taken first.
func ascendingOrder(metric []float64) []uint32 {
	order := make([]uint32, len(metric))
	for i := range order {
		order[i] = uint32(i) //nolint:gosec // block counts are bounded by the shape
	}
	slices.SortStableFunc(order, func(a, b uint32) int {
		return cmp.Compare(metric[a], metric[b])
	})
	return order
}
