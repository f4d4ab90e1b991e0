// Package histogram implements a fixed-bin frequency table over sample buffers.
//
// A Histogram has one bin per representable sample value. Derived statistics are
// computed over the populated bin range only and cached until the next Clear or Fill.
package histogram

import (
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/internal/parallel"
)

// DefaultSupport is the quantile used by background estimation.
const DefaultSupport = 0.99

// Histogram counts sample occurrences for the element type T.
// It is not safe for concurrent use.
type Histogram[T dtype.Sample] struct {
	bins    []uint64
	offset  int
	entries uint64

	cached *summary
}

type summary struct {
	smallest int
	largest  int
	integral uint64
	mode     int
	mean     float64
	median   float64
	entropy  float64
	support  map[float64]float64
}

// New creates an empty histogram for T.
func New[T dtype.Sample]() *Histogram[T] {
	t := dtype.Of[T]()
	h := &Histogram[T]{
		bins: make([]uint64, 1<<t.Bits()),
	}
	if t.Signed() {
		h.offset = 1 << (t.Bits() - 1)
	}
	return h
}

// FromSlice creates a histogram filled from data.
func FromSlice[T dtype.Sample](data []T) *Histogram[T] {
	h := New[T]()
	h.Fill(data)
	return h
}

// Bins returns the number of bins.
func (h *Histogram[T]) Bins() int { return len(h.bins) }

// Count returns the number of samples recorded for value v.
func (h *Histogram[T]) Count(v T) uint64 { return h.bins[h.index(v)] }

// Entries returns the number of samples filled since the last Clear.
func (h *Histogram[T]) Entries() uint64 { return h.entries }

func (h *Histogram[T]) index(v T) int { return int(v) + h.offset }

func (h *Histogram[T]) value(bin float64) float64 { return bin - float64(h.offset) }

// Clear resets every bin and drops cached statistics.
func (h *Histogram[T]) Clear() {
	clear(h.bins)
	h.entries = 0
	h.cached = nil
}

// Fill adds every sample of data to the histogram.
func (h *Histogram[T]) Fill(data []T) {
	for _, v := range data {
		h.bins[int(v)+h.offset]++
	}
	h.entries += uint64(len(data))
	h.cached = nil
}

// FillThreads is Fill with the counting split across threads workers.
func (h *Histogram[T]) FillThreads(data []T, threads int) {
	workers := min(parallel.Threads(threads), max(1, len(data)/(1<<16)))
	if workers <= 1 {
		h.Fill(data)
		return
	}

	var mu sync.Mutex
	chunk := (len(data) + workers - 1) / workers
	parallel.For(workers, workers, func(start, end int) {
		local := make([]uint64, len(h.bins))
		for w := start; w < end; w++ {
			lo := w * chunk
			hi := min(lo+chunk, len(data))
			for _, v := range data[lo:hi] {
				local[int(v)+h.offset]++
			}
		}
		mu.Lock()
		for i, c := range local {
			h.bins[i] += c
		}
		mu.Unlock()
	})
	h.entries += uint64(len(data))
	h.cached = nil
}

func (h *Histogram[T]) summary() *summary {
	if h.cached != nil {
		return h.cached
	}
	s := &summary{smallest: -1, largest: -1, support: make(map[float64]float64)}
	for i, c := range h.bins {
		if c == 0 {
			continue
		}
		if s.smallest < 0 {
			s.smallest = i
		}
		s.largest = i
		s.integral += c
	}
	if s.integral == 0 {
		s.smallest, s.largest = 0, 0
		h.cached = s
		return s
	}

	populated := h.bins[s.smallest : s.largest+1]
	xs := make([]float64, len(populated))
	ws := make([]float64, len(populated))
	ps := make([]float64, len(populated))
	var best uint64
	for i, c := range populated {
		xs[i] = float64(s.smallest + i)
		ws[i] = float64(c)
		ps[i] = float64(c) / float64(s.integral)
		if c > best {
			best = c
			s.mode = s.smallest + i
		}
	}

	s.mean = stat.Mean(xs, ws)
	s.entropy = stat.Entropy(ps) / math.Ln2
	s.median = h.supportIndex(s, 0.5)
	s.support[0.5] = s.median

	h.cached = s
	return s
}

// supportIndex returns the interpolated bin index at which the normalized cumulative
// count first exceeds q.
func (h *Histogram[T]) supportIndex(s *summary, q float64) float64 {
	total := float64(s.integral)
	idx := s.largest + 1
	var running float64
	for i := s.smallest; i <= s.largest; i++ {
		running += float64(h.bins[i])
		if running/total > q {
			idx = i
			break
		}
	}
	if idx == 0 {
		return 0
	}
	var cur float64
	if idx < len(h.bins) {
		cur = float64(h.bins[idx])
	}
	prev := float64(h.bins[idx-1])
	if cur+prev == 0 {
		return float64(idx)
	}
	return (cur*float64(idx) + prev*float64(idx-1)) / (cur + prev)
}

// Integral returns the total count over all bins.
func (h *Histogram[T]) Integral() uint64 { return h.summary().integral }

// SmallestPopulated returns the smallest value with a non-zero count.
func (h *Histogram[T]) SmallestPopulated() T { return T(h.summary().smallest - h.offset) }

// LargestPopulated returns the largest value with a non-zero count.
func (h *Histogram[T]) LargestPopulated() T { return T(h.summary().largest - h.offset) }

// Mode returns the most frequent value. Ties resolve to the smallest value.
func (h *Histogram[T]) Mode() T { return T(h.summary().mode - h.offset) }

// Mean returns the count-weighted mean value.
func (h *Histogram[T]) Mean() float64 {
	s := h.summary()
	if s.integral == 0 {
		return 0
	}
	return h.value(s.mean)
}

// Median returns Support(0.5).
func (h *Histogram[T]) Median() float64 {
	s := h.summary()
	if s.integral == 0 {
		return 0
	}
	return h.value(s.median)
}

// Entropy returns the Shannon entropy of the value distribution in bits.
func (h *Histogram[T]) Entropy() float64 { return h.summary().entropy }

// Support returns the value at which the normalized cumulative count first exceeds q,
// interpolated with the preceding bin. q must lie in [0,1]; other values return 0.
// Support(1) is the largest populated value. Results are cached per q.
func (h *Histogram[T]) Support(q float64) float64 {
	if q < 0 || q > 1 {
		return 0
	}
	s := h.summary()
	if s.integral == 0 {
		return 0
	}
	idx, ok := s.support[q]
	if !ok {
		idx = h.supportIndex(s, q)
		s.support[q] = idx
	}
	return h.value(idx)
}
