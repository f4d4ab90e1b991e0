package testutil

import (
	"math"
	"math/rand"
	"sync"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Random returns n samples drawn uniformly from [0, span) of T's value range,
// starting at T's minimum. span <= 0 covers the full range.
// Locks only once per call.
func Random[T dtype.Sample](r *RNG, n, span int) []T {
	t := dtype.Of[T]()
	lo, full := minValue(t), 1<<t.Bits()
	if span <= 0 || span > full {
		span = full
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, n)
	for i := range out {
		out[i] = T(lo + r.rand.Intn(span))
	}
	return out
}

// Blobs returns a volume with a noisy background around bg and Gaussian spots of
// amplitude peak, the typical shape of fluorescence microscopy stacks.
func Blobs[T dtype.Sample](r *RNG, shape geom.Shape, bg, noise, peak, spots int) []T {
	s := shape.Pad3()
	out := make([]float64, s.Len())

	r.mu.Lock()
	for i := range out {
		out[i] = float64(bg) + r.rand.NormFloat64()*float64(noise)
	}
	type spot struct{ z, y, x, sigma float64 }
	centers := make([]spot, spots)
	for i := range centers {
		centers[i] = spot{
			z:     r.rand.Float64() * float64(s[0]),
			y:     r.rand.Float64() * float64(s[1]),
			x:     r.rand.Float64() * float64(s[2]),
			sigma: 1 + r.rand.Float64()*2,
		}
	}
	r.mu.Unlock()

	for z := 0; z < s[0]; z++ {
		for y := 0; y < s[1]; y++ {
			for x := 0; x < s[2]; x++ {
				i := (z*s[1]+y)*s[2] + x
				for _, c := range centers {
					d := sq(float64(z)-c.z) + sq(float64(y)-c.y) + sq(float64(x)-c.x)
					out[i] += float64(peak) * math.Exp(-d/(2*c.sigma*c.sigma))
				}
			}
		}
	}
	return Clamp[T](out)
}

// Ramp returns n samples whose value is the linear index modulo mod (mod <= 0 wraps at T's range).
func Ramp[T dtype.Sample](n, mod int) []T {
	out := make([]T, n)
	for i := range out {
		v := i
		if mod > 0 {
			v = i % mod
		}
		out[i] = T(v)
	}
	return out
}

// Constant returns n copies of v.
func Constant[T dtype.Sample](n int, v T) []T {
	out := make([]T, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// Clamp rounds and saturates float values into T's range.
func Clamp[T dtype.Sample](in []float64) []T {
	t := dtype.Of[T]()
	lo := float64(minValue(t))
	hi := lo + float64(int(1)<<t.Bits()) - 1

	out := make([]T, len(in))
	for i, v := range in {
		v = math.Round(v)
		switch {
		case v < lo:
			v = lo
		case v > hi:
			v = hi
		}
		out[i] = T(int(v))
	}
	return out
}

func minValue(t dtype.Type) int {
	if t.Signed() {
		return -(1 << (t.Bits() - 1))
	}
	return 0
}

func sq(v float64) float64 { return v * v }
