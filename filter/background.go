package filter

import (
	"fmt"
	"math"
	"strconv"
	"sync"

	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/histogram"
	"github.com/hupe1980/voxpipe/internal/parallel"
	"github.com/hupe1980/voxpipe/stage"
)

// Stage names of the background removal family.
const (
	ThresholdName           = "rmbkrd"
	FlattenPrefix           = "rmbkrd_neighbor"
	EstimatedBackgroundName = "rmestbkrd"
)

// Flatten defaults.
var (
	DefaultFlattenNeighborhood = geom.Cube(5)
	DefaultFlattenFraction     = 0.5
)

// Threshold subtracts a constant background and clips at zero.
type Threshold struct {
	stage.Info
	threshold int
}

// NewThreshold creates a threshold removal stage.
func NewThreshold(t dtype.Type, threshold int, opts ...stage.Option) (*Threshold, error) {
	if !t.Valid() {
		return nil, stage.NewConfigError(ThresholdName, "type", t.String(), nil)
	}
	if !inRange(t, threshold) {
		return nil, stage.NewConfigError(ThresholdName, "threshold", strconv.Itoa(threshold), errOutOfRange)
	}
	return &Threshold{
		Info:      stage.NewInfo(ThresholdName, stage.KindFilter, t, t, stage.ApplyOptions(opts)),
		threshold: threshold,
	}, nil
}

// Threshold returns the subtracted background value.
func (s *Threshold) Threshold() int { return s.threshold }

func (s *Threshold) Config() string { return "threshold=" + strconv.Itoa(s.threshold) }

func (*Threshold) MaxEncodedSize(n int) int { return n }

func (*Threshold) Lossy() bool { return true }

func (s *Threshold) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return 0, err
	}
	out = out[:len(in)]
	switch s.InputType() {
	case dtype.Uint8:
		subtract(dtype.View[uint8](in), dtype.View[uint8](out), uint8(s.threshold), s.Threads())
	case dtype.Int8:
		subtract(dtype.View[int8](in), dtype.View[int8](out), int8(s.threshold), s.Threads())
	case dtype.Uint16:
		subtract(dtype.View[uint16](in), dtype.View[uint16](out), uint16(s.threshold), s.Threads())
	case dtype.Int16:
		subtract(dtype.View[int16](in), dtype.View[int16](out), int16(s.threshold), s.Threads())
	}
	return len(in), nil
}

func (s *Threshold) Decode(in, out []byte, shape geom.Shape) error {
	return copyDecode(s, in, out, shape)
}

func subtract[T dtype.Sample](in, out []T, t T, threads int) {
	parallel.For(threads, len(in), func(start, end int) {
		for i := start; i < end; i++ {
			if in[i] > t {
				out[i] = in[i] - t
			} else {
				out[i] = 0
			}
		}
	})
}

// Flatten zeroes bright samples that are mostly surrounded by background: a sample at
// or above the threshold is set to 0 when more than fraction of its neighbors, the
// sample itself excluded, are below the threshold.
type Flatten struct {
	stage.Info
	threshold int
	fraction  float64
	nb        geom.Neighborhood

	suppressed *roaring64.Bitmap
}

// NewFlatten creates a flatten stage. nb must contain the origin.
func NewFlatten(t dtype.Type, threshold int, fraction float64, nb geom.Neighborhood, opts ...stage.Option) (*Flatten, error) {
	name := FlattenPrefix + nb.Label()
	if !t.Valid() {
		return nil, stage.NewConfigError(name, "type", t.String(), nil)
	}
	if !inRange(t, threshold) {
		return nil, stage.NewConfigError(name, "threshold", strconv.Itoa(threshold), errOutOfRange)
	}
	if fraction < 0 || fraction > 1 || math.IsNaN(fraction) {
		return nil, stage.NewConfigError(name, "fraction", strconv.FormatFloat(fraction, 'g', -1, 64), errOutOfRange)
	}
	if nb.Size() < 2 || !nb.Contains(0, 0, 0) {
		return nil, stage.NewConfigError(name, "neighborhood", nb.Name, errNotPositive)
	}
	return &Flatten{
		Info:      stage.NewInfo(name, stage.KindFilter, t, t, stage.ApplyOptions(opts)),
		threshold: threshold,
		fraction:  fraction,
		nb:        nb,
	}, nil
}

// FlattenNeighborhood resolves the extent label of a flatten stage name, e.g.
// "5x5x5", to a cube. An empty label selects DefaultFlattenNeighborhood.
func FlattenNeighborhood(label string) (geom.Neighborhood, error) {
	if label == "" {
		return DefaultFlattenNeighborhood, nil
	}
	m := diffLabelRE.FindStringSubmatch(label)
	if m == nil || m[1] != m[2] || m[2] != m[3] {
		return geom.Neighborhood{}, fmt.Errorf("filter: no cube with extents %q", label)
	}
	n, _ := strconv.Atoi(m[1])
	return geom.Cube(n), nil
}

// Config names the neighborhood preset when the extents alone do not identify it.
func (s *Flatten) Config() string {
	cfg := "threshold=" + strconv.Itoa(s.threshold) + ",fraction=" + strconv.FormatFloat(s.fraction, 'g', -1, 64)
	if nb, err := FlattenNeighborhood(s.nb.Label()); err != nil || nb.Name != s.nb.Name {
		cfg += ",neighborhood=" + s.nb.Name
	}
	return cfg
}

// Neighborhood returns the box the background fraction is measured over.
func (s *Flatten) Neighborhood() geom.Neighborhood { return s.nb }

func (*Flatten) MaxEncodedSize(n int) int { return n }

func (*Flatten) Lossy() bool { return true }

// Suppressed returns the flat indices zeroed by the last Encode, or nil before the
// first Encode.
func (s *Flatten) Suppressed() *roaring64.Bitmap { return s.suppressed }

func (s *Flatten) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return 0, err
	}
	out = out[:len(in)]
	copy(out, in)
	switch s.InputType() {
	case dtype.Uint8:
		s.suppressed = flatten(dtype.View[uint8](in), dtype.View[uint8](out), shape, uint8(s.threshold), s)
	case dtype.Int8:
		s.suppressed = flatten(dtype.View[int8](in), dtype.View[int8](out), shape, int8(s.threshold), s)
	case dtype.Uint16:
		s.suppressed = flatten(dtype.View[uint16](in), dtype.View[uint16](out), shape, uint16(s.threshold), s)
	case dtype.Int16:
		s.suppressed = flatten(dtype.View[int16](in), dtype.View[int16](out), shape, int16(s.threshold), s)
	}
	return len(in), nil
}

func (s *Flatten) Decode(in, out []byte, shape geom.Shape) error {
	return copyDecode(s, in, out, shape)
}

// flatten expects out to hold a copy of in.
func flatten[T dtype.Sample](in, out []T, shape geom.Shape, t T, s *Flatten) *roaring64.Bitmap {
	halo := geom.NewHalo(shape, s.nb)
	rows, rowLen := halo.RowOffsets(), halo.RowLen()

	taps := make([]int, 0, s.nb.Size()-1)
	for _, off := range s.nb.Offsets(shape) {
		if off != 0 {
			taps = append(taps, off)
		}
	}
	limit := s.fraction * float64(s.nb.Size()-1)

	var mu sync.Mutex
	suppressed := roaring64.New()
	parallel.For(s.Threads(), len(rows), func(start, end int) {
		local := roaring64.New()
		for _, base := range rows[start:end] {
			for i := base; i < base+rowLen; i++ {
				if in[i] < t {
					continue
				}
				dark := 0
				for _, off := range taps {
					if in[i+off] < t {
						dark++
					}
				}
				if float64(dark) > limit {
					out[i] = 0
					local.Add(uint64(i)) //nolint:gosec // i is a non-negative index
				}
			}
		}
		mu.Lock()
		suppressed.Or(local)
		mu.Unlock()
	})
	return suppressed
}

// EstimatedBackground derives the threshold from the darkest face of the volume and
// then applies Flatten followed by Threshold.
//
// The candidate faces are the first and the last frame, and the first and the last row
// sampled at z = 1, the middle frame and the last frame. The face with the lowest 99%
// support wins.
type EstimatedBackground struct {
	stage.Info
	opts      []stage.Option
	threshold int
}

// NewEstimatedBackground creates the stage. threshold < 0 means not yet estimated; a
// decoded configuration passes the recorded value.
func NewEstimatedBackground(t dtype.Type, threshold int, opts ...stage.Option) (*EstimatedBackground, error) {
	if !t.Valid() {
		return nil, stage.NewConfigError(EstimatedBackgroundName, "type", t.String(), nil)
	}
	if threshold >= 0 && !inRange(t, threshold) {
		return nil, stage.NewConfigError(EstimatedBackgroundName, "threshold", strconv.Itoa(threshold), errOutOfRange)
	}
	return &EstimatedBackground{
		Info:      stage.NewInfo(EstimatedBackgroundName, stage.KindFilter, t, t, stage.ApplyOptions(opts)),
		opts:      opts,
		threshold: max(threshold, -1),
	}, nil
}

// Threshold returns the estimated background and whether it is known.
func (s *EstimatedBackground) Threshold() (int, bool) { return s.threshold, s.threshold >= 0 }

// Config records the threshold found by the last Encode.
func (s *EstimatedBackground) Config() string {
	if s.threshold < 0 {
		return ""
	}
	return "threshold=" + strconv.Itoa(s.threshold)
}

func (*EstimatedBackground) MaxEncodedSize(n int) int { return n }

// MaxConfigSize bounds the configuration once a threshold is recorded.
func (*EstimatedBackground) MaxConfigSize(geom.Shape) int { return len("threshold=-32768") }

func (*EstimatedBackground) Lossy() bool { return true }

func (s *EstimatedBackground) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return 0, err
	}

	var est float64
	switch s.InputType() {
	case dtype.Uint8:
		est = darkestFaceSupport(dtype.View[uint8](in), shape)
	case dtype.Int8:
		est = darkestFaceSupport(dtype.View[int8](in), shape)
	case dtype.Uint16:
		est = darkestFaceSupport(dtype.View[uint16](in), shape)
	case dtype.Int16:
		est = darkestFaceSupport(dtype.View[int16](in), shape)
	}
	t := int(math.Floor(est))
	lo, _ := valueRange(s.InputType())
	t = max(t, lo)

	fl, err := NewFlatten(s.InputType(), t, DefaultFlattenFraction, DefaultFlattenNeighborhood, s.opts...)
	if err != nil {
		return 0, err
	}
	th, err := NewThreshold(s.InputType(), t, s.opts...)
	if err != nil {
		return 0, err
	}
	if _, err := fl.Encode(in, out, shape); err != nil {
		return 0, err
	}
	// Threshold is element-wise and may run in place.
	if _, err := th.Encode(out[:len(in)], out, shape); err != nil {
		return 0, err
	}
	s.threshold = t
	return len(in), nil
}

func (s *EstimatedBackground) Decode(in, out []byte, shape geom.Shape) error {
	return copyDecode(s, in, out, shape)
}

// darkestFaceSupport returns the lowest histogram support over the candidate faces.
func darkestFaceSupport[T dtype.Sample](in []T, shape geom.Shape) float64 {
	s := shape.Pad3()
	depth, height, width := s[0], s[1], s[2]
	frame := height * width

	faces := [][]T{
		in[:frame],
		in[(depth-1)*frame:],
	}
	planes := []int{min(1, depth-1), depth / 2, depth - 1}
	for _, y := range []int{0, height - 1} {
		face := make([]T, 0, len(planes)*width)
		for _, z := range planes {
			off := z*frame + y*width
			face = append(face, in[off:off+width]...)
		}
		faces = append(faces, face)
	}

	best := math.Inf(1)
	for _, face := range faces {
		best = math.Min(best, histogram.FromSlice(face).Support(histogram.DefaultSupport))
	}
	return best
}

type filterStage interface {
	Name() string
	InputType() dtype.Type
}

func checkFilterIO(s filterStage, in, out []byte, shape geom.Shape) error {
	if err := stage.CheckShape(s.Name(), s.InputType(), in, shape); err != nil {
		return err
	}
	return stage.CheckCapacity(s.Name(), out, len(in))
}

// copyDecode is the Decode of stages whose encoding cannot be undone.
func copyDecode(s filterStage, in, out []byte, shape geom.Shape) error {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return err
	}
	copy(out, in)
	return nil
}
