package filter

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/internal/parallel"
	"github.com/hupe1980/voxpipe/stage"
)

// DiffPrefix is the name prefix of the diff stages; the suffix is the neighborhood
// extent along x, y and z.
const DiffPrefix = "diff"

// DefaultDiffNeighborhood is the 3x3 patch of the previous plane.
var DefaultDiffNeighborhood = geom.LastPlane(3)

var diffLabelRE = regexp.MustCompile(`^(\d+)x(\d+)x(\d+)$`)

// DiffNeighborhood resolves the extent label of a diff stage name, e.g. "3x3x1", to a
// preset. An empty label selects DefaultDiffNeighborhood.
func DiffNeighborhood(label string) (geom.Neighborhood, error) {
	if label == "" {
		return DefaultDiffNeighborhood, nil
	}
	m := diffLabelRE.FindStringSubmatch(label)
	if m == nil {
		return geom.Neighborhood{}, fmt.Errorf("filter: malformed diff extents %q", label)
	}
	x, _ := strconv.Atoi(m[1])
	y, _ := strconv.Atoi(m[2])
	z, _ := strconv.Atoi(m[3])
	switch {
	case z == 1 && y == x && x%2 == 1:
		return geom.LastPlane(x), nil
	case z == 1 && y == 1 && x > 0:
		return geom.LastPixelsOnLine(x), nil
	}
	return geom.Neighborhood{}, fmt.Errorf("filter: no causal neighborhood with extents %q", label)
}

// Diff stores every interior sample as its difference to the floored mean of a causal
// neighborhood. Samples whose neighborhood leaves the volume are kept as they are.
// Arithmetic wraps in the element width and the output is tagged with the signed
// counterpart of the input type.
type Diff struct {
	stage.Info
	nb   geom.Neighborhood
	taps int64
}

// NewDiff creates a diff stage over nb. nb must be causal.
func NewDiff(t dtype.Type, nb geom.Neighborhood, opts ...stage.Option) (*Diff, error) {
	name := DiffPrefix + nb.Label()
	if !t.Valid() {
		return nil, stage.NewConfigError(name, "type", t.String(), nil)
	}
	if !nb.Causal() {
		return nil, stage.NewConfigError(name, "neighborhood", nb.Name, errNotCausal)
	}
	return &Diff{
		Info: stage.NewInfo(name, stage.KindFilter, t, t.SignedCounterpart(), stage.ApplyOptions(opts)),
		nb:   nb,
		taps: int64(nb.Size()),
	}, nil
}

// Neighborhood returns the neighborhood the mean is taken over.
func (d *Diff) Neighborhood() geom.Neighborhood { return d.nb }

// Config names the neighborhood preset when the extents alone do not identify it.
func (d *Diff) Config() string {
	if nb, err := DiffNeighborhood(d.nb.Label()); err == nil && nb.Name == d.nb.Name {
		return ""
	}
	return "neighborhood=" + d.nb.Name
}

func (*Diff) MaxEncodedSize(n int) int { return n }

func (d *Diff) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := stage.CheckShape(d.Name(), d.InputType(), in, shape); err != nil {
		return 0, err
	}
	if err := stage.CheckCapacity(d.Name(), out, len(in)); err != nil {
		return 0, err
	}
	out = out[:len(in)]
	copy(out, in)

	switch d.InputType() {
	case dtype.Uint8:
		diffEncode(dtype.View[uint8](in), dtype.View[uint8](out), shape, d)
	case dtype.Int8:
		diffEncode(dtype.View[int8](in), dtype.View[int8](out), shape, d)
	case dtype.Uint16:
		diffEncode(dtype.View[uint16](in), dtype.View[uint16](out), shape, d)
	case dtype.Int16:
		diffEncode(dtype.View[int16](in), dtype.View[int16](out), shape, d)
	}
	return len(in), nil
}

func (d *Diff) Decode(in, out []byte, shape geom.Shape) error {
	if err := stage.CheckShape(d.Name(), d.OutputType(), in, shape); err != nil {
		return err
	}
	if err := stage.CheckCapacity(d.Name(), out, len(in)); err != nil {
		return err
	}
	out = out[:len(in)]
	copy(out, in)

	switch d.InputType() {
	case dtype.Uint8:
		diffDecode(dtype.View[uint8](in), dtype.View[uint8](out), shape, d)
	case dtype.Int8:
		diffDecode(dtype.View[int8](in), dtype.View[int8](out), shape, d)
	case dtype.Uint16:
		diffDecode(dtype.View[uint16](in), dtype.View[uint16](out), shape, d)
	case dtype.Int16:
		diffDecode(dtype.View[int16](in), dtype.View[int16](out), shape, d)
	}
	return nil
}

func neighborMean[T dtype.Sample](src []T, i int, taps []int, n int64) int64 {
	var sum int64
	for _, off := range taps {
		sum += int64(src[i+off])
	}
	return floorDiv(sum, n)
}

// diffEncode reads neighbors from the input only, so every interior row is independent.
func diffEncode[T dtype.Sample](in, out []T, shape geom.Shape, d *Diff) {
	halo := geom.NewHalo(shape, d.nb)
	rows, rowLen := halo.RowOffsets(), halo.RowLen()
	taps := d.nb.Offsets(shape)

	parallel.For(d.Threads(), len(rows), func(start, end int) {
		for _, base := range rows[start:end] {
			for i := base; i < base+rowLen; i++ {
				out[i] = T(int64(in[i]) - neighborMean(in, i, taps, d.taps))
			}
		}
	})
}

// diffDecode reconstructs in raster order from already restored neighbors. When the
// neighborhood only reaches into earlier planes, the rows of one plane are independent.
func diffDecode[T dtype.Sample](in, out []T, shape geom.Shape, d *Diff) {
	halo := geom.NewHalo(shape, d.nb)
	rows, rowLen := halo.RowOffsets(), halo.RowLen()
	taps := d.nb.Offsets(shape)

	restore := func(start, end int) {
		for _, base := range rows[start:end] {
			for i := base; i < base+rowLen; i++ {
				out[i] = T(int64(in[i]) + neighborMean(out, i, taps, d.taps))
			}
		}
	}

	if !d.nb.PlaneLocal() {
		restore(0, len(rows))
		return
	}
	perPlane := halo.End(geom.AxisY) - halo.Begin(geom.AxisY)
	for first := 0; first < len(rows); first += perPlane {
		parallel.For(d.Threads(), perPlane, func(start, end int) {
			restore(first+start, first+end)
		})
	}
}
