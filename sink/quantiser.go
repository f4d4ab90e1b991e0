package sink

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/histogram"
	"github.com/hupe1980/voxpipe/internal/parallel"
	"github.com/hupe1980/voxpipe/stage"
	"github.com/hupe1980/voxpipe/verbatim"
)

// QuantiserName is the name of the quantiser sink.
const QuantiserName = "quantiser"

// QuantiserLevels is the number of output levels.
const QuantiserLevels = 256

// Weighting scales the histogram count of every input value before buckets are formed.
type Weighting string

const (
	WeightNone      Weighting = "none"
	WeightPowerLaw1 Weighting = "power_law_1"
	WeightPowerLaw2 Weighting = "power_law_2"
)

// ParseWeighting resolves a weighting name. An empty name selects WeightNone.
func ParseWeighting(s string) (Weighting, error) {
	switch w := Weighting(strings.TrimSpace(s)); w {
	case "":
		return WeightNone, nil
	case WeightNone, WeightPowerLaw1, WeightPowerLaw2:
		return w, nil
	default:
		return "", fmt.Errorf("sink: unknown weighting %q", s)
	}
}

func (w Weighting) weight(v int) float64 {
	switch w {
	case WeightPowerLaw1:
		return float64(v)
	case WeightPowerLaw2:
		return float64(v) * float64(v)
	default:
		return 1
	}
}

// Quantiser maps uint16 samples to 256 levels of equal importance, where the importance
// of a value is its count times its weight. Every level decodes to the importance
// weighted mean of the values it covers.
type Quantiser struct {
	stage.Info
	weighting Weighting
	decodeLUT []uint16
}

// NewQuantiser creates a quantiser for uint16 input.
func NewQuantiser(t dtype.Type, weighting Weighting, opts ...stage.Option) (*Quantiser, error) {
	if t != dtype.Uint16 {
		return nil, stage.NewConfigError(QuantiserName, "type", t.String(), fmt.Errorf("only %s is supported", dtype.Uint16))
	}
	w, err := ParseWeighting(string(weighting))
	if err != nil {
		return nil, stage.NewConfigError(QuantiserName, "weighting", string(weighting), err)
	}
	return &Quantiser{
		Info:      stage.NewInfo(QuantiserName, stage.KindSink, t, dtype.Uint8, stage.ApplyOptions(opts)),
		weighting: w,
	}, nil
}

// DecodeLUT returns the level table built by the last Encode or SetDecodeLUT.
func (q *Quantiser) DecodeLUT() []uint16 { return q.decodeLUT }

// SetDecodeLUT restores a level table.
func (q *Quantiser) SetDecodeLUT(lut []uint16) error {
	if len(lut) != QuantiserLevels {
		return fmt.Errorf("%w: decode table has %d levels, want %d", ErrCorrupt, len(lut), QuantiserLevels)
	}
	q.decodeLUT = lut
	return nil
}

func (q *Quantiser) Config() string {
	var parts []string
	if q.weighting != WeightNone {
		parts = append(parts, "weighting="+string(q.weighting))
	}
	if q.decodeLUT != nil {
		parts = append(parts, "decode_lut="+FormatLUT(q.decodeLUT))
	}
	return strings.Join(parts, ",")
}

func (*Quantiser) MaxEncodedSize(n int) int { return n / 2 }

// MaxConfigSize bounds the configuration once a decode table is recorded.
func (q *Quantiser) MaxConfigSize(geom.Shape) int {
	return len("weighting=") + len(WeightPowerLaw2) + len(",decode_lut=") + verbatim.EncodedLen(2*QuantiserLevels)
}

func (*Quantiser) Lossy() bool { return true }

func (q *Quantiser) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := stage.CheckShape(q.Name(), q.InputType(), in, shape); err != nil {
		return 0, err
	}
	if err := stage.CheckCapacity(q.Name(), out, q.MaxEncodedSize(len(in))); err != nil {
		return 0, err
	}
	vals := dtype.View[uint16](in)

	h := histogram.New[uint16]()
	h.FillThreads(vals, q.Threads())
	enc, dec := quantiserTables(h, q.weighting)

	parallel.For(q.Threads(), len(vals), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = enc[vals[i]]
		}
	})
	q.decodeLUT = dec
	return len(vals), nil
}

func (q *Quantiser) Decode(in, out []byte, shape geom.Shape) error {
	if q.decodeLUT == nil {
		return ErrMissingDecodeLUT
	}
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("sink %s: %w: %w", q.Name(), stage.ErrShape, err)
	}
	n := shape.Len()
	if len(in) != n {
		return fmt.Errorf("%w: %d levels for %d samples", ErrCorrupt, len(in), n)
	}
	if err := stage.CheckCapacity(q.Name(), out, 2*n); err != nil {
		return err
	}
	vals := dtype.View[uint16](out[:2*n])
	lut := q.decodeLUT

	parallel.For(q.Threads(), n, func(start, end int) {
		for i := start; i < end; i++ {
			vals[i] = lut[in[i]]
		}
	})
	return nil
}

// quantiserTables walks the values in ascending order and closes a level once it holds
// its share of the remaining importance.
func quantiserTables(h *histogram.Histogram[uint16], w Weighting) (enc []uint8, dec []uint16) {
	bins := h.Bins()
	importance := make([]float64, bins)
	var sum float64
	for v := range importance {
		importance[v] = float64(h.Count(uint16(v))) * w.weight(v) //nolint:gosec // v < 65536
		sum += importance[v]
	}

	enc = make([]uint8, bins)
	dec = make([]uint16, QuantiserLevels)

	available := float64(QuantiserLevels)
	bucket := sum / available
	integral, fill := importance[0], importance[0]
	level, first := 0, 0
	for v := 1; v < bins; v++ {
		if fill >= bucket && level < QuantiserLevels-1 {
			dec[level] = weightedMean(importance, first, v)
			level++
			available--
			first = v
			fill = importance[v]
			if integral < sum {
				bucket = (sum - integral) / available
			}
		} else {
			fill += importance[v]
		}
		enc[v] = uint8(level) //nolint:gosec // level < 256
		integral += importance[v]
	}
	dec[level] = weightedMean(importance, first, bins)
	return enc, dec
}

// weightedMean returns the rounded importance weighted mean of the values [lo,hi).
// A bucket without importance decodes to its first value.
func weightedMean(importance []float64, lo, hi int) uint16 {
	ws := importance[lo:hi]
	var total float64
	for _, w := range ws {
		total += w
	}
	if total == 0 {
		return uint16(lo) //nolint:gosec // lo < 65536
	}
	xs := make([]float64, len(ws))
	for i := range xs {
		xs[i] = float64(lo + i)
	}
	return uint16(math.Round(stat.Mean(xs, ws)))
}

// FormatLUT serializes a decode table as little-endian uint16 words in a verbatim block.
func FormatLUT(lut []uint16) string {
	buf := make([]byte, 2*len(lut))
	for i, v := range lut {
		binary.LittleEndian.PutUint16(buf[2*i:], v)
	}
	return verbatim.Encode(buf)
}

// ParseLUT reverses FormatLUT.
func ParseLUT(s string) ([]uint16, error) {
	raw, err := verbatim.Decode(s)
	if err != nil {
		return nil, err
	}
	if len(raw) != 2*QuantiserLevels {
		return nil, fmt.Errorf("%w: decode table of %d bytes", ErrCorrupt, len(raw))
	}
	lut := make([]uint16, QuantiserLevels)
	for i := range lut {
		lut[i] = binary.LittleEndian.Uint16(raw[2*i:])
	}
	return lut, nil
}
