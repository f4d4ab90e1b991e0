package filter

import (
	"math/bits"
	"strconv"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/internal/parallel"
	"github.com/hupe1980/voxpipe/stage"
)

// ZCurveName is the name of the Morton order reorder stage.
const ZCurveName = "zcurve"

// ZCurve writes the tiles of a volume in raster tile order and the samples inside every
// full power-of-two tile in Morton order, z bit most significant. Partial tiles keep
// raster order.
type ZCurve struct {
	stage.Info
	size int
}

// NewZCurve creates a zcurve stage.
func NewZCurve(t dtype.Type, tileSize int, opts ...stage.Option) (*ZCurve, error) {
	if err := checkTileArgs(ZCurveName, "tile_size", t, tileSize); err != nil {
		return nil, err
	}
	return &ZCurve{
		Info: stage.NewInfo(ZCurveName, stage.KindFilter, t, t, stage.ApplyOptions(opts)),
		size: tileSize,
	}, nil
}

// TileSize returns k.
func (s *ZCurve) TileSize() int { return s.size }

func (s *ZCurve) Config() string { return "tile_size=" + strconv.Itoa(s.size) }

func (*ZCurve) MaxEncodedSize(n int) int { return n }

func (s *ZCurve) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return 0, err
	}
	if s.InputType().Size() == 1 {
		zorder(in, out, shape, s, true)
	} else {
		zorder(dtype.View[uint16](in), dtype.View[uint16](out), shape, s, true)
	}
	return len(in), nil
}

func (s *ZCurve) Decode(in, out []byte, shape geom.Shape) error {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return err
	}
	if s.InputType().Size() == 1 {
		zorder(in, out, shape, s, false)
	} else {
		zorder(dtype.View[uint16](in), dtype.View[uint16](out), shape, s, false)
	}
	return nil
}

// spread places bit b of v at bit 3b.
func spread(v, levels int) int {
	out := 0
	for b := 0; b < levels; b++ {
		out |= (v >> b & 1) << (3 * b)
	}
	return out
}

// zorder moves samples between raster order and tiled Morton order. encode selects the
// direction.
func zorder[U word](in, out []U, shape geom.Shape, s *ZCurve, encode bool) {
	g := newGrid(shape, s.size)
	offs := g.offsets(nil)
	width, plane := g.shape[2], g.shape[1]*g.shape[2]

	var lut []int
	if g.k&(g.k-1) == 0 {
		levels := bits.TrailingZeros(uint(g.k))
		lut = make([]int, g.k)
		for i := range lut {
			lut[i] = spread(i, levels)
		}
	}

	parallel.For(s.Threads(), g.count(), func(start, end int) {
		for i := start; i < end; i++ {
			b := g.box(i)
			morton := lut != nil && g.full(b)
			local := 0
			for z := 0; z < b.dz; z++ {
				for y := 0; y < b.dy; y++ {
					row := (b.z+z)*plane + (b.y+y)*width + b.x
					for x := 0; x < b.dx; x++ {
						pos := local
						if morton {
							pos = lut[z]<<2 | lut[y]<<1 | lut[x]
						}
						if encode {
							out[offs[i]+pos] = in[row+x]
						} else {
							out[row+x] = in[offs[i]+pos]
						}
						local++
					}
				}
			}
		}
	})
}
