package filter

import (
	"strconv"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/internal/parallel"
	"github.com/hupe1980/voxpipe/stage"
)

// TileName is the name of the tile reorder stage.
const TileName = "tile"

// DefaultTileSize returns the default tile edge for t: 16 bytes worth of samples.
func DefaultTileSize(t dtype.Type) int {
	if !t.Valid() {
		return 16
	}
	return 16 / t.Size()
}

// Tile regroups a volume into tiles of edge k. Tiles are written in raster tile order,
// each as a contiguous raster-ordered block.
type Tile struct {
	stage.Info
	size int
}

// NewTile creates a tile reorder stage.
func NewTile(t dtype.Type, tileSize int, opts ...stage.Option) (*Tile, error) {
	if err := checkTileArgs(TileName, "tile_size", t, tileSize); err != nil {
		return nil, err
	}
	return &Tile{
		Info: stage.NewInfo(TileName, stage.KindFilter, t, t, stage.ApplyOptions(opts)),
		size: tileSize,
	}, nil
}

func checkTileArgs(name, key string, t dtype.Type, size int) error {
	if !t.Valid() {
		return stage.NewConfigError(name, "type", t.String(), nil)
	}
	if size <= 0 {
		return stage.NewConfigError(name, key, strconv.Itoa(size), errNotPositive)
	}
	return nil
}

// TileSize returns k.
func (s *Tile) TileSize() int { return s.size }

func (s *Tile) Config() string { return "tile_size=" + strconv.Itoa(s.size) }

func (*Tile) MaxEncodedSize(n int) int { return n }

func (s *Tile) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return 0, err
	}
	g := newGrid(shape, s.size)
	offs := g.offsets(nil)
	size := s.InputType().Size()

	parallel.For(s.Threads(), g.count(), func(start, end int) {
		for i := start; i < end; i++ {
			g.gather(out[offs[i]*size:], in, g.box(i), size)
		}
	})
	return len(in), nil
}

func (s *Tile) Decode(in, out []byte, shape geom.Shape) error {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return err
	}
	g := newGrid(shape, s.size)
	offs := g.offsets(nil)
	size := s.InputType().Size()

	parallel.For(s.Threads(), g.count(), func(start, end int) {
		for i := start; i < end; i++ {
			g.scatter(out, in[offs[i]*size:], g.box(i), size)
		}
	})
	return nil
}
