package filter

import (
	"strconv"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/internal/parallel"
	"github.com/hupe1980/voxpipe/stage"
	"github.com/hupe1980/voxpipe/verbatim"
)

// Shuffle stage names and defaults.
const (
	TileShuffleName  = "tile_shuffle"
	FrameShuffleName = "frame_shuffle"

	DefaultShuffleTileSize = 32
	DefaultFrameChunkSize  = 1
)

// TileShuffle tiles a volume like Tile and then orders the tiles by ascending median.
// The chosen order is kept as the decode map: entry i is the raster index of the tile
// stored at position i.
type TileShuffle struct {
	stage.Info
	size      int
	decodeMap []uint32
}

// NewTileShuffle creates a tile shuffle stage.
func NewTileShuffle(t dtype.Type, tileSize int, opts ...stage.Option) (*TileShuffle, error) {
	if err := checkTileArgs(TileShuffleName, "tile_size", t, tileSize); err != nil {
		return nil, err
	}
	return &TileShuffle{
		Info: stage.NewInfo(TileShuffleName, stage.KindFilter, t, t, stage.ApplyOptions(opts)),
		size: tileSize,
	}, nil
}

// TileSize returns k.
func (s *TileShuffle) TileSize() int { return s.size }

// DecodeMap returns the tile order recorded by Encode or SetDecodeMap.
func (s *TileShuffle) DecodeMap() []uint32 { return s.decodeMap }

// SetDecodeMap restores a tile order, typically parsed from a stored configuration.
func (s *TileShuffle) SetDecodeMap(m []uint32) { s.decodeMap = m }

func (s *TileShuffle) Config() string {
	cfg := "tile_size=" + strconv.Itoa(s.size)
	if s.decodeMap != nil {
		cfg += ",reorder_map=" + FormatDecodeMap(s.decodeMap)
	}
	return cfg
}

func (*TileShuffle) MaxEncodedSize(n int) int { return n }

// MaxConfigSize bounds the configuration once a reorder map for shape is recorded.
func (s *TileShuffle) MaxConfigSize(shape geom.Shape) int {
	return mapConfigSize("tile_size", s.size, newGrid(shape, s.size).count())
}

func (s *TileShuffle) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return 0, err
	}
	g := newGrid(shape, s.size)

	var metric []float64
	switch s.InputType() {
	case dtype.Uint8:
		metric = tileMedians(dtype.View[uint8](in), g, s.Threads())
	case dtype.Int8:
		metric = tileMedians(dtype.View[int8](in), g, s.Threads())
	case dtype.Uint16:
		metric = tileMedians(dtype.View[uint16](in), g, s.Threads())
	case dtype.Int16:
		metric = tileMedians(dtype.View[int16](in), g, s.Threads())
	}
	order := ascendingOrder(metric)
	offs := g.offsets(order)
	size := s.InputType().Size()

	parallel.For(s.Threads(), len(order), func(start, end int) {
		for i := start; i < end; i++ {
			g.gather(out[offs[i]*size:], in, g.box(int(order[i])), size)
		}
	})
	s.decodeMap = order
	return len(in), nil
}

func (s *TileShuffle) Decode(in, out []byte, shape geom.Shape) error {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return err
	}
	if s.decodeMap == nil {
		return ErrMissingDecodeMap
	}
	g := newGrid(shape, s.size)
	if err := checkPermutation(s.Name(), s.decodeMap, g.count()); err != nil {
		return err
	}
	order := s.decodeMap
	offs := g.offsets(order)
	size := s.InputType().Size()

	parallel.For(s.Threads(), len(order), func(start, end int) {
		for i := start; i < end; i++ {
			g.scatter(out, in[offs[i]*size:], g.box(int(order[i])), size)
		}
	})
	return nil
}

func tileMedians[T dtype.Sample](in []T, g grid, threads int) []float64 {
	s := g.shape
	plane := s[1] * s[2]
	metric := make([]float64, g.count())

	parallel.For(threads, len(metric), func(start, end int) {
		buf := make([]T, 0, g.k*g.k*g.k)
		for i := start; i < end; i++ {
			b := g.box(i)
			buf = buf[:0]
			for z := b.z; z < b.z+b.dz; z++ {
				for y := b.y; y < b.y+b.dy; y++ {
					off := z*plane + y*s[2] + b.x
					buf = append(buf, in[off:off+b.dx]...)
				}
			}
			metric[i] = median(buf)
		}
	})
	return metric
}

// FrameShuffle orders chunks of c consecutive frames by ascending median. Trailing
// frames that do not fill a chunk are appended in their original order.
type FrameShuffle struct {
	stage.Info
	chunk     int
	decodeMap []uint32
}

// NewFrameShuffle creates a frame shuffle stage.
func NewFrameShuffle(t dtype.Type, frameChunkSize int, opts ...stage.Option) (*FrameShuffle, error) {
	if err := checkTileArgs(FrameShuffleName, "frame_chunk_size", t, frameChunkSize); err != nil {
		return nil, err
	}
	return &FrameShuffle{
		Info:  stage.NewInfo(FrameShuffleName, stage.KindFilter, t, t, stage.ApplyOptions(opts)),
		chunk: frameChunkSize,
	}, nil
}

// FrameChunkSize returns c.
func (s *FrameShuffle) FrameChunkSize() int { return s.chunk }

// DecodeMap returns the chunk order recorded by Encode or SetDecodeMap.
func (s *FrameShuffle) DecodeMap() []uint32 { return s.decodeMap }

// SetDecodeMap restores a chunk order.
func (s *FrameShuffle) SetDecodeMap(m []uint32) { s.decodeMap = m }

func (s *FrameShuffle) Config() string {
	cfg := "frame_chunk_size=" + strconv.Itoa(s.chunk)
	if s.decodeMap != nil {
		cfg += ",reorder_map=" + FormatDecodeMap(s.decodeMap)
	}
	return cfg
}

func (*FrameShuffle) MaxEncodedSize(n int) int { return n }

// MaxConfigSize bounds the configuration once a reorder map for shape is recorded.
func (s *FrameShuffle) MaxConfigSize(shape geom.Shape) int {
	chunks, _ := s.layout(shape)
	return mapConfigSize("frame_chunk_size", s.chunk, chunks)
}

func mapConfigSize(key string, v, entries int) int {
	return len(key) + 1 + len(strconv.Itoa(v)) + len(",reorder_map=") + verbatim.EncodedLen(4*entries)
}

// layout returns the number of full chunks and the byte length of one chunk.
func (s *FrameShuffle) layout(shape geom.Shape) (chunks, chunkBytes int) {
	p := shape.Pad3()
	return p[0] / s.chunk, s.chunk * p[1] * p[2] * s.InputType().Size()
}

func (s *FrameShuffle) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return 0, err
	}
	chunks, chunkBytes := s.layout(shape)

	var metric []float64
	switch s.InputType() {
	case dtype.Uint8:
		metric = chunkMedians[uint8](in, chunks, chunkBytes, s.Threads())
	case dtype.Int8:
		metric = chunkMedians[int8](in, chunks, chunkBytes, s.Threads())
	case dtype.Uint16:
		metric = chunkMedians[uint16](in, chunks, chunkBytes, s.Threads())
	case dtype.Int16:
		metric = chunkMedians[int16](in, chunks, chunkBytes, s.Threads())
	}
	order := ascendingOrder(metric)

	parallel.For(s.Threads(), chunks, func(start, end int) {
		for i := start; i < end; i++ {
			src := int(order[i]) * chunkBytes
			copy(out[i*chunkBytes:(i+1)*chunkBytes], in[src:src+chunkBytes])
		}
	})
	copy(out[chunks*chunkBytes:len(in)], in[chunks*chunkBytes:])
	s.decodeMap = order
	return len(in), nil
}

func (s *FrameShuffle) Decode(in, out []byte, shape geom.Shape) error {
	if err := checkFilterIO(s, in, out, shape); err != nil {
		return err
	}
	if s.decodeMap == nil {
		return ErrMissingDecodeMap
	}
	chunks, chunkBytes := s.layout(shape)
	if err := checkPermutation(s.Name(), s.decodeMap, chunks); err != nil {
		return err
	}
	order := s.decodeMap

	parallel.For(s.Threads(), chunks, func(start, end int) {
		for i := start; i < end; i++ {
			dst := int(order[i]) * chunkBytes
			copy(out[dst:dst+chunkBytes], in[i*chunkBytes:(i+1)*chunkBytes])
		}
	})
	copy(out[chunks*chunkBytes:len(in)], in[chunks*chunkBytes:])
	return nil
}

func chunkMedians[T dtype.Sample](in []byte, chunks, chunkBytes, threads int) []float64 {
	metric := make([]float64, chunks)
	parallel.For(threads, chunks, func(start, end int) {
		var buf []T
		for i := start; i < end; i++ {
			buf = append(buf[:0], dtype.View[T](in[i*chunkBytes:(i+1)*chunkBytes])...)
			metric[i] = median(buf)
		}
	})
	return metric
}
