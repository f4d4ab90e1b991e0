package pipeline

import (
	"errors"
	"strconv"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/filter"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/sink"
	"github.com/hupe1980/voxpipe/stage"
)

// Predefined lists the signatures voxpipe ships as ready-made pipelines.
var Predefined = []string{
	"bitswap1->lz4",
	"rmbkrd->bitswap1->lz4",
	"diff3x3x1->bitswap1->lz4",
	"tile->bitswap1->zstd",
	"zcurve->bitswap1->zstd",
	"quantiser->lz4",
}

// DefaultRegistry returns a registry holding every stage of the filter and sink packages.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for name, f := range map[string]Factory{
		filter.ThresholdName:           newThreshold,
		filter.EstimatedBackgroundName: newEstimatedBackground,
		filter.TileName:                newTile,
		filter.TileShuffleName:         newTileShuffle,
		filter.FrameShuffleName:        newFrameShuffle,
		filter.ZCurveName:              newZCurve,
		sink.LZ4Name:                   newLZ4,
		sink.ZstdName:                  newZstd,
		sink.S2Name:                    newS2,
		sink.GzipName:                  newGzip,
		sink.QuantiserName:             newQuantiser,
	} {
		_ = r.Register(name, f)
	}
	_ = r.RegisterPrefix(filter.BitswapPrefix, newBitswap)
	_ = r.RegisterPrefix(filter.DiffPrefix, newDiff)
	_ = r.RegisterPrefix(filter.FlattenPrefix, newFlatten)
	return r
}

// build drops the typed nil a failed constructor returns.
func build[S stage.Stage](s S, err error) (stage.Stage, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}

var errConflict = errors.New("conflicts with the stage name")

// abbrev shortens verbatim values in error messages.
func abbrev(v string) string {
	if len(v) > 40 {
		return v[:37] + "..."
	}
	return v
}

func newBitswap(suffix string, t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	name := filter.BitswapPrefix + suffix
	p := newParams(name, cfg)

	bits := 1
	if suffix != "" {
		n, err := strconv.Atoi(suffix)
		if err != nil {
			return nil, &ErrUnknownStageName{Name: name}
		}
		bits = n
	}
	v, err := p.int("num_bits_per_plane", bits)
	if err != nil {
		return nil, err
	}
	if suffix != "" && v != bits {
		return nil, stage.NewConfigError(name, "num_bits_per_plane", strconv.Itoa(v), errConflict)
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(filter.NewBitswap(t, v, opts...))
}

// neighborhood resolves a stage name suffix, or the preset named by the neighborhood
// key, which must then agree with the suffix.
func neighborhood(p *params, suffix string, resolve func(string) (geom.Neighborhood, error)) (geom.Neighborhood, error) {
	preset, ok := p.lookup("neighborhood")
	if !ok {
		nb, err := resolve(suffix)
		if err != nil {
			return geom.Neighborhood{}, stage.NewConfigError(p.stage, "neighborhood", suffix, err)
		}
		return nb, nil
	}
	nb, err := geom.ParseNeighborhood(preset)
	if err != nil {
		return geom.Neighborhood{}, stage.NewConfigError(p.stage, "neighborhood", preset, err)
	}
	if suffix != "" && nb.Label() != suffix {
		return geom.Neighborhood{}, stage.NewConfigError(p.stage, "neighborhood", preset, errConflict)
	}
	return nb, nil
}

func newDiff(suffix string, t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(filter.DiffPrefix+suffix, cfg)
	nb, err := neighborhood(p, suffix, filter.DiffNeighborhood)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(filter.NewDiff(t, nb, opts...))
}

func newThreshold(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(filter.ThresholdName, cfg)
	threshold, err := p.int("threshold", 0)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(filter.NewThreshold(t, threshold, opts...))
}

func newFlatten(suffix string, t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(filter.FlattenPrefix+suffix, cfg)
	nb, err := neighborhood(p, suffix, filter.FlattenNeighborhood)
	if err != nil {
		return nil, err
	}
	threshold, err := p.int("threshold", 0)
	if err != nil {
		return nil, err
	}
	fraction, err := p.float("fraction", filter.DefaultFlattenFraction)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(filter.NewFlatten(t, threshold, fraction, nb, opts...))
}

func newEstimatedBackground(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(filter.EstimatedBackgroundName, cfg)
	threshold, err := p.int("threshold", -1)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(filter.NewEstimatedBackground(t, threshold, opts...))
}

func newTile(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(filter.TileName, cfg)
	size, err := p.int("tile_size", filter.DefaultTileSize(t))
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(filter.NewTile(t, size, opts...))
}

func newZCurve(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(filter.ZCurveName, cfg)
	size, err := p.int("tile_size", filter.DefaultTileSize(t))
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(filter.NewZCurve(t, size, opts...))
}

// decodeMap parses an optional reorder_map.
func decodeMap(p *params) ([]uint32, error) {
	v, ok := p.lookup("reorder_map")
	if !ok {
		return nil, nil
	}
	m, err := filter.ParseDecodeMap(v)
	if err != nil {
		return nil, stage.NewConfigError(p.stage, "reorder_map", abbrev(v), err)
	}
	return m, nil
}

func newTileShuffle(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(filter.TileShuffleName, cfg)
	size, err := p.int("tile_size", filter.DefaultShuffleTileSize)
	if err != nil {
		return nil, err
	}
	m, err := decodeMap(p)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	s, err := filter.NewTileShuffle(t, size, opts...)
	if err != nil {
		return nil, err
	}
	if m != nil {
		s.SetDecodeMap(m)
	}
	return s, nil
}

func newFrameShuffle(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(filter.FrameShuffleName, cfg)
	chunk, err := p.int("frame_chunk_size", filter.DefaultFrameChunkSize)
	if err != nil {
		return nil, err
	}
	m, err := decodeMap(p)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	s, err := filter.NewFrameShuffle(t, chunk, opts...)
	if err != nil {
		return nil, err
	}
	if m != nil {
		s.SetDecodeMap(m)
	}
	return s, nil
}

func newLZ4(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(sink.LZ4Name, cfg)
	level, err := p.int("level", 0)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(sink.NewLZ4(t, level, opts...))
}

func newZstd(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(sink.ZstdName, cfg)
	level := p.str("level", "")
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(sink.NewZstd(t, level, opts...))
}

func newS2(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(sink.S2Name, cfg)
	level := p.str("level", "")
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(sink.NewS2(t, level, opts...))
}

func newGzip(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(sink.GzipName, cfg)
	level, err := p.int("level", 0)
	if err != nil {
		return nil, err
	}
	if err := p.finish(); err != nil {
		return nil, err
	}
	return build(sink.NewGzip(t, level, opts...))
}

func newQuantiser(t dtype.Type, cfg map[string]string, opts ...stage.Option) (stage.Stage, error) {
	p := newParams(sink.QuantiserName, cfg)
	weighting := p.str("weighting", string(sink.WeightNone))
	raw, hasLUT := p.lookup("decode_lut")
	if err := p.finish(); err != nil {
		return nil, err
	}
	q, err := sink.NewQuantiser(t, sink.Weighting(weighting), opts...)
	if err != nil {
		return nil, err
	}
	if hasLUT {
		lut, err := sink.ParseLUT(raw)
		if err == nil {
			err = q.SetDecodeLUT(lut)
		}
		if err != nil {
			return nil, stage.NewConfigError(sink.QuantiserName, "decode_lut", abbrev(raw), err)
		}
	}
	return q, nil
}
