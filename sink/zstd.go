package sink

import (
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/stage"
)

// ZstdName is the name of the zstd sink.
const ZstdName = "zstd"

var zstdLevelNames = map[string]zstd.EncoderLevel{
	"fastest": zstd.SpeedFastest,
	"default": zstd.SpeedDefault,
	"better":  zstd.SpeedBetterCompression,
	"best":    zstd.SpeedBestCompression,
}

// ZSTD encoder/decoder pools, one encoder pool per level.
var (
	zstdEncoderPools [zstd.SpeedBestCompression + 1]sync.Pool
	zstdDecoderPool  sync.Pool
)

func getZstdEncoder(level zstd.EncoderLevel) (*zstd.Encoder, error) {
	if v := zstdEncoderPools[level].Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
}

func putZstdEncoder(level zstd.EncoderLevel, enc *zstd.Encoder) {
	zstdEncoderPools[level].Put(enc)
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

type zstdFrame struct {
	name  string
	level zstd.EncoderLevel
}

// NewZstd creates a zstd sink. level is one of fastest, default, better or best; an
// empty level selects default.
func NewZstd(t dtype.Type, level string, opts ...stage.Option) (*Compressor, error) {
	if level == "" {
		level = "default"
	}
	l, ok := zstdLevelNames[level]
	if !ok {
		return nil, stage.NewConfigError(ZstdName, "level", level, errors.New("must be fastest, default, better or best"))
	}
	return newCompressor(ZstdName, t, zstdFrame{name: level, level: l}, opts)
}

func (a zstdFrame) config() string {
	if a.level == zstd.SpeedDefault {
		return ""
	}
	return "level=" + a.name
}

func (zstdFrame) bound(n int) int { return n + n/128 + 128 }

func (a zstdFrame) encode(dst, src []byte) (int, error) {
	enc, err := getZstdEncoder(a.level)
	if err != nil {
		return 0, err
	}
	defer putZstdEncoder(a.level, enc)

	frame := enc.EncodeAll(src, dst[:0])
	if len(frame) > len(dst) {
		return 0, ErrIncompressible
	}
	return copy(dst, frame), nil
}

func (zstdFrame) decode(dst, src []byte) error {
	dec, err := getZstdDecoder()
	if err != nil {
		return err
	}
	defer putZstdDecoder(dec)

	out, err := dec.DecodeAll(src, dst[:0])
	if err != nil {
		return errors.Join(ErrCorrupt, err)
	}
	if len(out) != len(dst) {
		return fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCorrupt, len(out), len(dst))
	}
	copy(dst, out)
	return nil
}
