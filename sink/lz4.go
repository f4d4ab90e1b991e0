package sink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/pierrec/lz4/v4"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/stage"
)

// LZ4Name is the name of the lz4 sink.
const LZ4Name = "lz4"

const lengthPrefix = 8

var lz4Levels = [...]lz4.CompressionLevel{
	lz4.Fast, lz4.Level1, lz4.Level2, lz4.Level3, lz4.Level4,
	lz4.Level5, lz4.Level6, lz4.Level7, lz4.Level8, lz4.Level9,
}

// lz4Block stores [uint64 decoded length][lz4 block].
type lz4Block struct {
	level int
}

// NewLZ4 creates an lz4 block sink. level 0 selects the fast compressor, 1 to 9 the
// high compression one.
func NewLZ4(t dtype.Type, level int, opts ...stage.Option) (*Compressor, error) {
	if level < 0 || level >= len(lz4Levels) {
		return nil, stage.NewConfigError(LZ4Name, "level", strconv.Itoa(level), errors.New("must be within 0..9"))
	}
	return newCompressor(LZ4Name, t, lz4Block{level: level}, opts)
}

func (a lz4Block) config() string {
	if a.level == 0 {
		return ""
	}
	return "level=" + strconv.Itoa(a.level)
}

func (lz4Block) bound(n int) int { return lz4.CompressBlockBound(n) + lengthPrefix }

func (a lz4Block) encode(dst, src []byte) (int, error) {
	binary.LittleEndian.PutUint64(dst, uint64(len(src)))
	if len(src) == 0 {
		return lengthPrefix, nil
	}

	var (
		n   int
		err error
	)
	if a.level == 0 {
		var c lz4.Compressor
		n, err = c.CompressBlock(src, dst[lengthPrefix:])
	} else {
		c := lz4.CompressorHC{Level: lz4Levels[a.level]}
		n, err = c.CompressBlock(src, dst[lengthPrefix:])
	}
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrIncompressible
	}
	return lengthPrefix + n, nil
}

func (lz4Block) decode(dst, src []byte) error {
	if len(src) < lengthPrefix {
		return fmt.Errorf("%w: %d bytes", ErrCorrupt, len(src))
	}
	if size := binary.LittleEndian.Uint64(src); size != uint64(len(dst)) {
		return fmt.Errorf("%w: stream holds %d bytes, expected %d", ErrCorrupt, size, len(dst))
	}
	if len(dst) == 0 {
		return nil
	}
	n, err := lz4.UncompressBlock(src[lengthPrefix:], dst)
	if err != nil {
		return errors.Join(ErrCorrupt, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%w: decompressed %d bytes, expected %d", ErrCorrupt, n, len(dst))
	}
	return nil
}
