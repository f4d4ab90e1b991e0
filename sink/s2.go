package sink

import (
	"errors"
	"fmt"

	"github.com/klauspost/compress/s2"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/stage"
)

// S2Name is the name of the s2 sink.
const S2Name = "s2"

type s2Block struct {
	level string
}

// NewS2 creates an s2 block sink. level is one of default, better or best.
func NewS2(t dtype.Type, level string, opts ...stage.Option) (*Compressor, error) {
	switch level {
	case "":
		level = "default"
	case "default", "better", "best":
	default:
		return nil, stage.NewConfigError(S2Name, "level", level, errors.New("must be default, better or best"))
	}
	return newCompressor(S2Name, t, s2Block{level: level}, opts)
}

func (a s2Block) config() string {
	if a.level == "default" {
		return ""
	}
	return "level=" + a.level
}

func (s2Block) bound(n int) int {
	if b := s2.MaxEncodedLen(n); b >= 0 {
		return b
	}
	return n + n/6 + 32
}

func (a s2Block) encode(dst, src []byte) (int, error) {
	if s2.MaxEncodedLen(len(src)) < 0 {
		return 0, ErrIncompressible
	}
	var block []byte
	switch a.level {
	case "better":
		block = s2.EncodeBetter(dst, src)
	case "best":
		block = s2.EncodeBest(dst, src)
	default:
		block = s2.Encode(dst, src)
	}
	if len(block) > len(dst) {
		return 0, ErrIncompressible
	}
	return copy(dst, block), nil
}

func (s2Block) decode(dst, src []byte) error {
	n, err := s2.DecodedLen(src)
	if err != nil {
		return errors.Join(ErrCorrupt, err)
	}
	if n != len(dst) {
		return fmt.Errorf("%w: stream holds %d bytes, expected %d", ErrCorrupt, n, len(dst))
	}
	if _, err := s2.Decode(dst, src); err != nil {
		return errors.Join(ErrCorrupt, err)
	}
	return nil
}
