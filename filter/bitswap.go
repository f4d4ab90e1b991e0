package filter

import (
	"errors"
	"strconv"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/stage"
)

// BitswapPrefix is the name prefix of the bitswap stages; the suffix is the number of
// bits per plane.
const BitswapPrefix = "bitswap"

var errBitsPerPlane = errors.New("must be 1, 2, 4 or 8")

// Bitswap splits every sample into planes of b bits and stores the planes one after
// another, most significant plane first. Before splitting, signed samples have their
// magnitude bits inverted when negative and every sample is rotated left by one bit,
// so that small magnitudes of either sign leave the leading planes empty.
//
// A buffer of len elements is split into n = width/b segments of len/n words. The last
// len%n elements are copied unchanged.
type Bitswap struct {
	stage.Info
	bits int
}

// NewBitswap creates a bitswap stage for t with bitsPerPlane bits per plane.
func NewBitswap(t dtype.Type, bitsPerPlane int, opts ...stage.Option) (*Bitswap, error) {
	name := BitswapPrefix + strconv.Itoa(bitsPerPlane)
	if !t.Valid() {
		return nil, stage.NewConfigError(name, "type", t.String(), nil)
	}
	switch bitsPerPlane {
	case 1, 2, 4, 8:
	default:
		return nil, stage.NewConfigError(name, "num_bits_per_plane", strconv.Itoa(bitsPerPlane), errBitsPerPlane)
	}
	return &Bitswap{
		Info: stage.NewInfo(name, stage.KindFilter, t, t, stage.ApplyOptions(opts)),
		bits: bitsPerPlane,
	}, nil
}

// BitsPerPlane returns b.
func (b *Bitswap) BitsPerPlane() int { return b.bits }

// Planes returns the number of planes a sample is split into.
func (b *Bitswap) Planes() int { return b.InputType().Bits() / b.bits }

// Config is empty; the plane width is part of the name.
func (*Bitswap) Config() string { return "" }

func (*Bitswap) MaxEncodedSize(n int) int { return n }

func (b *Bitswap) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := stage.CheckShape(b.Name(), b.InputType(), in, shape); err != nil {
		return 0, err
	}
	if err := stage.CheckCapacity(b.Name(), out, len(in)); err != nil {
		return 0, err
	}
	out = out[:len(in)]
	signed := b.InputType().Signed()

	if b.InputType().Size() == 1 {
		if b.bits == 1 {
			encodePlanes8(in, out, signed, b.Threads())
		} else {
			encodePlanes(in, out, b.bits, signed, b.Threads())
		}
		return len(in), nil
	}
	encodePlanes(dtype.View[uint16](in), dtype.View[uint16](out), b.bits, signed, b.Threads())
	return len(in), nil
}

func (b *Bitswap) Decode(in, out []byte, shape geom.Shape) error {
	if err := stage.CheckShape(b.Name(), b.InputType(), in, shape); err != nil {
		return err
	}
	if err := stage.CheckCapacity(b.Name(), out, len(in)); err != nil {
		return err
	}
	out = out[:len(in)]
	signed := b.InputType().Signed()

	if b.InputType().Size() == 1 {
		if b.bits == 1 {
			decodePlanes8(in, out, signed, b.Threads())
		} else {
			decodePlanes(in, out, b.bits, signed, b.Threads())
		}
		return nil
	}
	decodePlanes(dtype.View[uint16](in), dtype.View[uint16](out), b.bits, signed, b.Threads())
	return nil
}
