package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/stage"
	"github.com/hupe1980/voxpipe/testutil"
)

func bitswapFactory(bits int) factory {
	return func(t dtype.Type, opts ...stage.Option) (stage.Stage, error) {
		return NewBitswap(t, bits, opts...)
	}
}

func TestBitswapRoundTrip(t *testing.T) {
	for _, bits := range []int{1, 2, 4, 8} {
		t.Run(BitswapPrefix+string(rune('0'+bits)), func(t *testing.T) {
			checkRoundTrip(t, bitswapFactory(bits))
		})
	}
}

func TestBitswapConfig(t *testing.T) {
	b, err := NewBitswap(dtype.Uint16, 4)
	require.NoError(t, err)
	assert.Equal(t, "bitswap4", b.Name())
	assert.Equal(t, "", b.Config())
	assert.Equal(t, 4, b.Planes())
	assert.Equal(t, stage.KindFilter, b.Kind())

	_, err = NewBitswap(dtype.Uint16, 3)
	assert.ErrorIs(t, err, stage.ErrInvalidConfig)

	_, err = NewBitswap(dtype.Invalid, 1)
	assert.ErrorIs(t, err, stage.ErrInvalidConfig)
}

func TestBitswapKnownPlanes(t *testing.T) {
	t.Run("uint8 ones", func(t *testing.T) {
		b, err := NewBitswap(dtype.Uint8, 1)
		require.NoError(t, err)
		in := []byte{1, 1, 1, 1, 1, 1, 1, 1}
		// rotl puts every sample's lowest bit into plane 1, stored in the second to last segment.
		assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0xff, 0}, encode(t, b, in, geom.Shape{8}))
	})

	t.Run("int8 minus one", func(t *testing.T) {
		b, err := NewBitswap(dtype.Int8, 1)
		require.NoError(t, err)
		in := dtype.Bytes(testutil.Constant[int8](8, -1))
		assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0xff}, encode(t, b, in, geom.Shape{8}))
	})

	t.Run("tail copied", func(t *testing.T) {
		b, err := NewBitswap(dtype.Uint8, 1)
		require.NoError(t, err)
		in := []byte{1, 1, 1, 1, 1, 1, 1, 1, 42, 43}
		out := encode(t, b, in, geom.Shape{10})
		assert.Equal(t, []byte{42, 43}, out[8:])
	})
}

func TestBitswapFastPathMatchesScalar(t *testing.T) {
	rng := testutil.NewRNG(3)
	for _, signed := range []bool{false, true} {
		in := testutil.Random[uint8](rng, 1003, 0)

		fast := make([]byte, len(in))
		scalar := make([]byte, len(in))
		encodePlanes8(in, fast, signed, 2)
		encodePlanes(in, scalar, 1, signed, 1)
		require.Equal(t, scalar, fast, "signed=%v", signed)

		back := make([]byte, len(in))
		decodePlanes8(fast, back, signed, 2)
		require.Equal(t, in, back)
		decodePlanes(scalar, back, 1, signed, 1)
		require.Equal(t, in, back)
	}
}

func TestBitswapRampIndex(t *testing.T) {
	shape := geom.Shape{8, 8, 8}
	in := dtype.Bytes(testutil.Ramp[uint16](shape.Len(), 128))

	b, err := NewBitswap(dtype.Uint16, 1)
	require.NoError(t, err)

	enc := encode(t, b, in, shape)
	assert.NotEqual(t, in, enc)
	assert.Equal(t, in, decode(t, b, enc, shape))
}

func TestBitswapThreadInvariance(t *testing.T) {
	for _, typ := range allTypes {
		t.Run(typ.String(), func(t *testing.T) {
			checkThreadInvariance(t, bitswapFactory(1), typ)
		})
	}
}

func TestBitswapShapeErrors(t *testing.T) {
	b, err := NewBitswap(dtype.Uint16, 1)
	require.NoError(t, err)

	_, err = b.Encode(make([]byte, 7), make([]byte, 8), geom.Shape{4})
	assert.ErrorIs(t, err, stage.ErrShape)

	_, err = b.Encode(make([]byte, 8), make([]byte, 6), geom.Shape{4})
	assert.ErrorIs(t, err, stage.ErrCapacity)
}
