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

func diffFactory(nb geom.Neighborhood) factory {
	return func(t dtype.Type, opts ...stage.Option) (stage.Stage, error) {
		return NewDiff(t, nb, opts...)
	}
}

func TestDiffRoundTrip(t *testing.T) {
	t.Run("last_plane3", func(t *testing.T) {
		checkRoundTrip(t, diffFactory(geom.LastPlane(3)))
	})
	t.Run("last_pixels_on_line2", func(t *testing.T) {
		checkRoundTrip(t, diffFactory(geom.LastPixelsOnLine(2)))
	})
}

func TestDiffKnownValue(t *testing.T) {
	shape := geom.Shape{2, 3, 3}
	in := testutil.Ramp[uint8](shape.Len(), 0)

	d, err := NewDiff(dtype.Uint8, geom.LastPlane(3))
	require.NoError(t, err)
	out := encode(t, d, in, shape)

	// Only the center of the second plane has its 3x3 patch of the first plane inside
	// the volume. The patch holds 0..8 with mean 4.
	want := append([]byte(nil), in...)
	want[13] = 13 - 4
	assert.Equal(t, want, out)
}

func TestDiffNaming(t *testing.T) {
	d, err := NewDiff(dtype.Uint16, DefaultDiffNeighborhood)
	require.NoError(t, err)
	assert.Equal(t, "diff3x3x1", d.Name())
	assert.Equal(t, "", d.Config())
	assert.Equal(t, dtype.Uint16, d.InputType())
	assert.Equal(t, dtype.Int16, d.OutputType())

	d, err = NewDiff(dtype.Uint8, geom.LastPixelsOnLine(1))
	require.NoError(t, err)
	assert.Equal(t, "diff1x1x1", d.Name())
	assert.Equal(t, "neighborhood=last_pixels_on_line1", d.Config())

	nb, err := DiffNeighborhood("3x3x1")
	require.NoError(t, err)
	assert.Equal(t, "last_plane3", nb.Name)

	nb, err = DiffNeighborhood("4x1x1")
	require.NoError(t, err)
	assert.Equal(t, "last_pixels_on_line4", nb.Name)

	_, err = DiffNeighborhood("3x3x3")
	assert.Error(t, err)
}

func TestDiffRejectsNonCausal(t *testing.T) {
	_, err := NewDiff(dtype.Uint16, geom.Cube(3))
	assert.ErrorIs(t, err, stage.ErrInvalidConfig)

	_, err = NewDiff(dtype.Uint16, geom.LastPixelsInCube(3))
	assert.ErrorIs(t, err, stage.ErrInvalidConfig)
}

func TestDiffThreadInvariance(t *testing.T) {
	for _, typ := range []dtype.Type{dtype.Uint16, dtype.Int8} {
		t.Run(typ.String(), func(t *testing.T) {
			checkThreadInvariance(t, diffFactory(DefaultDiffNeighborhood), typ)
		})
	}
}

func TestDiffBitswapChain(t *testing.T) {
	shape := geom.Shape{8, 8, 8}
	in := dtype.Bytes(testutil.Ramp[uint16](shape.Len(), 0))

	d, err := NewDiff(dtype.Uint16, DefaultDiffNeighborhood)
	require.NoError(t, err)
	b, err := NewBitswap(d.OutputType(), 1)
	require.NoError(t, err)

	c, err := stage.NewChain(d, b)
	require.NoError(t, err)
	assert.Equal(t, "diff3x3x1->bitswap1", c.Name())

	enc := make([]byte, c.MaxEncodedSize(len(in)))
	n, err := c.Encode(in, enc, shape)
	require.NoError(t, err)

	out := make([]byte, len(in))
	require.NoError(t, c.Decode(enc[:n], out, shape))
	assert.Equal(t, in, out)
}
