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

func TestThreshold(t *testing.T) {
	s, err := NewThreshold(dtype.Uint8, 10)
	require.NoError(t, err)
	assert.Equal(t, "rmbkrd", s.Name())
	assert.Equal(t, "threshold=10", s.Config())
	assert.True(t, stage.IsLossy(s))

	in := []byte{0, 5, 10, 11, 20, 255}
	out := encode(t, s, in, geom.Shape{6})
	assert.Equal(t, []byte{0, 0, 0, 1, 10, 245}, out)
	assert.Equal(t, out, decode(t, s, out, geom.Shape{6}))

	t.Run("signed", func(t *testing.T) {
		s, err := NewThreshold(dtype.Int16, 3)
		require.NoError(t, err)
		in := dtype.Bytes([]int16{-7, 2, 3, 4, 1000})
		out := dtype.View[int16](encode(t, s, in, geom.Shape{5}))
		assert.Equal(t, []int16{0, 0, 0, 1, 997}, out)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := NewThreshold(dtype.Uint8, 300)
		assert.ErrorIs(t, err, stage.ErrInvalidConfig)
	})
}

func TestFlatten(t *testing.T) {
	shape := geom.Shape{5, 5, 5}

	t.Run("isolated voxel", func(t *testing.T) {
		in := make([]byte, shape.Len())
		in[62] = 100

		s, err := NewFlatten(dtype.Uint8, 50, DefaultFlattenFraction, DefaultFlattenNeighborhood)
		require.NoError(t, err)
		assert.Equal(t, "rmbkrd_neighbor5x5x5", s.Name())
		assert.Equal(t, "threshold=50,fraction=0.5", s.Config())
		assert.Nil(t, s.Suppressed())

		out := encode(t, s, in, shape)
		assert.Equal(t, make([]byte, shape.Len()), out)
		require.NotNil(t, s.Suppressed())
		assert.Equal(t, uint64(1), s.Suppressed().GetCardinality())
		assert.True(t, s.Suppressed().Contains(62))
	})

	t.Run("bright region kept", func(t *testing.T) {
		in := testutil.Constant[uint16](shape.Len(), 100)
		s, err := NewFlatten(dtype.Uint16, 50, 0.5, geom.Cube(3), stage.WithThreads(2))
		require.NoError(t, err)

		out := encode(t, s, dtype.Bytes(in), shape)
		assert.Equal(t, dtype.Bytes(in), out)
		assert.True(t, s.Suppressed().IsEmpty())
	})

	t.Run("invalid fraction", func(t *testing.T) {
		_, err := NewFlatten(dtype.Uint8, 1, 1.5, geom.Cube(3))
		assert.ErrorIs(t, err, stage.ErrInvalidConfig)
	})
}

func TestEstimatedBackground(t *testing.T) {
	shape := geom.Shape{4, 6, 6}
	in := testutil.Constant[uint16](shape.Len(), 100)
	for z := 1; z <= 2; z++ {
		for y := 2; y <= 3; y++ {
			for x := 2; x <= 3; x++ {
				in[z*36+y*6+x] = 250
			}
		}
	}

	s, err := NewEstimatedBackground(dtype.Uint16, -1)
	require.NoError(t, err)
	assert.Equal(t, "", s.Config())
	_, ok := s.Threshold()
	assert.False(t, ok)

	out := dtype.View[uint16](encode(t, s, dtype.Bytes(in), shape))

	th, ok := s.Threshold()
	require.True(t, ok)
	assert.Equal(t, 100, th)
	assert.Equal(t, "threshold=100", s.Config())

	for i, v := range in {
		if v == 250 {
			assert.Equal(t, uint16(150), out[i], "index %d", i)
		} else {
			assert.Equal(t, uint16(0), out[i], "index %d", i)
		}
	}
}

func TestFlattenNeighborhood(t *testing.T) {
	nb, err := FlattenNeighborhood("3x3x3")
	require.NoError(t, err)
	assert.Equal(t, geom.Cube(3), nb)

	nb, err = FlattenNeighborhood("")
	require.NoError(t, err)
	assert.Equal(t, DefaultFlattenNeighborhood, nb)

	_, err = FlattenNeighborhood("3x3x1")
	assert.Error(t, err)

	s, err := NewFlatten(dtype.Uint8, 10, 0.25, geom.LastPixelsInCube(5))
	require.NoError(t, err)
	assert.Equal(t, "rmbkrd_neighbor3x3x3", s.Name())
	assert.Equal(t, "threshold=10,fraction=0.25,neighborhood=last_pixels_in_cube5", s.Config())
}
