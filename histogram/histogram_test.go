package histogram

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voxpipe/testutil"
)

func TestHistogram_Mode(t *testing.T) {
	data := []uint16{1, 2, 3, 42, 42, 42, 42, 7, 7, 900}
	h := FromSlice(data)

	assert.Equal(t, uint16(42), h.Mode())
	assert.Equal(t, uint64(4), h.Count(42))
	assert.Equal(t, uint64(len(data)), h.Integral())
	assert.Equal(t, uint16(1), h.SmallestPopulated())
	assert.Equal(t, uint16(900), h.LargestPopulated())
	assert.Equal(t, 1<<16, h.Bins())
}

func TestHistogram_Median(t *testing.T) {
	data := make([]uint8, 10)
	for i := range data {
		data[i] = uint8(i)
	}
	h := FromSlice(data)
	assert.InDelta(t, 4.5, h.Median(), 1e-9)
	assert.InDelta(t, 4.5, h.Mean(), 1e-9)
}

func TestHistogram_Support(t *testing.T) {
	h := FromSlice([]uint8{3, 3, 5, 7, 7, 7})

	t.Run("full support is largest populated", func(t *testing.T) {
		assert.InDelta(t, 7.0, h.Support(1.0), 1e-9)
	})

	t.Run("largest possible bin", func(t *testing.T) {
		top := FromSlice([]uint8{10, 255})
		assert.InDelta(t, 255.0, top.Support(1.0), 1e-9)
	})

	t.Run("out of range quantile", func(t *testing.T) {
		assert.Equal(t, 0.0, h.Support(-0.1))
		assert.Equal(t, 0.0, h.Support(1.1))
	})

	t.Run("interpolates with preceding bin", func(t *testing.T) {
		// cumulative exceeds .2 at bin 3 (2/6); bin 2 is empty.
		assert.InDelta(t, 3.0, h.Support(0.2), 1e-9)
		// cumulative exceeds .5 at bin 7; bin 6 is empty.
		assert.InDelta(t, 7.0, h.Support(0.5), 1e-9)
	})
}

func TestHistogram_Entropy(t *testing.T) {
	t.Run("constant", func(t *testing.T) {
		h := FromSlice([]uint8{9, 9, 9, 9})
		assert.InDelta(t, 0.0, h.Entropy(), 1e-9)
	})

	t.Run("uniform", func(t *testing.T) {
		h := FromSlice([]uint8{0, 1, 2, 3, 4, 5, 6, 7})
		assert.InDelta(t, 3.0, h.Entropy(), 1e-9)
	})
}

func TestHistogram_Signed(t *testing.T) {
	h := FromSlice([]int16{-5, -5, -5, 0, 10})
	assert.Equal(t, int16(-5), h.Mode())
	assert.Equal(t, int16(-5), h.SmallestPopulated())
	assert.Equal(t, int16(10), h.LargestPopulated())
	assert.InDelta(t, -1.0, h.Mean(), 1e-9)
	assert.InDelta(t, 10.0, h.Support(1.0), 1e-9)
}

func TestHistogram_ClearInvalidatesCache(t *testing.T) {
	h := FromSlice([]uint8{1, 1, 2})
	assert.Equal(t, uint8(1), h.Mode())

	h.Clear()
	assert.Equal(t, uint64(0), h.Integral())
	assert.Equal(t, 0.0, h.Median())

	h.Fill([]uint8{200, 200})
	assert.Equal(t, uint8(200), h.Mode())
	assert.Equal(t, uint64(2), h.Entries())
}

func TestHistogram_SupportCached(t *testing.T) {
	h := FromSlice([]uint8{0, 1, 2, 3, 4, 5, 6, 7, 8, 9})
	assert.InDelta(t, 8.5, h.Support(0.9), 1e-9)
	require.NotNil(t, h.cached)
	assert.Contains(t, h.cached.support, 0.9)
	assert.Contains(t, h.cached.support, 0.5)
	assert.InDelta(t, 8.5, h.Support(0.9), 1e-9)

	bright := make([]uint8, 10)
	for i := range bright {
		bright[i] = 50
	}
	h.Fill(bright)
	assert.Nil(t, h.cached)
	assert.InDelta(t, 50.0, h.Support(0.9), 1e-9)
}

func TestHistogram_FillThreads(t *testing.T) {
	rng := testutil.NewRNG(7)
	data := testutil.Random[uint16](rng, 300_000, 4096)

	serial := FromSlice(data)
	for _, threads := range []int{1, 2, 0} {
		h := New[uint16]()
		h.FillThreads(data, threads)
		require.Equal(t, serial.Integral(), h.Integral())
		assert.Equal(t, serial.Mode(), h.Mode())
		assert.Equal(t, serial.Median(), h.Median())
		assert.False(t, math.IsNaN(h.Entropy()))
	}
}
