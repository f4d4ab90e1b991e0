package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voxpipe/verbatim"
)

func TestParse(t *testing.T) {
	stages, err := Parse("rmbkrd(threshold=20)->bitswap1->lz4(accel=2,blocksize_kb=64)")
	require.NoError(t, err)
	require.Len(t, stages, 3)

	assert.Equal(t, "rmbkrd", stages[0].Name)
	v, ok := stages[0].Get("threshold")
	assert.True(t, ok)
	assert.Equal(t, "20", v)

	assert.Equal(t, "bitswap1", stages[1].Name)
	assert.Empty(t, stages[1].Params)

	assert.Equal(t, map[string]string{"accel": "2", "blocksize_kb": "64"}, stages[2].Map())
	assert.Equal(t, "accel=2,blocksize_kb=64", stages[2].Config())
}

func TestParseVerbatim(t *testing.T) {
	payload := []byte{0x3e, 0x2d, 0x2c, 0x28, 0x29, 0xfb, 0xff}
	sig := "tile_shuffle(tile_size=8,reorder_map=" + verbatim.Encode(payload) + ")->lz4"

	stages, err := Parse(sig)
	require.NoError(t, err)
	require.Len(t, stages, 2)

	raw, ok := stages[0].Get("reorder_map")
	require.True(t, ok)
	got, err := verbatim.Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestFormatRoundTrip(t *testing.T) {
	in := []Stage{
		{Name: "diff3x3x1"},
		{Name: "frame_shuffle", Params: []Param{{Key: "frame_chunk_size", Value: "4"}, {Key: "reorder_map", Value: verbatim.Encode([]byte("->"))}}},
		{Name: "zstd", Params: []Param{{Key: "level", Value: "best"}}},
	}
	sig := Format(in)
	out, err := Parse(sig)
	require.NoError(t, err)
	assert.Equal(t, in, out)
	assert.Equal(t, sig, Format(out))
}

func TestParseErrors(t *testing.T) {
	for _, sig := range []string{
		"",
		"->lz4",
		"bitswap1->",
		"bitswap1->->lz4",
		"rmbkrd(threshold=20",
		"rmbkrd(threshold)",
		"rmbkrd(=3)",
		"rmbkrd(threshold=)",
		"rmbkrd(a=1,a=2)",
		"rmbkrd(a=1,)",
		"rm bkrd",
		"a(b=(c))",
		"name=1",
	} {
		t.Run(sig, func(t *testing.T) {
			_, err := Parse(sig)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)
			var pe *ErrParse
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestParseEmptyParens(t *testing.T) {
	st, err := ParseStage("lz4()")
	require.NoError(t, err)
	assert.Equal(t, "lz4", st.Name)
	assert.Equal(t, "lz4", st.String())
}
