package filter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/stage"
	"github.com/hupe1980/voxpipe/testutil"
)

var (
	allTypes   = []dtype.Type{dtype.Uint8, dtype.Int8, dtype.Uint16, dtype.Int16}
	testShapes = []geom.Shape{{8, 8, 8}, {3, 5, 7}, {1, 1, 13}, {2, 17, 9}, {33}}
	dataKinds  = []string{"constant", "ramp", "random"}
)

type factory func(t dtype.Type, opts ...stage.Option) (stage.Stage, error)

func gen[T dtype.Sample](kind string, n int, rng *testutil.RNG) []T {
	switch kind {
	case "constant":
		return testutil.Constant[T](n, T(7))
	case "ramp":
		return testutil.Ramp[T](n, 0)
	default:
		return testutil.Random[T](rng, n, 0)
	}
}

func sampleBytes(t dtype.Type, kind string, n int, rng *testutil.RNG) []byte {
	switch t {
	case dtype.Uint8:
		return dtype.Bytes(gen[uint8](kind, n, rng))
	case dtype.Int8:
		return dtype.Bytes(gen[int8](kind, n, rng))
	case dtype.Uint16:
		return dtype.Bytes(gen[uint16](kind, n, rng))
	default:
		return dtype.Bytes(gen[int16](kind, n, rng))
	}
}

// encode runs Encode and checks the size contract of a filter.
func encode(t *testing.T, st stage.Stage, in []byte, shape geom.Shape) []byte {
	t.Helper()
	out := make([]byte, st.MaxEncodedSize(len(in)))
	n, err := st.Encode(in, out, shape)
	require.NoError(t, err)
	require.Equal(t, len(in), n)
	return out[:n]
}

func decode(t *testing.T, st stage.Stage, enc []byte, shape geom.Shape) []byte {
	t.Helper()
	out := make([]byte, len(enc))
	require.NoError(t, st.Decode(enc, out, shape))
	return out
}

// checkRoundTrip encodes every data kind for every type and shape and requires exact
// reconstruction.
func checkRoundTrip(t *testing.T, mk factory) {
	t.Helper()
	rng := testutil.NewRNG(42)
	for _, typ := range allTypes {
		for _, shape := range testShapes {
			for _, kind := range dataKinds {
				t.Run(typ.String()+"/"+shape.String()+"/"+kind, func(t *testing.T) {
					st, err := mk(typ, stage.WithThreads(3))
					require.NoError(t, err)

					in := sampleBytes(typ, kind, shape.Len(), rng)
					enc := encode(t, st, in, shape)
					require.Equal(t, in, decode(t, st, enc, shape))
				})
			}
		}
	}
}

// checkThreadInvariance requires identical encodings for 1, 2 and NumCPU workers.
func checkThreadInvariance(t *testing.T, mk factory, typ dtype.Type) {
	t.Helper()
	rng := testutil.NewRNG(7)
	shape := geom.Shape{19, 23, 29}
	in := sampleBytes(typ, "random", shape.Len(), rng)

	var want []byte
	for _, threads := range []int{1, 2, 0} {
		st, err := mk(typ, stage.WithThreads(threads))
		require.NoError(t, err)
		got := encode(t, st, in, shape)
		if want == nil {
			want = got
			continue
		}
		require.Equal(t, want, got, "threads=%d", threads)
		require.Equal(t, in, decode(t, st, got, shape), "threads=%d", threads)
	}
}
