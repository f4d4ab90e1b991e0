package voxpipe

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/voxpipe/blobstore"
	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/pipeline"
	"github.com/hupe1980/voxpipe/sink"
	"github.com/hupe1980/voxpipe/stage"
	"github.com/hupe1980/voxpipe/testutil"
)

func TestCompressDecompress(t *testing.T) {
	ctx := context.Background()
	shape := geom.Shape{8, 8, 8}

	t.Run("uint16", func(t *testing.T) {
		src := testutil.Ramp[uint16](shape.Len(), 128)
		for _, sig := range []string{"bitswap1->lz4", "diff->bitswap1->zstd", "zcurve->bitswap1->zstd", "tile->s2", ""} {
			stream, err := Compress(ctx, src, shape, sig, WithThreads(2))
			require.NoError(t, err, sig)

			got, gotShape, err := Decompress[uint16](ctx, stream, WithThreads(1))
			require.NoError(t, err, sig)
			assert.Equal(t, src, got, sig)
			assert.Equal(t, shape, gotShape)
		}
	})

	t.Run("int8", func(t *testing.T) {
		src := testutil.Random[int8](testutil.NewRNG(3), shape.Len(), 0)
		stream, err := Compress(ctx, src, shape, "diff->gzip")
		require.NoError(t, err)

		got, _, err := Decompress[int8](ctx, stream)
		require.NoError(t, err)
		assert.Equal(t, src, got)
	})

	t.Run("2d", func(t *testing.T) {
		shape := geom.Shape{12, 20}
		src := testutil.Ramp[uint8](shape.Len(), 0)
		stream, err := Compress(ctx, src, shape, "tile_shuffle(tile_size=4)->lz4")
		require.NoError(t, err)

		got, gotShape, err := Decompress[uint8](ctx, stream)
		require.NoError(t, err)
		assert.Equal(t, src, got)
		assert.Equal(t, shape, gotShape)
	})
}

func TestReadHeader(t *testing.T) {
	shape := geom.Shape{4, 8}
	stream, err := Compress(context.Background(), make([]int16, shape.Len()), shape, "bitswap1->lz4")
	require.NoError(t, err)

	h, err := ReadHeader(stream)
	require.NoError(t, err)
	assert.Equal(t, "bitswap1->lz4", h.Pipeline())
	assert.Equal(t, dtype.Int16, h.Type())
	assert.Equal(t, shape, h.Shape())
	assert.Equal(t, pipeline.Version, h.Version())

	_, err = ReadHeader([]byte("not a stream"))
	assert.ErrorIs(t, err, ErrNotRecognized)
}

func TestErrors(t *testing.T) {
	ctx := context.Background()
	shape := geom.Shape{4, 4}
	src := make([]uint16, shape.Len())

	t.Run("type mismatch", func(t *testing.T) {
		stream, err := Compress(ctx, src, shape, "lz4")
		require.NoError(t, err)

		_, _, err = Decompress[int16](ctx, stream)
		var tm *ErrTypeMismatch
		require.ErrorAs(t, err, &tm)
		assert.Equal(t, dtype.Int16, tm.Expected)
		assert.Equal(t, dtype.Uint16, tm.Actual)
		assert.ErrorIs(t, err, ErrAdjacency)
	})

	t.Run("shape mismatch", func(t *testing.T) {
		_, err := Compress(ctx, src[:15], shape, "lz4")
		var sm *ErrShapeMismatch
		require.ErrorAs(t, err, &sm)
		assert.Equal(t, 32, sm.Expected)
		assert.Equal(t, 30, sm.Actual)
		assert.ErrorIs(t, err, ErrShape)

		var inner *stage.ErrShapeMismatch
		assert.ErrorAs(t, err, &inner)
	})

	t.Run("unknown stage", func(t *testing.T) {
		_, err := Compress(ctx, src, shape, "bitswap1->brotli")
		var us *ErrUnknownStageName
		require.ErrorAs(t, err, &us)
		assert.Equal(t, "brotli", us.Name)
		assert.ErrorIs(t, err, ErrUnknownStage)
	})

	t.Run("syntax", func(t *testing.T) {
		_, err := Compress(ctx, src, shape, "lz4(level=1")
		assert.ErrorIs(t, err, ErrSyntax)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := Compress(ctx, src, shape, "bitswap3")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("checksum", func(t *testing.T) {
		stream, err := Compress(ctx, testutil.Ramp[uint16](shape.Len(), 0), shape, "lz4")
		require.NoError(t, err)
		stream[len(stream)-1] ^= 0xff

		_, _, err = Decompress[uint16](ctx, stream)
		assert.ErrorIs(t, err, ErrChecksum)
	})

	t.Run("memory limit", func(t *testing.T) {
		_, err := Compress(ctx, src, shape, "bitswap1->lz4", WithMemoryLimit(16))
		assert.ErrorIs(t, err, ErrMemoryLimitExceeded)
	})

	t.Run("declared size", func(t *testing.T) {
		stream, err := Compress(ctx, src, shape, "bitswap1->lz4")
		require.NoError(t, err)
		_, _, err = Decompress[uint16](ctx, stream, WithMaxDecodedSize(8))
		assert.ErrorIs(t, err, ErrNotRecognized)
	})
}

func TestWithRegistry(t *testing.T) {
	ctx := context.Background()
	shape := geom.Shape{16}
	src := testutil.Ramp[uint8](shape.Len(), 0)

	r := pipeline.DefaultRegistry()
	require.NoError(t, r.Register("fast", func(typ dtype.Type, _ map[string]string, opts ...stage.Option) (stage.Stage, error) {
		return sink.NewLZ4(typ, 0, opts...)
	}))

	stream, err := Compress(ctx, src, shape, "fast", WithRegistry(r))
	require.NoError(t, err)

	h, err := ReadHeader(stream)
	require.NoError(t, err)
	assert.Equal(t, "lz4", h.Pipeline())

	got, _, err := Decompress[uint8](ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	_, err = Compress(ctx, src, shape, "fast")
	assert.ErrorIs(t, err, ErrUnknownStage)
}

func TestStoreLoad(t *testing.T) {
	ctx := context.Background()
	shape := geom.Shape{6, 12, 12}
	src := testutil.Blobs[uint16](testutil.NewRNG(11), shape, 100, 3, 800, 2)

	stores := map[string]blobstore.BlobStore{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	}
	for name, store := range stores {
		t.Run(name, func(t *testing.T) {
			metrics := &BasicMetricsCollector{}
			require.NoError(t, Store(ctx, store, "scan/0001.vxp", src, shape, "diff->bitswap1->zstd", WithMetricsCollector(metrics)))

			got, gotShape, err := Load[uint16](ctx, store, "scan/0001.vxp", WithMetricsCollector(metrics))
			require.NoError(t, err)
			assert.Equal(t, src, got)
			assert.Equal(t, shape, gotShape)

			stats := metrics.GetStats()
			assert.Equal(t, int64(1), stats.CompressCount)
			assert.Equal(t, int64(1), stats.DecompressCount)
			assert.Equal(t, int64(len(src)*2), stats.CompressRawBytes)
			assert.Greater(t, stats.CompressRatio, 1.0)

			_, _, err = Load[uint8](ctx, store, "scan/0001.vxp")
			assert.ErrorIs(t, err, ErrAdjacency)

			_, _, err = Load[uint16](ctx, store, "scan/missing.vxp")
			assert.ErrorIs(t, err, ErrNotFound)

			info, err := NewContainer(store).Stat(ctx, "scan/0001.vxp")
			require.NoError(t, err)
			assert.Equal(t, dtype.Uint16, info.Header.Type())
		})
	}
}

func TestMetrics(t *testing.T) {
	ctx := context.Background()
	metrics := &BasicMetricsCollector{}
	shape := geom.Shape{64}
	src := testutil.Constant[uint8](shape.Len(), 7)

	stream, err := Compress(ctx, src, shape, "lz4", WithMetricsCollector(metrics))
	require.NoError(t, err)
	_, err = Compress(ctx, src[:10], shape, "lz4", WithMetricsCollector(metrics))
	require.Error(t, err)
	_, _, err = Decompress[uint8](ctx, stream, WithMetricsCollector(metrics))
	require.NoError(t, err)
	_, _, err = Decompress[uint8](ctx, stream[:5], WithMetricsCollector(metrics))
	require.Error(t, err)

	stats := metrics.GetStats()
	assert.Equal(t, int64(2), stats.CompressCount)
	assert.Equal(t, int64(1), stats.CompressErrors)
	assert.Equal(t, int64(64), stats.CompressRawBytes)
	assert.Equal(t, int64(len(stream)), stats.CompressEncodedBytes)
	assert.Equal(t, int64(2), stats.DecompressCount)
	assert.Equal(t, int64(1), stats.DecompressErrors)
	assert.Equal(t, int64(len(stream)), metrics.DecompressEncodedBytes.Load())

	// nil falls back to the no-op collector.
	_, err = Compress(ctx, src, shape, "lz4", WithMetricsCollector(nil))
	assert.NoError(t, err)
}

func TestLogger(t *testing.T) {
	ctx := context.Background()
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	shape := geom.Shape{2, 8}
	src := testutil.Ramp[uint8](shape.Len(), 0)
	stream, err := Compress(ctx, src, shape, "bitswap1->lz4", WithLogger(logger))
	require.NoError(t, err)
	_, _, err = Decompress[uint8](ctx, stream, WithLogger(logger))
	require.NoError(t, err)
	_, err = Compress(ctx, src, shape, "nope", WithLogger(logger))
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"compress completed"`)
	assert.Contains(t, out, `"pipeline":"bitswap1->lz4"`)
	assert.Contains(t, out, `"shape":"2x8"`)
	assert.Contains(t, out, `"msg":"pipeline compressed"`)
	assert.Contains(t, out, `"msg":"decompress completed"`)
	assert.Contains(t, out, `"msg":"compress failed"`)

	assert.NotNil(t, NoopLogger().Logger)
	assert.NotNil(t, NewLogger(nil).Logger)
	assert.NotNil(t, NewTextLogger(slog.LevelWarn).Logger)
	assert.NotNil(t, NewJSONLogger(slog.LevelWarn).Logger)
}
