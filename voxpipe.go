package voxpipe

import (
	"context"
	"time"

	"github.com/hupe1980/voxpipe/blobstore"
	"github.com/hupe1980/voxpipe/container"
	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/header"
	"github.com/hupe1980/voxpipe/pipeline"
)

// Compress encodes samples of the given shape with the pipeline named by sig and
// returns header+payload.
func Compress[T dtype.Sample](ctx context.Context, samples []T, shape geom.Shape, sig string, opts ...Option) ([]byte, error) {
	o := applyOptions(opts)
	log := o.logger.WithPipeline(sig).WithShape(shape)
	raw := dtype.Bytes(samples)
	start := time.Now()

	stream, err := compress(ctx, raw, shape, dtype.Of[T](), sig, o)
	err = translateError(err)

	o.metricsCollector.RecordCompress(len(raw), len(stream), time.Since(start), err)
	log.LogCompress(ctx, len(raw), len(stream), err)
	if err != nil {
		return nil, err
	}
	return stream, nil
}

func compress(ctx context.Context, raw []byte, shape geom.Shape, t dtype.Type, sig string, o options) ([]byte, error) {
	p, err := pipeline.Parse(sig, t, o.pipelineOptions()...)
	if err != nil {
		return nil, err
	}
	return p.Compress(ctx, raw, shape)
}

// Decompress decodes a stream produced by Compress. T must match the element
// type recorded in the header.
func Decompress[T dtype.Sample](ctx context.Context, stream []byte, opts ...Option) ([]T, geom.Shape, error) {
	o := applyOptions(opts)
	start := time.Now()

	samples, shape, err := decompress[T](ctx, stream, o)
	err = translateError(err)

	o.metricsCollector.RecordDecompress(len(stream), time.Since(start), err)
	o.logger.LogDecompress(ctx, len(stream), len(dtype.Bytes(samples)), err)
	if err != nil {
		return nil, nil, err
	}
	return samples, shape, nil
}

func decompress[T dtype.Sample](ctx context.Context, stream []byte, o options) ([]T, geom.Shape, error) {
	h, err := header.Unpack(stream)
	if err != nil {
		return nil, nil, err
	}
	if want := dtype.Of[T](); h.Type() != want {
		return nil, nil, &ErrTypeMismatch{Expected: want, Actual: h.Type()}
	}
	res, err := pipeline.Decompress(ctx, stream, o.pipelineOptions()...)
	if err != nil {
		return nil, nil, err
	}
	return copySamples[T](res.Data), res.Shape, nil
}

// copySamples copies raw into a freshly allocated []T, so the result never
// aliases a byte buffer of weaker alignment.
func copySamples[T dtype.Sample](raw []byte) []T {
	out := make([]T, len(raw)/dtype.Of[T]().Size())
	copy(dtype.Bytes(out), raw)
	return out
}

// ReadHeader parses the header at the start of stream without decoding the payload.
func ReadHeader(stream []byte) (*header.Header, error) {
	h, err := header.Unpack(stream)
	return h, translateError(err)
}

// NewContainer returns a container adapter over store configured with the
// facade options.
func NewContainer(store blobstore.BlobStore, opts ...Option) *container.Adapter {
	o := applyOptions(opts)
	return newContainer(store, o)
}

func newContainer(store blobstore.BlobStore, o options) *container.Adapter {
	return container.New(store,
		container.WithPipelineOptions(o.pipelineOptions()...),
		container.WithLogger(o.logger.Logger),
	)
}

// Store compresses samples and writes the container to store under name.
func Store[T dtype.Sample](ctx context.Context, store blobstore.BlobStore, name string, samples []T, shape geom.Shape, sig string, opts ...Option) error {
	o := applyOptions(opts)
	raw := dtype.Bytes(samples)
	start := time.Now()

	info, err := newContainer(store, o).Write(ctx, name, raw, shape, dtype.Of[T](), sig)
	err = translateError(err)

	var stored int64
	if info != nil {
		stored = info.Size
	}
	o.metricsCollector.RecordCompress(len(raw), int(stored), time.Since(start), err)
	o.logger.WithPipeline(sig).LogStore(ctx, name, stored, err)
	return err
}

// Load reads and decompresses the container stored under name.
func Load[T dtype.Sample](ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) ([]T, geom.Shape, error) {
	o := applyOptions(opts)
	start := time.Now()

	out, shape, stored, err := load[T](ctx, store, name, o)
	err = translateError(err)

	o.metricsCollector.RecordDecompress(int(stored), time.Since(start), err)
	o.logger.LogLoad(ctx, name, len(dtype.Bytes(out)), err)
	if err != nil {
		return nil, nil, err
	}
	return out, shape, nil
}

func load[T dtype.Sample](ctx context.Context, store blobstore.BlobStore, name string, o options) ([]T, geom.Shape, int64, error) {
	a := newContainer(store, o)
	info, err := a.Stat(ctx, name)
	if err != nil {
		return nil, nil, 0, err
	}
	if want := dtype.Of[T](); info.Header.Type() != want {
		return nil, nil, 0, &ErrTypeMismatch{Expected: want, Actual: info.Header.Type()}
	}
	res, err := a.Read(ctx, name)
	if err != nil {
		return nil, nil, 0, err
	}
	return copySamples[T](res.Data), res.Shape, info.Size, nil
}
