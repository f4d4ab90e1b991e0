package container

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/hupe1980/voxpipe/blobstore"
	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/header"
	"github.com/hupe1980/voxpipe/internal/resource"
	"github.com/hupe1980/voxpipe/pipeline"
)

// StatPrefix is the number of bytes Stat reads before falling back to the
// whole blob.
const StatPrefix = 4096

// Info describes a stored container.
type Info struct {
	Name   string
	Size   int64
	Header *header.Header
}

// Adapter reads and writes containers in a BlobStore.
// It is safe for concurrent use when the store is.
type Adapter struct {
	store  blobstore.BlobStore
	opts   options
	rc     *resource.Controller
	logger *slog.Logger
}

// New creates an Adapter over store.
func New(store blobstore.BlobStore, opts ...Option) *Adapter {
	o := applyOptions(opts)
	a := &Adapter{
		store:  store,
		opts:   o,
		logger: o.logger,
	}
	if o.ioLimit > 0 {
		a.rc = resource.NewController(resource.Config{IOLimitBytesPerSec: o.ioLimit})
	}
	return a
}

// Store returns the underlying blob store.
func (a *Adapter) Store() blobstore.BlobStore { return a.store }

// Write compresses raw with the named pipeline and stores the stream under name.
func (a *Adapter) Write(ctx context.Context, name string, raw []byte, shape geom.Shape, t dtype.Type, pipelineName string) (*Info, error) {
	start := time.Now()

	p, err := pipeline.Parse(pipelineName, t, a.opts.pipelineOpts...)
	if err != nil {
		return nil, err
	}
	stream, err := p.Compress(ctx, raw, shape)
	if err != nil {
		return nil, err
	}

	if a.rc != nil {
		if err := a.rc.AcquireIO(ctx, len(stream)); err != nil {
			return nil, err
		}
	}
	if err := a.store.Put(ctx, name, stream); err != nil {
		return nil, fmt.Errorf("container %s: put: %w", name, err)
	}

	h, err := header.Unpack(stream)
	if err != nil {
		return nil, err
	}

	a.logger.InfoContext(ctx, "container stored",
		"name", name,
		"pipeline", h.Pipeline(),
		"raw_bytes", len(raw),
		"stored_bytes", len(stream),
		"duration", time.Since(start),
	)
	return &Info{Name: name, Size: int64(len(stream)), Header: h}, nil
}

// Read loads and decompresses the container stored under name.
func (a *Adapter) Read(ctx context.Context, name string) (*pipeline.Result, error) {
	start := time.Now()

	blob, err := a.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("container %s: open: %w", name, err)
	}
	defer blob.Close()

	data, err := a.readPrefix(ctx, blob, blob.Size())
	if err != nil {
		return nil, fmt.Errorf("container %s: read: %w", name, err)
	}

	res, err := pipeline.Decompress(ctx, data, a.opts.pipelineOpts...)
	if err != nil {
		return nil, fmt.Errorf("container %s: %w", name, err)
	}

	a.logger.InfoContext(ctx, "container loaded",
		"name", name,
		"pipeline", res.Pipeline,
		"stored_bytes", len(data),
		"raw_bytes", len(res.Data),
		"duration", time.Since(start),
	)
	return res, nil
}

// Stat reads the header of the container stored under name. It fetches the
// first StatPrefix bytes and retries with the whole blob when the header is
// longer.
func (a *Adapter) Stat(ctx context.Context, name string) (*Info, error) {
	blob, err := a.store.Open(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("container %s: open: %w", name, err)
	}
	defer blob.Close()

	size := blob.Size()
	n := min(size, StatPrefix)
	for {
		prefix, err := a.readPrefix(ctx, blob, n)
		if err != nil {
			return nil, fmt.Errorf("container %s: read: %w", name, err)
		}
		h, err := header.Unpack(prefix)
		if err == nil {
			return &Info{Name: name, Size: size, Header: h}, nil
		}
		if n == size {
			return nil, fmt.Errorf("container %s: %w", name, err)
		}
		a.logger.DebugContext(ctx, "container header exceeds prefix", "name", name, "prefix_bytes", n)
		n = size
	}
}

// List returns the names of the stored containers that start with prefix.
func (a *Adapter) List(ctx context.Context, prefix string) ([]string, error) {
	return a.store.List(ctx, prefix)
}

// Delete removes the container stored under name.
func (a *Adapter) Delete(ctx context.Context, name string) error {
	return a.store.Delete(ctx, name)
}

// readPrefix reads the first n bytes of blob through the IO limiter.
func (a *Adapter) readPrefix(ctx context.Context, blob blobstore.Blob, n int64) ([]byte, error) {
	rc, err := blob.ReadRange(ctx, 0, n)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if a.rc != nil {
		r = resource.NewRateLimitedReader(ctx, rc, a.rc)
	}

	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
