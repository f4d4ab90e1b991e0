package sink

import (
	"fmt"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/stage"
)

// algorithm is a block compressor behind a Compressor.
type algorithm interface {
	config() string
	bound(n int) int
	// encode compresses src into dst, which holds bound(len(src)) bytes.
	encode(dst, src []byte) (int, error)
	// decode fills dst, whose length is the decoded size, from src.
	decode(dst, src []byte) error
}

// Compressor is a byte sink: it emits the compressed bytes of its input samples.
type Compressor struct {
	stage.Info
	algo algorithm
}

func newCompressor(name string, t dtype.Type, algo algorithm, opts []stage.Option) (*Compressor, error) {
	if !t.Valid() {
		return nil, stage.NewConfigError(name, "type", t.String(), nil)
	}
	return &Compressor{
		Info: stage.NewInfo(name, stage.KindSink, t, dtype.Uint8, stage.ApplyOptions(opts)),
		algo: algo,
	}, nil
}

func (c *Compressor) Config() string { return c.algo.config() }

func (c *Compressor) MaxEncodedSize(n int) int { return c.algo.bound(n) }

func (c *Compressor) Encode(in, out []byte, shape geom.Shape) (int, error) {
	if err := stage.CheckShape(c.Name(), c.InputType(), in, shape); err != nil {
		return 0, err
	}
	if err := stage.CheckCapacity(c.Name(), out, c.MaxEncodedSize(len(in))); err != nil {
		return 0, err
	}
	n, err := c.algo.encode(out, in)
	if err != nil {
		return 0, fmt.Errorf("sink %s: %w", c.Name(), err)
	}
	return n, nil
}

func (c *Compressor) Decode(in, out []byte, shape geom.Shape) error {
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("sink %s: %w: %w", c.Name(), stage.ErrShape, err)
	}
	want := shape.Len() * c.InputType().Size()
	if err := stage.CheckCapacity(c.Name(), out, want); err != nil {
		return err
	}
	if err := c.algo.decode(out[:want], in); err != nil {
		return fmt.Errorf("sink %s: %w", c.Name(), err)
	}
	return nil
}

// fixedWriter is an io.Writer over a preallocated buffer.
type fixedWriter struct {
	buf []byte
	n   int
}

func (w *fixedWriter) Write(p []byte) (int, error) {
	if len(p) > len(w.buf)-w.n {
		return 0, ErrIncompressible
	}
	w.n += copy(w.buf[w.n:], p)
	return len(p), nil
}
