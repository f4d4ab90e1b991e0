package stage

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/internal/mem"
	"github.com/hupe1980/voxpipe/signature"
)

// Chain is an ordered sequence of stages.
//
// A Chain holds at most one sink. Stages after the sink see the sink's output as a
// one-dimensional buffer. A Chain is safe for sequential reuse; it is not safe for
// concurrent use when a member keeps data-dependent state between Encode and Decode.
type Chain struct {
	stages []Stage
	sink   int
}

// NewChain validates the adjacency of stages and builds a chain.
// An empty chain is the identity.
func NewChain(stages ...Stage) (*Chain, error) {
	c := &Chain{stages: append([]Stage(nil), stages...), sink: -1}
	for i, st := range c.stages {
		if st == nil {
			return nil, fmt.Errorf("%w: stage %d is nil", ErrInvalidConfig, i)
		}
		if st.Kind() == KindSink {
			if c.sink >= 0 {
				return nil, fmt.Errorf("%w: stages %d and %d are both sinks", ErrInvalidConfig, c.sink, i)
			}
			c.sink = i
		}
		if i == 0 {
			continue
		}
		prev := c.stages[i-1]
		if prev.OutputType() != st.InputType() {
			return nil, &ErrTypeMismatch{Index: i, Out: prev.OutputType(), In: st.InputType()}
		}
	}
	return c, nil
}

// Len returns the number of stages.
func (c *Chain) Len() int { return len(c.stages) }

// Empty reports whether the chain has no stages.
func (c *Chain) Empty() bool { return len(c.stages) == 0 }

// Stages returns the members in encode order.
func (c *Chain) Stages() []Stage { return append([]Stage(nil), c.stages...) }

// Sink returns the sink member, if any.
func (c *Chain) Sink() (Stage, bool) {
	if c.sink < 0 {
		return nil, false
	}
	return c.stages[c.sink], true
}

// Name joins the signature of every stage with the "->" separator.
func (c *Chain) Name() string {
	parts := make([]string, len(c.stages))
	for i, st := range c.stages {
		parts[i] = Signature(st)
	}
	return signature.Join(parts...)
}

func (c *Chain) String() string { return c.Name() }

// InputType returns the element type consumed by the first stage.
func (c *Chain) InputType() dtype.Type {
	if len(c.stages) == 0 {
		return dtype.Invalid
	}
	return c.stages[0].InputType()
}

// OutputType returns the element type produced by the last stage.
func (c *Chain) OutputType() dtype.Type {
	if len(c.stages) == 0 {
		return dtype.Invalid
	}
	return c.stages[len(c.stages)-1].OutputType()
}

// Lossy reports whether any member discards information.
func (c *Chain) Lossy() bool {
	for _, st := range c.stages {
		if IsLossy(st) {
			return true
		}
	}
	return false
}

// bounds returns the worst-case byte size after every stage, starting with inBytes.
func (c *Chain) bounds(inBytes int) []int {
	b := make([]int, len(c.stages)+1)
	b[0] = inBytes
	for i, st := range c.stages {
		b[i+1] = st.MaxEncodedSize(b[i])
	}
	return b
}

// MaxEncodedSize returns the output capacity required by Encode.
// For a chain ending in a sink this is the sink's bound; otherwise it is the largest
// bound of any member.
func (c *Chain) MaxEncodedSize(inBytes int) int {
	b := c.bounds(inBytes)
	if len(c.stages) > 0 && c.stages[len(c.stages)-1].Kind() == KindSink {
		return b[len(b)-1]
	}
	size := inBytes
	for _, v := range b[1:] {
		size = max(size, v)
	}
	return size
}

// TempSize returns the bytes of scratch memory Encode and Decode allocate.
func (c *Chain) TempSize(inBytes int) int {
	if len(c.stages) < 2 {
		return 0
	}
	widest := 0
	for _, v := range c.bounds(inBytes) {
		widest = max(widest, v)
	}
	return 2 * widest
}

// stageShape returns the shape seen by stage i when the chain input has shape.
func (c *Chain) stageShape(i int, shape geom.Shape, n int) geom.Shape {
	if c.sink >= 0 && i > c.sink {
		return geom.Shape{n / c.stages[i].InputType().Size()}
	}
	return shape
}

// Encode applies the stages left to right and returns the bytes written to out.
func (c *Chain) Encode(in, out []byte, shape geom.Shape) (int, error) {
	return c.EncodeContext(context.Background(), in, out, shape)
}

// EncodeContext is Encode with a cancellation check before every stage.
func (c *Chain) EncodeContext(ctx context.Context, in, out []byte, shape geom.Shape) (int, error) {
	if len(c.stages) == 0 {
		if err := CheckCapacity("chain", out, len(in)); err != nil {
			return 0, err
		}
		return copy(out, in), nil
	}
	if err := CheckShape(c.stages[0].Name(), c.InputType(), in, shape); err != nil {
		return 0, err
	}
	if err := CheckCapacity(c.Name(), out, c.MaxEncodedSize(len(in))); err != nil {
		return 0, err
	}

	bounds := c.bounds(len(in))
	var temps [2][]byte
	if len(c.stages) > 1 {
		widest := c.TempSize(len(in)) / 2
		temps[0] = mem.AllocAligned(widest)
		temps[1] = mem.AllocAligned(widest)
	}

	cur := in
	last := len(c.stages) - 1
	for i, st := range c.stages {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		dst := out
		if i < last {
			dst = temps[i%2][:bounds[i+1]]
		}
		n, err := st.Encode(cur, dst, c.stageShape(i, shape, len(cur)))
		if err != nil {
			return 0, fmt.Errorf("encode %s: %w", st.Name(), err)
		}
		cur = dst[:n]
	}
	return len(cur), nil
}

// Decode applies the inverse stages right to left. shape describes the chain input
// and out must hold shape.Len() elements of InputType.
func (c *Chain) Decode(in, out []byte, shape geom.Shape) error {
	return c.DecodeContext(context.Background(), in, out, shape)
}

// DecodeContext is Decode with a cancellation check before every stage.
func (c *Chain) DecodeContext(ctx context.Context, in, out []byte, shape geom.Shape) error {
	if len(c.stages) == 0 {
		if err := CheckCapacity("chain", out, len(in)); err != nil {
			return err
		}
		copy(out, in)
		return nil
	}
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrShape, err)
	}
	rawBytes := shape.Len() * c.InputType().Size()
	if len(out) < rawBytes {
		return &ErrShortBuffer{Stage: c.Name(), Want: rawBytes, Got: len(out)}
	}

	var temps [2][]byte
	if len(c.stages) > 1 {
		widest := max(len(in), rawBytes)
		for _, v := range c.bounds(rawBytes) {
			widest = max(widest, v)
		}
		temps[0] = mem.AllocAligned(widest)
		temps[1] = mem.AllocAligned(widest)
	}

	cur := in
	for i := len(c.stages) - 1; i >= 0; i-- {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := c.stages[i]

		var n int
		switch {
		case i == c.sink:
			n = rawBytes / c.InputType().Size() * st.InputType().Size()
		case c.sink >= 0 && i > c.sink:
			n = len(cur)
		default:
			n = rawBytes
		}

		// Tail filters see the encoded length, which may exceed len(out).
		var dst []byte
		if i > 0 {
			dst = temps[i%2][:n]
		} else {
			dst = out[:n]
		}
		if err := st.Decode(cur, dst, c.stageShape(i, shape, n)); err != nil {
			return fmt.Errorf("decode %s: %w", st.Name(), err)
		}
		cur = dst
	}
	return nil
}

// Describe renders one line per stage for logs.
func (c *Chain) Describe() string {
	var sb strings.Builder
	for i, st := range c.stages {
		fmt.Fprintf(&sb, "%d: %s [%s %s->%s]\n", i, Signature(st), st.Kind(), st.InputType(), st.OutputType())
	}
	return sb.String()
}
