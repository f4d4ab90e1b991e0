package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/header"
	"github.com/hupe1980/voxpipe/internal/hash"
	"github.com/hupe1980/voxpipe/signature"
	"github.com/hupe1980/voxpipe/stage"
)

// Pipeline is a parsed signature bound to an element type.
type Pipeline struct {
	typ   dtype.Type
	chain *stage.Chain
	sink  int
	opts  options
}

// Result is a decompressed stream.
type Result struct {
	Data     []byte
	Shape    geom.Shape
	Type     dtype.Type
	Pipeline string
}

// Parse builds the pipeline named by sig for input type t. An empty signature is the
// identity pipeline.
func Parse(sig string, t dtype.Type, opts ...Option) (*Pipeline, error) {
	return parse(sig, t, applyOptions(opts))
}

func parse(sig string, t dtype.Type, o options) (*Pipeline, error) {
	if !t.Valid() {
		return nil, stage.NewConfigError("pipeline", "type", t.String(), nil)
	}

	var specs []signature.Stage
	if sig != "" {
		var err error
		if specs, err = signature.Parse(sig); err != nil {
			return nil, err
		}
	}

	stages := make([]stage.Stage, 0, len(specs))
	cur := t
	for _, spec := range specs {
		st, err := o.registry.Build(spec, cur, o.stageOptions()...)
		if err != nil {
			return nil, err
		}
		stages = append(stages, st)
		cur = st.OutputType()
	}
	return newPipeline(t, stages, o)
}

// New assembles a pipeline from constructed stages.
func New(t dtype.Type, stages []stage.Stage, opts ...Option) (*Pipeline, error) {
	return newPipeline(t, stages, applyOptions(opts))
}

func newPipeline(t dtype.Type, stages []stage.Stage, o options) (*Pipeline, error) {
	sink := -1
	for i, st := range stages {
		if st != nil && st.Kind() == stage.KindSink {
			if sink >= 0 {
				return nil, fmt.Errorf("%w: %s and %s", ErrMultipleSinks, stages[sink].Name(), st.Name())
			}
			sink = i
		}
	}
	if len(stages) > 0 && stages[0] != nil && stages[0].InputType() != t {
		return nil, &stage.ErrTypeMismatch{Index: 0, Out: t, In: stages[0].InputType()}
	}
	chain, err := stage.NewChain(stages...)
	if err != nil {
		return nil, err
	}
	return &Pipeline{typ: t, chain: chain, sink: sink, opts: o}, nil
}

// Name returns the signature of the pipeline. After Compress it includes the
// data-dependent configuration recorded by the last encode.
func (p *Pipeline) Name() string { return p.chain.Name() }

func (p *Pipeline) String() string { return p.Name() }

// Type returns the raw element type.
func (p *Pipeline) Type() dtype.Type { return p.typ }

// Chain returns the underlying stage chain.
func (p *Pipeline) Chain() *stage.Chain { return p.chain }

// Head returns the filters in front of the sink, or every stage without a sink.
func (p *Pipeline) Head() []stage.Stage {
	stages := p.chain.Stages()
	if p.sink < 0 {
		return stages
	}
	return stages[:p.sink]
}

// Sink returns the sink, if any.
func (p *Pipeline) Sink() (stage.Stage, bool) { return p.chain.Sink() }

// Tail returns the byte filters behind the sink.
func (p *Pipeline) Tail() []stage.Stage {
	if p.sink < 0 {
		return nil
	}
	return p.chain.Stages()[p.sink+1:]
}

// Lossy reports whether any stage discards information.
func (p *Pipeline) Lossy() bool { return p.chain.Lossy() }

// MaxCompressedSize bounds the length of Compress's result for a volume of shape.
// The bound depends on the shape rather than the byte count alone because reorder
// maps recorded in the header grow with the number of tiles.
func (p *Pipeline) MaxCompressedSize(shape geom.Shape) int {
	sig := 0
	for i, st := range p.chain.Stages() {
		if i > 0 {
			sig += len(signature.Separator)
		}
		sig += stage.MaxSignatureSize(st, p.stageShape(i, shape))
	}
	raw := shape.Len() * p.typ.Size()
	return header.Bound(sig, Version, len(shape), p.typ) + p.chain.MaxEncodedSize(raw)
}

// stageShape approximates the shape seen by stage i for size bounds.
func (p *Pipeline) stageShape(i int, shape geom.Shape) geom.Shape {
	if p.sink >= 0 && i > p.sink {
		return geom.Shape{max(shape.Len(), 1)}
	}
	return shape
}

// reserve accounts n bytes of temporaries against the resource controller.
func (p *Pipeline) reserve(n int) (func(), error) {
	if err := p.opts.rc.AcquireMemory(int64(n)); err != nil {
		return nil, fmt.Errorf("pipeline %s: reserve %d bytes: %w", p.Name(), n, err)
	}
	return func() { p.opts.rc.ReleaseMemory(int64(n)) }, nil
}

// Compress encodes in, holding shape.Len() samples of Type, and returns
// header+payload.
func (p *Pipeline) Compress(ctx context.Context, in []byte, shape geom.Shape) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", stage.ErrShape, err)
	}
	if want := shape.Len() * p.typ.Size(); len(in) != want {
		return nil, &stage.ErrShapeMismatch{Stage: p.Name(), Want: want, Got: len(in)}
	}
	start := time.Now()

	bound := p.chain.MaxEncodedSize(len(in))
	release, err := p.reserve(bound + p.chain.TempSize(len(in)))
	if err != nil {
		return nil, err
	}
	defer release()

	payload := make([]byte, bound)
	n, err := p.chain.EncodeContext(ctx, in, payload, shape)
	if err != nil {
		return nil, err
	}
	payload = payload[:n]

	var hopts []header.Option
	hopts = append(hopts, header.WithVersion(Version))
	if p.opts.checksum {
		hopts = append(hopts, header.WithChecksum(hash.CRC32C(payload)))
	}
	h, err := header.New(p.Name(), p.typ, shape, n, hopts...)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, h.Size()+n)
	out = h.AppendTo(out)
	out = append(out, payload...)

	p.opts.logger.DebugContext(ctx, "pipeline compressed",
		"pipeline", p.chain.Name(),
		"type", p.typ.String(),
		"shape", shape.String(),
		"raw_bytes", len(in),
		"stream_bytes", len(out),
		"duration", time.Since(start),
	)
	return out, nil
}

// Decompress decodes a stream produced by any pipeline, rebuilding its stages from
// the recorded signature with p's options.
func (p *Pipeline) Decompress(ctx context.Context, data []byte) (*Result, error) {
	return decompress(ctx, data, p.opts)
}

// Decompress decodes a stream, rebuilding the pipeline from its header.
func Decompress(ctx context.Context, data []byte, opts ...Option) (*Result, error) {
	return decompress(ctx, data, applyOptions(opts))
}

// ReadHeader parses the header at the start of data.
func ReadHeader(data []byte) (*header.Header, error) {
	return header.Unpack(data)
}

func decompress(ctx context.Context, data []byte, o options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	h, err := header.Unpack(data)
	if err != nil {
		return nil, err
	}
	payload := data[h.Size():]
	if len(payload) != h.Payload() {
		return nil, fmt.Errorf("%w: header declares %d bytes, stream holds %d", ErrPayloadSize, h.Payload(), len(payload))
	}
	if crc, ok := h.Checksum(); ok && o.checksum && !hash.Verify(payload, crc) {
		return nil, fmt.Errorf("%w: want %08x, got %08x", ErrChecksum, crc, hash.CRC32C(payload))
	}

	p, err := parse(h.Pipeline(), h.Type(), o)
	if err != nil {
		return nil, err
	}
	raw := h.RawSize()
	if err := checkRawSize(h, raw, p, o); err != nil {
		return nil, err
	}
	release, err := p.reserve(raw + p.chain.TempSize(raw))
	if err != nil {
		return nil, err
	}
	defer release()

	out := make([]byte, raw)
	shape := h.Shape()
	if err := p.chain.DecodeContext(ctx, payload, out, shape); err != nil {
		return nil, err
	}

	o.logger.DebugContext(ctx, "pipeline decompressed",
		"pipeline", h.Pipeline(),
		"type", h.Type().String(),
		"shape", shape.String(),
		"stream_bytes", len(data),
		"duration", time.Since(start),
	)
	return &Result{Data: out, Shape: shape, Type: h.Type(), Pipeline: h.Pipeline()}, nil
}

// checkRawSize validates the declared shape before the output is allocated.
func checkRawSize(h *header.Header, raw int, p *Pipeline, o options) error {
	if _, ok := p.Sink(); !ok && raw != h.Payload() {
		return header.NewFieldError("shape", fmt.Errorf("filters keep %d raw bytes, payload holds %d", raw, h.Payload()))
	}
	limit := o.maxRaw
	if m := o.rc.MemoryLimit(); m > 0 && m < limit {
		limit = m
	}
	if int64(raw) > limit {
		return header.NewFieldError("shape", fmt.Errorf("%d raw bytes exceed the limit of %d", raw, limit))
	}
	return nil
}
