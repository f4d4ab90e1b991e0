package header

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/hupe1980/voxpipe/codec"
	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/internal/conv"
)

// Sentinel terminates the JSON block.
const Sentinel = "|VPH|"

const padByte = ' '

var sentinel = []byte(Sentinel)

// record is the JSON form. Pointers distinguish absent keys from zero values.
type record struct {
	Pipeline *string `json:"pipeline"`
	Type     *string `json:"type"`
	Rank     *int64  `json:"rank"`
	Shape    []int64 `json:"shape"`
	Payload  *int64  `json:"payload"`
	CRC32C   *uint32 `json:"crc32c,omitempty"`
	Version  string  `json:"version,omitempty"`
}

// Header is the immutable preamble of a compressed stream.
type Header struct {
	pipeline    string
	typ         dtype.Type
	shape       geom.Shape
	payload     int
	checksum    uint32
	hasChecksum bool
	version     string

	encoded []byte
}

// Option configures optional header fields.
type Option func(h *Header)

// WithChecksum records the CRC32C of the payload.
func WithChecksum(crc uint32) Option {
	return func(h *Header) {
		h.checksum = crc
		h.hasChecksum = true
	}
}

// WithVersion records the writer version.
func WithVersion(v string) Option {
	return func(h *Header) {
		h.version = v
	}
}

// New validates the fields and packs the header.
func New(pipeline string, t dtype.Type, shape geom.Shape, payload int, opts ...Option) (*Header, error) {
	h := &Header{
		pipeline: pipeline,
		typ:      t,
		shape:    shape.Clone(),
		payload:  payload,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if !t.Valid() {
		return nil, NewFieldError("type", fmt.Errorf("unsupported element type %s", t))
	}
	if err := shape.Validate(); err != nil {
		return nil, NewFieldError("shape", err)
	}
	if _, err := conv.MulInt(append([]int{t.Size()}, shape...)...); err != nil {
		return nil, NewFieldError("shape", err)
	}
	if payload < 0 {
		return nil, NewFieldError("payload", fmt.Errorf("negative size %d", payload))
	}

	enc, err := h.pack()
	if err != nil {
		return nil, err
	}
	h.encoded = enc
	return h, nil
}

func (h *Header) pack() ([]byte, error) {
	rank := int64(len(h.shape))
	payload := int64(h.payload)
	typ := h.typ.String()
	rec := record{
		Pipeline: &h.pipeline,
		Type:     &typ,
		Rank:     &rank,
		Shape:    make([]int64, len(h.shape)),
		Payload:  &payload,
		Version:  h.version,
	}
	for i, e := range h.shape {
		rec.Shape[i] = int64(e)
	}
	if h.hasChecksum {
		rec.CRC32C = &h.checksum
	}

	js, err := codec.Default.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("header: marshal: %w", err)
	}
	// '|' only occurs inside JSON strings, where its escape keeps the sentinel unique.
	js = bytes.ReplaceAll(js, []byte("|"), []byte(`\u007c`))

	size := padded(len(js)+len(sentinel), h.typ.Size())
	out := make([]byte, size)
	n := copy(out, js)
	n += copy(out[n:], sentinel)
	for i := n; i < size; i++ {
		out[i] = padByte
	}
	return out, nil
}

func padded(n, width int) int {
	return (n + width - 1) / width * width
}

// Unpack parses the header at the start of data. The payload starts at Size().
func Unpack(data []byte) (*Header, error) {
	end := bytes.Index(data, sentinel)
	if end < 0 {
		return nil, fmt.Errorf("%w: sentinel %q not found", ErrNotRecognized, Sentinel)
	}

	var rec record
	if err := codec.Default.Unmarshal(data[:end], &rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotRecognized, err)
	}
	h, err := fromRecord(&rec)
	if err != nil {
		return nil, err
	}

	size := padded(end+len(sentinel), h.typ.Size())
	if size > len(data) {
		return nil, NewFieldError("padding", fmt.Errorf("header needs %d bytes, have %d", size, len(data)))
	}
	for _, b := range data[end+len(sentinel) : size] {
		if b != padByte {
			return nil, NewFieldError("padding", fmt.Errorf("unexpected byte 0x%02x", b))
		}
	}
	h.encoded = bytes.Clone(data[:size])
	return h, nil
}

func fromRecord(rec *record) (*Header, error) {
	switch {
	case rec.Pipeline == nil:
		return nil, NewFieldError("pipeline", errMissing)
	case rec.Type == nil:
		return nil, NewFieldError("type", errMissing)
	case rec.Rank == nil:
		return nil, NewFieldError("rank", errMissing)
	case rec.Shape == nil:
		return nil, NewFieldError("shape", errMissing)
	case rec.Payload == nil:
		return nil, NewFieldError("payload", errMissing)
	}

	t, err := dtype.Parse(*rec.Type)
	if err != nil {
		return nil, NewFieldError("type", err)
	}
	if *rec.Rank < 1 || *rec.Rank > geom.MaxRank {
		return nil, NewFieldError("rank", fmt.Errorf("rank %d outside 1..%d", *rec.Rank, geom.MaxRank))
	}
	if int64(len(rec.Shape)) != *rec.Rank {
		return nil, NewFieldError("shape", fmt.Errorf("%d extents for rank %d", len(rec.Shape), *rec.Rank))
	}
	shape := make(geom.Shape, len(rec.Shape))
	for i, e := range rec.Shape {
		if shape[i], err = conv.Extent(e); err != nil {
			return nil, NewFieldError("shape", err)
		}
	}
	if _, err := conv.MulInt(append([]int{t.Size()}, shape...)...); err != nil {
		return nil, NewFieldError("shape", err)
	}
	if *rec.Payload < 0 {
		return nil, NewFieldError("payload", fmt.Errorf("negative size %d", *rec.Payload))
	}
	payload, err := conv.ToInt(*rec.Payload)
	if err != nil {
		return nil, NewFieldError("payload", err)
	}

	h := &Header{
		pipeline: *rec.Pipeline,
		typ:      t,
		shape:    shape,
		payload:  payload,
		version:  rec.Version,
	}
	if rec.CRC32C != nil {
		h.checksum, h.hasChecksum = *rec.CRC32C, true
	}
	return h, nil
}

var errMissing = errors.New("missing")

// Pipeline returns the recorded pipeline signature.
func (h *Header) Pipeline() string { return h.pipeline }

// Type returns the raw element type.
func (h *Header) Type() dtype.Type { return h.typ }

// Shape returns a copy of the raw shape.
func (h *Header) Shape() geom.Shape { return h.shape.Clone() }

// Payload returns the declared payload byte count.
func (h *Header) Payload() int { return h.payload }

// Checksum returns the payload CRC32C, if recorded.
func (h *Header) Checksum() (uint32, bool) { return h.checksum, h.hasChecksum }

// Version returns the writer version, or "" when absent.
func (h *Header) Version() string { return h.version }

// Size returns the packed size including sentinel and padding.
func (h *Header) Size() int { return len(h.encoded) }

// RawSize returns the byte size of the decoded samples.
func (h *Header) RawSize() int { return h.shape.Len() * h.typ.Size() }

// Bytes returns a copy of the packed header.
func (h *Header) Bytes() []byte { return bytes.Clone(h.encoded) }

// AppendTo appends the packed header to dst.
func (h *Header) AppendTo(dst []byte) []byte { return append(dst, h.encoded...) }

// Equal reports whether two headers carry the same fields.
func (h *Header) Equal(o *Header) bool {
	return h.pipeline == o.pipeline && h.typ == o.typ && h.shape.Equal(o.shape) &&
		h.payload == o.payload && h.hasChecksum == o.hasChecksum && h.checksum == o.checksum &&
		h.version == o.version
}

func (h *Header) String() string {
	return fmt.Sprintf("%s %s %s payload=%d", h.pipeline, h.typ, h.shape, h.payload)
}

// Bound returns an upper bound of Size for a header whose pipeline signature has
// pipelineLen bytes.
func Bound(pipelineLen int, version string, rank int, t dtype.Type) int {
	const fixed = 128 // keys, punctuation, type tag, rank, payload and checksum digits
	n := fixed + 6*(pipelineLen+len(version)) + 21*rank + len(Sentinel)
	return padded(n, max(t.Size(), 1))
}
