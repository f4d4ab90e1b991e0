// Package stage defines the capability every transform implements and the chain that
// composes transforms.
//
// A stage is either a Filter, which keeps element type and byte volume, or a Sink,
// which may narrow the element type or emit an opaque byte stream. Chains check the
// type of every adjacent pair at construction time and size their temporaries for the
// widest phase.
package stage

import (
	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
	"github.com/hupe1980/voxpipe/internal/parallel"
)

// Kind distinguishes size-preserving filters from sinks.
type Kind uint8

const (
	// KindFilter stages keep element type and byte volume.
	KindFilter Kind = iota
	// KindSink stages may change element width or emit a byte stream.
	KindSink
)

func (k Kind) String() string {
	if k == KindSink {
		return "sink"
	}
	return "filter"
}

// Stage is the four-method contract shared by filters and sinks.
//
// Encode reads in, which holds shape.Len() elements of InputType, and writes the
// encoded form to out. It returns the number of bytes written. out must provide at
// least MaxEncodedSize(len(in)) bytes.
//
// Decode reverses Encode. in holds exactly the encoded bytes, shape describes the
// decoded data, and out receives shape.Len() elements of InputType.
type Stage interface {
	Name() string
	Config() string
	Kind() Kind
	InputType() dtype.Type
	OutputType() dtype.Type
	MaxEncodedSize(inBytes int) int
	Encode(in, out []byte, shape geom.Shape) (int, error)
	Decode(in, out []byte, shape geom.Shape) error
}

// Lossy is implemented by stages whose Decode cannot restore the encoded input.
type Lossy interface {
	Lossy() bool
}

// IsLossy reports whether st discards information.
func IsLossy(st Stage) bool {
	l, ok := st.(Lossy)
	return ok && l.Lossy()
}

// SideChannel is implemented by stages whose Config grows once Encode has recorded
// data-dependent state, such as a reorder map or a decode table.
type SideChannel interface {
	// MaxConfigSize bounds len(Config()) after an Encode over shape.
	MaxConfigSize(shape geom.Shape) int
}

// MaxSignatureSize bounds len(Signature(st)) after an Encode over shape.
func MaxSignatureSize(st Stage, shape geom.Shape) int {
	if sc, ok := st.(SideChannel); ok {
		return len(st.Name()) + 2 + sc.MaxConfigSize(shape)
	}
	return len(Signature(st))
}

// Signature returns name(config), or name when config is empty.
func Signature(st Stage) string {
	if cfg := st.Config(); cfg != "" {
		return st.Name() + "(" + cfg + ")"
	}
	return st.Name()
}

// Options configures stage construction.
type Options struct {
	// Threads is the worker count for data-parallel loops. <= 0 selects runtime.NumCPU().
	Threads int
}

// Option configures a stage.
type Option func(*Options)

// WithThreads sets the worker count used by a stage.
func WithThreads(n int) Option {
	return func(o *Options) {
		o.Threads = n
	}
}

// ApplyOptions resolves opts on top of the defaults.
func ApplyOptions(opts []Option) Options {
	o := Options{
		Threads: 0,
	}
	for _, fn := range opts {
		if fn != nil {
			fn(&o)
		}
	}
	o.Threads = parallel.Threads(o.Threads)
	return o
}

// Info carries the identity shared by every stage implementation.
// Embed it and implement Config, MaxEncodedSize, Encode and Decode.
type Info struct {
	name    string
	kind    Kind
	in, out dtype.Type
	threads int
}

// NewInfo creates an Info.
func NewInfo(name string, kind Kind, in, out dtype.Type, opts Options) Info {
	return Info{name: name, kind: kind, in: in, out: out, threads: opts.Threads}
}

// Name returns the stage name.
func (i Info) Name() string { return i.name }

// Kind returns the stage kind.
func (i Info) Kind() Kind { return i.kind }

// InputType returns the consumed element type.
func (i Info) InputType() dtype.Type { return i.in }

// OutputType returns the produced element type.
func (i Info) OutputType() dtype.Type { return i.out }

// Threads returns the configured worker count.
func (i Info) Threads() int { return i.threads }
