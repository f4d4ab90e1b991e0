package pipeline

import (
	"log/slog"

	"github.com/hupe1980/voxpipe/internal/resource"
	"github.com/hupe1980/voxpipe/stage"
)

// Version is written into the header of every stream.
const Version = "1"

// DefaultMaxDecodedSize caps the raw bytes a header may declare (16 GiB).
const DefaultMaxDecodedSize = 1 << 34

type options struct {
	threads  int
	logger   *slog.Logger
	rc       *resource.Controller
	registry *Registry
	checksum bool
	maxRaw   int64
}

// Option configures a Pipeline.
type Option func(*options)

func applyOptions(opts []Option) options {
	o := options{checksum: true, maxRaw: DefaultMaxDecodedSize}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.registry == nil {
		o.registry = builtin()
	}
	return o
}

func (o options) stageOptions() []stage.Option {
	return []stage.Option{stage.WithThreads(o.threads)}
}

// WithThreads sets the worker count of every stage. n <= 0 selects runtime.NumCPU().
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithLogger configures structured logging of compress and decompress calls.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithResourceController accounts pipeline temporaries against rc's memory budget.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithRegistry resolves stage names through r instead of DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

// WithChecksum enables writing and verifying the payload CRC32C. It is on by default.
func WithChecksum(enabled bool) Option {
	return func(o *options) {
		o.checksum = enabled
	}
}

// WithMaxDecodedSize rejects streams whose header declares more than n raw bytes.
// n <= 0 keeps DefaultMaxDecodedSize.
func WithMaxDecodedSize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxRaw = n
		}
	}
}
