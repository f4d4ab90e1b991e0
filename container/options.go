package container

import (
	"log/slog"

	"github.com/hupe1980/voxpipe/pipeline"
)

type options struct {
	pipelineOpts []pipeline.Option
	ioLimit      int64
	logger       *slog.Logger
}

// Option configures an Adapter.
type Option func(*options)

func applyOptions(opts []Option) options {
	o := options{
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithPipelineOptions passes options to every pipeline the Adapter builds.
func WithPipelineOptions(opts ...pipeline.Option) Option {
	return func(o *options) {
		o.pipelineOpts = append(o.pipelineOpts, opts...)
	}
}

// WithIOLimit caps blob IO at bytesPerSec. Zero means unlimited.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithLogger sets the logger for store and load events.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}
