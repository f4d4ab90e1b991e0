package voxpipe

import (
	"log/slog"

	"github.com/hupe1980/voxpipe/internal/resource"
	"github.com/hupe1980/voxpipe/pipeline"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	threads          int
	memoryLimit      int64
	maxDecodedSize   int64
	registry         *pipeline.Registry
}

// Option configures Compress, Decompress, Store and Load.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &voxpipe.BasicMetricsCollector{}
//	stream, _ := voxpipe.Compress(ctx, samples, shape, "diff->bitswap1->lz4",
//	    voxpipe.WithMetricsCollector(metrics))
//	stats := metrics.GetStats()
//	fmt.Printf("ratio %.2f\n", stats.CompressRatio)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := voxpipe.NewJSONLogger(slog.LevelDebug)
//	stream, _ := voxpipe.Compress(ctx, samples, shape, sig, voxpipe.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithThreads sets the worker count of every stage. Values below 1 select
// runtime.NumCPU. The output bytes do not depend on it.
func WithThreads(n int) Option {
	return func(o *options) {
		o.threads = n
	}
}

// WithMemoryLimit caps the bytes a single call may hold in pipeline
// temporaries. Calls over the limit fail with ErrMemoryLimitExceeded.
func WithMemoryLimit(bytes int64) Option {
	return func(o *options) {
		o.memoryLimit = bytes
	}
}

// WithMaxDecodedSize rejects streams whose header declares more than n raw
// bytes with ErrNotRecognized. The default is pipeline.DefaultMaxDecodedSize.
func WithMaxDecodedSize(n int64) Option {
	return func(o *options) {
		o.maxDecodedSize = n
	}
}

// WithRegistry resolves stage names against r instead of the built-in stages.
func WithRegistry(r *pipeline.Registry) Option {
	return func(o *options) {
		o.registry = r
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

// pipelineOptions translates the facade options for the pipeline package.
func (o options) pipelineOptions() []pipeline.Option {
	popts := []pipeline.Option{pipeline.WithLogger(o.logger.Logger)}
	if o.threads != 0 {
		popts = append(popts, pipeline.WithThreads(o.threads))
	}
	if o.memoryLimit > 0 {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: o.memoryLimit})
		popts = append(popts, pipeline.WithResourceController(rc))
	}
	if o.maxDecodedSize > 0 {
		popts = append(popts, pipeline.WithMaxDecodedSize(o.maxDecodedSize))
	}
	if o.registry != nil {
		popts = append(popts, pipeline.WithRegistry(o.registry))
	}
	return popts
}
