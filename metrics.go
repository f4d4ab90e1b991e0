package voxpipe

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    rawBytes   prometheus.Counter
//	    compressMs prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordCompress(raw, encoded int, d time.Duration, err error) {
//	    p.rawBytes.Add(float64(raw))
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordCompress is called after each compress operation.
	// rawBytes is the input size, encodedBytes the stream size (0 on error).
	RecordCompress(rawBytes, encodedBytes int, duration time.Duration, err error)

	// RecordDecompress is called after each decompress operation.
	RecordDecompress(encodedBytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordCompress(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordDecompress(int, time.Duration, error)    {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	CompressCount          atomic.Int64
	CompressErrors         atomic.Int64
	CompressRawBytes       atomic.Int64
	CompressEncodedBytes   atomic.Int64
	CompressTotalNanos     atomic.Int64
	DecompressCount        atomic.Int64
	DecompressErrors       atomic.Int64
	DecompressEncodedBytes atomic.Int64
	DecompressTotalNanos   atomic.Int64
}

// RecordCompress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompress(rawBytes, encodedBytes int, duration time.Duration, err error) {
	b.CompressCount.Add(1)
	b.CompressTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CompressErrors.Add(1)
		return
	}
	b.CompressRawBytes.Add(int64(rawBytes))
	b.CompressEncodedBytes.Add(int64(encodedBytes))
}

// RecordDecompress implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDecompress(encodedBytes int, duration time.Duration, err error) {
	b.DecompressCount.Add(1)
	b.DecompressTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.DecompressErrors.Add(1)
		return
	}
	b.DecompressEncodedBytes.Add(int64(encodedBytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	s := BasicMetricsStats{
		CompressCount:        b.CompressCount.Load(),
		CompressErrors:       b.CompressErrors.Load(),
		CompressRawBytes:     b.CompressRawBytes.Load(),
		CompressEncodedBytes: b.CompressEncodedBytes.Load(),
		CompressAvgNanos:     avg(b.CompressTotalNanos.Load(), b.CompressCount.Load()),
		DecompressCount:      b.DecompressCount.Load(),
		DecompressErrors:     b.DecompressErrors.Load(),
		DecompressAvgNanos:   avg(b.DecompressTotalNanos.Load(), b.DecompressCount.Load()),
	}
	if s.CompressEncodedBytes > 0 {
		s.CompressRatio = float64(s.CompressRawBytes) / float64(s.CompressEncodedBytes)
	}
	return s
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	CompressCount        int64
	CompressErrors       int64
	CompressRawBytes     int64
	CompressEncodedBytes int64
	CompressAvgNanos     int64
	// CompressRatio is raw over encoded bytes of the successful calls.
	CompressRatio      float64
	DecompressCount    int64
	DecompressErrors   int64
	DecompressAvgNanos int64
}
