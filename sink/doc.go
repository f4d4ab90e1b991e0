// Package sink provides the terminal stages of a pipeline.
//
// Byte sinks (lz4, zstd, s2, gzip) turn samples of any element type into an opaque
// uint8 stream. The quantiser narrows uint16 samples to uint8 through a look-up table
// derived from the data and is lossy.
//
// All sinks implement stage.Stage with Kind() == stage.KindSink. In Decode, shape
// describes the decoded samples and in holds exactly the encoded bytes.
package sink
