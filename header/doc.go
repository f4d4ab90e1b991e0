// Package header packs and unpacks the self-describing preamble of a compressed stream.
//
// A stream is laid out as
//
//	[JSON key/value block][|VPH|][space padding][payload]
//
// The JSON block records the pipeline signature, the raw element type, the shape and
// the payload byte count, plus an optional CRC32C of the payload and an optional
// writer version. Padding brings the preamble to a multiple of the raw element width
// so that the payload of a stream loaded into a typed buffer stays aligned.
//
// The format carries no mandatory version. Readers ignore keys they do not know and
// treat missing optional keys as absent.
package header
