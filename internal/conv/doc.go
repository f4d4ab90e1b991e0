// Package conv provides checked integer conversions for values read from or written
// to stream headers.
//
// Header fields arrive as untrusted JSON numbers; every count, extent and checksum
// passes through one of these functions before it sizes a buffer.
package conv
