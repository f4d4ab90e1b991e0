// Package hash computes the CRC32-Castagnoli checksum recorded in stream headers.
//
// Go's hash/crc32 uses the SSE4.2 and ARM CRC instructions for this polynomial, so
// checksumming a payload costs far less than compressing it.
package hash
