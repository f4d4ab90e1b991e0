package sink

import (
	"errors"
)

var (
	// ErrCorrupt is returned when an encoded stream cannot be decoded to the expected size.
	ErrCorrupt = errors.New("sink: corrupt stream")

	// ErrMissingDecodeLUT is returned when the quantiser decodes before a table was
	// built by Encode or restored from its configuration.
	ErrMissingDecodeLUT = errors.New("sink: missing decode table")

	// ErrIncompressible is returned when a block compressor refuses its input.
	ErrIncompressible = errors.New("sink: input not compressible into the bound")
)
