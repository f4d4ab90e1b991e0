package filter

import (
	"errors"
	"fmt"
)

// ErrMissingDecodeMap is returned when a shuffle stage is asked to decode before a
// reorder map was recorded by Encode or restored from its configuration.
var ErrMissingDecodeMap = errors.New("filter: missing decode map")

// ErrInvalidDecodeMap describes a reorder map that is not a permutation of the blocks
// of the decoded shape.
type ErrInvalidDecodeMap struct {
	Stage string
	Want  int
	Got   int
	cause error
}

func (e *ErrInvalidDecodeMap) Error() string {
	msg := fmt.Sprintf("filter %s: decode map has %d entries, shape has %d blocks", e.Stage, e.Got, e.Want)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ErrInvalidDecodeMap) Unwrap() error { return e.cause }
