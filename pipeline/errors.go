package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStage is returned when a signature names a stage the registry does not know.
	ErrUnknownStage = errors.New("pipeline: unknown stage")

	// ErrMultipleSinks is returned when a signature holds more than one sink.
	ErrMultipleSinks = errors.New("pipeline: more than one sink")

	// ErrChecksum is returned when the payload does not match the recorded CRC32C.
	ErrChecksum = errors.New("pipeline: payload checksum mismatch")

	// ErrPayloadSize is returned when the stream length disagrees with the header.
	ErrPayloadSize = errors.New("pipeline: payload size mismatch")

	// ErrDuplicateStage is returned when a name or prefix is registered twice.
	ErrDuplicateStage = errors.New("pipeline: stage already registered")
)

// ErrUnknownStageName names the stage that failed to resolve.
type ErrUnknownStageName struct {
	Name string
}

func (e *ErrUnknownStageName) Error() string {
	return fmt.Sprintf("pipeline: unknown stage %q", e.Name)
}

// Is reports ErrUnknownStage as a match.
func (e *ErrUnknownStageName) Is(target error) bool { return target == ErrUnknownStage }
