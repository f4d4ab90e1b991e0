package voxpipe

import (
	"errors"
	"fmt"

	"github.com/hupe1980/voxpipe/blobstore"
	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/filter"
	"github.com/hupe1980/voxpipe/header"
	"github.com/hupe1980/voxpipe/internal/resource"
	"github.com/hupe1980/voxpipe/pipeline"
	"github.com/hupe1980/voxpipe/signature"
	"github.com/hupe1980/voxpipe/stage"
)

var (
	// ErrInvalidConfig is returned for stage parameters that do not validate.
	ErrInvalidConfig = stage.ErrInvalidConfig
	// ErrShape is returned when a buffer does not match its shape.
	ErrShape = stage.ErrShape
	// ErrAdjacency is returned when neighbouring stages disagree on the element type.
	ErrAdjacency = stage.ErrAdjacency
	// ErrCapacity is returned when an output buffer is too small.
	ErrCapacity = stage.ErrCapacity
	// ErrSyntax is returned for malformed pipeline signatures.
	ErrSyntax = signature.ErrSyntax
	// ErrUnknownStage is returned for stage names no registry entry matches.
	ErrUnknownStage = pipeline.ErrUnknownStage
	// ErrNotRecognized is returned for data that does not start with a valid header.
	ErrNotRecognized = header.ErrNotRecognized
	// ErrMissingDecodeMap is returned when a shuffle is decoded without its map.
	ErrMissingDecodeMap = filter.ErrMissingDecodeMap
	// ErrChecksum is returned when a payload fails its CRC32C check.
	ErrChecksum = pipeline.ErrChecksum
	// ErrPayloadSize is returned when a stream is shorter or longer than its header says.
	ErrPayloadSize = pipeline.ErrPayloadSize
	// ErrMemoryLimitExceeded is returned when pipeline temporaries exceed WithMemoryLimit.
	ErrMemoryLimitExceeded = resource.ErrMemoryLimitExceeded
	// ErrNotFound is returned when a stored container does not exist.
	ErrNotFound = blobstore.ErrNotFound
)

// ErrTypeMismatch indicates a stream decoded into the wrong element type.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrTypeMismatch struct {
	Expected dtype.Type
	Actual   dtype.Type
	cause    error
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, got %s", e.Expected, e.Actual)
}

func (e *ErrTypeMismatch) Unwrap() error { return e.cause }

// Is reports ErrAdjacency as a match.
func (e *ErrTypeMismatch) Is(target error) bool { return target == ErrAdjacency }

// ErrShapeMismatch indicates a buffer whose size does not match its shape.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrShapeMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch: expected %d bytes, got %d", e.Expected, e.Actual)
}

func (e *ErrShapeMismatch) Unwrap() error { return e.cause }

// ErrUnknownStageName names the stage no registry entry matched.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrUnknownStageName struct {
	Name  string
	cause error
}

func (e *ErrUnknownStageName) Error() string {
	return fmt.Sprintf("unknown stage %q", e.Name)
}

func (e *ErrUnknownStageName) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var sm *stage.ErrShapeMismatch
	if errors.As(err, &sm) {
		return &ErrShapeMismatch{Expected: sm.Want, Actual: sm.Got, cause: err}
	}
	var us *pipeline.ErrUnknownStageName
	if errors.As(err, &us) {
		return &ErrUnknownStageName{Name: us.Name, cause: err}
	}

	return err
}
