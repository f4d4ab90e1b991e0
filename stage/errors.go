package stage

import (
	"errors"
	"fmt"

	"github.com/hupe1980/voxpipe/dtype"
	"github.com/hupe1980/voxpipe/geom"
)

var (
	// ErrInvalidConfig is returned when a stage parameter is malformed or unsupported.
	ErrInvalidConfig = errors.New("stage: invalid configuration")

	// ErrShape is returned when a buffer does not match its shape or a stage requires another rank.
	ErrShape = errors.New("stage: shape mismatch")

	// ErrAdjacency is returned when neighboring chain members disagree on the element type.
	ErrAdjacency = errors.New("stage: adjacent stage types do not match")

	// ErrCapacity is returned when an output buffer is smaller than the encoded size bound.
	ErrCapacity = errors.New("stage: output buffer too small")
)

// ErrConfig describes a rejected stage parameter.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrConfig struct {
	Stage string
	Key   string
	Value string
	cause error
}

// NewConfigError creates an ErrConfig.
func NewConfigError(stage, key, value string, cause error) *ErrConfig {
	return &ErrConfig{Stage: stage, Key: key, Value: value, cause: cause}
}

func (e *ErrConfig) Error() string {
	msg := fmt.Sprintf("stage %s: invalid %s=%q", e.Stage, e.Key, e.Value)
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *ErrConfig) Unwrap() error { return e.cause }

// Is reports ErrInvalidConfig as a match.
func (e *ErrConfig) Is(target error) bool { return target == ErrInvalidConfig }

// ErrShapeMismatch indicates a buffer whose byte length does not match its shape.
type ErrShapeMismatch struct {
	Stage string
	Want  int
	Got   int
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("stage %s: buffer holds %d bytes, shape requires %d", e.Stage, e.Got, e.Want)
}

// Is reports ErrShape as a match.
func (e *ErrShapeMismatch) Is(target error) bool { return target == ErrShape }

// ErrRank indicates a shape of unsupported rank.
type ErrRank struct {
	Stage string
	Want  int
	Got   int
}

func (e *ErrRank) Error() string {
	return fmt.Sprintf("stage %s: requires rank %d, got %d", e.Stage, e.Want, e.Got)
}

// Is reports ErrShape as a match.
func (e *ErrRank) Is(target error) bool { return target == ErrShape }

// ErrTypeMismatch indicates two chain members that cannot be connected.
type ErrTypeMismatch struct {
	Index int
	Out   dtype.Type
	In    dtype.Type
}

func (e *ErrTypeMismatch) Error() string {
	return fmt.Sprintf("stage %d emits %s but stage %d consumes %s", e.Index-1, e.Out, e.Index, e.In)
}

// Is reports ErrAdjacency as a match.
func (e *ErrTypeMismatch) Is(target error) bool { return target == ErrAdjacency }

// ErrShortBuffer indicates an output buffer below the required size.
type ErrShortBuffer struct {
	Stage string
	Want  int
	Got   int
}

func (e *ErrShortBuffer) Error() string {
	return fmt.Sprintf("stage %s: output buffer holds %d bytes, need %d", e.Stage, e.Got, e.Want)
}

// Is reports ErrCapacity as a match.
func (e *ErrShortBuffer) Is(target error) bool { return target == ErrCapacity }

// CheckShape validates a buffer against shape for a stage consuming t.
func CheckShape(stage string, t dtype.Type, buf []byte, shape geom.Shape) error {
	if err := shape.Validate(); err != nil {
		return fmt.Errorf("stage %s: %w: %w", stage, ErrShape, err)
	}
	if want := shape.Len() * t.Size(); len(buf) != want {
		return &ErrShapeMismatch{Stage: stage, Want: want, Got: len(buf)}
	}
	return nil
}

// CheckRank3 rejects shapes whose rank is not 3.
func CheckRank3(stage string, shape geom.Shape) error {
	if shape.Rank() != 3 {
		return &ErrRank{Stage: stage, Want: 3, Got: shape.Rank()}
	}
	return nil
}

// CheckCapacity rejects output buffers shorter than want bytes.
func CheckCapacity(stage string, out []byte, want int) error {
	if len(out) < want {
		return &ErrShortBuffer{Stage: stage, Want: want, Got: len(out)}
	}
	return nil
}
