package header

import (
	"errors"
	"fmt"
)

// ErrNotRecognized is returned when data does not start with a valid header.
var ErrNotRecognized = errors.New("header: not a recognized stream")

// ErrInvalidField describes a header whose sentinel was found but whose fields do
// not validate. It matches ErrNotRecognized.
type ErrInvalidField struct {
	Field string
	cause error
}

// NewFieldError reports field as invalid because of cause.
func NewFieldError(field string, cause error) *ErrInvalidField {
	return &ErrInvalidField{Field: field, cause: cause}
}

func (e *ErrInvalidField) Error() string {
	if e.cause == nil {
		return fmt.Sprintf("header: invalid field %q", e.Field)
	}
	return fmt.Sprintf("header: invalid field %q: %v", e.Field, e.cause)
}

func (e *ErrInvalidField) Unwrap() error { return e.cause }

// Is reports ErrNotRecognized as a match.
func (e *ErrInvalidField) Is(target error) bool { return target == ErrNotRecognized }
