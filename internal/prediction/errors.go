package prediction

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingArtifact means a model file is absent. Serving is unavailable
	// until it is deployed; the host keeps running.
	ErrMissingArtifact = errors.New("model artifact not found")

	ErrInvalidArtifact  = errors.New("model artifact is invalid")
	ErrArtifactMismatch = errors.New("model artifacts do not match")

	ErrInvalidInput = errors.New("invalid input")
)

// InputError reports a missing or malformed patient attribute. It is returned
// before any model invocation.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func missingField(field string) error {
	return &InputError{Field: field, Reason: "missing required field"}
}

func notNumeric(field string) error {
	return &InputError{Field: field, Reason: "must be numeric"}
}

func notString(field string) error {
	return &InputError{Field: field, Reason: "must be a non-empty string"}
}
