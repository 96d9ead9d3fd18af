package models

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidAddress is returned when a title/path pair cannot address a node
	ErrInvalidAddress = errors.New("invalid address")
	// ErrInvalidRequest is returned when a request field other than the address is malformed
	ErrInvalidRequest = errors.New("invalid request")
)

// ValidationError describes which field of a request was rejected.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func addressError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...), Err: ErrInvalidAddress}
}
