package services

import (
	"errors"
	"fmt"
)

var (
	ErrFileNotFound      = errors.New("file not found")
	ErrSectionNotFound   = errors.New("section not found")
	ErrNoDocumentation   = errors.New("documentation is not available yet")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrTooManyFiles      = errors.New("too many files")
	ErrFileTooLarge      = errors.New("file too large")
)

// ValidationError reports bad input. Nothing has been stored when it is
// returned.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
