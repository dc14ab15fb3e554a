package storage

import "errors"

var (
	ErrNotFound = errors.New("storage: key not found")

	// ErrInvalidKey covers empty keys and path traversal attempts.
	ErrInvalidKey = errors.New("storage: invalid key")
)
