package storage

import "errors"

// Common errors returned by the repository.
var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")

	// ErrEmptyName is returned when a document name is empty.
	ErrEmptyName = errors.New("document name cannot be empty")

	// ErrClosed is returned when the repository has been closed.
	ErrClosed = errors.New("repository is closed")
)
