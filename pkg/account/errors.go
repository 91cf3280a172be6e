package account

import "errors"

// Common errors returned by the account store.
var (
	// ErrNotFound is returned when no account has the requested id.
	ErrNotFound = errors.New("account not found")

	// ErrMissingField is returned when login, secret or handle is empty.
	ErrMissingField = errors.New("login id, password and riot id are required")

	// ErrInvalidImport is returned for documents that are not a non-empty
	// array whose first element has a login_id.
	ErrInvalidImport = errors.New("invalid backup file format")

	// ErrInvalidRank is returned for unknown tiers or divisions.
	ErrInvalidRank = errors.New("invalid rank")

	// ErrPersist wraps failures to write the collection. The in-memory
	// state is rolled back and the operation may be retried.
	ErrPersist = errors.New("failed to save accounts")

	// ErrNoSnapshot is returned by Restore when nothing was replaced yet.
	ErrNoSnapshot = errors.New("no previous account collection")

	// ErrCorrupt is returned when the stored document cannot be decoded.
	ErrCorrupt = errors.New("stored accounts are unreadable")
)
