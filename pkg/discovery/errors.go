package discovery

import "errors"

// Common errors returned by the discovery package.
var (
	// ErrLockfileNotFound is returned when no lockfile candidate exists.
	ErrLockfileNotFound = errors.New("client lockfile not found")

	// ErrMalformedLockfile is returned when a lockfile cannot be parsed.
	ErrMalformedLockfile = errors.New("malformed client lockfile")
)
