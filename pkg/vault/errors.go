package vault

import "errors"

var (
	// ErrKeyLength is returned when a key is not KeySize bytes long.
	ErrKeyLength = errors.New("invalid vault key length")

	// ErrKeyFile is returned when the key file cannot be read or created.
	ErrKeyFile = errors.New("vault key file unavailable")

	// ErrEntropy is returned when the system random source fails.
	ErrEntropy = errors.New("entropy source failed")
)
