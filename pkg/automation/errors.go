package automation

import "errors"

var (
	// ErrEngineRunning is returned when Run is called on a running engine.
	ErrEngineRunning = errors.New("engine is already running")

	// ErrEngineNotRunning is returned by Stop on an idle engine.
	ErrEngineNotRunning = errors.New("engine is not running")

	// ErrClientUnavailable is returned by RefreshStats when the client could
	// not be reached within the configured attempts.
	ErrClientUnavailable = errors.New("client unavailable")

	// ErrNoMatchingAccount is returned by RefreshStats when the signed-in
	// player matches no stored account and no account is focused.
	ErrNoMatchingAccount = errors.New("no stored account matches the signed-in player")
)
