package config

import "errors"

// Common errors returned by the config package.
var (
	// ErrInvalidRequestTimeout is returned when the request timeout is <= 0.
	ErrInvalidRequestTimeout = errors.New("invalid request timeout: must be > 0")

	// ErrInvalidPollInterval is returned when the poll interval is <= 0.
	ErrInvalidPollInterval = errors.New("invalid poll interval: must be > 0")

	// ErrInvalidStatsInterval is returned when the stats interval is <= 0.
	ErrInvalidStatsInterval = errors.New("invalid stats interval: must be > 0")

	// ErrInvalidDiscoveryAttempts is returned when fewer than one attempt is configured.
	ErrInvalidDiscoveryAttempts = errors.New("invalid discovery attempts: must be >= 1")

	// ErrInvalidRetryDelay is returned when the discovery retry delay is negative.
	ErrInvalidRetryDelay = errors.New("invalid discovery retry delay: must be >= 0")

	// ErrInvalidChampionID is returned when a champion target id is negative.
	ErrInvalidChampionID = errors.New("invalid champion id: must be >= 0")

	// ErrInvalidRankDelay is returned when the rank lookup delay is negative.
	ErrInvalidRankDelay = errors.New("invalid rank delay: must be >= 0")

	// ErrInvalidRankTimeout is returned when the rank lookup timeout is <= 0.
	ErrInvalidRankTimeout = errors.New("invalid rank timeout: must be > 0")

	ErrNoDBPath  = errors.New("storage db_path is empty")
	ErrNoKeyPath = errors.New("storage key_path is empty")

	// ErrInvalidLogLevel is returned when log level is not recognized.
	ErrInvalidLogLevel = errors.New("invalid log level: must be debug, info, warn, or error")

	// ErrInvalidLogFormat is returned when log format is not recognized.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when config file is not found.
	ErrConfigNotFound = errors.New("config file not found")

	// ErrInvalidYAML is returned when config file has invalid YAML syntax.
	ErrInvalidYAML = errors.New("invalid YAML syntax in config file")

	// ErrInvalidEnv is returned when an environment override cannot be parsed.
	ErrInvalidEnv = errors.New("invalid environment override")
)
