// Package config provides configuration management for lcu-keeper.
//
// Configuration is resolved with the following precedence:
// 1. Environment variables (optionally seeded from a .env file)
// 2. Configuration file
// 3. Default values
//
// The file also holds the automation toggles and champion targets. The CLI
// writes it back with Save every time one of those changes.
//
// Example usage:
//
//	loader := config.NewLoader("")
//	cfg, err := loader.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Automation.AutoAccept = true
//	_ = config.Save(cfg, loader.Path())
package config

import (
	"time"
)

// NoChampion is the display name of an unset champion target.
const NoChampion = "None"

// Config represents the complete application configuration.
//
// Invariants:
// - Automation.PollInterval and Automation.StatsInterval must be > 0
// - Automation.DiscoveryAttempts must be >= 1
// - Client.RequestTimeout and Rank.Timeout must be > 0
// - Storage.DBPath and Storage.KeyPath must be set
// - Champion target IDs must be >= 0.
type Config struct {
	// Game client location and request settings
	Client ClientConfig `yaml:"client" json:"client"`

	// Automation toggles, targets and loop timing
	Automation AutomationConfig `yaml:"automation" json:"automation"`

	// Account store and key file locations
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Rank lookup source for bulk checks
	Rank RankConfig `yaml:"rank" json:"rank"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ClientConfig locates the running game client.
type ClientConfig struct {
	// Client installation directory; its lockfile is checked first.
	InstallDir string `yaml:"install_dir" json:"install_dir"`

	// Extra lockfile paths checked before the platform defaults.
	LockfilePaths []string `yaml:"lockfile_paths" json:"lockfile_paths"`

	// Path to the client launcher executable, kept for external launch tooling.
	Path string `yaml:"path" json:"path"`

	// Timeout applied to every local API request.
	RequestTimeout time.Duration `yaml:"request_timeout" json:"request_timeout"`
}

// ChampionTarget names a champion for automatic pick or ban.
// ID 0 means no target.
type ChampionTarget struct {
	ID   int    `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// IsSet reports whether the target can be submitted.
func (t ChampionTarget) IsSet() bool {
	return t.ID > 0
}

// AutomationConfig controls the automation engine.
type AutomationConfig struct {
	AutoAccept bool `yaml:"auto_accept" json:"auto_accept"`
	AutoPick   bool `yaml:"auto_pick" json:"auto_pick"`
	AutoBan    bool `yaml:"auto_ban" json:"auto_ban"`

	Pick ChampionTarget `yaml:"pick" json:"pick"`
	Ban  ChampionTarget `yaml:"ban" json:"ban"`

	// Interval between engine ticks
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval"`

	// Minimum time between automatic stats refreshes
	StatsInterval time.Duration `yaml:"stats_interval" json:"stats_interval"`

	// Discovery attempts made by an explicit stats refresh
	DiscoveryAttempts int `yaml:"discovery_attempts" json:"discovery_attempts"`

	// Pause between those attempts
	DiscoveryRetryDelay time.Duration `yaml:"discovery_retry_delay" json:"discovery_retry_delay"`

	// Subscribe to client phase events to react faster than the poll interval
	ListenEvents bool `yaml:"listen_events" json:"listen_events"`
}

// StorageConfig contains storage-related settings.
type StorageConfig struct {
	// Path to the BoltDB account store
	DBPath string `yaml:"db_path" json:"db_path"`

	// Path to the raw symmetric key file
	KeyPath string `yaml:"key_path" json:"key_path"`
}

// RankConfig configures bulk rank checks.
type RankConfig struct {
	// URL template of the rank source; see rank.HTTPFetcher. Empty
	// disables rank checks.
	URLTemplate string `yaml:"url_template" json:"url_template"`

	// Pause between two lookups
	Delay time.Duration `yaml:"delay" json:"delay"`

	// Per-lookup timeout
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Log level (debug, info, warn, error)
	Level string `yaml:"level" json:"level"`

	// Log output destination (stdout, stderr, file path)
	Output string `yaml:"output" json:"output"`

	// Log format (text, json)
	Format string `yaml:"format" json:"format"`
}

// Validate checks if the configuration satisfies all invariants.
func (c *Config) Validate() error {
	if c.Client.RequestTimeout <= 0 {
		return ErrInvalidRequestTimeout
	}

	a := c.Automation
	if a.PollInterval <= 0 {
		return ErrInvalidPollInterval
	}
	if a.StatsInterval <= 0 {
		return ErrInvalidStatsInterval
	}
	if a.DiscoveryAttempts < 1 {
		return ErrInvalidDiscoveryAttempts
	}
	if a.DiscoveryRetryDelay < 0 {
		return ErrInvalidRetryDelay
	}
	if a.Pick.ID < 0 || a.Ban.ID < 0 {
		return ErrInvalidChampionID
	}

	if c.Rank.Delay < 0 {
		return ErrInvalidRankDelay
	}
	if c.Rank.Timeout <= 0 {
		return ErrInvalidRankTimeout
	}

	if c.Storage.DBPath == "" {
		return ErrNoDBPath
	}
	if c.Storage.KeyPath == "" {
		return ErrNoKeyPath
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return ErrInvalidLogLevel
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		return ErrInvalidLogFormat
	}

	return nil
}

// Default returns a configuration with default values.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			RequestTimeout: 4 * time.Second,
		},
		Automation: AutomationConfig{
			Pick:                ChampionTarget{Name: NoChampion},
			Ban:                 ChampionTarget{Name: NoChampion},
			PollInterval:        1500 * time.Millisecond,
			StatsInterval:       60 * time.Second,
			DiscoveryAttempts:   5,
			DiscoveryRetryDelay: time.Second,
		},
		Storage: StorageConfig{
			DBPath:  defaultDBPath(),
			KeyPath: defaultKeyPath(),
		},
		Rank: RankConfig{
			Delay:   1200 * time.Millisecond,
			Timeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: "stderr",
			Format: "text",
		},
	}
}

// SetPick sets the pick target. An id of 0 clears it.
func (c *Config) SetPick(id int, name string) {
	c.Automation.Pick = target(id, name)
}

// SetBan sets the ban target. An id of 0 clears it.
func (c *Config) SetBan(id int, name string) {
	c.Automation.Ban = target(id, name)
}

func target(id int, name string) ChampionTarget {
	if id <= 0 {
		return ChampionTarget{Name: NoChampion}
	}
	if name == "" {
		name = NoChampion
	}
	return ChampionTarget{ID: id, Name: name}
}
