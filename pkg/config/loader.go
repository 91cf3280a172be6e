package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader provides methods for loading configuration from various sources.
type Loader interface {
	// Load resolves defaults, the config file and environment overrides,
	// then validates the result.
	Load() (*Config, error)

	// LoadFromFile reads a single YAML file without defaults or overrides.
	LoadFromFile(path string) (*Config, error)

	// Path returns the file Load reads from, or the default location a
	// subsequent Save should write to when no file exists yet.
	Path() string
}

// envOverrides lists the supported environment variables.
type envOverrides struct {
	DBPath     string        `env:"LCU_KEEPER_DB"`
	KeyPath    string        `env:"LCU_KEEPER_KEY"`
	LogLevel   string        `env:"LCU_KEEPER_LOG_LEVEL"`
	LogFormat  string        `env:"LCU_KEEPER_LOG_FORMAT"`
	Lockfile   string        `env:"LCU_KEEPER_LOCKFILE"`
	InstallDir string        `env:"LCU_KEEPER_INSTALL_DIR"`
	Timeout    time.Duration `env:"LCU_KEEPER_REQUEST_TIMEOUT"`
	RankURL    string        `env:"LCU_KEEPER_RANK_URL"`
}

type loader struct {
	configPath string
	envFile    string
}

// NewLoader creates a new configuration loader.
//
// If configPath is empty, the first existing entry of SearchPaths is used.
// A .env file in the working directory is loaded into the process
// environment before overrides are applied; variables already set win.
func NewLoader(configPath string) Loader {
	return &loader{
		configPath: configPath,
		envFile:    ".env",
	}
}

// Load implements Loader.Load.
func (l *loader) Load() (*Config, error) {
	cfg := Default()

	configPath := l.configPath
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		fileCfg, err := l.LoadFromFile(configPath)
		if err != nil {
			// An explicit path must load; a discovered one may be skipped.
			if l.configPath != "" {
				return nil, fmt.Errorf("failed to load config from %s: %w", configPath, err)
			}
		} else {
			cfg = mergeConfigs(cfg, fileCfg)
		}
	}

	cfg, err := l.applyEnvVars(cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromFile implements Loader.LoadFromFile.
func (l *loader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path) // nolint:gosec
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return &cfg, nil
}

// Path implements Loader.Path.
func (l *loader) Path() string {
	if l.configPath != "" {
		return l.configPath
	}
	if found := findConfigFile(); found != "" {
		return found
	}
	return DefaultConfigPath()
}

// findConfigFile returns the first existing entry of SearchPaths.
func findConfigFile() string {
	for _, path := range SearchPaths() {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// mergeConfigs overlays non-zero file values onto base.
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Client.InstallDir != "" {
		result.Client.InstallDir = override.Client.InstallDir
	}
	if len(override.Client.LockfilePaths) > 0 {
		result.Client.LockfilePaths = override.Client.LockfilePaths
	}
	if override.Client.Path != "" {
		result.Client.Path = override.Client.Path
	}
	if override.Client.RequestTimeout > 0 {
		result.Client.RequestTimeout = override.Client.RequestTimeout
	}

	// Toggles are plain bools; the file value always wins.
	result.Automation.AutoAccept = override.Automation.AutoAccept
	result.Automation.AutoPick = override.Automation.AutoPick
	result.Automation.AutoBan = override.Automation.AutoBan
	result.Automation.ListenEvents = override.Automation.ListenEvents

	if override.Automation.Pick.ID != 0 || override.Automation.Pick.Name != "" {
		result.Automation.Pick = override.Automation.Pick
	}
	if override.Automation.Ban.ID != 0 || override.Automation.Ban.Name != "" {
		result.Automation.Ban = override.Automation.Ban
	}
	if override.Automation.PollInterval > 0 {
		result.Automation.PollInterval = override.Automation.PollInterval
	}
	if override.Automation.StatsInterval > 0 {
		result.Automation.StatsInterval = override.Automation.StatsInterval
	}
	if override.Automation.DiscoveryAttempts > 0 {
		result.Automation.DiscoveryAttempts = override.Automation.DiscoveryAttempts
	}
	if override.Automation.DiscoveryRetryDelay > 0 {
		result.Automation.DiscoveryRetryDelay = override.Automation.DiscoveryRetryDelay
	}

	if override.Storage.DBPath != "" {
		result.Storage.DBPath = override.Storage.DBPath
	}
	if override.Storage.KeyPath != "" {
		result.Storage.KeyPath = override.Storage.KeyPath
	}

	if override.Rank.URLTemplate != "" {
		result.Rank.URLTemplate = override.Rank.URLTemplate
	}
	if override.Rank.Delay > 0 {
		result.Rank.Delay = override.Rank.Delay
	}
	if override.Rank.Timeout > 0 {
		result.Rank.Timeout = override.Rank.Timeout
	}

	if override.Logging.Level != "" {
		result.Logging.Level = override.Logging.Level
	}
	if override.Logging.Output != "" {
		result.Logging.Output = override.Logging.Output
	}
	if override.Logging.Format != "" {
		result.Logging.Format = override.Logging.Format
	}

	return &result
}

// applyEnvVars applies environment variable overrides to the configuration.
//
// Supported environment variables:
//   - LCU_KEEPER_DB: account store path
//   - LCU_KEEPER_KEY: key file path
//   - LCU_KEEPER_LOG_LEVEL, LCU_KEEPER_LOG_FORMAT: logging
//   - LCU_KEEPER_LOCKFILE: lockfile path checked before all others
//   - LCU_KEEPER_INSTALL_DIR: client installation directory
//   - LCU_KEEPER_REQUEST_TIMEOUT: local API request timeout (e.g. 3s)
//   - LCU_KEEPER_RANK_URL: rank source URL template
func (l *loader) applyEnvVars(cfg *Config) (*Config, error) {
	if l.envFile != "" {
		if err := godotenv.Load(l.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidEnv, l.envFile, err)
		}
	}

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEnv, err)
	}

	result := *cfg

	if o.DBPath != "" {
		result.Storage.DBPath = o.DBPath
	}
	if o.KeyPath != "" {
		result.Storage.KeyPath = o.KeyPath
	}
	if o.LogLevel != "" {
		result.Logging.Level = strings.ToLower(o.LogLevel)
	}
	if o.LogFormat != "" {
		result.Logging.Format = strings.ToLower(o.LogFormat)
	}
	if o.Lockfile != "" {
		paths := make([]string, 0, len(result.Client.LockfilePaths)+1)
		paths = append(paths, o.Lockfile)
		result.Client.LockfilePaths = append(paths, result.Client.LockfilePaths...)
	}
	if o.InstallDir != "" {
		result.Client.InstallDir = o.InstallDir
	}
	if o.Timeout > 0 {
		result.Client.RequestTimeout = o.Timeout
	}
	if o.RankURL != "" {
		result.Rank.URLTemplate = o.RankURL
	}

	return &result, nil
}

// Load is a convenience wrapper around NewLoader("").Load().
func Load() (*Config, error) {
	return NewLoader("").Load()
}

// Save validates cfg and writes it as YAML.
//
// Parent directories are created with 0700 and the file with 0600. The
// file is replaced atomically so a concurrent reader never sees a partial
// document.
func Save(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.yaml")
	if err != nil {
		return fmt.Errorf("failed to create temp config file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0600); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set config permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config file: %w", err)
	}

	return nil
}

// Edit applies fn to the document stored at path and saves it.
//
// The document is the defaults overlaid with the file, or the defaults
// alone when the file does not exist yet. Environment overrides are not
// applied, so they are never written back. Nothing is saved if fn fails.
func Edit(path string, fn func(*Config) error) (*Config, error) {
	cfg := Default()

	fileCfg, err := (&loader{}).LoadFromFile(path)
	switch {
	case err == nil:
		cfg = mergeConfigs(cfg, fileCfg)
	case !errors.Is(err, ErrConfigNotFound):
		return nil, err
	}

	if err := fn(cfg); err != nil {
		return nil, err
	}
	if err := Save(cfg, path); err != nil {
		return nil, err
	}
	return cfg, nil
}
