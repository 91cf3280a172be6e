package config

import (
	"os"
	"path/filepath"
)

const appDir = "lcu-keeper"

// configHome returns ~/.config/lcu-keeper, or "." if there is no home.
func configHome() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", appDir)
}

// defaultDBPath returns ~/.config/lcu-keeper/accounts.db.
func defaultDBPath() string {
	return filepath.Join(configHome(), "accounts.db")
}

// defaultKeyPath returns ~/.config/lcu-keeper/secret.key.
func defaultKeyPath() string {
	return filepath.Join(configHome(), "secret.key")
}

// DefaultConfigPath returns ~/.config/lcu-keeper/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configHome(), "config.yaml")
}

// SearchPaths lists config file candidates in order of precedence.
func SearchPaths() []string {
	return []string{
		"./lcu-keeper.yaml",
		DefaultConfigPath(),
	}
}
