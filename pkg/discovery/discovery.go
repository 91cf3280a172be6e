// Package discovery locates the credentials of a running game client.
//
// While running, the client writes a lockfile of the form
//
//	name:pid:port:password:protocol
//
// next to its installation. The locator checks configured paths, the
// installation directory and the platform defaults in that order and
// returns the first lockfile that parses. When no lockfile is found it can
// fall back to the client process command line, which carries the same
// port and password as --app-port and --remoting-auth-token.
//
// Example usage:
//
//	loc := discovery.New(discovery.Config{InstallDir: cfg.Client.InstallDir}, log)
//	lf, path, err := loc.Find()
//	if err != nil {
//	    return err // client not running
//	}
//	fmt.Println(lf.Port, path)
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Logger defines the logging interface used by the discovery package.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Lockfile holds the fields of a client lockfile.
type Lockfile struct {
	Name     string
	PID      int
	Port     int
	Password string
	Protocol string
}

// Locator finds client credentials.
type Locator interface {
	// Find returns the first valid credentials and where they came from
	// (a file path, or "process" for the command line fallback).
	//
	// Returns ErrLockfileNotFound when no candidate exists and
	// ErrMalformedLockfile when the only candidates are unreadable.
	Find() (Lockfile, string, error)

	// Candidates returns the lockfile paths Find checks, in order.
	Candidates() []string
}

// Config contains locator configuration.
type Config struct {
	// Paths are checked first, in order.
	Paths []string

	// InstallDir, if set, contributes <InstallDir>/lockfile after Paths.
	InstallDir string

	// GOOS selects the platform defaults. Empty means runtime.GOOS.
	GOOS string

	// NoDefaults disables the platform default paths.
	NoDefaults bool

	// CommandLines returns client process command lines for the fallback.
	// Nil disables it.
	CommandLines func() ([]string, error)
}

type locator struct {
	config     Config
	candidates []string
	logger     Logger
}

// New creates a Locator.
func New(cfg Config, logger Logger) Locator {
	goos := cfg.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	var candidates []string
	seen := make(map[string]bool)
	add := func(p string) {
		p = expandHome(strings.TrimSpace(p))
		if p == "" || seen[p] {
			return
		}
		seen[p] = true
		candidates = append(candidates, p)
	}

	for _, p := range cfg.Paths {
		add(p)
	}
	if cfg.InstallDir != "" {
		add(filepath.Join(expandHome(cfg.InstallDir), "lockfile"))
	}
	if !cfg.NoDefaults {
		for _, p := range DefaultLockfilePaths(goos) {
			add(p)
		}
	}

	return &locator{
		config:     cfg,
		candidates: candidates,
		logger:     logger,
	}
}

// DefaultLockfilePaths returns the usual lockfile locations for goos.
func DefaultLockfilePaths(goos string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/Applications/League of Legends.app/Contents/LoL/lockfile",
			"/Applications/Riot Games/League of Legends.app/Contents/LoL/lockfile",
		}
	case "windows":
		return []string{
			`C:\Riot Games\League of Legends\lockfile`,
			`D:\Riot Games\League of Legends\lockfile`,
		}
	default:
		return []string{
			"~/Games/league-of-legends/drive_c/Riot Games/League of Legends/lockfile",
			"~/.wine/drive_c/Riot Games/League of Legends/lockfile",
		}
	}
}

// Candidates implements Locator.Candidates.
func (l *locator) Candidates() []string {
	return append([]string(nil), l.candidates...)
}

// Find implements Locator.Find.
func (l *locator) Find() (Lockfile, string, error) {
	var lastErr error

	for _, path := range l.candidates {
		data, err := os.ReadFile(path) // nolint:gosec
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				l.logger.Debug("lockfile unreadable", "path", path, "error", err)
				lastErr = fmt.Errorf("%w: %s: %v", ErrMalformedLockfile, path, err)
			}
			continue
		}

		lf, err := ParseLockfile(string(data))
		if err != nil {
			// The client may be mid-write; try the next candidate.
			l.logger.Debug("lockfile rejected", "path", path, "error", err)
			lastErr = fmt.Errorf("%s: %w", path, err)
			continue
		}

		l.logger.Debug("lockfile found", "path", path, "port", lf.Port)
		return lf, path, nil
	}

	if l.config.CommandLines != nil {
		if lf, ok := l.fromProcess(); ok {
			return lf, SourceProcess, nil
		}
	}

	if lastErr != nil {
		return Lockfile{}, "", lastErr
	}
	return Lockfile{}, "", ErrLockfileNotFound
}

// SourceProcess is the source reported by Find for the command line fallback.
const SourceProcess = "process"

func (l *locator) fromProcess() (Lockfile, bool) {
	lines, err := l.config.CommandLines()
	if err != nil {
		l.logger.Debug("process scan failed", "error", err)
		return Lockfile{}, false
	}

	for _, line := range lines {
		lf, err := ParseCommandLine(line)
		if err == nil {
			l.logger.Debug("credentials taken from process", "port", lf.Port)
			return lf, true
		}
	}
	return Lockfile{}, false
}

// ParseLockfile parses name:pid:port:password:protocol.
//
// Port and password are required. The protocol defaults to https and the
// name and pid are informational only.
func ParseLockfile(content string) (Lockfile, error) {
	parts := strings.Split(strings.TrimSpace(content), ":")
	if len(parts) < 5 {
		return Lockfile{}, fmt.Errorf("%w: want 5 fields, got %d", ErrMalformedLockfile, len(parts))
	}

	port, err := parsePort(parts[2])
	if err != nil {
		return Lockfile{}, err
	}

	password := strings.TrimSpace(parts[3])
	if password == "" {
		return Lockfile{}, fmt.Errorf("%w: empty password", ErrMalformedLockfile)
	}

	protocol := strings.ToLower(strings.TrimSpace(parts[4]))
	if protocol == "" {
		protocol = "https"
	}

	// pid is informational; ignore garbage.
	pid, _ := strconv.Atoi(strings.TrimSpace(parts[1]))

	return Lockfile{
		Name:     parts[0],
		PID:      pid,
		Port:     port,
		Password: password,
		Protocol: protocol,
	}, nil
}

// ParseCommandLine extracts credentials from a client process command line.
func ParseCommandLine(cmdline string) (Lockfile, error) {
	var portText, token string

	for _, field := range strings.Fields(strings.ReplaceAll(cmdline, `"`, " ")) {
		switch {
		case strings.HasPrefix(field, "--app-port="):
			portText = strings.TrimPrefix(field, "--app-port=")
		case strings.HasPrefix(field, "--remoting-auth-token="):
			token = strings.TrimPrefix(field, "--remoting-auth-token=")
		}
	}

	if portText == "" || token == "" {
		return Lockfile{}, fmt.Errorf("%w: no port or auth token on command line", ErrMalformedLockfile)
	}

	port, err := parsePort(portText)
	if err != nil {
		return Lockfile{}, err
	}

	return Lockfile{Name: "LeagueClientUx", Port: port, Password: token, Protocol: "https"}, nil
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("%w: invalid port %q", ErrMalformedLockfile, s)
	}
	return port, nil
}

// expandHome expands ~ in file paths to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return homeDir
	}

	return filepath.Join(homeDir, path[2:])
}
