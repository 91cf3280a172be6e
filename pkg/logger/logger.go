// Package logger provides structured logging for lcu-keeper.
//
// It is a thin layer over log/slog. Every package receives a Logger and
// attaches its own component name with Named so the source of a line is
// visible without stack traces:
//
//	log := logger.New(logger.Config{Level: "debug", Format: "json"})
//	lcuLog := log.Named("lcu")
//	lcuLog.Info("session established", "port", 54321, "token", logger.Secret(pw))
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger provides leveled, structured logging.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})

	// With returns a logger that adds the given fields to every record.
	With(keysAndValues ...interface{}) Logger

	// Named returns a logger tagged with component=name.
	Named(name string) Logger
}

// Config contains logger configuration.
type Config struct {
	// Level is the minimum level (debug, info, warn, error).
	Level string

	// Output is stdout, stderr or a file path opened for append.
	Output string

	// Format is text or json.
	Format string
}

type logger struct {
	slogger *slog.Logger
}

// New creates a logger. Unknown levels fall back to info and an output
// that cannot be opened falls back to stderr.
func New(cfg Config) Logger {
	writer, err := openOutput(cfg.Output)
	if err != nil {
		writer = os.Stderr
	}
	return newWithWriter(writer, cfg)
}

func newWithWriter(w io.Writer, cfg Config) Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return &logger{slogger: slog.New(handler)}
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.slogger.Debug(msg, keysAndValues...)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.slogger.Info(msg, keysAndValues...)
}

func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.slogger.Warn(msg, keysAndValues...)
}

func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.slogger.Error(msg, keysAndValues...)
}

func (l *logger) With(keysAndValues ...interface{}) Logger {
	return &logger{slogger: l.slogger.With(keysAndValues...)}
}

func (l *logger) Named(name string) Logger {
	return &logger{slogger: l.slogger.With("component", name)}
}

// Secret wraps a credential so it never reaches log output in clear text.
type Secret string

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value {
	if s == "" {
		return slog.StringValue("")
	}
	return slog.StringValue("[redacted]")
}

// parseLevel maps a level name to slog.Level, defaulting to info.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// openOutput resolves an output destination to a writer.
func openOutput(output string) (io.Writer, error) {
	switch strings.ToLower(output) {
	case "", "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	// #nosec G304: path comes from the user's own config file
	f, err := os.OpenFile(output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600) // nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", output, err)
	}
	return f, nil
}

// Default returns an info-level text logger on stderr.
func Default() Logger {
	return New(Config{Level: "info", Output: "stderr", Format: "text"})
}

// Noop returns a logger that discards everything.
func Noop() Logger {
	return newWithWriter(io.Discard, Config{})
}
