// Package watcher reports changes to a fixed set of files.
//
// fsnotify only watches directories reliably across platforms, and the
// client deletes and recreates its lockfile on every launch, so the watcher
// subscribes to each file's parent directory and filters events down to the
// requested names. Bursts of events for one file are coalesced.
//
// Example usage:
//
//	w, err := watcher.New(watcher.Config{}, log)
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//
//	if err := w.Start(ctx, []string{lockfilePath, configPath}); err != nil {
//	    return err
//	}
//	for ev := range w.Events() {
//	    fmt.Println(ev.Path, ev.Op)
//	}
package watcher

import (
	"context"
	"time"
)

// Op describes a file operation type.
type Op uint32

// File operation types.
const (
	OpCreate Op = 1 << iota
	OpWrite
	OpRemove
	OpRename
	OpChmod
)

// String returns a human-readable operation name.
func (op Op) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpWrite:
		return "WRITE"
	case OpRemove:
		return "REMOVE"
	case OpRename:
		return "RENAME"
	case OpChmod:
		return "CHMOD"
	default:
		return "UNKNOWN"
	}
}

// Gone reports whether the file no longer exists at its path after op.
func (op Op) Gone() bool {
	return op == OpRemove || op == OpRename
}

// Event is a coalesced change to one watched file.
type Event struct {
	// Path is the watched file path as given to Start, after ~ expansion.
	Path string

	// Op is the last operation seen within the debounce window.
	Op Op

	// Timestamp is when that operation was seen.
	Timestamp time.Time
}

// Watcher reports changes to a set of files.
type Watcher interface {
	// Start watches the given files until ctx is cancelled or Stop is
	// called. Files need not exist yet, but their directory must; files in
	// missing directories are skipped. Returns ErrInvalidPath when nothing
	// can be watched.
	Start(ctx context.Context, files []string) error

	// Stop stops event processing. Channels stay open until Close.
	Stop() error

	// Events returns coalesced file events.
	Events() <-chan Event

	// Errors returns non-fatal watcher errors. After
	// Config.CircuitBreakerThreshold consecutive errors it carries
	// ErrCircuitBreakerOpen instead.
	Errors() <-chan error

	// Close releases all resources and closes both channels.
	Close() error
}

// Config contains watcher configuration.
type Config struct {
	// DebounceInterval coalesces events for one file.
	// Default: 250ms.
	DebounceInterval time.Duration

	// CircuitBreakerThreshold is the number of consecutive fsnotify errors
	// after which only ErrCircuitBreakerOpen is reported.
	// Default: 5.
	CircuitBreakerThreshold int
}
