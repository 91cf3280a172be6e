package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/0xmhha/lcu-keeper/pkg/logger"
)

// watcher implements the Watcher interface using fsnotify.
type watcher struct {
	fsw    *fsnotify.Watcher
	logger logger.Logger
	config Config

	events chan Event
	errors chan error

	mu       sync.RWMutex
	running  bool
	closed   bool
	stopChan chan struct{}
	targets  map[string]bool

	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	// consecutive fsnotify errors; reset by any delivered event
	failureCount int
}

// New creates a file watcher.
func New(cfg Config, log logger.Logger) (Watcher, error) {
	if cfg.DebounceInterval <= 0 {
		cfg.DebounceInterval = 250 * time.Millisecond
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = 5
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &watcher{
		fsw:            fsw,
		logger:         log,
		config:         cfg,
		events:         make(chan Event, 32),
		errors:         make(chan error, 8),
		targets:        make(map[string]bool),
		debounceTimers: make(map[string]*time.Timer),
	}, nil
}

// Start implements Watcher.Start. It returns once the watches are in place.
func (w *watcher) Start(ctx context.Context, files []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if w.running {
		return ErrAlreadyStarted
	}

	dirs := make(map[string]bool)
	for _, f := range files {
		path := filepath.Clean(expandHome(strings.TrimSpace(f)))
		if path == "." {
			continue
		}
		dir := filepath.Dir(path)

		if !dirs[dir] {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				w.logger.Debug("watch directory missing, skipping", "path", path)
				continue
			}
			if err := w.fsw.Add(dir); err != nil {
				w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
				continue
			}
			dirs[dir] = true
		}
		w.targets[path] = true
	}

	if len(w.targets) == 0 {
		return ErrInvalidPath
	}

	w.running = true
	w.stopChan = make(chan struct{})
	go w.processEvents(ctx, w.stopChan)

	w.logger.Info("watcher started", "files", len(w.targets), "dirs", len(dirs))
	return nil
}

// Stop implements Watcher.Stop.
func (w *watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWatcherClosed
	}
	if !w.running {
		return ErrNotStarted
	}

	close(w.stopChan)
	w.running = false

	w.logger.Info("watcher stopped")
	return nil
}

// Events implements Watcher.Events.
func (w *watcher) Events() <-chan Event {
	return w.events
}

// Errors implements Watcher.Errors.
func (w *watcher) Errors() <-chan error {
	return w.errors
}

// Close implements Watcher.Close.
func (w *watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	if w.running {
		close(w.stopChan)
		w.running = false
	}

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceTimers = nil
	w.debounceMu.Unlock()

	close(w.events)
	close(w.errors)

	if err := w.fsw.Close(); err != nil {
		return fmt.Errorf("failed to close watcher: %w", err)
	}
	return nil
}

func (w *watcher) processEvents(ctx context.Context, stop <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// handleEvent filters an fsnotify event down to watched files.
func (w *watcher) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)

	w.mu.RLock()
	watched := w.targets[path]
	w.mu.RUnlock()
	if !watched {
		return
	}

	op := convertOp(event.Op)
	if op == 0 {
		return
	}

	w.debounce(Event{Path: path, Op: op, Timestamp: time.Now()})
}

func convertOp(op fsnotify.Op) Op {
	switch {
	case op.Has(fsnotify.Remove):
		return OpRemove
	case op.Has(fsnotify.Rename):
		return OpRename
	case op.Has(fsnotify.Create):
		return OpCreate
	case op.Has(fsnotify.Write):
		return OpWrite
	case op.Has(fsnotify.Chmod):
		return OpChmod
	}
	return 0
}

// debounce delivers the last event for a path once the path has been quiet
// for DebounceInterval.
func (w *watcher) debounce(event Event) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if w.debounceTimers == nil {
		return
	}
	if timer, ok := w.debounceTimers[event.Path]; ok {
		timer.Stop()
	}

	w.debounceTimers[event.Path] = time.AfterFunc(w.config.DebounceInterval, func() {
		w.debounceMu.Lock()
		if w.debounceTimers != nil {
			delete(w.debounceTimers, event.Path)
		}
		w.debounceMu.Unlock()

		w.mu.Lock()
		defer w.mu.Unlock()
		if w.closed {
			return
		}
		w.failureCount = 0

		select {
		case w.events <- event:
		default:
			w.logger.Warn("event channel full, dropping event", "path", event.Path)
		}
	})
}

// handleError reports an fsnotify error, or ErrCircuitBreakerOpen once the
// errors keep coming.
func (w *watcher) handleError(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	w.failureCount++
	w.logger.Warn("fsnotify error", "error", err, "failure_count", w.failureCount)

	report := err
	if w.failureCount >= w.config.CircuitBreakerThreshold {
		report = ErrCircuitBreakerOpen
	}

	select {
	case w.errors <- report:
	default:
	}
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
