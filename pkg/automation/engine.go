package automation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/lcu"
	"github.com/0xmhha/lcu-keeper/pkg/logger"
)

// Engine runs the automation loop. Create it with New.
type Engine struct {
	config   Config
	client   Client
	accounts Accounts
	logger   logger.Logger

	mu       sync.RWMutex
	targets  Targets
	focusID  string
	status   Status
	running  bool
	stopChan chan struct{}

	// touched only by the goroutine running ticks
	lastStatsAttempt time.Time

	nudge   chan struct{}
	updates chan Status

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// New creates an engine. Zero config values take their defaults.
func New(cfg Config, client Client, accounts Accounts, targets Targets, log logger.Logger) *Engine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 1500 * time.Millisecond
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = time.Minute
	}
	if cfg.DiscoveryAttempts <= 0 {
		cfg.DiscoveryAttempts = 5
	}
	if cfg.DiscoveryRetryDelay <= 0 {
		cfg.DiscoveryRetryDelay = time.Second
	}

	log.Info("automation engine created",
		"poll_interval", cfg.PollInterval,
		"stats_interval", cfg.StatsInterval)

	return &Engine{
		config:   cfg,
		client:   client,
		accounts: accounts,
		logger:   log,
		targets:  targets,
		nudge:    make(chan struct{}, 1),
		updates:  make(chan Status, 16),
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Run ticks until ctx is cancelled or Stop is called. It returns nil in
// both cases; errors inside ticks are logged, never returned.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrEngineRunning
	}
	e.running = true
	stop := make(chan struct{})
	e.stopChan = stop
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		if e.running && e.stopChan == stop {
			e.running = false
		}
		e.mu.Unlock()
	}()

	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	e.logger.Info("automation engine started")
	for {
		select {
		case <-ctx.Done():
			e.logger.Info("automation engine stopped", "reason", "context cancelled")
			return nil
		case <-stop:
			e.logger.Info("automation engine stopped", "reason", "stop signal")
			return nil
		default:
		}

		e.Tick(ctx)

		select {
		case <-ctx.Done():
		case <-stop:
		case <-ticker.C:
		case <-e.nudge:
		}
	}
}

// Stop ends Run at the next loop iteration.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return ErrEngineNotRunning
	}
	close(e.stopChan)
	e.running = false
	return nil
}

// Nudge requests an early tick. Nudges coalesce and never block.
func (e *Engine) Nudge() {
	select {
	case e.nudge <- struct{}{}:
	default:
	}
}

// SetTargets replaces the toggles and champion targets from the next tick on.
func (e *Engine) SetTargets(t Targets) {
	e.mu.Lock()
	e.targets = t
	e.mu.Unlock()

	e.logger.Info("automation targets updated",
		"accept", t.AutoAccept,
		"pick", t.AutoPick, "pick_id", t.Pick.ID,
		"ban", t.AutoBan, "ban_id", t.Ban.ID)
}

// Targets returns the current targets.
func (e *Engine) Targets() Targets {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.targets
}

// SetFocus marks the account a stats refresh binds to when the signed-in
// player matches no stored handle.
func (e *Engine) SetFocus(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.focusID = id
}

// ClearFocus removes the focus account.
func (e *Engine) ClearFocus() {
	e.SetFocus("")
}

func (e *Engine) focus() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.focusID
}

// Status returns the last observed status.
func (e *Engine) Status() Status {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.status
}

// Updates delivers a Status whenever it changes. Updates are dropped when
// nobody reads them.
func (e *Engine) Updates() <-chan Status {
	return e.updates
}

// Tick runs one iteration: reconnect, stats refresh if due, phase read,
// ban pass, pick pass. Panics are recovered and drop the session.
func (e *Engine) Tick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tick panicked", "panic", r)
			e.client.Invalidate()
		}
		e.updateStatus(func(s *Status) { s.Connected = e.client.Connected() })
	}()

	if !e.client.Connected() && !e.client.Discover() {
		e.updateStatus(func(s *Status) { s.Phase = "" })
		return
	}

	if now := e.now(); e.lastStatsAttempt.IsZero() || now.Sub(e.lastStatsAttempt) >= e.config.StatsInterval {
		e.lastStatsAttempt = now
		_, err := e.refresh(ctx, 1)
		switch {
		case err == nil, errors.Is(err, ErrNoMatchingAccount):
		case errors.Is(err, account.ErrPersist), errors.Is(err, account.ErrNotFound):
			e.logger.Warn("stats not recorded", "error", err)
		default:
			e.fail("refresh stats", err)
		}
		if !e.client.Connected() {
			return
		}
	}

	targets := e.Targets()
	if !targets.Active() {
		return
	}

	phase, err := e.client.GameflowPhase(ctx)
	if err != nil {
		e.fail("read phase", err)
		return
	}
	e.updateStatus(func(s *Status) { s.Phase = phase })

	switch phase {
	case lcu.PhaseReadyCheck:
		if !targets.AutoAccept {
			return
		}
		if err := e.client.AcceptReadyCheck(ctx); err != nil {
			e.fail("accept ready check", err)
			return
		}
		e.logger.Info("ready check accepted")
		e.updateStatus(func(s *Status) { s.Accepts++ })

	case lcu.PhaseChampSelect:
		if targets.AutoBan && targets.Ban.IsSet() {
			n, err := e.submit(ctx, lcu.ActionBan, targets.Ban.ID)
			e.updateStatus(func(s *Status) { s.Bans += n })
			if err != nil {
				e.fail("ban", err)
				return
			}
		}
		if targets.AutoPick && targets.Pick.IsSet() {
			n, err := e.submit(ctx, lcu.ActionPick, targets.Pick.ID)
			e.updateStatus(func(s *Status) { s.Picks += n })
			if err != nil {
				e.fail("pick", err)
				return
			}
		}
	}
}

// submit completes every pending action of actionType owned by the local
// player with championID. It returns how many were submitted.
func (e *Engine) submit(ctx context.Context, actionType string, championID int) (int, error) {
	cs, err := e.client.ChampSelectSession(ctx)
	if err != nil {
		return 0, err
	}

	submitted := 0
	for _, a := range cs.PendingActions(actionType) {
		if err := e.client.PatchAction(ctx, a.ID, championID); err != nil {
			return submitted, err
		}
		submitted++
		e.logger.Info("champion submitted", "type", actionType, "action", a.ID, "champion", championID)
	}
	return submitted, nil
}

// fail handles an error from a connected tick. A rejected request is
// treated as no data; anything else drops the session.
func (e *Engine) fail(op string, err error) {
	switch {
	case errors.Is(err, lcu.ErrUnexpectedStatus):
		e.logger.Debug("client rejected request", "op", op, "error", err)
	case errors.Is(err, lcu.ErrNotConnected), errors.Is(err, context.Canceled):
	default:
		e.logger.Warn("client call failed, dropping session", "op", op, "error", err)
		e.client.Invalidate()
	}
}

// updateStatus applies fn and publishes the result if it changed.
func (e *Engine) updateStatus(fn func(*Status)) {
	e.mu.Lock()
	prev := e.status
	fn(&e.status)
	next := e.status
	e.mu.Unlock()

	if next == prev {
		return
	}

	select {
	case e.updates <- next:
	default:
		e.logger.Debug("updates channel full, dropping update")
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
