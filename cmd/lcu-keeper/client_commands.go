package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/0xmhha/lcu-keeper/pkg/automation"
	"github.com/0xmhha/lcu-keeper/pkg/config"
	"github.com/0xmhha/lcu-keeper/pkg/display"
	"github.com/0xmhha/lcu-keeper/pkg/events"
	"github.com/0xmhha/lcu-keeper/pkg/lcu"
	"github.com/0xmhha/lcu-keeper/pkg/logger"
	"github.com/0xmhha/lcu-keeper/pkg/watcher"
)

// runCommand runs the automation engine until interrupted.
type runCommand struct {
	configPath string
	refreshNow bool
	format     string
	quiet      bool
}

// Execute runs the engine, the file watcher and the event listener in one
// goroutine group. Ctrl+C cancels all of them.
func (c *runCommand) Execute() error {
	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	format, err := display.ParseFormat(c.format)
	if err != nil {
		return err
	}
	formatter := display.New(display.Config{Format: format, Compact: true})

	handler, locator := newHandler(a.cfg, a.log)
	engine := a.newEngine(handler)

	ctx, stop := signalContext()
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return engine.Run(gctx)
	})

	if c.refreshNow {
		g.Go(func() error {
			res, err := engine.RefreshStats(gctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					a.log.Warn("initial stats refresh failed", "error", err)
				}
				return nil
			}
			a.log.Info("stats refreshed", "id", res.Account.ID, "level", res.Account.Level)
			return nil
		})
	}

	files := append(append([]string(nil), locator.Candidates()...), a.configPath)
	w, err := watcher.New(watcher.Config{}, a.log.Named("watcher"))
	if err != nil {
		return fmt.Errorf("failed to initialize watcher: %w", err)
	}
	defer func() {
		if err := w.Close(); err != nil {
			a.log.Error("failed to close watcher", "error", err)
		}
	}()

	if err := w.Start(gctx, files); err != nil {
		// Polling alone still works; changes just take one interval longer.
		a.log.Warn("file watching disabled", "error", err)
	} else {
		g.Go(func() error {
			return c.watch(gctx, w, engine, a.configPath, a.log)
		})
	}

	if a.cfg.Automation.ListenEvents {
		listener := events.New(events.Config{}, handler, func(phase string) {
			a.log.Debug("phase event", "phase", phase)
			engine.Nudge()
		}, a.log.Named("events"))
		g.Go(func() error {
			return listener.Run(gctx)
		})
	}

	if !c.quiet {
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case st := <-engine.Updates():
					if err := formatter.FormatStatus(os.Stdout, st, engine.Targets()); err != nil {
						return err
					}
				}
			}
		})
	}

	interactive := stdoutIsTerminal()
	if interactive {
		fmt.Fprintln(os.Stderr, "lcu-keeper running - press Ctrl+C to stop")
	}
	err = g.Wait()
	if interactive {
		fmt.Fprintln(os.Stderr, "stopped")
	}
	return err
}

// watch reacts to file changes: a config change reloads the targets, a
// lockfile change triggers an immediate tick.
func (c *runCommand) watch(ctx context.Context, w watcher.Watcher, engine *automation.Engine, configPath string, log logger.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			if samePath(ev.Path, configPath) {
				if ev.Op.Gone() {
					continue
				}
				cfg, _, err := loadConfig(configPath)
				if err != nil {
					log.Warn("ignoring invalid config change", "error", err)
					continue
				}
				engine.SetTargets(automation.TargetsFromConfig(cfg.Automation))
				log.Info("targets reloaded", "path", configPath)
				continue
			}
			log.Debug("lockfile changed", "path", ev.Path, "op", ev.Op)
			engine.Nudge()

		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			if errors.Is(err, watcher.ErrCircuitBreakerOpen) {
				log.Warn("file watching stopped after repeated errors", "error", err)
				return nil
			}
			log.Warn("watcher error", "error", err)
		}
	}
}

// statusCommand shows one snapshot of the client and the automation settings.
type statusCommand struct {
	configPath string
}

// Execute runs the status command.
func (c *statusCommand) Execute(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	format := fs.String("format", "table", "output format (table, json, simple)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	f, err := display.ParseFormat(*format)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	handler, _ := newHandler(cfg, log)
	st := automation.Status{Connected: handler.Discover()}

	if st.Connected {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
		defer cancel()

		if phase, err := handler.GameflowPhase(ctx); err == nil {
			st.Phase = phase
		}
		if s, err := handler.CurrentSummoner(ctx); err == nil {
			st.LastHandle = s.Handle()
		}
	}

	return display.New(display.Config{Format: f}).FormatStatus(os.Stdout, st, automation.TargetsFromConfig(cfg.Automation))
}

// refreshCommand records the signed-in account's stats once.
type refreshCommand struct {
	configPath string
	accountID  string
}

// Execute runs the refresh command.
func (c *refreshCommand) Execute() error {
	a, err := openApp(c.configPath)
	if err != nil {
		return err
	}
	defer a.Close()

	handler, _ := newHandler(a.cfg, a.log)
	engine := a.newEngine(handler)

	if c.accountID != "" {
		acc, err := resolveAccount(a.store, c.accountID)
		if err != nil {
			return err
		}
		engine.SetFocus(acc.ID)
	}

	ctx, stop := signalContext()
	defer stop()

	res, err := engine.RefreshStats(ctx)
	switch {
	case errors.Is(err, automation.ErrClientUnavailable):
		return fmt.Errorf("game client not reachable, is it running and signed in? (%w)", err)
	case errors.Is(err, automation.ErrNoMatchingAccount):
		return fmt.Errorf("no stored account matches the signed-in player; use -account ID to bind one")
	case err != nil:
		return err
	}

	if res.Bound {
		fmt.Printf("Bound account %s to %s\n", res.Account.ID, res.Handle)
	}
	return display.New(display.Config{}).FormatAccount(os.Stdout, res.Account)
}

// presenceCommand sets the chat availability of the signed-in player.
type presenceCommand struct {
	configPath string
}

// Execute runs the presence command.
func (c *presenceCommand) Execute(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: lcu-keeper presence %s", strings.Join(lcu.ChatAvailabilities, "|"))
	}
	availability := strings.ToLower(args[0])

	cfg, _, err := loadConfig(c.configPath)
	if err != nil {
		return err
	}

	handler, _ := newHandler(cfg, newLogger(cfg))
	if !handler.Discover() {
		return errClientNotRunning
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout(cfg))
	defer cancel()

	if err := handler.SetChatAvailability(ctx, availability); err != nil {
		return fmt.Errorf("failed to set presence: %w", err)
	}

	fmt.Printf("Presence set to %s\n", availability)
	return nil
}

var errClientNotRunning = errors.New("game client not running")

// resolveChampion turns a champion name or id into a target.
// Names need the client for its champion list; ids work offline.
func resolveChampion(ctx context.Context, client championLister, query string) (config.ChampionTarget, error) {
	query = strings.TrimSpace(query)
	id, numeric := parseChampionID(query)

	if client == nil {
		if !numeric {
			return config.ChampionTarget{}, fmt.Errorf("%w: champion names need the client, use a numeric id", errClientNotRunning)
		}
		return config.ChampionTarget{ID: id, Name: config.NoChampion}, nil
	}

	list, err := client.ChampionSummary(ctx)
	if err != nil {
		if numeric {
			return config.ChampionTarget{ID: id, Name: config.NoChampion}, nil
		}
		return config.ChampionTarget{}, fmt.Errorf("failed to read champion list: %w", err)
	}

	champ, ok := lcu.FindChampion(list, query)
	if !ok {
		if numeric {
			return config.ChampionTarget{ID: id, Name: config.NoChampion}, nil
		}
		return config.ChampionTarget{}, fmt.Errorf("unknown champion %q", query)
	}
	return config.ChampionTarget{ID: champ.ID, Name: champ.Name}, nil
}

// championLister is the part of *lcu.Handler target resolution needs.
type championLister interface {
	ChampionSummary(ctx context.Context) ([]lcu.Champion, error)
}

func parseChampionID(s string) (int, bool) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func samePath(a, b string) bool {
	return filepath.Clean(a) == filepath.Clean(b)
}

// requestTimeout bounds one-shot client calls made by commands.
func requestTimeout(cfg *config.Config) time.Duration {
	return 2 * cfg.Client.RequestTimeout
}
