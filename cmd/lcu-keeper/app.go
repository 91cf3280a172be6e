package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/automation"
	"github.com/0xmhha/lcu-keeper/pkg/config"
	"github.com/0xmhha/lcu-keeper/pkg/discovery"
	"github.com/0xmhha/lcu-keeper/pkg/lcu"
	"github.com/0xmhha/lcu-keeper/pkg/logger"
	"github.com/0xmhha/lcu-keeper/pkg/storage"
	"github.com/0xmhha/lcu-keeper/pkg/vault"
)

// app bundles the components most commands share.
type app struct {
	cfg        *config.Config
	configPath string
	log        logger.Logger

	repo  storage.Repository
	store *account.Store
}

// loadConfig resolves the configuration and the path it should be saved to.
func loadConfig(configPath string) (*config.Config, string, error) {
	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()
	if err != nil {
		return nil, "", fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, loader.Path(), nil
}

// configFilePath returns the file settings changes are written to.
func configFilePath(configPath string) string {
	return config.NewLoader(configPath).Path()
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// openApp loads configuration, the vault key and the account store.
// A key file that cannot be read or created is fatal.
func openApp(configPath string) (*app, error) {
	cfg, path, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	log := newLogger(cfg)

	v, err := vault.Open(cfg.Storage.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}

	repo, err := storage.Open(storage.Config{DBPath: cfg.Storage.DBPath}, log.Named("storage"))
	if err != nil {
		return nil, fmt.Errorf("failed to open account store: %w", err)
	}

	store := account.NewStore(repo, v, log.Named("accounts"))
	if err := store.Load(); err != nil {
		_ = repo.Close() //nolint:errcheck // best effort cleanup
		return nil, fmt.Errorf("failed to load accounts: %w", err)
	}

	return &app{
		cfg:        cfg,
		configPath: path,
		log:        log,
		repo:       repo,
		store:      store,
	}, nil
}

// Close releases the account store.
func (a *app) Close() {
	if err := a.repo.Close(); err != nil {
		a.log.Error("failed to close account store", "error", err)
	}
}

// newLocator builds the lockfile locator from the client settings.
func newLocator(cfg *config.Config, log logger.Logger) discovery.Locator {
	dc := discovery.Config{
		Paths:      cfg.Client.LockfilePaths,
		InstallDir: cfg.Client.InstallDir,
	}
	if runtime.GOOS == "linux" {
		dc.CommandLines = discovery.ProcCommandLines("/proc")
	}
	return discovery.New(dc, log)
}

// newHandler creates the local API handler.
func newHandler(cfg *config.Config, log logger.Logger) (*lcu.Handler, discovery.Locator) {
	locator := newLocator(cfg, log.Named("discovery"))
	h := lcu.New(lcu.Config{Timeout: cfg.Client.RequestTimeout}, locator, log.Named("lcu"))
	return h, locator
}

// newEngine creates an engine over the app's store.
func (a *app) newEngine(client automation.Client) *automation.Engine {
	return automation.New(
		automation.ConfigFromSettings(a.cfg.Automation),
		client,
		a.store,
		automation.TargetsFromConfig(a.cfg.Automation),
		a.log.Named("engine"),
	)
}

// signalContext is cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
