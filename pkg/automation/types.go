// Package automation drives the game client through its local API.
//
// An Engine runs a single polling loop. Each tick reconnects if needed,
// refreshes the signed-in account's stats when they are due, reads the game
// phase and then acts on it: accept a ready check, ban and pick champions.
// Every action is guarded by the client's own state (phase, completed flags),
// so repeating a tick never repeats a completed action. The loop survives
// any error; a failed call drops the session and the next tick rediscovers.
package automation

import (
	"context"
	"time"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/config"
	"github.com/0xmhha/lcu-keeper/pkg/lcu"
)

// Client is the subset of *lcu.Handler the engine uses.
type Client interface {
	Discover() bool
	Connected() bool
	Invalidate()

	GameflowPhase(ctx context.Context) (string, error)
	AcceptReadyCheck(ctx context.Context) error
	ChampSelectSession(ctx context.Context) (lcu.ChampSelect, error)
	PatchAction(ctx context.Context, actionID, championID int) error

	CurrentSummoner(ctx context.Context) (lcu.Summoner, error)
	ReadWallet(ctx context.Context) (lcu.Wallet, error)
	SkinInventory(ctx context.Context) (int, error)
}

// Accounts is the subset of *account.Store the engine uses.
type Accounts interface {
	FindByHandle(handle string) (account.Account, bool)
	BindHandle(id, handle string) (account.Account, error)
	RecordStats(id string, stats account.Stats) (account.Account, error)
}

// Targets holds the automation toggles and champion choices.
type Targets struct {
	AutoAccept bool
	AutoPick   bool
	AutoBan    bool

	Pick config.ChampionTarget
	Ban  config.ChampionTarget
}

// Active reports whether any automation is switched on.
func (t Targets) Active() bool {
	return t.AutoAccept || t.AutoPick || t.AutoBan
}

// TargetsFromConfig extracts targets from the automation settings.
func TargetsFromConfig(c config.AutomationConfig) Targets {
	return Targets{
		AutoAccept: c.AutoAccept,
		AutoPick:   c.AutoPick,
		AutoBan:    c.AutoBan,
		Pick:       c.Pick,
		Ban:        c.Ban,
	}
}

// Config contains engine configuration.
type Config struct {
	// PollInterval is the time between ticks. Default: 1.5s.
	PollInterval time.Duration

	// StatsInterval is the minimum time between automatic stats refreshes,
	// measured from the previous attempt. Default: 60s.
	StatsInterval time.Duration

	// DiscoveryAttempts bounds the reconnect attempts of RefreshStats.
	// Default: 5.
	DiscoveryAttempts int

	// DiscoveryRetryDelay is the pause between those attempts. Default: 1s.
	DiscoveryRetryDelay time.Duration
}

// ConfigFromSettings converts the automation settings.
func ConfigFromSettings(c config.AutomationConfig) Config {
	return Config{
		PollInterval:        c.PollInterval,
		StatsInterval:       c.StatsInterval,
		DiscoveryAttempts:   c.DiscoveryAttempts,
		DiscoveryRetryDelay: c.DiscoveryRetryDelay,
	}
}

// Status is a snapshot of what the engine last observed.
type Status struct {
	Connected bool
	Phase     string

	// Cumulative actions submitted since the engine was created.
	Accepts int
	Bans    int
	Picks   int

	// LastRefresh is when stats were last recorded, LastHandle for whom.
	LastRefresh time.Time
	LastHandle  string
}

// RefreshResult describes a successful stats refresh.
type RefreshResult struct {
	// Account is the updated record.
	Account account.Account

	// Handle is the identity reported by the client.
	Handle string

	// Bound is true when the focused account was bound to Handle because
	// no stored account matched it.
	Bound bool
}
