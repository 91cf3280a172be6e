package automation

import (
	"context"
	"errors"
	"fmt"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/lcu"
)

// RefreshStats reads level, wallet and skin count of the signed-in player
// and records them on the matching stored account.
//
// The client is rediscovered up to Config.DiscoveryAttempts times, since
// the lockfile may have just been rewritten. The account is matched by
// normalized handle; failing that, the focus account (SetFocus) is bound
// to the observed handle. Returns ErrNoMatchingAccount when neither
// applies.
func (e *Engine) RefreshStats(ctx context.Context) (RefreshResult, error) {
	return e.refresh(ctx, e.config.DiscoveryAttempts)
}

func (e *Engine) refresh(ctx context.Context, attempts int) (RefreshResult, error) {
	summoner, err := e.currentSummoner(ctx, attempts)
	if err != nil {
		return RefreshResult{}, err
	}

	handle := summoner.Handle()
	result := RefreshResult{Handle: handle}

	acc, ok := e.accounts.FindByHandle(handle)
	if !ok {
		focus := e.focus()
		if focus == "" {
			return result, fmt.Errorf("%w: %s", ErrNoMatchingAccount, handle)
		}
		acc, err = e.accounts.BindHandle(focus, handle)
		if err != nil {
			return result, fmt.Errorf("failed to bind %s: %w", handle, err)
		}
		result.Bound = true
		e.logger.Info("focused account bound to client identity", "id", acc.ID, "handle", handle)
	}

	stats := account.Stats{Level: summoner.SummonerLevel}

	wallet, err := e.client.ReadWallet(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to read wallet: %w", err)
	}
	stats.BlueEssence = wallet.BlueEssence
	stats.RiotPoints = wallet.RiotPoints

	skins, err := e.client.SkinInventory(ctx)
	switch {
	case err == nil:
		stats.SkinCount = skins
		stats.SkinsKnown = true
	case errors.Is(err, lcu.ErrUnexpectedStatus), errors.Is(err, lcu.ErrDecode):
		e.logger.Debug("skin inventory unavailable", "error", err)
	default:
		return result, fmt.Errorf("failed to read skins: %w", err)
	}

	acc, err = e.accounts.RecordStats(acc.ID, stats)
	if err != nil {
		return result, err
	}
	result.Account = acc

	e.updateStatus(func(s *Status) {
		s.LastRefresh = e.now()
		s.LastHandle = handle
	})
	e.logger.Info("stats recorded",
		"id", acc.ID,
		"level", acc.Level,
		"blue_essence", acc.BlueEssence,
		"rp", acc.RiotPoints,
		"skins", acc.SkinCount)

	return result, nil
}

// currentSummoner reconnects and reads the signed-in player, retrying with
// a fixed delay.
func (e *Engine) currentSummoner(ctx context.Context, attempts int) (lcu.Summoner, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := e.sleep(ctx, e.config.DiscoveryRetryDelay); err != nil {
				return lcu.Summoner{}, err
			}
		}

		if !e.client.Connected() && !e.client.Discover() {
			lastErr = lcu.ErrNotConnected
			continue
		}

		s, err := e.client.CurrentSummoner(ctx)
		if err == nil {
			return s, nil
		}
		lastErr = err
	}

	return lcu.Summoner{}, fmt.Errorf("%w after %d attempts: %w", ErrClientUnavailable, attempts, lastErr)
}
