// Package rank refreshes ranked standings of stored accounts from an
// external source.
//
// The source sits behind the Fetcher interface. BulkCheck walks every
// account in order with a fixed pause between lookups, reports progress as
// it goes and stores all results with a single write at the end, including
// when it is cancelled part way.
package rank

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/logger"
)

// DefaultDelay is the pause between two lookups.
const DefaultDelay = 1200 * time.Millisecond

// Result is a rank lookup. An empty Tier means unranked.
type Result struct {
	Tier     string `json:"tier"`
	Division string `json:"division"`
	LP       int    `json:"lp"`
	Winrate  string `json:"winrate"`
}

// Rank converts r to the account representation. Tier and division are
// upper-cased and an unknown tier or division is an error.
func (r Result) Rank() (account.Rank, error) {
	rk := account.Rank{
		Tier:     strings.ToUpper(strings.TrimSpace(r.Tier)),
		Division: strings.ToUpper(strings.TrimSpace(r.Division)),
		LP:       r.LP,
		Winrate:  strings.TrimSpace(r.Winrate),
	}
	if rk.Tier != "" && !account.ValidTier(rk.Tier) {
		return account.Rank{}, fmt.Errorf("%w: unknown tier %q", account.ErrInvalidRank, r.Tier)
	}
	if !account.ValidDivision(rk.Division) {
		return account.Rank{}, fmt.Errorf("%w: unknown division %q", account.ErrInvalidRank, r.Division)
	}
	if rk.LP < 0 {
		rk.LP = 0
	}
	return rk, nil
}

// Fetcher looks up the rank of one player. A nil result with a nil error
// means the source has no data for the player.
type Fetcher interface {
	FetchRank(ctx context.Context, server, handle string) (*Result, error)
}

// Store is the subset of *account.Store used by BulkCheck.
type Store interface {
	List() []account.Account
	ApplyRanks(ranks map[string]account.Rank) (int, error)
}

// Progress is reported after each account.
type Progress struct {
	// Index is 1-based.
	Index   int
	Total   int
	Account account.Account

	// Result is nil when the source had no data or the lookup failed.
	Result *Result
	Err    error
}

// Options configures BulkCheck.
type Options struct {
	// Delay between lookups. Zero means DefaultDelay.
	Delay time.Duration

	// Progress, if set, is called after each account.
	Progress func(Progress)
}

// Summary describes a finished bulk check.
type Summary struct {
	Checked   int
	Updated   int
	Failed    int
	Cancelled bool
}

// BulkCheck looks up every stored account in order and stores the results.
//
// Lookup failures are reported through Progress and counted, never
// returned. Cancellation is honoured between accounts; results gathered so
// far are still stored. The only returned error is a failed store write.
func BulkCheck(ctx context.Context, store Store, fetcher Fetcher, opts Options, log logger.Logger) (Summary, error) {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}

	accounts := store.List()
	ranks := make(map[string]account.Rank)
	var sum Summary

	log.Info("rank check started", "accounts", len(accounts))

	for i, acc := range accounts {
		if i > 0 {
			if !wait(ctx, opts.Delay) {
				sum.Cancelled = true
				break
			}
		}
		if ctx.Err() != nil {
			sum.Cancelled = true
			break
		}

		res, err := fetcher.FetchRank(ctx, acc.Server, acc.RiotHandle)
		if err == nil && res != nil {
			var rk account.Rank
			if rk, err = res.Rank(); err == nil {
				ranks[acc.ID] = rk
			}
		}
		sum.Checked++
		if err != nil {
			sum.Failed++
			res = nil
			log.Debug("rank lookup failed", "id", acc.ID, "error", err)
		}

		if opts.Progress != nil {
			opts.Progress(Progress{
				Index:   i + 1,
				Total:   len(accounts),
				Account: acc,
				Result:  res,
				Err:     err,
			})
		}
	}

	n, err := store.ApplyRanks(ranks)
	if err != nil {
		return sum, err
	}
	sum.Updated = n

	log.Info("rank check finished",
		"checked", sum.Checked,
		"updated", sum.Updated,
		"failed", sum.Failed,
		"cancelled", sum.Cancelled)
	return sum, nil
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
