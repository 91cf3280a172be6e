package automation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xmhha/lcu-keeper/pkg/account"
	"github.com/0xmhha/lcu-keeper/pkg/lcu"
)

func addAccount(t *testing.T, store *account.Store, handle string, mutate func(*account.Account)) account.Account {
	t.Helper()
	a, err := store.Add(account.Account{
		LoginID:     "login-" + handle,
		LoginSecret: "hunter2",
		RiotHandle:  handle,
		Server:      "TR1",
	})
	require.NoError(t, err)

	if mutate != nil {
		a, err = store.Mutate(a.ID, mutate)
		require.NoError(t, err)
	}
	return a
}

func TestRefreshStatsMatchesNormalizedHandle(t *testing.T) {
	client := &fakeClient{
		discoverOK: true,
		summoner:   lcu.Summoner{GameName: "Çılgın Şövalye", TagLine: "TR1", SummonerLevel: 147},
		wallet:     lcu.Wallet{BlueEssence: 30500, RiotPoints: 1350},
		skins:      42,
	}
	e, store := newTestEngine(t, client, Targets{})
	acc := addAccount(t, store, "cilgin sovalye#tr1", nil)

	now := time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	res, err := e.RefreshStats(context.Background())
	require.NoError(t, err)

	assert.False(t, res.Bound)
	assert.Equal(t, "Çılgın Şövalye#TR1", res.Handle)
	assert.Equal(t, acc.ID, res.Account.ID)
	assert.Equal(t, 147, res.Account.Level)
	assert.Equal(t, 30500, res.Account.BlueEssence)
	assert.Equal(t, 1350, res.Account.RiotPoints)
	assert.Equal(t, 42, res.Account.SkinCount)
	assert.NotEqual(t, account.DefaultLastSeen, res.Account.LastSeen)

	stored, err := store.Get(acc.ID)
	require.NoError(t, err)
	assert.Equal(t, res.Account, stored)
	assert.Equal(t, now, e.Status().LastRefresh)
}

func TestRefreshStatsRetainsBalances(t *testing.T) {
	tests := []struct {
		name    string
		wallet  lcu.Wallet
		wantBE  int
		wantRP  int
		skinErr error
	}{
		{"both zero keeps both", lcu.Wallet{}, 5000, 700, nil},
		{"blue essence zero keeps blue essence", lcu.Wallet{RiotPoints: 90}, 5000, 90, nil},
		{"both reported", lcu.Wallet{BlueEssence: 6000, RiotPoints: 0}, 6000, 0, nil},
		{"skins unavailable", lcu.Wallet{BlueEssence: 1, RiotPoints: 2}, 1, 2, fmt.Errorf("%w: 500", lcu.ErrUnexpectedStatus)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{
				discoverOK: true,
				summoner:   lcu.Summoner{GameName: "Main", TagLine: "EUW", SummonerLevel: 200},
				wallet:     tt.wallet,
				skins:      12,
				skinsErr:   tt.skinErr,
			}
			e, store := newTestEngine(t, client, Targets{})
			addAccount(t, store, "Main#EUW", func(a *account.Account) {
				a.BlueEssence = 5000
				a.RiotPoints = 700
				a.SkinCount = 9
			})

			res, err := e.RefreshStats(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantBE, res.Account.BlueEssence)
			assert.Equal(t, tt.wantRP, res.Account.RiotPoints)
			assert.Equal(t, 200, res.Account.Level)

			if tt.skinErr != nil {
				assert.Equal(t, 9, res.Account.SkinCount)
			} else {
				assert.Equal(t, 12, res.Account.SkinCount)
			}
		})
	}
}

func TestRefreshStatsBindsFocusedAccount(t *testing.T) {
	client := &fakeClient{
		discoverOK: true,
		summoner:   lcu.Summoner{GameName: "Renamed", TagLine: "EUW", SummonerLevel: 31},
		wallet:     lcu.Wallet{BlueEssence: 100, RiotPoints: 0},
	}
	e, store := newTestEngine(t, client, Targets{})
	acc := addAccount(t, store, "OldName#EUW", nil)

	_, err := e.RefreshStats(context.Background())
	assert.ErrorIs(t, err, ErrNoMatchingAccount)

	e.SetFocus(acc.ID)
	res, err := e.RefreshStats(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Bound)
	assert.Equal(t, "Renamed#EUW", res.Account.RiotHandle)
	assert.Equal(t, 31, res.Account.Level)

	e.ClearFocus()
	res, err = e.RefreshStats(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Bound)
}

func TestRefreshStatsRetriesDiscovery(t *testing.T) {
	client := &fakeClient{discoverOK: false}
	e, _ := newTestEngine(t, client, Targets{})

	var sleeps []time.Duration
	e.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps = append(sleeps, d)
		return nil
	}

	_, err := e.RefreshStats(context.Background())
	assert.ErrorIs(t, err, ErrClientUnavailable)
	assert.Equal(t, 5, client.discovers)
	assert.Equal(t, []time.Duration{time.Second, time.Second, time.Second, time.Second}, sleeps)
}

func TestRefreshStatsRetriesSummoner(t *testing.T) {
	client := &fakeClient{
		discoverOK:  true,
		summonerErr: fmt.Errorf("%w: 404", lcu.ErrUnexpectedStatus),
	}
	e, _ := newTestEngine(t, client, Targets{})

	_, err := e.RefreshStats(context.Background())
	assert.ErrorIs(t, err, ErrClientUnavailable)
	assert.Equal(t, 5, client.summonerHit)
}

func TestRefreshStatsCancelled(t *testing.T) {
	client := &fakeClient{discoverOK: false}
	e, _ := newTestEngine(t, client, Targets{})
	e.sleep = sleepContext

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.RefreshStats(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, client.discovers)
}
