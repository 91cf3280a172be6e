package account

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/0xmhha/lcu-keeper/pkg/logger"
	"github.com/0xmhha/lcu-keeper/pkg/storage"
	"github.com/0xmhha/lcu-keeper/pkg/vault"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyRepository fails writes while failWrites is set.
type flakyRepository struct {
	storage.Repository
	mu         sync.Mutex
	failWrites bool
	writes     int
}

func (f *flakyRepository) Write(name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("disk full")
	}
	f.writes++
	return f.Repository.Write(name, data)
}

func (f *flakyRepository) Replace(name string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWrites {
		return errors.New("disk full")
	}
	f.writes++
	return f.Repository.Replace(name, data)
}

func (f *flakyRepository) setFail(fail bool) {
	f.mu.Lock()
	f.failWrites = fail
	f.mu.Unlock()
}

func testVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New(bytes.Repeat([]byte{1}, vault.KeySize))
	require.NoError(t, err)
	return v
}

func newTestStore(t *testing.T) (*Store, *flakyRepository, *vault.Vault) {
	t.Helper()

	repo := &flakyRepository{Repository: storage.NewMemory()}
	v := testVault(t)
	s := NewStore(repo, v, logger.Noop())

	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	s.now = func() time.Time { return time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC) }

	require.NoError(t, s.Load())
	return s, repo, v
}

func storedDocument(t *testing.T, repo storage.Repository) []Account {
	t.Helper()
	data, err := repo.Read(DocumentName)
	require.NoError(t, err)

	var out []Account
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestStoreAddPersistsSealedSecret(t *testing.T) {
	s, repo, v := newTestStore(t)

	a, err := s.Add(Account{LoginID: " alpha ", LoginSecret: " pw1 ", RiotHandle: "Alpha#EUW", Server: "euw1"})
	require.NoError(t, err)

	assert.Equal(t, "id-1", a.ID)
	assert.Equal(t, "alpha", a.LoginID)
	assert.Equal(t, "pw1", a.LoginSecret)
	assert.Equal(t, "EUW1", a.Server)
	assert.Equal(t, DefaultRankTier, a.RankTier)
	assert.Equal(t, DefaultLastSeen, a.LastSeen)

	stored := storedDocument(t, repo)
	require.Len(t, stored, 1)
	assert.NotEqual(t, "pw1", stored[0].LoginSecret, "secret is sealed at rest")

	res := v.Decrypt(stored[0].LoginSecret)
	assert.Equal(t, vault.Decrypted, res.Status)
	assert.Equal(t, "pw1", res.Text)
}

func TestStoreAddValidation(t *testing.T) {
	s, _, _ := newTestStore(t)

	tests := []Account{
		{LoginSecret: "pw", RiotHandle: "x#1"},
		{LoginID: "id", RiotHandle: "x#1"},
		{LoginID: "id", LoginSecret: "pw", RiotHandle: "   "},
	}
	for i, a := range tests {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := s.Add(a)
			assert.ErrorIs(t, err, ErrMissingField)
		})
	}

	a, err := s.Add(Account{LoginID: "id", LoginSecret: "pw", RiotHandle: "x#1"})
	require.NoError(t, err)
	assert.Equal(t, DefaultServer, a.Server)
}

func TestStoreLoadRoundTrip(t *testing.T) {
	s, repo, v := newTestStore(t)

	_, err := s.Add(Account{LoginID: "alpha", LoginSecret: "şifre", RiotHandle: "Alpha#EUW"})
	require.NoError(t, err)

	reloaded := NewStore(repo, v, logger.Noop())
	require.NoError(t, reloaded.Load())

	got := reloaded.List()
	require.Len(t, got, 1)
	assert.Equal(t, "şifre", got[0].LoginSecret)
	assert.Equal(t, "id-1", got[0].ID)
}

func TestStoreLoadLegacyDocument(t *testing.T) {
	repo := storage.NewMemory()
	legacy := `[{"login_id":"old","login_pw":"plaintext","riot_id":"Old#TR1","server":"TR1"}]`
	require.NoError(t, repo.Write(DocumentName, []byte(legacy)))

	s := NewStore(repo, testVault(t), logger.Noop())
	s.newID = func() string { return "generated" }
	require.NoError(t, s.Load())

	got := s.List()
	require.Len(t, got, 1)
	assert.Equal(t, "plaintext", got[0].LoginSecret, "undecryptable secrets pass through")
	assert.Equal(t, DefaultRankTier, got[0].RankTier)
	assert.Equal(t, DefaultLastSeen, got[0].LastSeen)
	assert.Equal(t, "generated", got[0].ID)

	// Assigning ids persisted the document, now sealed.
	stored := storedDocument(t, repo)
	assert.Equal(t, "generated", stored[0].ID)
	assert.NotEqual(t, "plaintext", stored[0].LoginSecret)
}

func TestStoreLoadCorrupt(t *testing.T) {
	repo := storage.NewMemory()
	require.NoError(t, repo.Write(DocumentName, []byte("{not json")))

	s := NewStore(repo, testVault(t), logger.Noop())
	assert.ErrorIs(t, s.Load(), ErrCorrupt)
}

func TestStoreGetUpdateDelete(t *testing.T) {
	s, repo, _ := newTestStore(t)

	a, err := s.Add(Account{LoginID: "alpha", LoginSecret: "pw", RiotHandle: "Alpha#EUW"})
	require.NoError(t, err)
	b, err := s.Add(Account{LoginID: "bravo", LoginSecret: "pw", RiotHandle: "Bravo#EUW"})
	require.NoError(t, err)

	a.Note = "main"
	a.LoginSecret = "new-secret"
	require.NoError(t, s.Update(a))

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "main", got.Note)
	assert.Equal(t, "new-secret", got.LoginSecret)

	require.NoError(t, s.Delete(a.ID))
	_, err = s.Get(a.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Delete(a.ID), ErrNotFound)
	assert.ErrorIs(t, s.Update(Account{ID: "missing", LoginID: "x", LoginSecret: "y", RiotHandle: "z"}), ErrNotFound)

	stored := storedDocument(t, repo)
	require.Len(t, stored, 1)
	assert.Equal(t, b.ID, stored[0].ID)
}

func TestStoreRollbackOnWriteFailure(t *testing.T) {
	s, repo, _ := newTestStore(t)

	a, err := s.Add(Account{LoginID: "alpha", LoginSecret: "pw", RiotHandle: "Alpha#EUW"})
	require.NoError(t, err)

	repo.setFail(true)

	_, err = s.Add(Account{LoginID: "bravo", LoginSecret: "pw", RiotHandle: "Bravo#EUW"})
	assert.ErrorIs(t, err, ErrPersist)
	assert.Equal(t, 1, s.Len())

	_, err = s.Mutate(a.ID, func(acc *Account) { acc.Level = 99 })
	assert.ErrorIs(t, err, ErrPersist)
	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Level)

	assert.ErrorIs(t, s.Delete(a.ID), ErrPersist)
	assert.Equal(t, 1, s.Len())

	repo.setFail(false)
	_, err = s.Mutate(a.ID, func(acc *Account) { acc.Level = 99 })
	require.NoError(t, err)
}

func TestStoreFindByHandle(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.Add(Account{LoginID: "tr", LoginSecret: "pw", RiotHandle: "Şükrü Usta#TR1", Server: "TR1"})
	require.NoError(t, err)

	got, ok := s.FindByHandle("sukruusta#tr1")
	assert.True(t, ok)
	assert.Equal(t, "tr", got.LoginID)

	_, ok = s.FindByHandle("nobody#tr1")
	assert.False(t, ok)
	_, ok = s.FindByHandle("")
	assert.False(t, ok)
}

func TestStoreRecordStats(t *testing.T) {
	s, _, _ := newTestStore(t)

	a, err := s.Add(Account{LoginID: "alpha", LoginSecret: "pw", RiotHandle: "Alpha#EUW"})
	require.NoError(t, err)
	_, err = s.Mutate(a.ID, func(acc *Account) {
		acc.BlueEssence = 700
		acc.RiotPoints = 40
	})
	require.NoError(t, err)

	got, err := s.RecordStats(a.ID, Stats{Level: 33, SkinCount: 8, SkinsKnown: true})
	require.NoError(t, err)

	assert.Equal(t, 33, got.Level)
	assert.Equal(t, 700, got.BlueEssence)
	assert.Equal(t, 40, got.RiotPoints)
	assert.Equal(t, 8, got.SkinCount)
	assert.Equal(t, "2025-03-01 18:30", got.LastSeen)
}

func TestStoreBindHandleAndRank(t *testing.T) {
	s, _, _ := newTestStore(t)

	a, err := s.Add(Account{LoginID: "alpha", LoginSecret: "pw", RiotHandle: "Old#EUW"})
	require.NoError(t, err)

	got, err := s.BindHandle(a.ID, " New#EUW ")
	require.NoError(t, err)
	assert.Equal(t, "New#EUW", got.RiotHandle)

	_, err = s.BindHandle(a.ID, "")
	assert.ErrorIs(t, err, ErrMissingField)

	got, err = s.SetRank(a.ID, Rank{Tier: "PLATINUM", Division: "II", LP: 44, Winrate: "51%"})
	require.NoError(t, err)
	assert.Equal(t, 4244, Score(got))

	_, err = s.SetRank(a.ID, Rank{Tier: "WOOD"})
	assert.ErrorIs(t, err, ErrInvalidRank)
	_, err = s.SetRank(a.ID, Rank{Tier: "GOLD", Division: "V"})
	assert.ErrorIs(t, err, ErrInvalidRank)
}

func TestStoreApplyRanksSingleWrite(t *testing.T) {
	s, repo, _ := newTestStore(t)

	a, err := s.Add(Account{LoginID: "a", LoginSecret: "pw", RiotHandle: "A#1"})
	require.NoError(t, err)
	b, err := s.Add(Account{LoginID: "b", LoginSecret: "pw", RiotHandle: "B#1"})
	require.NoError(t, err)

	before := repo.writes
	n, err := s.ApplyRanks(map[string]Rank{
		a.ID:      {Tier: "GOLD", Division: "I"},
		b.ID:      {Tier: "IRON", Division: "IV"},
		"missing": {Tier: "MASTER"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, before+1, repo.writes)

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "GOLD", got.RankTier)
}

func TestStoreExportImport(t *testing.T) {
	s, repo, v := newTestStore(t)

	_, err := s.Add(Account{LoginID: "alpha", LoginSecret: "pw-a", RiotHandle: "Alpha#EUW"})
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))
	assert.Contains(t, buf.String(), `"login_pw": "pw-a"`, "exports carry clear text secrets")

	sealed, err := v.Encrypt("pw-c")
	require.NoError(t, err)
	backup := fmt.Sprintf(`[
		{"login_id":"bravo","login_pw":"pw-b","riot_id":"Bravo#TR1","server":"TR1"},
		{"id":"keep","login_id":"charlie","login_pw":%q,"riot_id":"Charlie#NA1","server":"NA1","rank_tier":"GOLD"}
	]`, sealed)

	n, err := s.Import(strings.NewReader(backup))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got := s.List()
	require.Len(t, got, 2)
	assert.Equal(t, "pw-b", got[0].LoginSecret)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, DefaultRankTier, got[0].RankTier)
	assert.Equal(t, "keep", got[1].ID)
	assert.Equal(t, "pw-c", got[1].LoginSecret, "sealed secrets are opened on import")

	prev, err := repo.Previous(DocumentName)
	require.NoError(t, err)
	assert.Contains(t, string(prev), "alpha", "replaced collection is kept as a snapshot")
}

func TestStoreImportRejectsInvalid(t *testing.T) {
	s, _, _ := newTestStore(t)
	_, err := s.Add(Account{LoginID: "alpha", LoginSecret: "pw", RiotHandle: "Alpha#EUW"})
	require.NoError(t, err)

	inputs := map[string]string{
		"not json":       "nope",
		"object":         `{"login_id":"x"}`,
		"empty list":     `[]`,
		"no login_id":    `[{"riot_id":"x#1"}]`,
		"not objects":    `[1,2,3]`,
		"bad field type": `[{"login_id":"x","lp":"ten"}]`,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			_, err := s.Import(strings.NewReader(in))
			assert.ErrorIs(t, err, ErrInvalidImport)
			assert.Equal(t, 1, s.Len(), "collection untouched")
		})
	}
}

func TestStoreConcurrentMutations(t *testing.T) {
	s, _, _ := newTestStore(t)
	a, err := s.Add(Account{LoginID: "alpha", LoginSecret: "pw", RiotHandle: "Alpha#EUW"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Mutate(a.ID, func(acc *Account) { acc.Level++ })
		}()
	}
	wg.Wait()

	got, err := s.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, got.Level)
}

func TestStoreRestore(t *testing.T) {
	s, _, _ := newTestStore(t)

	_, err := s.Restore()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	_, err = s.Add(Account{LoginID: "alpha", LoginSecret: "pw-a", RiotHandle: "Alpha#EUW"})
	require.NoError(t, err)
	_, err = s.Import(strings.NewReader(`[{"login_id":"bravo","login_pw":"pw-b","riot_id":"Bravo#TR1"}]`))
	require.NoError(t, err)

	n, err := s.Restore()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got := s.List()
	require.Len(t, got, 1)
	assert.Equal(t, "alpha", got[0].LoginID)
	assert.Equal(t, "pw-a", got[0].LoginSecret)

	// Restoring again swaps back to the imported collection.
	_, err = s.Restore()
	require.NoError(t, err)
	got = s.List()
	require.Len(t, got, 1)
	assert.Equal(t, "bravo", got[0].LoginID)

	info, err := s.Revision()
	require.NoError(t, err)
	assert.True(t, info.HasPrevious)
	assert.Equal(t, uint64(4), info.Revision)
}

func TestStoreSharedRepository(t *testing.T) {
	repo := storage.NewMemory()
	v := testVault(t)

	long := NewStore(repo, v, logger.Noop())
	require.NoError(t, long.Load())
	a, err := long.Add(Account{LoginID: "alpha", LoginSecret: "pw", RiotHandle: "Alpha#EUW"})
	require.NoError(t, err)

	short := NewStore(repo, v, logger.Noop())
	require.NoError(t, short.Load())
	b, err := short.Add(Account{LoginID: "bravo", LoginSecret: "pw", RiotHandle: "Bravo#EUW"})
	require.NoError(t, err)

	// The long-lived store sees the other writer before its next change.
	found, ok := long.FindByHandle("bravo#euw")
	require.True(t, ok)
	assert.Equal(t, b.ID, found.ID)

	_, err = long.RecordStats(a.ID, Stats{Level: 30})
	require.NoError(t, err)

	require.NoError(t, short.Load())
	got := short.List()
	require.Len(t, got, 2)
	assert.Equal(t, 30, got[0].Level)
	assert.Equal(t, "bravo", got[1].LoginID)
}
