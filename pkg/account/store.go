package account

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/0xmhha/lcu-keeper/pkg/logger"
	"github.com/0xmhha/lcu-keeper/pkg/storage"
	"github.com/0xmhha/lcu-keeper/pkg/vault"
	"github.com/google/uuid"
)

// DocumentName is the storage key of the account collection.
const DocumentName = "accounts"

// DefaultServer is used when an account is added without a server.
const DefaultServer = "EUW1"

// LastSeenLayout formats Account.LastSeen.
const LastSeenLayout = "2006-01-02 15:04"

// Sealer encrypts secrets before they are written.
type Sealer interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) vault.Result
}

// Store holds the account collection and persists every change.
//
// All methods are safe for concurrent use. Each mutation writes the whole
// collection; if that write fails the mutation is undone and the error
// wraps ErrPersist.
type Store struct {
	repo   storage.Repository
	sealer Sealer
	logger logger.Logger

	mu       sync.Mutex
	accounts []Account
	revision uint64

	newID func() string
	now   func() time.Time
}

// NewStore creates an empty store. Call Load to read persisted accounts.
func NewStore(repo storage.Repository, sealer Sealer, log logger.Logger) *Store {
	return &Store{
		repo:   repo,
		sealer: sealer,
		logger: log,
		newID:  uuid.NewString,
		now:    time.Now,
	}
}

// Load replaces the in-memory collection with the persisted one.
// A missing document loads as an empty collection.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.revision = 0
	return s.syncLocked()
}

// syncLocked reloads the collection when the stored document has a
// revision other than the one last read or written here, which happens
// when another process wrote it. s.mu must be held.
func (s *Store) syncLocked() error {
	info, err := s.repo.Info(DocumentName)
	if errors.Is(err, storage.ErrNotFound) {
		s.accounts = nil
		s.revision = 0
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read accounts: %w", err)
	}
	if s.revision != 0 && info.Revision == s.revision {
		return nil
	}

	data, err := s.repo.Read(DocumentName)
	if err != nil {
		return fmt.Errorf("failed to read accounts: %w", err)
	}
	stored, assigned, err := s.decode(data)
	if err != nil {
		return err
	}

	s.accounts = stored
	s.revision = info.Revision
	if assigned > 0 {
		if err := s.persistLocked(false); err != nil {
			return err
		}
	}

	s.logger.Debug("accounts loaded", "count", len(stored), "revision", info.Revision)
	return nil
}

// readLocked syncs before a read. A failed sync keeps the collection in
// memory.
func (s *Store) readLocked() {
	if err := s.syncLocked(); err != nil {
		s.logger.Warn("using cached accounts", "error", err)
	}
}

// decode opens secrets and fills defaults of a stored document. It
// returns the number of accounts that were given a new id.
func (s *Store) decode(data []byte) ([]Account, int, error) {
	var stored []Account
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	assigned := 0
	plain := 0
	for i := range stored {
		res := s.sealer.Decrypt(stored[i].LoginSecret)
		if res.Status == vault.PassThrough && stored[i].LoginSecret != "" {
			plain++
		}
		stored[i].LoginSecret = res.Text
		ApplyDefaults(&stored[i])
		if stored[i].ID == "" {
			stored[i].ID = s.newID()
			assigned++
		}
	}

	if plain > 0 {
		s.logger.Warn("some stored secrets could not be decrypted and are used as-is", "count", plain)
	}
	return stored, assigned, nil
}

// List returns a copy of all accounts in insertion order.
func (s *Store) List() []Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readLocked()
	return append([]Account(nil), s.accounts...)
}

// Len returns the number of accounts.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readLocked()
	return len(s.accounts)
}

// Get returns the account with the given id.
func (s *Store) Get(id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readLocked()

	i := s.indexLocked(id)
	if i < 0 {
		return Account{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.accounts[i], nil
}

// FindByHandle returns the first account whose handle normalizes to the
// same key as handle.
func (s *Store) FindByHandle(handle string) (Account, bool) {
	key := NormalizeHandle(handle)
	if key == "" {
		return Account{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.readLocked()

	for _, a := range s.accounts {
		if NormalizeHandle(a.RiotHandle) == key {
			return a, true
		}
	}
	return Account{}, false
}

// Filter applies Filter to the current collection.
func (s *Store) Filter(server, query string, descending bool) []Account {
	return Filter(s.List(), server, query, descending)
}

// Add validates a, assigns it an id and stores it.
func (s *Store) Add(a Account) (Account, error) {
	a = trimmed(a)
	if err := validate(a); err != nil {
		return Account{}, err
	}
	if a.Server == "" {
		a.Server = DefaultServer
	}
	ApplyDefaults(&a)
	a.ID = s.newID()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncLocked(); err != nil {
		return Account{}, err
	}

	prev := s.accounts
	s.accounts = append(append([]Account(nil), prev...), a)
	if err := s.persistLocked(false); err != nil {
		s.accounts = prev
		return Account{}, err
	}

	s.logger.Info("account added", "id", a.ID, "server", a.Server)
	return a, nil
}

// Update replaces the stored account with the same id.
func (s *Store) Update(a Account) error {
	a = trimmed(a)
	if err := validate(a); err != nil {
		return err
	}
	ApplyDefaults(&a)

	_, err := s.Mutate(a.ID, func(cur *Account) {
		*cur = a
	})
	return err
}

// Delete removes an account.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncLocked(); err != nil {
		return err
	}

	i := s.indexLocked(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	prev := s.accounts
	next := make([]Account, 0, len(prev)-1)
	next = append(next, prev[:i]...)
	s.accounts = append(next, prev[i+1:]...)

	if err := s.persistLocked(false); err != nil {
		s.accounts = prev
		return err
	}

	s.logger.Info("account deleted", "id", id)
	return nil
}

// Mutate applies fn to the account with the given id and persists the
// collection. The id itself cannot be changed by fn.
func (s *Store) Mutate(id string, fn func(*Account)) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncLocked(); err != nil {
		return Account{}, err
	}

	i := s.indexLocked(id)
	if i < 0 {
		return Account{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	prev := s.accounts
	next := append([]Account(nil), prev...)
	fn(&next[i])
	next[i].ID = id
	s.accounts = next

	if err := s.persistLocked(false); err != nil {
		s.accounts = prev
		return Account{}, err
	}
	return next[i], nil
}

// RecordStats merges a stats read into the account and stamps LastSeen.
func (s *Store) RecordStats(id string, stats Stats) (Account, error) {
	now := s.now()
	return s.Mutate(id, func(a *Account) {
		*a = MergeStats(*a, stats)
		a.LastSeen = now.Format(LastSeenLayout)
	})
}

// BindHandle sets the handle of an account.
func (s *Store) BindHandle(id, handle string) (Account, error) {
	handle = strings.TrimSpace(handle)
	if handle == "" {
		return Account{}, ErrMissingField
	}
	return s.Mutate(id, func(a *Account) {
		a.RiotHandle = handle
	})
}

// SetRank validates and stores a rank for one account.
func (s *Store) SetRank(id string, r Rank) (Account, error) {
	if err := validateRank(r); err != nil {
		return Account{}, err
	}
	return s.Mutate(id, func(a *Account) {
		*a = ApplyRank(*a, r)
	})
}

// ApplyRanks stores several rank results with a single write. Ids that no
// longer exist are skipped.
func (s *Store) ApplyRanks(ranks map[string]Rank) (int, error) {
	for id, r := range ranks {
		if err := validateRank(r); err != nil {
			return 0, fmt.Errorf("account %s: %w", id, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.syncLocked(); err != nil {
		return 0, err
	}

	prev := s.accounts
	next := append([]Account(nil), prev...)
	applied := 0
	for i := range next {
		if r, ok := ranks[next[i].ID]; ok {
			next[i] = ApplyRank(next[i], r)
			applied++
		}
	}
	if applied == 0 {
		return 0, nil
	}

	s.accounts = next
	if err := s.persistLocked(false); err != nil {
		s.accounts = prev
		return 0, err
	}
	return applied, nil
}

// Export writes the collection as an indented JSON array with secrets in
// clear text, in the backup format accepted by Import.
func (s *Store) Export(w io.Writer) error {
	accounts := s.List()
	if accounts == nil {
		accounts = []Account{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(accounts); err != nil {
		return fmt.Errorf("failed to encode accounts: %w", err)
	}
	return nil
}

// Import replaces the whole collection with a backup document.
//
// The document must be a non-empty JSON array whose first element has a
// login_id. Secrets may be sealed or clear text. The replaced collection
// is kept as a storage snapshot.
func (s *Store) Import(r io.Reader) (int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("failed to read backup: %w", err)
	}

	var probe []map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil || len(probe) == 0 {
		return 0, ErrInvalidImport
	}
	if _, ok := probe[0]["login_id"]; !ok {
		return 0, ErrInvalidImport
	}

	var incoming []Account
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&incoming); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidImport, err)
	}

	for i := range incoming {
		incoming[i].LoginSecret = s.sealer.Decrypt(incoming[i].LoginSecret).Text
		ApplyDefaults(&incoming[i])
		if incoming[i].ID == "" {
			incoming[i].ID = s.newID()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.accounts
	s.accounts = incoming
	if err := s.persistLocked(true); err != nil {
		s.accounts = prev
		return 0, err
	}

	s.logger.Info("accounts imported", "count", len(incoming), "replaced", len(prev))
	return len(incoming), nil
}

// Restore brings back the collection kept by the last Import or Restore.
// The collection it replaces becomes the new snapshot, so a second
// Restore undoes the first.
func (s *Store) Restore() (int, error) {
	data, err := s.repo.Previous(DocumentName)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrNoSnapshot
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot: %w", err)
	}

	restored, _, err := s.decode(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.accounts
	s.accounts = restored
	if err := s.persistLocked(true); err != nil {
		s.accounts = prev
		return 0, err
	}

	s.logger.Info("accounts restored", "count", len(restored), "replaced", len(prev))
	return len(restored), nil
}

// Revision returns the stored document's write metadata.
func (s *Store) Revision() (storage.Info, error) {
	return s.repo.Info(DocumentName)
}

// Save writes the current collection.
func (s *Store) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistLocked(false)
}

// persistLocked seals secrets and writes the collection. s.mu must be held.
func (s *Store) persistLocked(snapshot bool) error {
	sealed := make([]Account, len(s.accounts))
	for i, a := range s.accounts {
		ct, err := s.sealer.Encrypt(a.LoginSecret)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrPersist, err)
		}
		a.LoginSecret = ct
		sealed[i] = a
	}

	data, err := json.Marshal(sealed)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	write := s.repo.Write
	if snapshot {
		write = s.repo.Replace
	}
	if err := write(DocumentName, data); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}

	if info, err := s.repo.Info(DocumentName); err == nil {
		s.revision = info.Revision
	} else {
		// Unknown revision; the next operation reloads.
		s.revision = 0
	}
	return nil
}

func (s *Store) indexLocked(id string) int {
	if id == "" {
		return -1
	}
	for i := range s.accounts {
		if s.accounts[i].ID == id {
			return i
		}
	}
	return -1
}

func trimmed(a Account) Account {
	a.LoginID = strings.TrimSpace(a.LoginID)
	a.LoginSecret = strings.TrimSpace(a.LoginSecret)
	a.RiotHandle = strings.TrimSpace(a.RiotHandle)
	a.Server = strings.ToUpper(strings.TrimSpace(a.Server))
	a.Note = strings.TrimSpace(a.Note)
	return a
}

func validate(a Account) error {
	if a.LoginID == "" || a.LoginSecret == "" || a.RiotHandle == "" {
		return ErrMissingField
	}
	return nil
}

func validateRank(r Rank) error {
	if r.Tier != "" && !ValidTier(r.Tier) {
		return fmt.Errorf("%w: tier %q", ErrInvalidRank, r.Tier)
	}
	if !ValidDivision(r.Division) {
		return fmt.Errorf("%w: division %q", ErrInvalidRank, r.Division)
	}
	if r.LP < 0 {
		return fmt.Errorf("%w: negative lp", ErrInvalidRank)
	}
	return nil
}
