package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/0xmhha/lcu-keeper/pkg/logger"
	bolt "go.etcd.io/bbolt"
)

// Bucket names.
var (
	bucketDocuments = []byte("documents") // name -> current document
	bucketPrevious  = []byte("previous")  // name -> snapshot from Replace
	bucketInfo      = []byte("info")      // name -> Info (JSON)
)

// boltRepository opens the database file for the duration of each
// operation only, so several processes can share it. mu serializes
// operations within the process.
type boltRepository struct {
	path    string
	timeout time.Duration
	logger  logger.Logger
	now     func() time.Time

	mu     sync.Mutex
	closed bool
}

// Open prepares (creating if needed) a BoltDB repository.
func Open(cfg Config, log logger.Logger) (Repository, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	dbPath := expandHome(cfg.DBPath)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	r := &boltRepository{
		path:    dbPath,
		timeout: cfg.Timeout,
		logger:  log,
		now:     time.Now,
	}

	if err := r.update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketDocuments, bucketPrevious, bucketInfo} {
			if _, createErr := tx.CreateBucketIfNotExists(name); createErr != nil {
				return fmt.Errorf("failed to create %s bucket: %w", name, createErr)
			}
		}
		return nil
	}); err != nil {
		return nil, err
	}

	log.Debug("document store opened", "db_path", dbPath)
	return r, nil
}

func (r *boltRepository) view(fn func(*bolt.Tx) error) error {
	return r.with(true, fn)
}

func (r *boltRepository) update(fn func(*bolt.Tx) error) error {
	return r.with(false, fn)
}

// with opens the file, runs one transaction and closes it again.
func (r *boltRepository) with(readOnly bool, fn func(*bolt.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}

	db, err := bolt.Open(r.path, 0600, &bolt.Options{Timeout: r.timeout, ReadOnly: readOnly})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			r.logger.Warn("failed to close database", "error", closeErr)
		}
	}()

	if readOnly {
		return db.View(fn)
	}
	return db.Update(fn)
}

// Read implements Repository.Read.
func (r *boltRepository) Read(name string) ([]byte, error) {
	return r.get(bucketDocuments, name)
}

// Previous implements Repository.Previous.
func (r *boltRepository) Previous(name string) ([]byte, error) {
	return r.get(bucketPrevious, name)
}

func (r *boltRepository) get(bucket []byte, name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyName
	}

	var out []byte
	err := r.view(func(tx *bolt.Tx) error {
		data := tx.Bucket(bucket).Get([]byte(name))
		if data == nil {
			return ErrNotFound
		}
		// Bolt memory is only valid inside the transaction.
		out = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Write implements Repository.Write.
func (r *boltRepository) Write(name string, data []byte) error {
	return r.put(name, data, false)
}

// Replace implements Repository.Replace.
func (r *boltRepository) Replace(name string, data []byte) error {
	return r.put(name, data, true)
}

func (r *boltRepository) put(name string, data []byte, keepPrevious bool) error {
	if name == "" {
		return ErrEmptyName
	}

	key := []byte(name)

	err := r.update(func(tx *bolt.Tx) error {
		docs := tx.Bucket(bucketDocuments)
		prev := tx.Bucket(bucketPrevious)
		infos := tx.Bucket(bucketInfo)

		info := Info{Name: name}
		if raw := infos.Get(key); raw != nil {
			if err := json.Unmarshal(raw, &info); err != nil {
				r.logger.Warn("discarding unreadable document info", "name", name, "error", err)
				info = Info{Name: name}
			}
		}

		if keepPrevious {
			if current := docs.Get(key); current != nil {
				if err := prev.Put(key, append([]byte(nil), current...)); err != nil {
					return fmt.Errorf("failed to store snapshot: %w", err)
				}
				info.HasPrevious = true
			}
		}

		if err := docs.Put(key, data); err != nil {
			return fmt.Errorf("failed to store document: %w", err)
		}

		info.Revision++
		info.UpdatedAt = r.now()
		info.Size = len(data)

		encoded, err := json.Marshal(info)
		if err != nil {
			return fmt.Errorf("failed to marshal document info: %w", err)
		}
		if err := infos.Put(key, encoded); err != nil {
			return fmt.Errorf("failed to store document info: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Debug("document written",
		"name", name,
		"bytes", len(data),
		"snapshot", keepPrevious)

	return nil
}

// Info implements Repository.Info.
func (r *boltRepository) Info(name string) (Info, error) {
	raw, err := r.get(bucketInfo, name)
	if err != nil {
		return Info{}, err
	}

	var info Info
	if err := json.Unmarshal(raw, &info); err != nil {
		return Info{}, fmt.Errorf("failed to unmarshal document info: %w", err)
	}
	return info, nil
}

// Close implements Repository.Close. Later operations fail with ErrClosed.
func (r *boltRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
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
