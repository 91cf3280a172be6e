// Package storage provides whole-document persistence on BoltDB.
//
// A document is an opaque byte slice (JSON in practice) stored under a
// name. Every write replaces the full document in a single transaction, so
// readers see either the old or the new version and never a mix.
// Replace additionally keeps the document it overwrote as a snapshot that
// can be read back with Previous.
//
// The database file is locked only while an operation runs, so a
// long-running process and short commands can use the same file.
//
// Example usage:
//
//	repo, err := storage.Open(storage.Config{
//	    DBPath: "~/.config/lcu-keeper/accounts.db",
//	}, logger.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	if err := repo.Write("accounts", data); err != nil {
//	    log.Fatal(err)
//	}
package storage

import "time"

// Info describes the stored state of a document.
type Info struct {
	// Name of the document.
	Name string `json:"name"`

	// Revision increases by one on every write.
	Revision uint64 `json:"revision"`

	// UpdatedAt is the time of the last write.
	UpdatedAt time.Time `json:"updated_at"`

	// Size of the current document in bytes.
	Size int `json:"size"`

	// HasPrevious is true when a snapshot from Replace exists.
	HasPrevious bool `json:"has_previous"`
}

// Repository stores named documents.
type Repository interface {
	// Read returns the current document or ErrNotFound.
	Read(name string) ([]byte, error)

	// Write stores data as the current document.
	Write(name string, data []byte) error

	// Replace stores data and keeps the overwritten document as a snapshot.
	Replace(name string, data []byte) error

	// Previous returns the snapshot saved by the last Replace or ErrNotFound.
	Previous(name string) ([]byte, error)

	// Info returns write metadata for a document or ErrNotFound.
	Info(name string) (Info, error)

	// Close releases the repository. Later calls fail with ErrClosed.
	Close() error
}

// Config contains repository configuration.
type Config struct {
	// DBPath is the BoltDB file path. A leading ~ is expanded.
	DBPath string

	// Timeout for acquiring the database file lock on each operation
	// (default: 5 seconds).
	Timeout time.Duration
}
