package vault

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LoadOrCreateKey returns the raw key stored at path.
//
// When the file does not exist a new random key is generated and written
// with 0600 permissions before it is returned, so a key is never used
// without being persisted first. Any I/O failure is returned and callers
// are expected to treat it as fatal.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path) // nolint:gosec
	switch {
	case err == nil:
		if len(key) != KeySize {
			return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", ErrKeyLength, path, len(key), KeySize)
		}
		return key, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: read %s: %v", ErrKeyFile, path, err)
	}

	return createKey(path, rand.Reader)
}

func createKey(path string, entropy io.Reader) ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(entropy, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEntropy, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: create key directory: %v", ErrKeyFile, err)
	}

	// O_EXCL so two processes racing on first start cannot overwrite each other.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600) // nolint:gosec
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return LoadOrCreateKey(path)
		}
		return nil, fmt.Errorf("%w: create %s: %v", ErrKeyFile, path, err)
	}

	if _, err := f.Write(key); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: write %s: %v", ErrKeyFile, path, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: close %s: %v", ErrKeyFile, path, err)
	}

	return key, nil
}
