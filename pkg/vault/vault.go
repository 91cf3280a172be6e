// Package vault encrypts stored account secrets at rest.
//
// Secrets are sealed with AES-256-GCM under a key held in a local key file.
// Sealed values are encoded as base64(nonce || ciphertext) so they can be
// stored in JSON documents. Opening never fails: a value that does not
// decode or authenticate is handed back unchanged and flagged as
// PassThrough, which lets plaintext written by older tooling load cleanly.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// KeySize is the length in bytes of a vault key.
const KeySize = 32

// Status tells how Decrypt produced its text.
type Status int

const (
	// Decrypted means the input was a valid sealed value.
	Decrypted Status = iota

	// PassThrough means the input could not be opened and is returned as-is.
	PassThrough
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case Decrypted:
		return "decrypted"
	case PassThrough:
		return "pass-through"
	default:
		return "unknown"
	}
}

// Result is the outcome of Decrypt.
type Result struct {
	Text   string
	Status Status
}

// Vault seals and opens secrets with a single key.
type Vault struct {
	aead cipher.AEAD
	rand io.Reader
}

// New builds a vault from a raw key of KeySize bytes.
func New(key []byte) (*Vault, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrKeyLength, len(key), KeySize)
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}

	return &Vault{aead: aead, rand: rand.Reader}, nil
}

// Open loads or creates the key file at keyPath and returns a vault for it.
func Open(keyPath string) (*Vault, error) {
	key, err := LoadOrCreateKey(keyPath)
	if err != nil {
		return nil, err
	}
	return New(key)
}

// Encrypt seals plaintext. It fails only if the entropy source fails.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	nonce := make([]byte, v.aead.NonceSize())
	if _, err := io.ReadFull(v.rand, nonce); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropy, err)
	}

	sealed := v.aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.RawStdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a sealed value. Anything that is not a valid sealed value
// under this vault's key comes back unchanged with Status PassThrough.
func (v *Vault) Decrypt(ciphertext string) Result {
	passThrough := Result{Text: ciphertext, Status: PassThrough}

	payload, err := base64.RawStdEncoding.DecodeString(ciphertext)
	if err != nil {
		return passThrough
	}

	nonceSize := v.aead.NonceSize()
	if len(payload) < nonceSize+v.aead.Overhead() {
		return passThrough
	}

	plaintext, err := v.aead.Open(nil, payload[:nonceSize], payload[nonceSize:], nil)
	if err != nil {
		return passThrough
	}

	return Result{Text: string(plaintext), Status: Decrypted}
}

// Reveal is Decrypt without the status.
func (v *Vault) Reveal(ciphertext string) string {
	return v.Decrypt(ciphertext).Text
}
