package vault

import (
	"bytes"
	"encoding/base64"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVault(t *testing.T) *Vault {
	t.Helper()
	v, err := New(bytes.Repeat([]byte{7}, KeySize))
	require.NoError(t, err)
	return v
}

func TestRoundTrip(t *testing.T) {
	v := newTestVault(t)

	tests := []struct {
		name      string
		plaintext string
	}{
		{"ascii", "hunter2"},
		{"empty", ""},
		{"turkish", "şifreĞüçlü"},
		{"emoji", "pässwörd 🔑"},
		{"colon and spaces", "a:b c:d"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := v.Encrypt(tt.plaintext)
			require.NoError(t, err)
			assert.NotEqual(t, tt.plaintext, sealed)

			res := v.Decrypt(sealed)
			assert.Equal(t, Decrypted, res.Status)
			assert.Equal(t, tt.plaintext, res.Text)
		})
	}
}

func TestEncryptUsesFreshNonce(t *testing.T) {
	v := newTestVault(t)

	a, err := v.Encrypt("same")
	require.NoError(t, err)
	b, err := v.Encrypt("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestDecryptPassThrough(t *testing.T) {
	v := newTestVault(t)

	other, err := New(bytes.Repeat([]byte{9}, KeySize))
	require.NoError(t, err)
	foreign, err := other.Encrypt("not yours")
	require.NoError(t, err)

	sealed, err := v.Encrypt("secret")
	require.NoError(t, err)
	raw, err := base64.RawStdEncoding.DecodeString(sealed)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0xff
	tampered := base64.RawStdEncoding.EncodeToString(raw)

	inputs := map[string]string{
		"plaintext":   "plain old password",
		"empty":       "",
		"short":       base64.RawStdEncoding.EncodeToString([]byte("tiny")),
		"foreign key": foreign,
		"tampered":    tampered,
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			res := v.Decrypt(in)
			assert.Equal(t, PassThrough, res.Status)
			assert.Equal(t, in, res.Text)
			assert.Equal(t, in, v.Reveal(in))
		})
	}
}

func TestEncryptEntropyFailure(t *testing.T) {
	v := newTestVault(t)
	v.rand = failingReader{}

	_, err := v.Encrypt("x")
	assert.ErrorIs(t, err, ErrEntropy)
}

func TestNewRejectsBadKey(t *testing.T) {
	_, err := New([]byte("short"))
	assert.ErrorIs(t, err, ErrKeyLength)
}

func TestLoadOrCreateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "secret.key")

	first, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Len(t, first, KeySize)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	second, err := LoadOrCreateKey(path)
	require.NoError(t, err)
	assert.Equal(t, first, second, "existing key is reused")
}

func TestLoadOrCreateKeyWrongLength(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")
	require.NoError(t, os.WriteFile(path, []byte("too short"), 0600))

	_, err := LoadOrCreateKey(path)
	assert.ErrorIs(t, err, ErrKeyLength)
}

func TestCreateKeyEntropyFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")

	_, err := createKey(path, failingReader{})
	assert.ErrorIs(t, err, ErrEntropy)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "no key file is left behind")
}

func TestOpenSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secret.key")

	v1, err := Open(path)
	require.NoError(t, err)
	sealed, err := v1.Encrypt("persisted")
	require.NoError(t, err)

	v2, err := Open(path)
	require.NoError(t, err)
	res := v2.Decrypt(sealed)
	assert.Equal(t, Decrypted, res.Status)
	assert.Equal(t, "persisted", res.Text)
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "decrypted", Decrypted.String())
	assert.Equal(t, "pass-through", PassThrough.String())
	assert.Equal(t, "unknown", Status(42).String())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("no entropy")
}
