package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// SecretSize is the fixed width of the server signing secret in bytes.
const SecretSize = 32

// Secret is the server-wide key used to sign bearer tokens.
type Secret [SecretSize]byte

// GenerateSecret returns a fresh random secret.
func GenerateSecret() (Secret, error) {
	var secret Secret
	if _, err := rand.Read(secret[:]); err != nil {
		return Secret{}, fmt.Errorf("generate auth secret: %w", err)
	}
	return secret, nil
}

// SecretFromBytes validates and copies a raw secret blob.
func SecretFromBytes(raw []byte) (Secret, error) {
	if len(raw) != SecretSize {
		return Secret{}, fmt.Errorf("auth secret must be %d bytes, got %d", SecretSize, len(raw))
	}
	var secret Secret
	copy(secret[:], raw)
	return secret, nil
}

// LoadOrCreateSecret reads the secret stored at path, generating and
// persisting a new one when the file does not exist yet.
func LoadOrCreateSecret(path string) (Secret, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		secret, err := SecretFromBytes(raw)
		if err != nil {
			return Secret{}, fmt.Errorf("auth secret %s: %w", path, err)
		}
		return secret, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return Secret{}, fmt.Errorf("read auth secret %s: %w", path, err)
	}

	secret, err := GenerateSecret()
	if err != nil {
		return Secret{}, err
	}
	if err := WriteSecret(path, secret); err != nil {
		return Secret{}, err
	}
	return secret, nil
}

// WriteSecret persists a secret at path, replacing any existing one.
func WriteSecret(path string, secret Secret) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create secret directory %q: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, secret[:], 0o600); err != nil {
		return fmt.Errorf("write auth secret %s: %w", path, err)
	}
	return nil
}
