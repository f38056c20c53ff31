// Package testsupport provides shared fixtures: temporary configuration
// stores, legacy database builders, and a fake index provider.
package testsupport

import (
	"path/filepath"
	"testing"

	"madrigal/internal/auth"
	"madrigal/internal/config"
)

// StoreOption customizes the generated test store.
type StoreOption func(*storeBuilder)

type storeBuilder struct {
	t      testing.TB
	store  *config.Store
	secret auth.Secret
}

// NewStore opens a configuration store backed by a file in a unique temp
// directory and applies any provided options.
func NewStore(t testing.TB, opts ...StoreOption) *config.Store {
	t.Helper()

	secret, err := auth.GenerateSecret()
	if err != nil {
		t.Fatalf("generate secret: %v", err)
	}
	path := filepath.Join(t.TempDir(), "madrigal.toml")
	store, err := config.Open(path, secret, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}

	builder := &storeBuilder{t: t, store: store, secret: secret}
	for _, opt := range opts {
		opt(builder)
	}
	return store
}

// WithUser registers a user on the test store.
func WithUser(name, password string, admin bool) StoreOption {
	return func(b *storeBuilder) {
		if err := b.store.CreateUser(name, password, admin); err != nil {
			b.t.Fatalf("create user %q: %v", name, err)
		}
	}
}

// WithMounts installs a mount table on the test store.
func WithMounts(mounts ...config.MountDir) StoreOption {
	return func(b *storeBuilder) {
		if err := b.store.SetMounts(mounts); err != nil {
			b.t.Fatalf("set mounts: %v", err)
		}
	}
}
