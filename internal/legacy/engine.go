package legacy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofrs/flock"

	"madrigal/internal/auth"
	"madrigal/internal/config"
	"madrigal/internal/index"
	"madrigal/internal/vpath"
)

// ErrMigrationRunning indicates another migration already holds the lock on
// the legacy database.
var ErrMigrationRunning = errors.New("a migration of this legacy database is already running")

// Engine drives a complete legacy import: settings, mounts, and users move
// through the configuration store's validation path as one unit, then
// playlists are reconstructed best-effort against the freshly imported
// mount table.
type Engine struct {
	store    *config.Store
	provider index.Provider
	logger   *slog.Logger
}

// Result summarizes a completed migration run. The caller decides what to
// do with the recovered secret and playlists, and whether to delete the
// legacy file afterwards.
type Result struct {
	Secret    auth.Secret
	Playlists []Playlist
}

// NewEngine builds a migration engine. provider may be nil, in which case
// playlist reconstruction is skipped.
func NewEngine(store *config.Store, provider index.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{store: store, provider: provider, logger: logger}
}

// Run executes the import. Any failure while reading the legacy store or
// installing the imported configuration aborts the whole run without
// partial writes; only per-song playlist recovery is lossy.
func (e *Engine) Run(ctx context.Context, dbPath string) (*Result, error) {
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock legacy database %s: %w", dbPath, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrMigrationRunning, dbPath)
	}
	defer func() { _ = lock.Unlock() }()

	secret, err := ReadAuthSecret(ctx, dbPath)
	if err != nil {
		return nil, err
	}

	file, err := ReadConfig(ctx, dbPath)
	if err != nil {
		return nil, err
	}
	e.logger.Info("read legacy configuration",
		"path", dbPath,
		"mounts", len(file.MountDirs),
		"users", len(file.Users),
	)

	if err := e.store.Apply(file); err != nil {
		return nil, fmt.Errorf("install imported configuration: %w", err)
	}

	result := &Result{Secret: secret}
	if e.provider == nil {
		return result, nil
	}

	mounts := make([]vpath.Mount, 0, len(file.MountDirs))
	for _, mount := range e.store.Mounts() {
		mounts = append(mounts, vpath.Mount{Name: mount.Name, Source: mount.Source})
	}
	playlists, err := ReadPlaylists(ctx, dbPath, mounts, e.provider)
	if err != nil {
		return nil, err
	}
	result.Playlists = playlists
	e.logger.Info("reconstructed legacy playlists", "playlists", len(playlists))
	return result, nil
}
