package lastfm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"madrigal/internal/config"
	"madrigal/internal/index"
)

// Manager connects account state, the song index, and a Sink. It owns the
// link/unlink lifecycle and translates virtual paths into track metadata
// before anything is sent upstream.
type Manager struct {
	store    *config.Store
	provider index.Provider
	sink     Sink
	logger   *slog.Logger
}

// NewManager builds a Manager.
func NewManager(store *config.Store, provider index.Provider, sink Sink, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{store: store, provider: provider, sink: sink, logger: logger}
}

// GenerateLinkToken issues the single-purpose token a user hands to the
// link flow.
func (m *Manager) GenerateLinkToken(username string) (string, error) {
	return m.store.GenerateLinkToken(username)
}

// Link exchanges a last.fm authentication token for a session and stores
// the resulting credential on the user.
func (m *Manager) Link(ctx context.Context, username, lastfmToken string) error {
	session, err := m.sink.AuthenticateWithToken(ctx, lastfmToken)
	if err != nil {
		return err
	}
	if err := m.store.LinkLastFM(username, session.Username, session.Key); err != nil {
		return err
	}
	m.logger.Info("linked last.fm account", "user", username, "lastfm_user", session.Username)
	return nil
}

// Unlink discards any stored last.fm credential for the user.
func (m *Manager) Unlink(username string) error {
	return m.store.UnlinkLastFM(username)
}

// Scrobble records a finished listen of the song at the given virtual path.
func (m *Manager) Scrobble(ctx context.Context, username, virtualPath string) error {
	sessionKey, track, err := m.prepare(ctx, username, virtualPath)
	if err != nil {
		return err
	}
	return m.sink.Scrobble(ctx, sessionKey, track)
}

// NowPlaying announces the song at the given virtual path as playing now.
func (m *Manager) NowPlaying(ctx context.Context, username, virtualPath string) error {
	sessionKey, track, err := m.prepare(ctx, username, virtualPath)
	if err != nil {
		return err
	}
	return m.sink.NowPlaying(ctx, sessionKey, track)
}

func (m *Manager) prepare(ctx context.Context, username, virtualPath string) (string, Track, error) {
	sessionKey, err := m.store.LastFMSessionKey(username)
	if err != nil {
		return "", Track{}, err
	}
	track, err := m.lookupTrack(ctx, virtualPath)
	if err != nil {
		return "", Track{}, err
	}
	return sessionKey, track, nil
}

func (m *Manager) lookupTrack(ctx context.Context, virtualPath string) (Track, error) {
	results, err := m.provider.Songs(ctx, []string{virtualPath})
	if err != nil {
		return Track{}, fmt.Errorf("look up song %q: %w", virtualPath, err)
	}
	if len(results) != 1 {
		return Track{}, errors.New("index returned unexpected result count")
	}
	if results[0].Err != nil {
		return Track{}, results[0].Err
	}
	song := results[0].Song
	track := Track{Title: song.Title, Album: song.Album}
	if len(song.Artists) > 0 {
		track.Artist = song.Artists[0]
	}
	return track, nil
}
