package lastfm

import (
	"context"
	"errors"
)

// Errors reported by a Sink. Each one identifies which remote operation
// failed; the wrapped detail carries the transport or service response.
var (
	ErrAuthentication = errors.New("failed to authenticate with last.fm")
	ErrScrobble       = errors.New("failed to emit last.fm scrobble")
	ErrNowPlaying     = errors.New("failed to emit last.fm now playing update")
)

// Session is a long-lived last.fm scrobbling credential obtained by
// exchanging a one-time authentication token.
type Session struct {
	Username string
	Key      string
}

// Track is the subset of song metadata last.fm cares about.
type Track struct {
	Artist string
	Title  string
	Album  string
}

// Sink sends listening activity to last.fm.
type Sink interface {
	AuthenticateWithToken(ctx context.Context, token string) (Session, error)
	Scrobble(ctx context.Context, sessionKey string, track Track) error
	NowPlaying(ctx context.Context, sessionKey string, track Track) error
}
