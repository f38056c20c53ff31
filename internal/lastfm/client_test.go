package lastfm_test

import (
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"madrigal/internal/lastfm"
)

type fakeDoer struct {
	status   int
	body     string
	err      error
	lastForm map[string]string
}

func (f *fakeDoer) Do(req *http.Request) (*http.Response, error) {
	if f.err != nil {
		return nil, f.err
	}
	if err := req.ParseForm(); err != nil {
		return nil, err
	}
	f.lastForm = make(map[string]string)
	for key := range req.PostForm {
		f.lastForm[key] = req.PostForm.Get(key)
	}
	status := f.status
	if status == 0 {
		status = http.StatusOK
	}
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(f.body)),
	}, nil
}

func TestAuthenticateWithToken(t *testing.T) {
	doer := &fakeDoer{body: `{"session":{"name":"remote_user","key":"session-key"}}`}
	client := lastfm.NewClient("key", "secret", lastfm.WithHTTPDoer(doer))

	session, err := client.AuthenticateWithToken(context.Background(), "one-time-token")
	if err != nil {
		t.Fatalf("AuthenticateWithToken returned error: %v", err)
	}
	if session.Username != "remote_user" || session.Key != "session-key" {
		t.Fatalf("unexpected session: %+v", session)
	}
	if doer.lastForm["method"] != "auth.getSession" || doer.lastForm["token"] != "one-time-token" {
		t.Fatalf("unexpected request form: %+v", doer.lastForm)
	}
	if doer.lastForm["format"] != "json" {
		t.Fatalf("expected json format parameter, got %+v", doer.lastForm)
	}

	// api_sig covers every parameter except format, in key order, then the
	// shared secret.
	expected := fmt.Sprintf("%x", md5.Sum([]byte(
		"api_key"+"key"+"method"+"auth.getSession"+"token"+"one-time-token"+"secret",
	)))
	if doer.lastForm["api_sig"] != expected {
		t.Fatalf("unexpected signature %q, want %q", doer.lastForm["api_sig"], expected)
	}
}

func TestAuthenticateWithTokenServiceError(t *testing.T) {
	doer := &fakeDoer{body: `{"error":4,"message":"Invalid authentication token supplied"}`}
	client := lastfm.NewClient("key", "secret", lastfm.WithHTTPDoer(doer))

	_, err := client.AuthenticateWithToken(context.Background(), "bad-token")
	if !errors.Is(err, lastfm.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
}

func TestScrobbleSendsTrackAndTimestamp(t *testing.T) {
	doer := &fakeDoer{body: `{}`}
	clock := func() time.Time { return time.Unix(1700000000, 0) }
	client := lastfm.NewClient("key", "secret", lastfm.WithHTTPDoer(doer), lastfm.WithClock(clock))

	track := lastfm.Track{Artist: "Stratovarius", Title: "Hunting High and Low", Album: "Infinite"}
	if err := client.Scrobble(context.Background(), "session-key", track); err != nil {
		t.Fatalf("Scrobble returned error: %v", err)
	}
	form := doer.lastForm
	if form["method"] != "track.scrobble" || form["sk"] != "session-key" {
		t.Fatalf("unexpected request form: %+v", form)
	}
	if form["artist"] != track.Artist || form["track"] != track.Title || form["album"] != track.Album {
		t.Fatalf("track metadata missing from request: %+v", form)
	}
	if form["timestamp"] != "1700000000" {
		t.Fatalf("unexpected timestamp: %q", form["timestamp"])
	}
}

func TestNowPlayingTransportFailure(t *testing.T) {
	doer := &fakeDoer{err: errors.New("connection refused")}
	client := lastfm.NewClient("key", "secret", lastfm.WithHTTPDoer(doer))

	err := client.NowPlaying(context.Background(), "session-key", lastfm.Track{Title: "Song"})
	if !errors.Is(err, lastfm.ErrNowPlaying) {
		t.Fatalf("expected ErrNowPlaying, got %v", err)
	}
}

func TestScrobbleHTTPErrorStatus(t *testing.T) {
	doer := &fakeDoer{status: http.StatusBadGateway, body: "upstream sad"}
	client := lastfm.NewClient("key", "secret", lastfm.WithHTTPDoer(doer))

	err := client.Scrobble(context.Background(), "session-key", lastfm.Track{Title: "Song"})
	if !errors.Is(err, lastfm.ErrScrobble) {
		t.Fatalf("expected ErrScrobble, got %v", err)
	}
}
