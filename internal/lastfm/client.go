package lastfm

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const defaultAPIBase = "https://ws.audioscrobbler.com/2.0/"

// HTTPDoer describes the HTTP client used to reach the last.fm API.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the audioscrobbler v2 API. Every request is signed with
// the shared application secret as the protocol requires.
type Client struct {
	apiKey    string
	apiSecret string
	baseURL   string
	client    HTTPDoer
	now       func() time.Time
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPDoer overrides the HTTP client, primarily for tests.
func WithHTTPDoer(doer HTTPDoer) ClientOption {
	return func(c *Client) { c.client = doer }
}

// WithBaseURL overrides the API endpoint, primarily for tests.
func WithBaseURL(base string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(base, "/") + "/" }
}

// WithClock overrides the scrobble timestamp source.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) { c.now = now }
}

// NewClient builds a Sink backed by the public last.fm service.
func NewClient(apiKey, apiSecret string, opts ...ClientOption) *Client {
	c := &Client{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   defaultAPIBase,
		client:    http.DefaultClient,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AuthenticateWithToken exchanges a browser-approved token for a session.
func (c *Client) AuthenticateWithToken(ctx context.Context, token string) (Session, error) {
	params := map[string]string{
		"method": "auth.getSession",
		"token":  token,
	}
	var payload struct {
		Session struct {
			Name string `json:"name"`
			Key  string `json:"key"`
		} `json:"session"`
	}
	if err := c.call(ctx, params, &payload); err != nil {
		return Session{}, fmt.Errorf("%w: %w", ErrAuthentication, err)
	}
	if payload.Session.Key == "" {
		return Session{}, fmt.Errorf("%w: response carried no session key", ErrAuthentication)
	}
	return Session{Username: payload.Session.Name, Key: payload.Session.Key}, nil
}

// Scrobble records a finished listen.
func (c *Client) Scrobble(ctx context.Context, sessionKey string, track Track) error {
	params := map[string]string{
		"method":    "track.scrobble",
		"sk":        sessionKey,
		"artist":    track.Artist,
		"track":     track.Title,
		"album":     track.Album,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if err := c.call(ctx, params, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrScrobble, err)
	}
	return nil
}

// NowPlaying announces the track currently being played.
func (c *Client) NowPlaying(ctx context.Context, sessionKey string, track Track) error {
	params := map[string]string{
		"method": "track.updateNowPlaying",
		"sk":     sessionKey,
		"artist": track.Artist,
		"track":  track.Title,
		"album":  track.Album,
	}
	if err := c.call(ctx, params, nil); err != nil {
		return fmt.Errorf("%w: %w", ErrNowPlaying, err)
	}
	return nil
}

func (c *Client) call(ctx context.Context, params map[string]string, out any) error {
	params["api_key"] = c.apiKey
	params["api_sig"] = c.sign(params)

	form := url.Values{}
	for key, value := range params {
		form.Set(key, value)
	}
	form.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build last.fm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("call last.fm: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read last.fm response: %w", err)
	}

	var failure struct {
		Error   int    `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &failure); err == nil && failure.Error != 0 {
		return fmt.Errorf("last.fm error %d: %s", failure.Error, failure.Message)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("last.fm returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode last.fm response: %w", err)
	}
	return nil
}

// sign computes the api_sig parameter: the md5 of every key and value
// concatenated in key order, followed by the shared secret. The format
// parameter is excluded per the protocol.
func (c *Client) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteString(params[key])
	}
	builder.WriteString(c.apiSecret)
	return fmt.Sprintf("%x", md5.Sum([]byte(builder.String())))
}
