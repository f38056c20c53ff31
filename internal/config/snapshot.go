package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"
)

// DefaultReindexInterval applies when no reindex interval is configured.
const DefaultReindexInterval = 1800 * time.Second

// DefaultAlbumArtPattern applies when no album art pattern is configured.
const DefaultAlbumArtPattern = `Folder.(jpeg|jpg|png)`

var defaultAlbumArtRegexp = regexp.MustCompile(DefaultAlbumArtPattern)

// MountDir binds a virtual root name to a real filesystem directory. The
// set of mount names forms the first segment of every virtual path.
type MountDir struct {
	Name   string
	Source string
}

// User is one registered account. PasswordHash is an opaque PHC-encoded
// blob; plaintext passwords are hashed on entry and never stored.
type User struct {
	Name             string
	Admin            bool
	PasswordHash     string
	LastFMUsername   string
	LastFMSessionKey string
}

// Settings are the server-wide knobs, with defaults already applied.
type Settings struct {
	ReindexInterval time.Duration
	AlbumArtPattern *regexp.Regexp
	DDNSUpdateURL   string
}

// Authorization is the outcome of a successful authenticate call. Admin is
// read fresh from current state, not from the token.
type Authorization struct {
	Username string
	Admin    bool
}

// snapshot is the complete configuration state, persisted as one unit.
// Mounts and users keep declaration order; mount order decides first-match
// virtualization.
type snapshot struct {
	reindexSeconds  *int64
	albumArtPattern *regexp.Regexp
	ddnsUpdateURL   string
	mounts          []MountDir
	users           []User
}

func (s snapshot) clone() snapshot {
	out := s
	out.mounts = slices.Clone(s.mounts)
	out.users = slices.Clone(s.users)
	if s.reindexSeconds != nil {
		seconds := *s.reindexSeconds
		out.reindexSeconds = &seconds
	}
	return out
}

func (s snapshot) settings() Settings {
	settings := Settings{
		ReindexInterval: DefaultReindexInterval,
		AlbumArtPattern: defaultAlbumArtRegexp,
		DDNSUpdateURL:   s.ddnsUpdateURL,
	}
	if s.reindexSeconds != nil {
		settings.ReindexInterval = time.Duration(*s.reindexSeconds) * time.Second
	}
	if s.albumArtPattern != nil {
		settings.AlbumArtPattern = s.albumArtPattern
	}
	return settings
}

func (s *snapshot) user(name string) (*User, bool) {
	for i := range s.users {
		if s.users[i].Name == name {
			return &s.users[i], true
		}
	}
	return nil, false
}

func validateMounts(mounts []MountDir) error {
	seen := make(map[string]struct{}, len(mounts))
	for _, mount := range mounts {
		if mount.Name == "" || strings.ContainsAny(mount.Name, `/\`) {
			return errWithContext(ErrInvalidMountName, mount.Name)
		}
		if _, dup := seen[mount.Name]; dup {
			return errWithContext(ErrDuplicateMountName, mount.Name)
		}
		seen[mount.Name] = struct{}{}
		if mount.Source == "" || !filepath.IsAbs(mount.Source) {
			return errWithContext(ErrInvalidDirectory, mount.Source)
		}
	}
	return nil
}

func parseDDNSURL(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", errWithContext(ErrInvalidURL, raw)
	}
	return parsed.String(), nil
}

func compileAlbumArtPattern(raw string) (*regexp.Regexp, error) {
	if raw == "" {
		return nil, nil
	}
	compiled, err := regexp.Compile(raw)
	if err != nil {
		return nil, errWithContext(ErrInvalidPattern, raw)
	}
	return compiled, nil
}
