package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"madrigal/internal/auth"
	"madrigal/internal/vpath"
)

// Store is the authoritative, concurrency-safe holder of the configuration
// snapshot. Reads copy state out under a shared lock; mutations serialize
// on a writer lock, persist a modified copy of the snapshot to disk, and
// only then publish it, so readers are never blocked on file I/O.
type Store struct {
	path   string
	secret auth.Secret
	logger *slog.Logger

	writeMu sync.Mutex // serializes mutate-and-persist sequences

	mu   sync.RWMutex // guards snap
	snap snapshot
}

// Open loads the configuration file at path, or starts from an empty
// default snapshot when the file does not exist. Any initial_password
// entries are hashed and the file is rewritten once so plaintext never
// survives on disk.
func Open(path string, secret auth.Secret, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	store := &Store{path: path, secret: secret, logger: logger}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return store, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var file File
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	snap, consumedInitialPasswords, err := file.toSnapshot()
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	store.snap = snap

	if consumedInitialPasswords {
		if err := store.persist(snap); err != nil {
			return nil, err
		}
		logger.Info("hashed initial passwords from config file", "path", path)
	}
	return store, nil
}

// Path returns the location of the backing configuration file.
func (s *Store) Path() string {
	return s.path
}

// Settings returns current server settings with defaults applied.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.settings()
}

// Users returns a copy of all registered users in declaration order.
func (s *Store) Users() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	users := make([]User, len(s.snap.users))
	copy(users, s.snap.users)
	return users
}

// User returns the named user.
func (s *Store) User(name string) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.snap.user(name)
	if !ok {
		return User{}, errWithContext(ErrUserNotFound, name)
	}
	return *user, nil
}

// Mounts returns a copy of the mount table in declaration order.
func (s *Store) Mounts() []MountDir {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mounts := make([]MountDir, len(s.snap.mounts))
	copy(mounts, s.snap.mounts)
	return mounts
}

// SetReindexInterval stores the delay between collection rescans.
func (s *Store) SetReindexInterval(interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("reindex interval must be positive, got %s", interval)
	}
	return s.mutate(func(snap *snapshot) error {
		seconds := int64(interval / time.Second)
		snap.reindexSeconds = &seconds
		return nil
	})
}

// SetAlbumArtPattern stores the filename pattern used to locate album art.
func (s *Store) SetAlbumArtPattern(pattern string) error {
	compiled, err := compileAlbumArtPattern(pattern)
	if err != nil {
		return err
	}
	if compiled == nil {
		return errWithContext(ErrInvalidPattern, pattern)
	}
	return s.mutate(func(snap *snapshot) error {
		snap.albumArtPattern = compiled
		return nil
	})
}

// SetDDNSUpdateURL stores the URL polled to refresh dynamic DNS records.
func (s *Store) SetDDNSUpdateURL(raw string) error {
	parsed, err := parseDDNSURL(raw)
	if err != nil {
		return err
	}
	return s.mutate(func(snap *snapshot) error {
		snap.ddnsUpdateURL = parsed
		return nil
	})
}

// SetMounts replaces the whole mount table. Mounts absent from the new
// table are dropped.
func (s *Store) SetMounts(mounts []MountDir) error {
	if err := validateMounts(mounts); err != nil {
		return err
	}
	return s.mutate(func(snap *snapshot) error {
		snap.mounts = make([]MountDir, len(mounts))
		copy(snap.mounts, mounts)
		return nil
	})
}

// CreateUser hashes the supplied password and registers a new account.
func (s *Store) CreateUser(name, password string, admin bool) error {
	if name == "" {
		return ErrEmptyUsername
	}
	if password == "" {
		return ErrEmptyPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.mutate(func(snap *snapshot) error {
		if _, exists := snap.user(name); exists {
			return errWithContext(ErrUserAlreadyExists, name)
		}
		snap.users = append(snap.users, User{Name: name, Admin: admin, PasswordHash: hash})
		return nil
	})
}

// DeleteUser removes an account. Deleting an absent user is not an error.
func (s *Store) DeleteUser(name string) error {
	return s.mutate(func(snap *snapshot) error {
		for i := range snap.users {
			if snap.users[i].Name == name {
				snap.users = append(snap.users[:i], snap.users[i+1:]...)
				return nil
			}
		}
		return errNoChange
	})
}

// SetPassword replaces the stored password hash for an existing user.
func (s *Store) SetPassword(name, password string) error {
	if password == "" {
		return ErrEmptyPassword
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.mutate(func(snap *snapshot) error {
		user, ok := snap.user(name)
		if !ok {
			return errWithContext(ErrUserNotFound, name)
		}
		user.PasswordHash = hash
		return nil
	})
}

// SetAdmin grants or revokes the admin flag for an existing user.
func (s *Store) SetAdmin(name string, admin bool) error {
	return s.mutate(func(snap *snapshot) error {
		user, ok := snap.user(name)
		if !ok {
			return errWithContext(ErrUserNotFound, name)
		}
		user.Admin = admin
		return nil
	})
}

// Login verifies credentials and issues a bearer token with general API
// scope. Unknown usernames and wrong passwords fail with errors that share
// one caller-visible message.
func (s *Store) Login(name, password string) (string, error) {
	s.mu.RLock()
	user, ok := s.snap.user(name)
	var hash string
	if ok {
		hash = user.PasswordHash
	}
	s.mu.RUnlock()

	if !ok {
		return "", ErrUserNotFound
	}
	if !auth.VerifyPassword(password, hash) {
		return "", ErrIncorrectPassword
	}
	return auth.IssueToken(s.secret, name, auth.ScopeAPI)
}

// Authenticate verifies a bearer token against the required scope and
// resolves the named user against current state, so tokens held for
// deleted users stop working immediately.
func (s *Store) Authenticate(token string, required auth.Scope) (Authorization, error) {
	claims, err := auth.VerifyToken(s.secret, token, required)
	if err != nil {
		return Authorization{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.snap.user(claims.Username)
	if !ok {
		return Authorization{}, auth.ErrInvalidToken
	}
	return Authorization{Username: user.Name, Admin: user.Admin}, nil
}

// GenerateLinkToken issues a single-purpose token for completing a last.fm
// account link.
func (s *Store) GenerateLinkToken(name string) (string, error) {
	if _, err := s.User(name); err != nil {
		return "", err
	}
	return auth.IssueToken(s.secret, name, auth.ScopeLastFMLink)
}

// LinkLastFM stores the remote account name and session key for a user.
func (s *Store) LinkLastFM(name, remoteName, sessionKey string) error {
	return s.mutate(func(snap *snapshot) error {
		user, ok := snap.user(name)
		if !ok {
			return errWithContext(ErrUserNotFound, name)
		}
		user.LastFMUsername = remoteName
		user.LastFMSessionKey = sessionKey
		return nil
	})
}

// UnlinkLastFM clears any stored last.fm association for a user.
func (s *Store) UnlinkLastFM(name string) error {
	return s.mutate(func(snap *snapshot) error {
		user, ok := snap.user(name)
		if !ok {
			return errWithContext(ErrUserNotFound, name)
		}
		user.LastFMUsername = ""
		user.LastFMSessionKey = ""
		return nil
	})
}

// LastFMSessionKey returns the stored scrobbling session key for a user.
func (s *Store) LastFMSessionKey(name string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.snap.user(name)
	if !ok {
		return "", errWithContext(ErrUserNotFound, name)
	}
	if user.LastFMSessionKey == "" {
		return "", errWithContext(ErrLastFMNotLinked, name)
	}
	return user.LastFMSessionKey, nil
}

// ResolveVirtualPath maps a virtual path onto the real filesystem using the
// current mount table.
func (s *Store) ResolveVirtualPath(virtualPath string) (string, error) {
	return vpath.Resolve(s.mountTable(), virtualPath)
}

// VirtualizePath maps a real path into the virtual namespace using the
// current mount table; first declared mount wins.
func (s *Store) VirtualizePath(realPath string) (string, error) {
	return vpath.Virtualize(s.mountTable(), realPath)
}

func (s *Store) mountTable() []vpath.Mount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	table := make([]vpath.Mount, 0, len(s.snap.mounts))
	for _, mount := range s.snap.mounts {
		table = append(table, vpath.Mount{Name: mount.Name, Source: mount.Source})
	}
	return table
}

// Apply replaces the whole snapshot with the contents of a configuration
// document, running the same validation and persistence path as individual
// mutations. The migration engine uses this to install imported state
// atomically.
func (s *Store) Apply(file File) error {
	next, _, err := file.toSnapshot()
	if err != nil {
		return err
	}
	return s.mutate(func(snap *snapshot) error {
		*snap = next
		return nil
	})
}

// mutate clones the current snapshot, applies one change, persists the
// result, and publishes it. If persistence fails the live snapshot is left
// untouched, so memory and disk never diverge.
func (s *Store) mutate(apply func(*snapshot) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.RLock()
	next := s.snap.clone()
	s.mu.RUnlock()

	if err := apply(&next); err != nil {
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	if err := s.persist(next); err != nil {
		return err
	}

	s.mu.Lock()
	s.snap = next
	s.mu.Unlock()
	return nil
}

// persist serializes a snapshot to a temporary file and renames it over the
// backing file, so a crash mid-write cannot leave a corrupt document.
func (s *Store) persist(snap snapshot) error {
	data, err := toml.Marshal(snap.toFile())
	if err != nil {
		return fmt.Errorf("serialize config: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory %q: %w", dir, err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace config %s: %w", s.path, err)
	}
	return nil
}
