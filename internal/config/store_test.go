package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"madrigal/internal/auth"
	"madrigal/internal/config"
)

func newStore(t *testing.T) *config.Store {
	t.Helper()
	return openStore(t, filepath.Join(t.TempDir(), "madrigal.toml"))
}

func openStore(t *testing.T, path string) *config.Store {
	t.Helper()
	secret, err := auth.GenerateSecret()
	if err != nil {
		t.Fatalf("GenerateSecret returned error: %v", err)
	}
	store, err := config.Open(path, secret, nil)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	return store
}

func TestAbsentFileYieldsDefaults(t *testing.T) {
	store := newStore(t)

	settings := store.Settings()
	if settings.ReindexInterval != 1800*time.Second {
		t.Fatalf("unexpected reindex interval: %s", settings.ReindexInterval)
	}
	if settings.AlbumArtPattern.String() != `Folder.(jpeg|jpg|png)` {
		t.Fatalf("unexpected album art pattern: %q", settings.AlbumArtPattern)
	}
	if settings.DDNSUpdateURL != "" {
		t.Fatalf("expected no DDNS URL, got %q", settings.DDNSUpdateURL)
	}
	if len(store.Users()) != 0 {
		t.Fatal("expected no users")
	}
	if len(store.Mounts()) != 0 {
		t.Fatal("expected no mounts")
	}
}

func TestMutationsPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "madrigal.toml")
	store := openStore(t, path)

	if err := store.SetReindexInterval(300 * time.Second); err != nil {
		t.Fatalf("SetReindexInterval returned error: %v", err)
	}
	if err := store.SetAlbumArtPattern(`^cover\.(png|jpg)$`); err != nil {
		t.Fatalf("SetAlbumArtPattern returned error: %v", err)
	}
	if err := store.SetDDNSUpdateURL("https://ddns.example.com/update"); err != nil {
		t.Fatalf("SetDDNSUpdateURL returned error: %v", err)
	}
	mounts := []config.MountDir{{Name: "root", Source: t.TempDir()}}
	if err := store.SetMounts(mounts); err != nil {
		t.Fatalf("SetMounts returned error: %v", err)
	}
	if err := store.CreateUser("alice", "s3cret", true); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	reopened := openStore(t, path)
	settings := reopened.Settings()
	if settings.ReindexInterval != 300*time.Second {
		t.Fatalf("unexpected reindex interval after reload: %s", settings.ReindexInterval)
	}
	if settings.AlbumArtPattern.String() != `^cover\.(png|jpg)$` {
		t.Fatalf("unexpected pattern after reload: %q", settings.AlbumArtPattern)
	}
	if settings.DDNSUpdateURL != "https://ddns.example.com/update" {
		t.Fatalf("unexpected DDNS URL after reload: %q", settings.DDNSUpdateURL)
	}
	if got := reopened.Mounts(); len(got) != 1 || got[0] != mounts[0] {
		t.Fatalf("unexpected mounts after reload: %+v", got)
	}
	if _, err := reopened.Login("alice", "s3cret"); err != nil {
		t.Fatalf("expected login to succeed after reload: %v", err)
	}
}

func TestPersistLeavesNoTemporaryFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "madrigal.toml")
	store := openStore(t, path)

	if err := store.SetReindexInterval(time.Minute); err != nil {
		t.Fatalf("SetReindexInterval returned error: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected temporary file to be renamed away, stat err: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read persisted config: %v", err)
	}
	var file config.File
	if err := toml.Unmarshal(data, &file); err != nil {
		t.Fatalf("persisted config does not parse: %v", err)
	}
}

func TestSetMountsRejectsDuplicateNamesWithoutMutating(t *testing.T) {
	store := newStore(t)
	source := t.TempDir()
	if err := store.SetMounts([]config.MountDir{{Name: "root", Source: source}}); err != nil {
		t.Fatalf("SetMounts returned error: %v", err)
	}

	err := store.SetMounts([]config.MountDir{
		{Name: "dup", Source: source},
		{Name: "dup", Source: source},
	})
	if !errors.Is(err, config.ErrDuplicateMountName) {
		t.Fatalf("expected ErrDuplicateMountName, got %v", err)
	}

	mounts := store.Mounts()
	if len(mounts) != 1 || mounts[0].Name != "root" {
		t.Fatalf("expected prior mount table to survive, got %+v", mounts)
	}
}

func TestSetMountsRejectsRelativeSource(t *testing.T) {
	err := newStore(t).SetMounts([]config.MountDir{{Name: "root", Source: "music/collection"}})
	if !errors.Is(err, config.ErrInvalidDirectory) {
		t.Fatalf("expected ErrInvalidDirectory, got %v", err)
	}
}

func TestSetMountsRejectsBadNames(t *testing.T) {
	store := newStore(t)
	for _, name := range []string{"", "a/b", `a\b`} {
		err := store.SetMounts([]config.MountDir{{Name: name, Source: t.TempDir()}})
		if !errors.Is(err, config.ErrInvalidMountName) {
			t.Fatalf("expected ErrInvalidMountName for %q, got %v", name, err)
		}
	}
}

func TestSetMountsReplacementIsTotal(t *testing.T) {
	store := newStore(t)
	first := t.TempDir()
	second := t.TempDir()
	if err := store.SetMounts([]config.MountDir{{Name: "old", Source: first}}); err != nil {
		t.Fatalf("SetMounts returned error: %v", err)
	}
	if err := store.SetMounts([]config.MountDir{{Name: "new", Source: second}}); err != nil {
		t.Fatalf("SetMounts returned error: %v", err)
	}
	mounts := store.Mounts()
	if len(mounts) != 1 || mounts[0].Name != "new" {
		t.Fatalf("expected wholesale replacement, got %+v", mounts)
	}
}

func TestSetAlbumArtPatternRejectsBadRegexp(t *testing.T) {
	store := newStore(t)
	if err := store.SetAlbumArtPattern("["); !errors.Is(err, config.ErrInvalidPattern) {
		t.Fatalf("expected ErrInvalidPattern, got %v", err)
	}
	if store.Settings().AlbumArtPattern.String() != config.DefaultAlbumArtPattern {
		t.Fatal("expected settings to be unchanged after rejected pattern")
	}
}

func TestSetDDNSUpdateURLRejectsBadURL(t *testing.T) {
	store := newStore(t)
	for _, raw := range []string{"not a url", "no-scheme.example.com", "http://"} {
		if err := store.SetDDNSUpdateURL(raw); !errors.Is(err, config.ErrInvalidURL) {
			t.Fatalf("expected ErrInvalidURL for %q, got %v", raw, err)
		}
	}
}

func TestCreateLoginAuthenticateFlow(t *testing.T) {
	store := newStore(t)
	if err := store.CreateUser("alice", "pw", false); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	token, err := store.Login("alice", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	authz, err := store.Authenticate(token, auth.ScopeAPI)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if authz.Username != "alice" || authz.Admin {
		t.Fatalf("unexpected authorization: %+v", authz)
	}

	if _, err := store.Login("alice", "wrong"); !errors.Is(err, config.ErrIncorrectPassword) {
		t.Fatalf("expected ErrIncorrectPassword, got %v", err)
	}
	if _, err := store.Login("bob", "pw"); !errors.Is(err, config.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestLoginFailuresShareOneMessage(t *testing.T) {
	// Distinct error values, identical caller-visible text: responses must
	// not reveal whether the username exists.
	if config.ErrUserNotFound.Error() != config.ErrIncorrectPassword.Error() {
		t.Fatalf(
			"login failure messages differ: %q vs %q",
			config.ErrUserNotFound, config.ErrIncorrectPassword,
		)
	}
}

func TestAuthorizationReflectsCurrentAdminFlag(t *testing.T) {
	store := newStore(t)
	if err := store.CreateUser("alice", "pw", false); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	token, err := store.Login("alice", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if err := store.SetAdmin("alice", true); err != nil {
		t.Fatalf("SetAdmin returned error: %v", err)
	}
	authz, err := store.Authenticate(token, auth.ScopeAPI)
	if err != nil {
		t.Fatalf("Authenticate returned error: %v", err)
	}
	if !authz.Admin {
		t.Fatal("expected admin flag to be read fresh from current state")
	}
}

func TestDeletedUserCannotAuthenticate(t *testing.T) {
	store := newStore(t)
	if err := store.CreateUser("alice", "pw", false); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	token, err := store.Login("alice", "pw")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if err := store.DeleteUser("alice"); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if _, err := store.Authenticate(token, auth.ScopeAPI); !errors.Is(err, auth.ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after deletion, got %v", err)
	}
}

func TestDeleteUserIsIdempotent(t *testing.T) {
	store := newStore(t)
	if err := store.DeleteUser("ghost"); err != nil {
		t.Fatalf("expected deleting an absent user to succeed, got %v", err)
	}
}

func TestCreateUserRejectsDuplicatesAndEmptyInput(t *testing.T) {
	store := newStore(t)
	if err := store.CreateUser("alice", "pw", false); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if err := store.CreateUser("alice", "other", false); !errors.Is(err, config.ErrUserAlreadyExists) {
		t.Fatalf("expected ErrUserAlreadyExists, got %v", err)
	}
	if err := store.CreateUser("", "pw", false); !errors.Is(err, config.ErrEmptyUsername) {
		t.Fatalf("expected ErrEmptyUsername, got %v", err)
	}
	if err := store.CreateUser("bob", "", false); !errors.Is(err, config.ErrEmptyPassword) {
		t.Fatalf("expected ErrEmptyPassword, got %v", err)
	}
}

func TestSetPasswordAndSetAdminRequireExistingUser(t *testing.T) {
	store := newStore(t)
	if err := store.SetPassword("ghost", "pw"); !errors.Is(err, config.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
	if err := store.SetAdmin("ghost", true); !errors.Is(err, config.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}

	if err := store.CreateUser("alice", "old", false); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	if err := store.SetPassword("alice", "new"); err != nil {
		t.Fatalf("SetPassword returned error: %v", err)
	}
	if _, err := store.Login("alice", "old"); err == nil {
		t.Fatal("expected old password to stop working")
	}
	if _, err := store.Login("alice", "new"); err != nil {
		t.Fatalf("expected new password to work: %v", err)
	}
}

func TestLastFMLinkLifecycle(t *testing.T) {
	store := newStore(t)
	if err := store.CreateUser("alice", "pw", false); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	if _, err := store.LastFMSessionKey("alice"); !errors.Is(err, config.ErrLastFMNotLinked) {
		t.Fatalf("expected ErrLastFMNotLinked, got %v", err)
	}
	if err := store.LinkLastFM("alice", "alice_fm", "session-key"); err != nil {
		t.Fatalf("LinkLastFM returned error: %v", err)
	}
	key, err := store.LastFMSessionKey("alice")
	if err != nil {
		t.Fatalf("LastFMSessionKey returned error: %v", err)
	}
	if key != "session-key" {
		t.Fatalf("unexpected session key: %q", key)
	}
	if err := store.UnlinkLastFM("alice"); err != nil {
		t.Fatalf("UnlinkLastFM returned error: %v", err)
	}
	if _, err := store.LastFMSessionKey("alice"); !errors.Is(err, config.ErrLastFMNotLinked) {
		t.Fatalf("expected ErrLastFMNotLinked after unlink, got %v", err)
	}
	if err := store.LinkLastFM("ghost", "x", "y"); !errors.Is(err, config.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestGenerateLinkTokenScope(t *testing.T) {
	store := newStore(t)
	if err := store.CreateUser("alice", "pw", false); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
	linkToken, err := store.GenerateLinkToken("alice")
	if err != nil {
		t.Fatalf("GenerateLinkToken returned error: %v", err)
	}
	if _, err := store.Authenticate(linkToken, auth.ScopeLastFMLink); err != nil {
		t.Fatalf("expected link token to authenticate for link scope: %v", err)
	}
	if _, err := store.Authenticate(linkToken, auth.ScopeAPI); !errors.Is(err, auth.ErrIncorrectScope) {
		t.Fatalf("expected ErrIncorrectScope for API access, got %v", err)
	}
	if _, err := store.GenerateLinkToken("ghost"); !errors.Is(err, config.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestResolveVirtualPathUsesCurrentMountTable(t *testing.T) {
	store := newStore(t)
	source := t.TempDir()
	if err := store.SetMounts([]config.MountDir{{Name: "root", Source: source}}); err != nil {
		t.Fatalf("SetMounts returned error: %v", err)
	}

	real, err := store.ResolveVirtualPath(filepath.Join("root", "song.mp3"))
	if err != nil {
		t.Fatalf("ResolveVirtualPath returned error: %v", err)
	}
	if real != filepath.Join(source, "song.mp3") {
		t.Fatalf("unexpected real path: %q", real)
	}

	virtual, err := store.VirtualizePath(real)
	if err != nil {
		t.Fatalf("VirtualizePath returned error: %v", err)
	}
	if virtual != filepath.Join("root", "song.mp3") {
		t.Fatalf("unexpected virtual path: %q", virtual)
	}
}

func TestInitialPasswordIsConsumedOnLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "madrigal.toml")
	doc := config.File{
		Users: []config.UserRecord{{Name: "alice", Admin: true, InitialPassword: "very_secret"}},
	}
	data, err := toml.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	store := openStore(t, path)
	if _, err := store.Login("alice", "very_secret"); err != nil {
		t.Fatalf("expected initial password to allow login: %v", err)
	}

	rewritten, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rewritten config: %v", err)
	}
	if strings.Contains(string(rewritten), "very_secret") {
		t.Fatal("plaintext initial password must not survive on disk")
	}
	if !strings.Contains(string(rewritten), "hashed_password") {
		t.Fatal("expected hashed_password to be written back")
	}
}

func TestApplyInstallsWholeDocument(t *testing.T) {
	store := newStore(t)
	source := t.TempDir()
	seconds := int64(900)
	doc := config.File{
		ReindexEveryNSeconds: &seconds,
		AlbumArtPattern:      `Folder\.png`,
		MountDirs:            []config.MountRecord{{Source: source, Name: "root"}},
		Users:                []config.UserRecord{{Name: "alice", Admin: true, HashedPassword: "$argon2id$stub"}},
	}
	if err := store.Apply(doc); err != nil {
		t.Fatalf("Apply returned error: %v", err)
	}
	if got := store.Settings().ReindexInterval; got != 900*time.Second {
		t.Fatalf("unexpected reindex interval: %s", got)
	}
	if mounts := store.Mounts(); len(mounts) != 1 || mounts[0].Name != "root" {
		t.Fatalf("unexpected mounts: %+v", mounts)
	}
	user, err := store.User("alice")
	if err != nil {
		t.Fatalf("User returned error: %v", err)
	}
	if !user.Admin {
		t.Fatal("expected admin flag to survive Apply")
	}
}

func TestApplyRejectsDuplicateMounts(t *testing.T) {
	store := newStore(t)
	source := t.TempDir()
	doc := config.File{
		MountDirs: []config.MountRecord{
			{Source: source, Name: "dup"},
			{Source: source, Name: "dup"},
		},
	}
	if err := store.Apply(doc); !errors.Is(err, config.ErrDuplicateMountName) {
		t.Fatalf("expected ErrDuplicateMountName, got %v", err)
	}
}
