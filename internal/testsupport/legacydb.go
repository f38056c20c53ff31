package testsupport

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"
)

// LegacyMount seeds one mount_points row.
type LegacyMount struct {
	Source string
	Name   string
}

// LegacyUser seeds one users row. The numeric ID is what playlists join on.
type LegacyUser struct {
	ID           int64
	Name         string
	PasswordHash string
	Admin        bool
}

// LegacyPlaylist seeds one playlists row plus its ordered song paths.
type LegacyPlaylist struct {
	ID      int64
	OwnerID int64
	Name    string
	Songs   []string
}

// LegacyDB describes the full contents of a legacy database fixture.
type LegacyDB struct {
	AuthSecret      []byte
	AlbumArtPattern string
	Mounts          []LegacyMount
	Users           []LegacyUser
	Playlists       []LegacyPlaylist
}

const legacySchema = `
CREATE TABLE misc_settings (
    auth_secret BLOB NOT NULL,
    index_album_art_pattern TEXT NOT NULL
);
CREATE TABLE mount_points (
    source TEXT NOT NULL,
    name TEXT NOT NULL
);
CREATE TABLE users (
    id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    password_hash TEXT,
    admin INTEGER
);
CREATE TABLE playlists (
    id INTEGER PRIMARY KEY,
    owner INTEGER NOT NULL,
    name TEXT NOT NULL
);
CREATE TABLE playlist_songs (
    playlist INTEGER NOT NULL,
    path TEXT NOT NULL,
    ordering INTEGER NOT NULL
);
`

// BuildLegacyDB writes a legacy SQLite fixture into a temp directory and
// returns its path.
func BuildLegacyDB(t testing.TB, fixture LegacyDB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "legacy.sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open legacy fixture db: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(legacySchema); err != nil {
		t.Fatalf("create legacy schema: %v", err)
	}

	secret := fixture.AuthSecret
	if secret == nil {
		secret = make([]byte, 32)
	}
	pattern := fixture.AlbumArtPattern
	if pattern == "" {
		pattern = "Folder.(jpeg|jpg|png)"
	}
	if _, err := db.Exec(
		`INSERT INTO misc_settings (auth_secret, index_album_art_pattern) VALUES (?, ?)`,
		secret, pattern,
	); err != nil {
		t.Fatalf("seed misc_settings: %v", err)
	}

	for _, mount := range fixture.Mounts {
		if _, err := db.Exec(
			`INSERT INTO mount_points (source, name) VALUES (?, ?)`,
			mount.Source, mount.Name,
		); err != nil {
			t.Fatalf("seed mount_points: %v", err)
		}
	}
	for _, user := range fixture.Users {
		if _, err := db.Exec(
			`INSERT INTO users (id, name, password_hash, admin) VALUES (?, ?, ?, ?)`,
			user.ID, user.Name, user.PasswordHash, user.Admin,
		); err != nil {
			t.Fatalf("seed users: %v", err)
		}
	}
	ordering := 0
	for _, playlist := range fixture.Playlists {
		if _, err := db.Exec(
			`INSERT INTO playlists (id, owner, name) VALUES (?, ?, ?)`,
			playlist.ID, playlist.OwnerID, playlist.Name,
		); err != nil {
			t.Fatalf("seed playlists: %v", err)
		}
		for _, song := range playlist.Songs {
			ordering++
			if _, err := db.Exec(
				`INSERT INTO playlist_songs (playlist, path, ordering) VALUES (?, ?, ?)`,
				playlist.ID, song, ordering,
			); err != nil {
				t.Fatalf("seed playlist_songs: %v", err)
			}
		}
	}
	return path
}
