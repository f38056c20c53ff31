package legacy

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"madrigal/internal/auth"
	"madrigal/internal/config"
	"madrigal/internal/index"
	"madrigal/internal/vpath"
)

// ErrPlaylistNotFound indicates a playlist song row referencing a playlist
// id absent from the legacy playlists table.
var ErrPlaylistNotFound = errors.New("playlist not found in legacy database")

// Playlist is one reconstructed playlist, grouped by owning user and
// preserving legacy song order.
type Playlist struct {
	Name  string
	Owner string
	Songs []index.Song
}

func openDB(path string) (*sql.DB, error) {
	// sql.Open would silently create a fresh database; an absent legacy
	// store must fail instead.
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("legacy database %s: %w", path, err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open legacy database %s: %w", path, err)
	}
	return db, nil
}

// ReadAuthSecret returns the fixed-width signing secret stored in the
// legacy misc_settings table.
func ReadAuthSecret(ctx context.Context, path string) (auth.Secret, error) {
	db, err := openDB(path)
	if err != nil {
		return auth.Secret{}, err
	}
	defer db.Close()

	var raw []byte
	row := db.QueryRowContext(ctx, `SELECT auth_secret FROM misc_settings`)
	if err := row.Scan(&raw); err != nil {
		return auth.Secret{}, fmt.Errorf("read legacy auth secret: %w", err)
	}
	secret, err := auth.SecretFromBytes(raw)
	if err != nil {
		return auth.Secret{}, fmt.Errorf("legacy auth secret: %w", err)
	}
	return secret, nil
}

// ReadConfig assembles a configuration document from the legacy settings,
// mount, and user tables. Legacy numeric user ids are join keys only and do
// not appear in the result.
func ReadConfig(ctx context.Context, path string) (config.File, error) {
	db, err := openDB(path)
	if err != nil {
		return config.File{}, err
	}
	defer db.Close()

	var albumArtPattern string
	row := db.QueryRowContext(ctx, `SELECT index_album_art_pattern FROM misc_settings`)
	if err := row.Scan(&albumArtPattern); err != nil {
		return config.File{}, fmt.Errorf("read legacy settings: %w", err)
	}

	mounts, err := readMountDirs(ctx, db)
	if err != nil {
		return config.File{}, err
	}
	users, err := readUsers(ctx, db)
	if err != nil {
		return config.File{}, err
	}

	file := config.File{
		AlbumArtPattern: albumArtPattern,
		MountDirs:       mounts,
	}
	for _, user := range users.ordered {
		file.Users = append(file.Users, user)
	}
	return file, nil
}

func readMountDirs(ctx context.Context, db *sql.DB) ([]config.MountRecord, error) {
	rows, err := db.QueryContext(ctx, `SELECT source, name FROM mount_points`)
	if err != nil {
		return nil, fmt.Errorf("read legacy mount points: %w", err)
	}
	defer rows.Close()

	var mounts []config.MountRecord
	for rows.Next() {
		var mount config.MountRecord
		if err := rows.Scan(&mount.Source, &mount.Name); err != nil {
			return nil, fmt.Errorf("scan legacy mount point: %w", err)
		}
		if mount.Source == "" {
			return nil, fmt.Errorf("%w: legacy mount %q has no source", config.ErrInvalidDirectory, mount.Name)
		}
		mounts = append(mounts, mount)
	}
	return mounts, rows.Err()
}

// legacyUsers keeps both the id join index and declaration order; the
// numeric ids never outlive the migration run.
type legacyUsers struct {
	byID    map[int64]string
	ordered []config.UserRecord
}

func readUsers(ctx context.Context, db *sql.DB) (legacyUsers, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, name, password_hash, admin FROM users`)
	if err != nil {
		return legacyUsers{}, fmt.Errorf("read legacy users: %w", err)
	}
	defer rows.Close()

	users := legacyUsers{byID: make(map[int64]string)}
	for rows.Next() {
		var (
			id    int64
			name  string
			hash  sql.NullString
			admin sql.NullBool
		)
		if err := rows.Scan(&id, &name, &hash, &admin); err != nil {
			return legacyUsers{}, fmt.Errorf("scan legacy user: %w", err)
		}
		users.byID[id] = name
		users.ordered = append(users.ordered, config.UserRecord{
			Name:           name,
			Admin:          admin.Valid && admin.Bool,
			HashedPassword: hash.String,
		})
	}
	return users, rows.Err()
}

// ReadPlaylists reconstructs the legacy playlists against the given mount
// table. Songs whose real paths fall outside every mount, or whose virtual
// paths the index provider cannot resolve, are skipped; this lossy recovery
// is deliberate and never fails the run.
func ReadPlaylists(ctx context.Context, path string, mounts []vpath.Mount, provider index.Provider) ([]Playlist, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	users, err := readUsers(ctx, db)
	if err != nil {
		return nil, err
	}

	type playlistKey struct {
		owner string
		name  string
	}
	heads := make(map[int64]playlistKey)

	rows, err := db.QueryContext(ctx, `SELECT id, owner, name FROM playlists`)
	if err != nil {
		return nil, fmt.Errorf("read legacy playlists: %w", err)
	}
	for rows.Next() {
		var (
			id      int64
			ownerID int64
			name    string
		)
		if err := rows.Scan(&id, &ownerID, &name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan legacy playlist: %w", err)
		}
		owner, ok := users.byID[ownerID]
		if !ok {
			rows.Close()
			return nil, fmt.Errorf("%w: playlist %q owner id %d", config.ErrUserNotFound, name, ownerID)
		}
		heads[id] = playlistKey{owner: owner, name: name}
	}
	if err := closeRows(rows); err != nil {
		return nil, err
	}

	type pendingSong struct {
		key         playlistKey
		virtualPath string
	}
	var pending []pendingSong

	songRows, err := db.QueryContext(ctx, `SELECT playlist, path FROM playlist_songs ORDER BY ordering`)
	if err != nil {
		return nil, fmt.Errorf("read legacy playlist songs: %w", err)
	}
	for songRows.Next() {
		var (
			playlistID int64
			realPath   string
		)
		if err := songRows.Scan(&playlistID, &realPath); err != nil {
			songRows.Close()
			return nil, fmt.Errorf("scan legacy playlist song: %w", err)
		}
		key, ok := heads[playlistID]
		if !ok {
			songRows.Close()
			return nil, fmt.Errorf("%w: id %d", ErrPlaylistNotFound, playlistID)
		}
		virtualPath, err := vpath.Virtualize(mounts, realPath)
		if err != nil {
			// Deliberate skip: the song lives outside the imported mounts.
			continue
		}
		pending = append(pending, pendingSong{key: key, virtualPath: virtualPath})
	}
	if err := closeRows(songRows); err != nil {
		return nil, err
	}

	virtualPaths := make([]string, len(pending))
	for i, song := range pending {
		virtualPaths[i] = song.virtualPath
	}
	var results []index.Result
	if len(virtualPaths) > 0 {
		results, err = provider.Songs(ctx, virtualPaths)
		if err != nil {
			return nil, fmt.Errorf("resolve playlist songs: %w", err)
		}
		if len(results) != len(virtualPaths) {
			return nil, fmt.Errorf("index provider returned %d results for %d paths", len(results), len(virtualPaths))
		}
	}

	var (
		playlists []Playlist
		position  = make(map[playlistKey]int)
	)
	for i, song := range pending {
		if results[i].Err != nil {
			// Deliberate skip: the path is no longer indexed.
			continue
		}
		at, ok := position[song.key]
		if !ok {
			at = len(playlists)
			position[song.key] = at
			playlists = append(playlists, Playlist{Name: song.key.name, Owner: song.key.owner})
		}
		playlists[at].Songs = append(playlists[at].Songs, results[i].Song)
	}
	return playlists, nil
}

func closeRows(rows *sql.Rows) error {
	iterErr := rows.Err()
	if err := rows.Close(); err != nil {
		return err
	}
	return iterErr
}

// DeleteDB removes the legacy database file. Deletion is always
// caller-driven; the engine never removes anything implicitly.
func DeleteDB(path string) error {
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete legacy database %s: %w", path, err)
	}
	return nil
}
