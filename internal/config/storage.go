package config

import (
	"fmt"

	"madrigal/internal/auth"
)

// File is the on-disk form of a configuration snapshot: a human-editable
// TOML document. It is also the exchange format the legacy migration engine
// assembles before handing state to the Store.
type File struct {
	ReindexEveryNSeconds *int64        `toml:"reindex_every_n_seconds,omitempty"`
	AlbumArtPattern      string        `toml:"album_art_pattern,omitempty"`
	DDNSUpdateURL        string        `toml:"ddns_update_url,omitempty"`
	MountDirs            []MountRecord `toml:"mount_dirs,omitempty"`
	Users                []UserRecord  `toml:"users,omitempty"`
}

// MountRecord is the stored form of one mount directory.
type MountRecord struct {
	Source string `toml:"source"`
	Name   string `toml:"name"`
}

// UserRecord is the stored form of one user. InitialPassword only ever
// appears in hand-edited files; it is hashed on first load and never
// written back out.
type UserRecord struct {
	Name             string `toml:"name"`
	Admin            bool   `toml:"admin,omitempty"`
	InitialPassword  string `toml:"initial_password,omitempty"`
	HashedPassword   string `toml:"hashed_password,omitempty"`
	LastFMUsername   string `toml:"lastfm_username,omitempty"`
	LastFMSessionKey string `toml:"lastfm_session_key,omitempty"`
}

// toSnapshot validates the document and builds the in-memory state. The
// second return reports whether any initial_password was consumed, in which
// case the caller must rewrite the file so plaintext does not survive on
// disk.
func (f File) toSnapshot() (snapshot, bool, error) {
	snap := snapshot{reindexSeconds: f.ReindexEveryNSeconds}

	pattern, err := compileAlbumArtPattern(f.AlbumArtPattern)
	if err != nil {
		return snapshot{}, false, err
	}
	snap.albumArtPattern = pattern

	ddnsURL, err := parseDDNSURL(f.DDNSUpdateURL)
	if err != nil {
		return snapshot{}, false, err
	}
	snap.ddnsUpdateURL = ddnsURL

	snap.mounts = make([]MountDir, 0, len(f.MountDirs))
	for _, record := range f.MountDirs {
		snap.mounts = append(snap.mounts, MountDir{Name: record.Name, Source: record.Source})
	}
	if err := validateMounts(snap.mounts); err != nil {
		return snapshot{}, false, err
	}

	consumed := false
	seen := make(map[string]struct{}, len(f.Users))
	snap.users = make([]User, 0, len(f.Users))
	for _, record := range f.Users {
		if record.Name == "" {
			return snapshot{}, false, ErrEmptyUsername
		}
		if _, dup := seen[record.Name]; dup {
			return snapshot{}, false, errWithContext(ErrUserAlreadyExists, record.Name)
		}
		seen[record.Name] = struct{}{}

		user := User{
			Name:             record.Name,
			Admin:            record.Admin,
			PasswordHash:     record.HashedPassword,
			LastFMUsername:   record.LastFMUsername,
			LastFMSessionKey: record.LastFMSessionKey,
		}
		if record.InitialPassword != "" {
			hash, err := auth.HashPassword(record.InitialPassword)
			if err != nil {
				return snapshot{}, false, fmt.Errorf("hash initial password for %q: %w", record.Name, err)
			}
			user.PasswordHash = hash
			consumed = true
		}
		snap.users = append(snap.users, user)
	}

	return snap, consumed, nil
}

func (s snapshot) toFile() File {
	file := File{
		ReindexEveryNSeconds: s.reindexSeconds,
		DDNSUpdateURL:        s.ddnsUpdateURL,
	}
	if s.albumArtPattern != nil {
		file.AlbumArtPattern = s.albumArtPattern.String()
	}
	for _, mount := range s.mounts {
		file.MountDirs = append(file.MountDirs, MountRecord{Source: mount.Source, Name: mount.Name})
	}
	for _, user := range s.users {
		file.Users = append(file.Users, UserRecord{
			Name:             user.Name,
			Admin:            user.Admin,
			HashedPassword:   user.PasswordHash,
			LastFMUsername:   user.LastFMUsername,
			LastFMSessionKey: user.LastFMSessionKey,
		})
	}
	return file
}
