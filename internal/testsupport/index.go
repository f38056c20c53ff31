package testsupport

import (
	"context"
	"fmt"

	"madrigal/internal/index"
)

// FakeIndex is an in-memory index provider keyed by virtual path.
type FakeIndex struct {
	SongsByPath map[string]index.Song
}

// NewFakeIndex builds a provider that knows the given songs.
func NewFakeIndex(songs ...index.Song) *FakeIndex {
	fake := &FakeIndex{SongsByPath: make(map[string]index.Song, len(songs))}
	for _, song := range songs {
		fake.SongsByPath[song.VirtualPath] = song
	}
	return fake
}

// Songs returns one result per requested path, in request order.
func (f *FakeIndex) Songs(_ context.Context, virtualPaths []string) ([]index.Result, error) {
	results := make([]index.Result, len(virtualPaths))
	for i, path := range virtualPaths {
		if song, ok := f.SongsByPath[path]; ok {
			results[i] = index.Result{Song: song}
			continue
		}
		results[i] = index.Result{Err: fmt.Errorf("%w: %q", index.ErrSongNotFound, path)}
	}
	return results, nil
}
