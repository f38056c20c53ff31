// Package index declares the contract this module consumes from the
// collection indexer. The indexer itself (scanning, metadata extraction)
// lives elsewhere; configuration and migration code only ever ask it to
// translate virtual paths into song metadata.
package index

import (
	"context"
	"errors"
)

// ErrSongNotFound indicates a virtual path with no indexed metadata.
var ErrSongNotFound = errors.New("song not found in index")

// Song is the indexed metadata for one track, addressed by virtual path.
type Song struct {
	VirtualPath string
	Title       string
	Artists     []string
	Album       string
}

// Result pairs a lookup outcome with the error that produced it. Err is
// ErrSongNotFound (possibly wrapped) when the path has no metadata.
type Result struct {
	Song Song
	Err  error
}

// Provider resolves virtual paths to indexed song metadata.
type Provider interface {
	// Songs returns exactly one Result per input path, in input order.
	Songs(ctx context.Context, virtualPaths []string) ([]Result, error)
}
