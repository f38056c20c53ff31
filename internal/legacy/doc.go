// Package legacy imports server state out of the deprecated single-file
// SQLite database into the current configuration layout.
//
// The import is a one-shot batch: settings, mounts, and users move
// all-or-nothing through the configuration store's normal validation path,
// while playlist reconstruction is deliberately lossy — songs whose paths no
// longer map into the mount table are skipped, never fatal. The engine
// holds a file lock for the duration of a run and must not be interleaved
// with other mutations of the same backing file.
package legacy
