// Package config owns the durable server state: mount directories, user
// accounts with their credentials, and server-wide settings.
//
// The Store guards one in-memory snapshot of that state and follows a
// mutate-then-persist protocol: every successful mutation is applied to a
// copy of the snapshot, serialized as a complete TOML document to a
// temporary file, renamed over the backing file, and only then published to
// readers. The file on disk is therefore always a complete, previously
// valid snapshot, and memory never diverges from disk.
//
// Callers receive copies of users, mounts, and settings, never references
// into the live snapshot, so a reader can never observe a mutation halfway.
package config
