// Package logging builds the slog loggers used across the application.
// Two output formats are supported: a compact console format for
// interactive use and line-delimited JSON for log collection.
package logging
