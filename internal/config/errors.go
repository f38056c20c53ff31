package config

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPattern indicates an album art pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid album art pattern")
	// ErrInvalidURL indicates a DDNS update URL that does not parse.
	ErrInvalidURL = errors.New("invalid DDNS update URL")
	// ErrInvalidDirectory indicates a mount source that is not a usable
	// absolute path.
	ErrInvalidDirectory = errors.New("invalid mount directory source")
	// ErrInvalidMountName indicates an empty mount name or one containing
	// path separators.
	ErrInvalidMountName = errors.New("invalid mount directory name")
	// ErrDuplicateMountName indicates two mounts sharing one name.
	ErrDuplicateMountName = errors.New("mount directory names must be unique")

	// ErrUserAlreadyExists indicates a create for a taken username.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrEmptyUsername rejects users with no name.
	ErrEmptyUsername = errors.New("username must not be empty")
	// ErrEmptyPassword rejects empty plaintext passwords.
	ErrEmptyPassword = errors.New("password must not be empty")

	// ErrUserNotFound and ErrIncorrectPassword deliberately share one
	// message so login responses cannot be used to enumerate usernames.
	// They stay distinct values so errors.Is can still tell them apart.
	ErrUserNotFound      = errors.New("invalid username or password")
	ErrIncorrectPassword = errors.New("invalid username or password")

	// ErrLastFMNotLinked indicates a user without a stored last.fm session.
	ErrLastFMNotLinked = errors.New("no linked last.fm account")
)

// errNoChange short-circuits persistence for idempotent mutations that
// found nothing to do. Never returned to callers.
var errNoChange = errors.New("no change")

func errWithContext(sentinel error, detail string) error {
	if detail == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %q", sentinel, detail)
}
