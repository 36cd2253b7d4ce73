package repository

import (
	"errors"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

// Sentinel errors returned by the repositories; they are the shared model
// errors so callers can match them without importing this package.
var (
	ErrUserExists      = models.ErrUserExists
	ErrUserNotFound    = models.ErrUserNotFound
	ErrNotFound        = models.ErrNotFound
	ErrInvalidUsername = models.ErrInvalidUsername
)

// ErrUnresolvedBackup means a note file was moved aside after failing to
// decode and has not been dealt with yet.
var ErrUnresolvedBackup = errors.New("unresolved note file backup")
