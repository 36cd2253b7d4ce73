package service

import (
	"errors"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

var (
	// ErrMissingFields is returned when a required request field is empty.
	ErrMissingFields = errors.New("all fields are required")
	// ErrPasswordTooLong is returned for passwords bcrypt cannot hash.
	ErrPasswordTooLong = errors.New("password is too long")
	// ErrInvalidCredentials is returned when a username/password pair does not match.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrInvalidToken is returned for tokens that are malformed, tampered with or expired.
	ErrInvalidToken = errors.New("invalid token")

	ErrInvalidUsername = models.ErrInvalidUsername
	ErrUserExists      = models.ErrUserExists
	ErrUserNotFound    = models.ErrUserNotFound
	ErrNotFound        = models.ErrNotFound
)
