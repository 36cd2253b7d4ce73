package models

import "errors"

// Errors shared by the storage and service layers.
var (
	// ErrUserExists is returned when a username is already registered.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user has the requested username.
	ErrUserNotFound = errors.New("user not found")
	// ErrNotFound is returned when a user's note store does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidUsername is returned for usernames that cannot name a file.
	ErrInvalidUsername = errors.New("invalid username")
)
