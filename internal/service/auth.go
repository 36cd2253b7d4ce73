// Package service provides authentication, note and assistant business logic,
// delegating persistence to repository interfaces.
package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// CreateUser stores a new user and assigns its id.
	// Returns models.ErrUserExists if the username is taken.
	CreateUser(ctx context.Context, username, passwordHash, displayName string) (models.User, error)
	// GetUserByUsername returns models.ErrUserNotFound for unknown users.
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
}

// NoteInitializer prepares an empty note store for a user.
type NoteInitializer interface {
	InitUser(ctx context.Context, username string) error
}

// dummyHash is compared against when the user does not exist so that
// unknown and known usernames take the same time to reject.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("notekeeper-dummy-password"), bcrypt.MinCost)

// AuthService implements registration, login and profile lookup.
type AuthService struct {
	users  UserRepository
	notes  NoteInitializer
	tokens *TokenManager
	log    *zap.Logger
	cost   int
}

// NewAuthService constructs an AuthService. Passwords are hashed with bcrypt.DefaultCost.
func NewAuthService(users UserRepository, notes NoteInitializer, tokens *TokenManager, log *zap.Logger) *AuthService {
	return &AuthService{users: users, notes: notes, tokens: tokens, log: log, cost: bcrypt.DefaultCost}
}

// Register creates the user and its empty note store and returns a fresh token.
func (s *AuthService) Register(ctx context.Context, username, password, displayName string) (string, models.UserProfile, error) {
	if username == "" || password == "" || displayName == "" {
		return "", models.UserProfile{}, ErrMissingFields
	}
	if !models.ValidUsername(username) {
		return "", models.UserProfile{}, ErrInvalidUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", models.UserProfile{}, ErrPasswordTooLong
		}
		return "", models.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, username, string(hash), displayName)
	if err != nil {
		return "", models.UserProfile{}, err
	}
	s.log.Info("user registered", zap.String("user", username), zap.Int64("id", user.ID))

	// The account already exists; the note file is created again on login
	// or first append.
	if err := s.notes.InitUser(ctx, username); err != nil {
		s.log.Warn("cannot prepare note store on register", zap.String("user", username), zap.Error(err))
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", models.UserProfile{}, err
	}
	return token, user.Profile(), nil
}

// Login checks the password and issues a new token.
// Unknown users and wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, models.UserProfile, error) {
	if username == "" || password == "" {
		return "", models.UserProfile{}, ErrInvalidCredentials
	}

	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, models.ErrUserNotFound) {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", models.UserProfile{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", models.UserProfile{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.UserProfile{}, ErrInvalidCredentials
	}

	if err := s.notes.InitUser(ctx, username); err != nil {
		s.log.Warn("cannot prepare note store on login", zap.String("user", username), zap.Error(err))
	}

	token, err := s.tokens.Issue(*user)
	if err != nil {
		return "", models.UserProfile{}, err
	}
	return token, user.Profile(), nil
}

// Me returns the public profile of username.
func (s *AuthService) Me(ctx context.Context, username string) (models.UserProfile, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		return models.UserProfile{}, err
	}
	return user.Profile(), nil
}

// VerifyToken parses a bearer token; it satisfies the auth middleware's verifier.
func (s *AuthService) VerifyToken(token string) (*Claims, error) {
	return s.tokens.Parse(token)
}
