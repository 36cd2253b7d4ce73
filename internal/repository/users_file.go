// Package repository provides persistence implementations for users and notes,
// backed either by JSON files on disk or by PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

const usersFileName = "users.json"

// FileUserRepository keeps the global user list in a single JSON array file.
type FileUserRepository struct {
	path string
	// mu serializes check-and-insert so duplicate usernames cannot slip in.
	mu  sync.Mutex
	log *zap.Logger
	now func() time.Time
}

// NewFileUserRepository opens (creating if needed) dataDir/users.json.
// A file that does not parse is moved aside and replaced with an empty list.
func NewFileUserRepository(dataDir string, log *zap.Logger) (*FileUserRepository, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	r := &FileUserRepository{
		path: filepath.Join(dataDir, usersFileName),
		log:  log,
		now:  time.Now,
	}

	users, err := r.load()
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := r.save(nil); err != nil {
			return nil, err
		}
		log.Info("created user list", zap.String("path", r.path))
	case err != nil:
		backup, berr := backupCorrupt(r.path, r.now())
		if berr != nil {
			return nil, fmt.Errorf("back up corrupt user list: %w", berr)
		}
		log.Error("user list is corrupt, starting empty",
			zap.String("path", r.path), zap.String("backup", backup), zap.Error(err))
		if err := r.save(nil); err != nil {
			return nil, err
		}
	default:
		log.Info("loaded user list", zap.String("path", r.path), zap.Int("users", len(users)))
	}
	return r, nil
}

// CreateUser appends a new user with the next free id.
// Returns ErrUserExists if the username is taken.
func (r *FileUserRepository) CreateUser(ctx context.Context, username, passwordHash, displayName string) (models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.load()
	if err != nil {
		return models.User{}, fmt.Errorf("load users: %w", err)
	}

	var maxID int64
	for _, u := range users {
		if u.Username == username {
			return models.User{}, ErrUserExists
		}
		maxID = max(maxID, u.ID)
	}

	user := models.User{
		ID:           maxID + 1,
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		CreatedAt:    r.now().UnixMilli(),
	}
	if err := r.save(append(users, user)); err != nil {
		return models.User{}, fmt.Errorf("save users: %w", err)
	}
	return user, nil
}

// GetUserByUsername returns the user or ErrUserNotFound.
func (r *FileUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	for i := range users {
		if users[i].Username == username {
			return &users[i], nil
		}
	}
	return nil, ErrUserNotFound
}

// ListUsers returns every registered user in registration order.
func (r *FileUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := r.load()
	if err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	return users, nil
}

func (r *FileUserRepository) load() ([]models.User, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	var users []models.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.path, err)
	}
	return users, nil
}

func (r *FileUserRepository) save(users []models.User) error {
	if users == nil {
		users = []models.User{}
	}
	data, err := json.MarshalIndent(users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode users: %w", err)
	}
	return writeFileAtomic(r.path, data, 0o600)
}

// corruptSuffix marks a file moved aside because it could not be decoded.
const corruptSuffix = ".corrupt-"

// backupCorrupt renames path to path.corrupt-<epoch-ms> and returns the new name.
func backupCorrupt(path string, now time.Time) (string, error) {
	backup := fmt.Sprintf("%s%s%d", path, corruptSuffix, now.UnixMilli())
	if err := os.Rename(path, backup); err != nil {
		return "", err
	}
	return backup, nil
}
