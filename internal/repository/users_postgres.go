package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

// PostgresUserRepository implements user persistence using a PostgreSQL database.
type PostgresUserRepository struct {
	// DB is the database handle for executing queries.
	DB  *sql.DB
	now func() time.Time
}

// NewPostgresUserRepository creates a new PostgresUserRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance with the schema from db.InitPostgres.
func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{DB: db, now: time.Now}
}

// CreateUser inserts a new user. The ON CONFLICT clause makes the uniqueness
// check and the insert a single statement; a conflict returns ErrUserExists.
func (s *PostgresUserRepository) CreateUser(ctx context.Context, username, passwordHash, displayName string) (models.User, error) {
	user := models.User{
		Username:     username,
		PasswordHash: passwordHash,
		DisplayName:  displayName,
		CreatedAt:    s.now().UnixMilli(),
	}
	err := s.DB.QueryRowContext(ctx, `
		INSERT INTO users (username, password_hash, display_name, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (username) DO NOTHING
		RETURNING id
	`, username, passwordHash, displayName, user.CreatedAt).Scan(&user.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserExists
	}
	if err != nil {
		return models.User{}, fmt.Errorf("CreateUser: %w", err)
	}
	return user, nil
}

// GetUserByUsername fetches a user by login name.
// Returns ErrUserNotFound if there is no such user.
func (s *PostgresUserRepository) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	err := s.DB.QueryRowContext(ctx, `
		SELECT id, username, password_hash, display_name, created_at FROM users WHERE username = $1
	`, username).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetUserByUsername: %w", err)
	}
	return &u, nil
}

// ListUsers returns all users ordered by id.
func (s *PostgresUserRepository) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, username, password_hash, display_name, created_at FROM users ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("ListUsers: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.DisplayName, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
