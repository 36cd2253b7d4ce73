package repository

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/lib/pq"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

// PostgresNoteRepository implements note persistence against a PostgreSQL database.
// Notes keep their insertion order through the seq column.
type PostgresNoteRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
}

// NewPostgresNoteRepository creates a new PostgresNoteRepository using the provided *sql.DB.
func NewPostgresNoteRepository(db *sql.DB) *PostgresNoteRepository {
	return &PostgresNoteRepository{DB: db}
}

// InitUser is a no-op: a user's notes exist as soon as the user row does.
func (s *PostgresNoteRepository) InitUser(ctx context.Context, username string) error {
	return nil
}

// ListNotes fetches all notes for the specified user in insertion order.
func (s *PostgresNoteRepository) ListNotes(ctx context.Context, username string) ([]models.Note, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT note_id, title, body, tags, created_ms, modified_ms, location, media
		FROM notes WHERE username = $1 ORDER BY seq
	`, username)
	if err != nil {
		return nil, fmt.Errorf("ListNotes: %w", err)
	}
	defer rows.Close()

	notes := []models.Note{}
	for rows.Next() {
		n := models.Note{User: username}
		var location, media []byte
		if err := rows.Scan(&n.ID, &n.Title, &n.Text, pq.Array(&n.Tags),
			&n.Timestamp, &n.LastModified, &location, &media); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if len(location) > 0 {
			n.Location = &models.Location{}
			if err := json.Unmarshal(location, n.Location); err != nil {
				return nil, fmt.Errorf("decode location of %s: %w", n.ID, err)
			}
		}
		if len(media) > 0 {
			if err := json.Unmarshal(media, &n.Media); err != nil {
				return nil, fmt.Errorf("decode media of %s: %w", n.ID, err)
			}
		}
		if n.Tags == nil {
			n.Tags = []string{}
		}
		if n.Media == nil {
			n.Media = []models.Media{}
		}
		notes = append(notes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListNotes: %w", err)
	}
	return notes, nil
}

// AppendNote inserts note for the user and returns it unchanged.
func (s *PostgresNoteRepository) AppendNote(ctx context.Context, username string, note models.Note) (models.Note, error) {
	// JSON goes over the wire as text; lib/pq would send []byte as bytea.
	var location any
	if note.Location != nil {
		b, err := json.Marshal(note.Location)
		if err != nil {
			return models.Note{}, fmt.Errorf("encode location: %w", err)
		}
		location = string(b)
	}
	tags := note.Tags
	if tags == nil {
		tags = []string{}
	}
	media := note.Media
	if media == nil {
		media = []models.Media{}
	}
	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return models.Note{}, fmt.Errorf("encode media: %w", err)
	}

	_, err = s.DB.ExecContext(ctx, `
		INSERT INTO notes (note_id, username, title, body, tags, created_ms, modified_ms, location, media)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, note.ID, username, note.Title, note.Text, pq.Array(tags),
		note.Timestamp, note.LastModified, location, string(mediaJSON))
	if err != nil {
		return models.Note{}, fmt.Errorf("AppendNote: %w", err)
	}
	return note, nil
}

// RawFile renders the user's notes as the JSON document the file backend
// would hold. Returns ErrNotFound for unknown users.
func (s *PostgresNoteRepository) RawFile(ctx context.Context, username string) (models.RawFile, error) {
	var exists bool
	if err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists); err != nil {
		return models.RawFile{}, fmt.Errorf("RawFile: %w", err)
	}
	if !exists {
		return models.RawFile{}, ErrNotFound
	}

	notes, err := s.ListNotes(ctx, username)
	if err != nil {
		return models.RawFile{}, err
	}
	content, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return models.RawFile{}, fmt.Errorf("encode notes: %w", err)
	}
	return models.RawFile{
		Filename: username + ".json",
		Path:     "postgres:notes/" + username,
		Size:     int64(len(content)),
		Content:  string(content),
	}, nil
}

// MediaURLs returns the URL of every attachment of every note.
func (s *PostgresNoteRepository) MediaURLs(ctx context.Context) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT note_id, media FROM notes`)
	if err != nil {
		return nil, fmt.Errorf("MediaURLs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var (
			id    string
			raw   []byte
			media []models.Media
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		if len(raw) == 0 {
			continue
		}
		if err := json.Unmarshal(raw, &media); err != nil {
			return nil, fmt.Errorf("decode media of %s: %w", id, err)
		}
		for _, m := range media {
			urls = append(urls, m.URL)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("MediaURLs: %w", err)
	}
	return urls, nil
}
