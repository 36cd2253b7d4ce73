package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

const notesDirName = "notes"

// FileNoteRepository stores each user's notes as one JSON array file,
// dataDir/notes/<username>.json. Appends rewrite the whole file.
type FileNoteRepository struct {
	dir   string
	locks *Locker
	log   *zap.Logger
	now   func() time.Time
}

// NewFileNoteRepository creates the notes directory under dataDir.
func NewFileNoteRepository(dataDir string, log *zap.Logger) (*FileNoteRepository, error) {
	dir := filepath.Join(dataDir, notesDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notes dir: %w", err)
	}
	return &FileNoteRepository{
		dir:   dir,
		locks: NewLocker(),
		log:   log,
		now:   time.Now,
	}, nil
}

func (r *FileNoteRepository) userFile(username string) (string, error) {
	if !models.ValidUsername(username) {
		return "", ErrInvalidUsername
	}
	return filepath.Join(r.dir, username+".json"), nil
}

// InitUser makes sure the user's file exists and holds a JSON array.
// A malformed file is moved aside and replaced with an empty array.
func (r *FileNoteRepository) InitUser(ctx context.Context, username string) error {
	path, err := r.userFile(username)
	if err != nil {
		return err
	}
	unlock := r.locks.Lock(username)
	defer unlock()

	_, err = r.read(path)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		r.log.Debug("creating note file", zap.String("user", username))
	default:
		r.preserve(path, err)
	}
	return r.write(path, nil)
}

// ListNotes returns the user's notes in insertion order. A missing,
// unreadable or malformed file yields an empty list; the cause is logged.
func (r *FileNoteRepository) ListNotes(ctx context.Context, username string) ([]models.Note, error) {
	path, err := r.userFile(username)
	if err != nil {
		return nil, err
	}
	notes, err := r.read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.log.Warn("note file unreadable, treating as empty",
				zap.String("user", username), zap.Error(err))
		}
		return []models.Note{}, nil
	}
	return notes, nil
}

// AppendNote adds note to the end of the user's file and returns it.
// Appends for the same user are serialized.
func (r *FileNoteRepository) AppendNote(ctx context.Context, username string, note models.Note) (models.Note, error) {
	path, err := r.userFile(username)
	if err != nil {
		return models.Note{}, err
	}
	unlock := r.locks.Lock(username)
	defer unlock()

	notes, err := r.read(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			r.preserve(path, err)
		}
		notes = nil
	}

	notes = append(notes, note)
	if err := r.write(path, notes); err != nil {
		return models.Note{}, err
	}
	r.log.Debug("note appended",
		zap.String("user", username), zap.String("id", note.ID), zap.Int("total", len(notes)))
	return note, nil
}

// RawFile returns the file's name, location, size and unparsed content.
func (r *FileNoteRepository) RawFile(ctx context.Context, username string) (models.RawFile, error) {
	path, err := r.userFile(username)
	if err != nil {
		return models.RawFile{}, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.RawFile{}, ErrNotFound
		}
		return models.RawFile{}, fmt.Errorf("read %s: %w", path, err)
	}
	return models.RawFile{
		Filename: filepath.Base(path),
		Path:     path,
		Size:     int64(len(data)),
		Content:  string(data),
	}, nil
}

// MediaURLs returns every attachment URL the note files reference.
// Unlike ListNotes it fails on a note file that cannot be read or decoded,
// and while any file preserved as <username>.json.corrupt-<ms> is present.
func (r *FileNoteRepository) MediaURLs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("read notes dir: %w", err)
	}
	var urls []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(r.dir, name)
		switch {
		case filepath.Ext(name) == ".json":
			notes, err := r.read(path)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			for _, n := range notes {
				for _, m := range n.Media {
					urls = append(urls, m.URL)
				}
			}
		case strings.Contains(name, ".json"+corruptSuffix):
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedBackup, name)
		}
	}
	return urls, nil
}

func (r *FileNoteRepository) read(path string) ([]models.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var notes []models.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if notes == nil {
		notes = []models.Note{}
	}
	for i := range notes {
		if notes[i].Tags == nil {
			notes[i].Tags = []string{}
		}
		if notes[i].Media == nil {
			notes[i].Media = []models.Media{}
		}
	}
	return notes, nil
}

func (r *FileNoteRepository) write(path string, notes []models.Note) error {
	if notes == nil {
		notes = []models.Note{}
	}
	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return fmt.Errorf("encode notes: %w", err)
	}
	if err := writeFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	return nil
}

// preserve moves a file that failed to load out of the way before it is
// overwritten, so its content can still be recovered by hand.
func (r *FileNoteRepository) preserve(path string, cause error) {
	backup, err := backupCorrupt(path, r.now())
	if err != nil {
		r.log.Error("cannot back up unreadable note file",
			zap.String("path", path), zap.NamedError("cause", cause), zap.Error(err))
		return
	}
	r.log.Warn("unreadable note file moved aside",
		zap.String("path", path), zap.String("backup", backup), zap.Error(cause))
}
