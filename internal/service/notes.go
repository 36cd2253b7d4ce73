package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

// NoteRepository defines the persistence operations needed by the NoteService.
type NoteRepository interface {
	NoteInitializer
	// ListNotes returns the user's notes in insertion order.
	ListNotes(ctx context.Context, username string) ([]models.Note, error)
	// AppendNote stores note at the end of the user's list.
	AppendNote(ctx context.Context, username string, note models.Note) (models.Note, error)
	// RawFile returns the stored representation of the user's notes.
	RawFile(ctx context.Context, username string) (models.RawFile, error)
	// MediaURLs lists every attachment URL still referenced by stored notes.
	// It must fail rather than under-report when notes cannot be read.
	MediaURLs(ctx context.Context) ([]string, error)
}

// NewNote carries the client-supplied part of a note.
type NewNote struct {
	ID       string
	Title    string
	Text     string
	Tags     []string
	Location *models.Location
	Media    []models.Media
}

// NoteService implements listing, appending, searching and tag statistics.
type NoteService struct {
	repo NoteRepository
	log  *zap.Logger
	now  func() time.Time
}

// NewNoteService constructs a NoteService with the provided repository.
func NewNoteService(repo NoteRepository, log *zap.Logger) *NoteService {
	return &NoteService{repo: repo, log: log, now: time.Now}
}

// List returns every note of username in store order.
func (s *NoteService) List(ctx context.Context, username string) ([]models.Note, error) {
	return s.repo.ListNotes(ctx, username)
}

// Add stamps in with the owner and creation time and appends it.
// An empty id is replaced by the creation time in epoch milliseconds.
func (s *NoteService) Add(ctx context.Context, username string, in NewNote) (models.Note, error) {
	now := s.now().UnixMilli()
	note := models.Note{
		ID:           in.ID,
		Title:        in.Title,
		Text:         in.Text,
		Tags:         in.Tags,
		Timestamp:    now,
		LastModified: now,
		User:         username,
		Location:     in.Location,
		Media:        in.Media,
	}
	if note.ID == "" {
		note.ID = strconv.FormatInt(now, 10)
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}
	if note.Media == nil {
		note.Media = []models.Media{}
	}

	saved, err := s.repo.AppendNote(ctx, username, note)
	if err != nil {
		return models.Note{}, err
	}
	s.log.Info("note added",
		zap.String("user", username), zap.String("id", saved.ID),
		zap.Int("tags", len(saved.Tags)), zap.Int("media", len(saved.Media)))
	return saved, nil
}

// Search returns the notes whose title or text contains q, ignoring case.
// An empty q returns every note. Store failures are logged and yield no results.
func (s *NoteService) Search(ctx context.Context, username, q string) []models.Note {
	notes, err := s.repo.ListNotes(ctx, username)
	if err != nil {
		s.log.Error("search failed", zap.String("user", username), zap.Error(err))
		return []models.Note{}
	}
	return FilterNotes(notes, q)
}

// TagStats counts tag occurrences across all of username's notes.
func (s *NoteService) TagStats(ctx context.Context, username string) (models.TagStats, error) {
	notes, err := s.repo.ListNotes(ctx, username)
	if err != nil {
		return nil, err
	}
	return CountTags(notes), nil
}

// RawFile returns the stored representation of username's notes.
func (s *NoteService) RawFile(ctx context.Context, username string) (models.RawFile, error) {
	return s.repo.RawFile(ctx, username)
}

// MediaReferences collects the URL of every attachment of every user.
// Any store read failure is returned so that no upload is treated as orphaned.
func (s *NoteService) MediaReferences(ctx context.Context) (map[string]struct{}, error) {
	urls, err := s.repo.MediaURLs(ctx)
	if err != nil {
		return nil, err
	}
	refs := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		refs[u] = struct{}{}
	}
	return refs, nil
}

// FilterNotes keeps the notes whose title or text contains q case-insensitively,
// preserving order. An empty q keeps everything.
func FilterNotes(notes []models.Note, q string) []models.Note {
	if q == "" {
		return notes
	}
	q = strings.ToLower(q)
	out := []models.Note{}
	for _, n := range notes {
		if strings.Contains(strings.ToLower(n.Title), q) || strings.Contains(strings.ToLower(n.Text), q) {
			out = append(out, n)
		}
	}
	return out
}

// CountTags maps each tag to its number of occurrences. Tags are compared
// verbatim: "Go", "go" and "go " are three different tags.
func CountTags(notes []models.Note) models.TagStats {
	stats := models.TagStats{}
	for _, n := range notes {
		for _, tag := range n.Tags {
			stats[tag]++
		}
	}
	return stats
}
