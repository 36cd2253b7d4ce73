package http

import (
	"context"
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strings"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/service"
)

const (
	// MaxFilesPerKind limits the images and the audio clips attached to one note.
	MaxFilesPerKind = 5

	multipartMemory = 32 << 20
)

// NoteService defines the note operations required by NoteHandler.
type NoteService interface {
	List(ctx context.Context, username string) ([]models.Note, error)
	Add(ctx context.Context, username string, in service.NewNote) (models.Note, error)
	Search(ctx context.Context, username, q string) []models.Note
	TagStats(ctx context.Context, username string) (models.TagStats, error)
}

// MediaStore persists uploaded files and returns their public URLs.
type MediaStore interface {
	Save(field string, fh *multipart.FileHeader) (string, error)
	Remove(url string) error
}

// NoteHandler serves note listing, creation, search and tag statistics.
type NoteHandler struct {
	Notes NoteService
	Media MediaStore
	Log   *zap.Logger
}

// noteRequest is the JSON form of POST /api/data.
type noteRequest struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Text     string           `json:"text"`
	Tags     []string         `json:"tags"`
	Location *models.Location `json:"location"`
}

var errBadRequest = errors.New("bad request")

type badRequest string

func (e badRequest) Error() string { return string(e) }
func (e badRequest) Unwrap() error { return errBadRequest }

// List handles GET /api/data.
func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	notes, err := h.Notes.List(r.Context(), middleware.GetUsernameFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, "list notes", err)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// Create handles POST /api/data. It accepts either a JSON body or a
// multipart form with "image" and "audio" file fields.
func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	username := middleware.GetUsernameFromContext(r.Context())

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	var (
		in    service.NewNote
		saved []string
		err   error
	)
	switch ct {
	case "multipart/form-data":
		in, saved, err = h.fromMultipart(r)
	case "application/json", "":
		in, err = h.fromJSON(r)
	default:
		writeError(w, http.StatusUnsupportedMediaType, "unsupported content type")
		return
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		case errors.Is(err, errBadRequest):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.Log.Error("store upload failed", zap.String("user", username), zap.Error(err))
			writeError(w, http.StatusInternalServerError, "failed to save note")
		}
		return
	}

	note, err := h.Notes.Add(r.Context(), username, in)
	if err != nil {
		h.discard(saved)
		writeServiceError(w, h.Log, "add note", err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (h *NoteHandler) fromJSON(r *http.Request) (service.NewNote, error) {
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.NewNote{}, err
		}
		return service.NewNote{}, badRequest("invalid request")
	}
	return service.NewNote{
		ID:       req.ID,
		Title:    req.Title,
		Text:     req.Text,
		Tags:     req.Tags,
		Location: req.Location,
	}, nil
}

// fromMultipart parses the form and stores its files. The returned URLs
// must be discarded by the caller if the note is not saved.
func (h *NoteHandler) fromMultipart(r *http.Request) (service.NewNote, []string, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return service.NewNote{}, nil, err
		}
		return service.NewNote{}, nil, badRequest("invalid multipart form")
	}
	defer r.MultipartForm.RemoveAll()

	in := service.NewNote{
		ID:    r.FormValue("id"),
		Title: r.FormValue("title"),
		Text:  r.FormValue("text"),
	}

	if raw := r.FormValue("tags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Tags); err != nil {
			h.Log.Warn("ignoring malformed tags", zap.String("tags", raw), zap.Error(err))
			in.Tags = nil
		}
	}
	if raw := strings.TrimSpace(r.FormValue("location")); raw != "" {
		var loc *models.Location
		if err := json.Unmarshal([]byte(raw), &loc); err != nil {
			return service.NewNote{}, nil, badRequest("invalid location")
		}
		in.Location = loc
	}

	images := filesFor(r.MultipartForm, string(models.MediaImage))
	audio := filesFor(r.MultipartForm, string(models.MediaAudio))
	if len(images) > MaxFilesPerKind || len(audio) > MaxFilesPerKind {
		return service.NewNote{}, nil, badRequest("too many files")
	}
	transcripts := r.MultipartForm.Value["transcript"]

	var saved []string
	for _, fh := range images {
		url, err := h.Media.Save(string(models.MediaImage), fh)
		if err != nil {
			h.discard(saved)
			return service.NewNote{}, nil, err
		}
		saved = append(saved, url)
		in.Media = append(in.Media, models.Media{Type: models.MediaImage, URL: url})
	}
	for i, fh := range audio {
		url, err := h.Media.Save(string(models.MediaAudio), fh)
		if err != nil {
			h.discard(saved)
			return service.NewNote{}, nil, err
		}
		saved = append(saved, url)
		in.Media = append(in.Media, models.Media{
			Type:       models.MediaAudio,
			URL:        url,
			Transcript: transcriptFor(transcripts, i),
		})
	}
	return in, saved, nil
}

// filesFor accepts both "image" and "image[]" field names.
func filesFor(form *multipart.Form, field string) []*multipart.FileHeader {
	return append(form.File[field], form.File[field+"[]"]...)
}

// transcriptFor returns the transcript of the i-th audio file. A single
// transcript value applies to every clip.
func transcriptFor(values []string, i int) string {
	switch {
	case len(values) == 1:
		return values[0]
	case i < len(values):
		return values[i]
	default:
		return ""
	}
}

func (h *NoteHandler) discard(urls []string) {
	for _, u := range urls {
		if err := h.Media.Remove(u); err != nil {
			h.Log.Warn("cannot remove unused upload", zap.String("url", u), zap.Error(err))
		}
	}
}

// Search handles GET /api/search?q=.
func (h *NoteHandler) Search(w http.ResponseWriter, r *http.Request) {
	notes := h.Notes.Search(r.Context(), middleware.GetUsernameFromContext(r.Context()), r.URL.Query().Get("q"))
	writeJSON(w, http.StatusOK, notes)
}

// TagStats handles GET /api/tags/stats.
func (h *NoteHandler) TagStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Notes.TagStats(r.Context(), middleware.GetUsernameFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, "tag stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
