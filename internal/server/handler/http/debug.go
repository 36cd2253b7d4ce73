package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/models"
)

// RawFileService exposes the stored form of a user's notes.
type RawFileService interface {
	RawFile(ctx context.Context, username string) (models.RawFile, error)
}

// DebugHandler serves diagnostic endpoints. It is only mounted when debug
// endpoints are enabled in the configuration.
type DebugHandler struct {
	Files RawFileService
	Log   *zap.Logger
}

// File handles GET /api/debug/file/{username}. Users can only read their own file.
func (h *DebugHandler) File(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	if username != middleware.GetUsernameFromContext(r.Context()) {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}

	file, err := h.Files.RawFile(r.Context(), username)
	if err != nil {
		writeServiceError(w, h.Log, "debug file", err)
		return
	}
	writeJSON(w, http.StatusOK, file)
}
