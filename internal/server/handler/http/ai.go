package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/middleware"
)

// Assistant answers questions about a user's notes.
type Assistant interface {
	Answer(ctx context.Context, username, question string) (string, error)
}

// AIHandler serves the assistant endpoint.
type AIHandler struct {
	Assistant Assistant
	Log       *zap.Logger
}

// QueryRequest is the body of POST /api/ai/query.
type QueryRequest struct {
	Question string `json:"question"`
}

// QueryResponse carries the assistant's answer.
type QueryResponse struct {
	Answer string `json:"answer"`
}

// Query handles POST /api/ai/query.
func (h *AIHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	answer, err := h.Assistant.Answer(r.Context(), middleware.GetUsernameFromContext(r.Context()), req.Question)
	if err != nil {
		writeServiceError(w, h.Log, "ai query", err)
		return
	}
	writeJSON(w, http.StatusOK, QueryResponse{Answer: answer})
}
