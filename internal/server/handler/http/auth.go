// Package http provides the NoteKeeper HTTP API: account endpoints, note
// storage and search, tag statistics and the assistant.
package http

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/models"
)

// AuthService defines the interface for authentication operations
// required by the HTTP handlers.
type AuthService interface {
	// Register creates an account and returns a token for it.
	Register(ctx context.Context, username, password, displayName string) (string, models.UserProfile, error)
	// Login verifies a password and returns a fresh token.
	Login(ctx context.Context, username, password string) (string, models.UserProfile, error)
	// Me returns the profile of an authenticated user.
	Me(ctx context.Context, username string) (models.UserProfile, error)
}

// AuthHandler handles HTTP requests for registration, login and the current user.
type AuthHandler struct {
	// AuthService performs the underlying authentication operations.
	AuthService AuthService
	Log         *zap.Logger
}

// RegisterRequest represents the JSON payload for user registration.
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// LoginRequest represents the JSON payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string             `json:"message,omitempty"`
	Token   string             `json:"token"`
	User    models.UserProfile `json:"user"`
}

// Register handles POST /api/register.
// All three fields are required; a taken username yields 409.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, user, err := h.AuthService.Register(r.Context(), req.Username, req.Password, req.DisplayName)
	if err != nil {
		writeServiceError(w, h.Log, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{
		Message: "User registered successfully",
		Token:   token,
		User:    user,
	})
}

// Login handles POST /api/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	token, user, err := h.AuthService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(w, h.Log, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.AuthService.Me(r.Context(), middleware.GetUsernameFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, h.Log, "me", err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
