package http

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/middleware"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/service"
)

// fakeAuthService implements AuthService for testing.
type fakeAuthService struct {
	RegisterFunc func(ctx context.Context, username, password, displayName string) (string, models.UserProfile, error)
	LoginFunc    func(ctx context.Context, username, password string) (string, models.UserProfile, error)
	MeFunc       func(ctx context.Context, username string) (models.UserProfile, error)
}

func (f *fakeAuthService) Register(ctx context.Context, username, password, displayName string) (string, models.UserProfile, error) {
	return f.RegisterFunc(ctx, username, password, displayName)
}

func (f *fakeAuthService) Login(ctx context.Context, username, password string) (string, models.UserProfile, error) {
	return f.LoginFunc(ctx, username, password)
}

func (f *fakeAuthService) Me(ctx context.Context, username string) (models.UserProfile, error) {
	return f.MeFunc(ctx, username)
}

func TestAuthHandler_Register(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		err            error
		expectedCode   int
		expectedSubstr string
	}{
		{
			name:           "invalid JSON",
			body:           `not a json`,
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid request",
		},
		{
			name:           "missing fields",
			body:           `{"username":"alice"}`,
			err:            service.ErrMissingFields,
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "missing required fields",
		},
		{
			name:           "invalid username",
			body:           `{"username":"../x","password":"p","displayName":"X"}`,
			err:            service.ErrInvalidUsername,
			expectedCode:   http.StatusBadRequest,
			expectedSubstr: "invalid username",
		},
		{
			name:           "user already exists",
			body:           `{"username":"bob","password":"p","displayName":"Bob"}`,
			err:            service.ErrUserExists,
			expectedCode:   http.StatusConflict,
			expectedSubstr: "user already exists",
		},
		{
			name:           "store failure",
			body:           `{"username":"carol","password":"p","displayName":"Carol"}`,
			err:            errors.New("disk full at /var/data"),
			expectedCode:   http.StatusInternalServerError,
			expectedSubstr: "internal error",
		},
		{
			name:           "success",
			body:           `{"username":"alice","password":"pw123456","displayName":"Alice"}`,
			expectedCode:   http.StatusCreated,
			expectedSubstr: `"token":"tok"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuthService{
				RegisterFunc: func(ctx context.Context, username, password, displayName string) (string, models.UserProfile, error) {
					if tt.err != nil {
						return "", models.UserProfile{}, tt.err
					}
					return "tok", models.UserProfile{ID: 1, Username: username, DisplayName: displayName}, nil
				},
			}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/register", bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: svc, Log: zap.NewNop()}
			h.Register(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("expected status %d, got %d", tt.expectedCode, rec.Code)
			}
			if !bytes.Contains(rec.Body.Bytes(), []byte(tt.expectedSubstr)) {
				t.Errorf("expected body to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
			if bytes.Contains(rec.Body.Bytes(), []byte("/var/data")) {
				t.Error("internal error details leaked to client")
			}
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		err          error
		expectedCode int
	}{
		{name: "invalid JSON", body: `{`, expectedCode: http.StatusBadRequest},
		{name: "wrong password", body: `{"username":"a","password":"x"}`, err: service.ErrInvalidCredentials, expectedCode: http.StatusUnauthorized},
		{name: "store failure", body: `{"username":"a","password":"x"}`, err: errors.New("db"), expectedCode: http.StatusInternalServerError},
		{name: "success", body: `{"username":"frank","password":"x"}`, expectedCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeAuthService{
				LoginFunc: func(ctx context.Context, username, password string) (string, models.UserProfile, error) {
					if tt.err != nil {
						return "", models.UserProfile{}, tt.err
					}
					return "tok", models.UserProfile{ID: 4, Username: username, DisplayName: "Frank"}, nil
				},
			}
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(tt.body))
			h := &AuthHandler{AuthService: svc, Log: zap.NewNop()}
			h.Login(rec, req)

			if rec.Code != tt.expectedCode {
				t.Fatalf("%s: expected status %d, got %d", tt.name, tt.expectedCode, rec.Code)
			}
			if tt.expectedCode != http.StatusOK {
				return
			}

			var payload AuthResponse
			if err := json.NewDecoder(rec.Body).Decode(&payload); err != nil {
				t.Fatalf("failed to decode JSON: %v", err)
			}
			if payload.Token != "tok" || payload.User.Username != "frank" || payload.User.ID != 4 {
				t.Errorf("unexpected payload %+v", payload)
			}
		})
	}
}

func TestAuthHandler_Me(t *testing.T) {
	svc := &fakeAuthService{
		MeFunc: func(ctx context.Context, username string) (models.UserProfile, error) {
			if username != "alice" {
				return models.UserProfile{}, service.ErrUserNotFound
			}
			return models.UserProfile{ID: 1, Username: "alice", DisplayName: "Alice"}, nil
		},
	}
	h := &AuthHandler{AuthService: svc, Log: zap.NewNop()}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	h.Me(rec, req.WithContext(middleware.WithUsername(req.Context(), "alice")))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got models.UserProfile
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got.DisplayName != "Alice" {
		t.Errorf("unexpected profile %+v", got)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Error("profile exposes password fields")
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	h.Me(rec, req.WithContext(middleware.WithUsername(req.Context(), "ghost")))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for vanished user, got %d", rec.Code)
	}
}
