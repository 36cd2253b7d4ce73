package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

const (
	apiRegister = "/api/register"
	apiLogin    = "/api/login"
	apiMe       = "/api/me"
	apiData     = "/api/data"
	apiSearch   = "/api/search"
	apiTags     = "/api/tags/stats"
	apiAsk      = "/api/ai/query"

	defaultTimeout = 60 * time.Second
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

// AuthResult is the body of a successful register or login.
type AuthResult struct {
	Message string             `json:"message,omitempty"`
	Token   string             `json:"token"`
	User    models.UserProfile `json:"user"`
}

// NoteInput describes a note to upload. File paths are read at send time.
type NoteInput struct {
	ID          string
	Title       string
	Text        string
	Tags        []string
	Location    *models.Location
	Images      []string
	Audio       []string
	Transcripts []string
}

// Client calls the NoteKeeper API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New returns a Client for baseURL authenticating with token (may be empty).
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: defaultTimeout},
	}
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, username, password, displayName string) (AuthResult, error) {
	var out AuthResult
	err := c.postJSON(ctx, apiRegister, map[string]string{
		"username":    username,
		"password":    password,
		"displayName": displayName,
	}, &out)
	return out, err
}

// Login exchanges credentials for a token.
func (c *Client) Login(ctx context.Context, username, password string) (AuthResult, error) {
	var out AuthResult
	err := c.postJSON(ctx, apiLogin, map[string]string{"username": username, "password": password}, &out)
	return out, err
}

// Me returns the profile bound to the token.
func (c *Client) Me(ctx context.Context) (models.UserProfile, error) {
	var out models.UserProfile
	err := c.get(ctx, apiMe, &out)
	return out, err
}

// ListNotes returns every note of the current user.
func (c *Client) ListNotes(ctx context.Context) ([]models.Note, error) {
	var out []models.Note
	err := c.get(ctx, apiData, &out)
	return out, err
}

// Search returns notes whose title or text contains q.
func (c *Client) Search(ctx context.Context, q string) ([]models.Note, error) {
	var out []models.Note
	err := c.get(ctx, apiSearch+"?q="+url.QueryEscape(q), &out)
	return out, err
}

// TagStats returns the tag counts of the current user.
func (c *Client) TagStats(ctx context.Context) (models.TagStats, error) {
	var out models.TagStats
	err := c.get(ctx, apiTags, &out)
	return out, err
}

// Ask sends a question to the assistant.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var out struct {
		Answer string `json:"answer"`
	}
	err := c.postJSON(ctx, apiAsk, map[string]string{"question": question}, &out)
	return out.Answer, err
}

// AddNote uploads a note with its attachments as a multipart form.
func (c *Client) AddNote(ctx context.Context, in NoteInput) (models.Note, error) {
	body, contentType, err := encodeNote(in)
	if err != nil {
		return models.Note{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, apiData, body)
	if err != nil {
		return models.Note{}, err
	}
	req.Header.Set("Content-Type", contentType)

	var out models.Note
	err = c.do(req, &out)
	return out, err
}

func encodeNote(in NoteInput) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	fields := map[string]string{"id": in.ID, "title": in.Title, "text": in.Text}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if len(in.Tags) > 0 {
		tags, err := json.Marshal(in.Tags)
		if err != nil {
			return nil, "", err
		}
		if err := w.WriteField("tags", string(tags)); err != nil {
			return nil, "", err
		}
	}
	if in.Location != nil {
		loc, err := json.Marshal(in.Location)
		if err != nil {
			return nil, "", err
		}
		if err := w.WriteField("location", string(loc)); err != nil {
			return nil, "", err
		}
	}
	for _, t := range in.Transcripts {
		if err := w.WriteField("transcript", t); err != nil {
			return nil, "", err
		}
	}
	for _, f := range []struct {
		field string
		paths []string
	}{{string(models.MediaImage), in.Images}, {string(models.MediaAudio), in.Audio}} {
		for _, path := range f.paths {
			if err := attachFile(w, f.field, path); err != nil {
				return nil, "", err
			}
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &body, w.FormDataContentType(), nil
}

func attachFile(w *multipart.Writer, field, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	part, err := w.CreateFormFile(field, filepath.Base(path))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	b, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var e struct {
			Error string `json:"error"`
		}
		msg := strings.TrimSpace(string(data))
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			msg = e.Error
		}
		return &APIError{Status: resp.StatusCode, Message: msg}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
