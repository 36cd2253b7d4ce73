package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/NoteKeeper/internal/models"
)

func TestSession_LoadMissing(t *testing.T) {
	s, err := LoadSession(filepath.Join(t.TempDir(), "session.json"))
	require.NoError(t, err)
	assert.False(t, s.LoggedIn())
}

func TestSession_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	s := &Session{BaseURL: "http://localhost:3001", Token: "tok", Username: "alice"}
	require.NoError(t, s.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadSession(path)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)

	loaded.Clear()
	assert.False(t, loaded.LoggedIn())
	assert.Equal(t, "http://localhost:3001", loaded.BaseURL)
}

func TestSession_LoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := LoadSession(path)
	assert.Error(t, err)
}

func TestClient_AuthAndQueries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case apiLogin:
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			if body["password"] != "pw" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid username or password"}`))
				return
			}
			_, _ = w.Write([]byte(`{"token":"tok","user":{"id":1,"username":"alice","displayName":"Alice"}}`))
		case apiSearch:
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			assert.Equal(t, "kyoto trip", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(`[{"id":"1","title":"Trip"}]`))
		case apiTags:
			_, _ = w.Write([]byte(`{"travel":2}`))
		case apiAsk:
			_, _ = w.Write([]byte(`{"answer":"Kyoto"}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	ctx := context.Background()
	_, err := New(srv.URL, "").Login(ctx, "alice", "wrong")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "invalid username or password", apiErr.Message)

	res, err := New(srv.URL+"/", "").Login(ctx, "alice", "pw")
	require.NoError(t, err)
	assert.Equal(t, "tok", res.Token)
	assert.Equal(t, "Alice", res.User.DisplayName)

	c := New(srv.URL, res.Token)
	notes, err := c.Search(ctx, "kyoto trip")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Trip", notes[0].Title)

	stats, err := c.TagStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.TagStats{"travel": 2}, stats)

	answer, err := c.Ask(ctx, "where?")
	require.NoError(t, err)
	assert.Equal(t, "Kyoto", answer)
}

func TestClient_AddNote(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "photo.jpg")
	require.NoError(t, os.WriteFile(img, []byte("jpeg"), 0o600))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Trip", r.FormValue("title"))
		assert.JSONEq(t, `["travel","japan"]`, r.FormValue("tags"))
		assert.JSONEq(t, `{"latitude":35,"longitude":135.7,"name":"Kyoto"}`, r.FormValue("location"))
		assert.Empty(t, r.FormValue("id"))

		files := r.MultipartForm.File["image"]
		require.Len(t, files, 1)
		assert.Equal(t, "photo.jpg", files[0].Filename)
		f, err := files[0].Open()
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		f.Close()
		assert.Equal(t, "jpeg", string(data))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"1","title":"Trip","media":[{"type":"image","url":"/media/image-1-2.jpg"}]}`))
	}))
	defer srv.Close()

	note, err := New(srv.URL, "tok").AddNote(context.Background(), NoteInput{
		Title:    "Trip",
		Tags:     []string{"travel", "japan"},
		Location: &models.Location{Latitude: 35, Longitude: 135.7, Name: "Kyoto"},
		Images:   []string{img},
	})
	require.NoError(t, err)
	require.Len(t, note.Media, 1)
	assert.Equal(t, models.MediaImage, note.Media[0].Type)
}

func TestClient_AddNoteMissingFile(t *testing.T) {
	_, err := New("http://127.0.0.1:0", "tok").AddNote(context.Background(), NoteInput{
		Audio: []string{filepath.Join(t.TempDir(), "missing.webm")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.webm")
}

func TestPromptMissing(t *testing.T) {
	username, password := "alice", ""
	var out bytes.Buffer
	r := bufio.NewReader(strings.NewReader("secret\n"))

	err := PromptMissing(r, &out,
		PromptField{Label: "Username: ", Value: &username},
		PromptField{Label: "Password: ", Value: &password},
	)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.Equal(t, "secret", password)
	assert.Equal(t, "Password: ", out.String())

	empty := ""
	err = PromptMissing(bufio.NewReader(strings.NewReader("")), io.Discard, PromptField{Label: "Name: ", Value: &empty})
	assert.Error(t, err)

	v, err := Prompt(bufio.NewReader(strings.NewReader("no newline")), io.Discard, "> ")
	require.NoError(t, err)
	assert.Equal(t, "no newline", v)
}
