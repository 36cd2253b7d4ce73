// Package client is the HTTP client for the NoteKeeper API used by the
// command-line tool, together with the session file it keeps between runs.
package client

import (
	"errors"
	"fmt"
	"os"

	json "github.com/goccy/go-json"
)

// DefaultSessionFile is where the CLI keeps its session unless told otherwise.
const DefaultSessionFile = "session.json"

// ErrNotLoggedIn is returned when a command needs a token and the session has none.
var ErrNotLoggedIn = errors.New("not logged in: run register or login first")

// Session is what the CLI remembers between invocations.
type Session struct {
	BaseURL  string `json:"baseURL"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
}

// LoadSession reads the session at path. A missing file yields an empty session.
func LoadSession(path string) (*Session, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Session{}, nil
		}
		return nil, err
	}
	defer f.Close()

	s := &Session{}
	if err := json.NewDecoder(f).Decode(s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", path, err)
	}
	return s, nil
}

// Save writes the session to path, readable only by the owner.
func (s *Session) Save(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Chmod(0o600); err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// Clear forgets the token and username but keeps the server address.
func (s *Session) Clear() {
	s.Token = ""
	s.Username = ""
}

// LoggedIn reports whether the session holds a token.
func (s *Session) LoggedIn() bool {
	return s.Token != ""
}
