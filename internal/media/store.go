// Package media stores uploaded attachments on disk and removes the ones
// no note refers to.
package media

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// URLPrefix is the path under which stored files are served.
const URLPrefix = "/media/"

// Store writes uploads into a single directory.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore returns a Store rooted at dir, creating it if needed.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}
	return &Store{dir: dir, now: time.Now}, nil
}

// Dir is the directory files are written to.
func (s *Store) Dir() string { return s.dir }

// Save copies the uploaded file into the store and returns its public URL.
// The stored name is <field>-<epoch-ms>-<random><ext>.
func (s *Store) Save(field string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %q: %w", fh.Filename, err)
	}
	defer src.Close()
	return s.SaveReader(field, fh.Filename, src)
}

// SaveReader is Save for content that did not arrive as a multipart part.
func (s *Store) SaveReader(field, originalName string, r io.Reader) (string, error) {
	name := s.fileName(field, originalName)
	path := filepath.Join(s.dir, name)

	dst, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create media file: %w", err)
	}
	if _, err := io.Copy(dst, r); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write media file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close media file: %w", err)
	}
	return URLPrefix + name, nil
}

// Remove deletes the file behind a URL returned by Save.
// Removing a file that is already gone is not an error.
func (s *Store) Remove(url string) error {
	name, ok := NameFromURL(url)
	if !ok {
		return fmt.Errorf("not a media url: %q", url)
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

func (s *Store) fileName(field, originalName string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(originalName)))
	if strings.ContainsAny(ext, `/\`) {
		ext = ""
	}
	field = strings.Trim(strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == 0 || r == '[' || r == ']' {
			return -1
		}
		return r
	}, field), ".")
	if field == "" {
		field = "file"
	}
	return fmt.Sprintf("%s-%d-%d%s", field, s.now().UnixMilli(), uuid.New().ID(), ext)
}

// NameFromURL returns the file name of a /media/ URL.
func NameFromURL(url string) (string, bool) {
	name, ok := strings.CutPrefix(url, URLPrefix)
	if !ok || name == "" || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return name, true
}
