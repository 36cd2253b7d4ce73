package media_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/atinyakov/NoteKeeper/internal/media"
	"github.com/atinyakov/NoteKeeper/internal/models"
	"github.com/atinyakov/NoteKeeper/internal/repository"
	"github.com/atinyakov/NoteKeeper/internal/service"
)

func backdatedUpload(t *testing.T, store *media.Store, field string) (string, string) {
	t.Helper()
	url, err := store.SaveReader(field, "clip.jpg", strings.NewReader("bytes"))
	require.NoError(t, err)
	name, ok := media.NameFromURL(url)
	require.True(t, ok)
	path := filepath.Join(store.Dir(), name)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))
	return url, path
}

func TestSweepOrphans_NoteFileStates(t *testing.T) {
	ctx := context.Background()
	dataDir := t.TempDir()

	store, err := media.NewStore(filepath.Join(dataDir, "media"))
	require.NoError(t, err)
	repo, err := repository.NewFileNoteRepository(dataDir, zap.NewNop())
	require.NoError(t, err)
	notes := service.NewNoteService(repo, zap.NewNop())

	url, kept := backdatedUpload(t, store, "image")
	_, err = notes.Add(ctx, "alice", service.NewNote{
		Title: "Trip",
		Media: []models.Media{{Type: models.MediaImage, URL: url}},
	})
	require.NoError(t, err)

	removed, err := media.SweepOrphans(ctx, store, notes.MediaReferences, 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// A damaged note file aborts the sweep.
	noteFile := filepath.Join(dataDir, "notes", "alice.json")
	data, err := os.ReadFile(noteFile)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(noteFile, data[:len(data)/2], 0o600))

	removed, err = media.SweepOrphans(ctx, store, notes.MediaReferences, 24*time.Hour)
	assert.Error(t, err)
	assert.Zero(t, removed)
	assert.FileExists(t, kept)

	// The next append moves the damaged file aside; sweeping waits until
	// the backup is resolved.
	_, err = notes.Add(ctx, "alice", service.NewNote{Title: "After"})
	require.NoError(t, err)
	backups, err := filepath.Glob(noteFile + ".corrupt-*")
	require.NoError(t, err)
	require.Len(t, backups, 1)

	_, orphan := backdatedUpload(t, store, "audio")

	removed, err = media.SweepOrphans(ctx, store, notes.MediaReferences, 24*time.Hour)
	assert.ErrorIs(t, err, repository.ErrUnresolvedBackup)
	assert.Zero(t, removed)
	assert.FileExists(t, kept)
	assert.FileExists(t, orphan)

	require.NoError(t, os.Remove(backups[0]))
	removed, err = media.SweepOrphans(ctx, store, notes.MediaReferences, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoFileExists(t, kept)
	assert.NoFileExists(t, orphan)
}
