package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalArchiveStore(t *testing.T) {
	archiveDir := filepath.Join(t.TempDir(), "archive")
	archive, err := NewLocalArchive(archiveDir)
	require.NoError(t, err)

	srcPath := filepath.Join(t.TempDir(), "song.mp3")
	require.NoError(t, os.WriteFile(srcPath, []byte("audio bytes"), 0o644))

	stored, err := archive.Store(context.Background(), srcPath, "Post Malone - Sunflower.mp3")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archiveDir, "Post Malone - Sunflower.mp3"), stored)

	data, err := os.ReadFile(stored)
	require.NoError(t, err)
	assert.Equal(t, []byte("audio bytes"), data)

	// The source must stay in place; the caller owns its lifecycle.
	_, err = os.Stat(srcPath)
	assert.NoError(t, err)
}

func TestLocalArchiveMissingSource(t *testing.T) {
	archive, err := NewLocalArchive(t.TempDir())
	require.NoError(t, err)

	_, err = archive.Store(context.Background(), "/nonexistent/file.mp3", "file.mp3")
	assert.Error(t, err)
}
