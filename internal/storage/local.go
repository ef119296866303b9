package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalArchive copies artifacts into a directory on the local filesystem.
type LocalArchive struct {
	dir string
}

func NewLocalArchive(dir string) (*LocalArchive, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create archive directory %s: %w", dir, err)
	}
	return &LocalArchive{dir: dir}, nil
}

// Store copies localPath into the archive directory under name and
// returns the destination path.
func (a *LocalArchive) Store(_ context.Context, localPath, name string) (string, error) {
	src, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact %s: %w", localPath, err)
	}
	defer src.Close()

	destPath := filepath.Join(a.dir, name)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to create archive file %s: %w", destPath, err)
	}

	if _, err := io.Copy(dest, src); err != nil {
		dest.Close()
		os.Remove(destPath)
		return "", fmt.Errorf("failed to copy artifact to archive: %w", err)
	}
	if err := dest.Close(); err != nil {
		os.Remove(destPath)
		return "", fmt.Errorf("failed to close archive file: %w", err)
	}
	return destPath, nil
}

func (a *LocalArchive) Close() error {
	return nil
}
