// Package download drives the external extraction collaborator and manages
// the lifecycle of the produced audio artifact.
package download

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/soundseek/soundseek/internal/domain"
)

var (
	ErrInvalidID       = fmt.Errorf("invalid video id")
	ErrArtifactMissing = fmt.Errorf("audio artifact missing or empty")
	ErrCollaborator    = fmt.Errorf("extraction collaborator failed")
)

// Metadata describes a track as reported by the extraction collaborator.
type Metadata struct {
	Title  string
	Artist string
}

// Extractor is the external media-extraction collaborator.
type Extractor interface {
	ResolveMetadata(ctx context.Context, videoID string) (Metadata, error)
	Download(ctx context.Context, videoID, outputPath string) error
}

// Artifact is a transcoded audio file ready for delivery. The caller owns
// it and must Close it when done; Close removes the file.
type Artifact struct {
	Path   string
	Title  string
	Artist string
	Size   int64
}

// Close removes the artifact from disk. Safe to call more than once.
func (a *Artifact) Close() error {
	if a.Path == "" {
		return nil
	}
	err := os.Remove(a.Path)
	a.Path = ""
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove artifact: %w", err)
	}
	return nil
}

// Orchestrator validates download requests and turns collaborator output
// into verified artifacts.
type Orchestrator struct {
	extractor    Extractor
	downloadsDir string
}

func NewOrchestrator(extractor Extractor, downloadsDir string) *Orchestrator {
	return &Orchestrator{extractor: extractor, downloadsDir: downloadsDir}
}

// Fetch resolves metadata for videoID, downloads the transcoded audio, and
// validates the result. On any failure after the file was created, the
// partial file is removed before returning.
func (o *Orchestrator) Fetch(ctx context.Context, videoID string) (*Artifact, error) {
	if !domain.ValidVideoID(videoID) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, videoID)
	}

	if err := os.MkdirAll(o.downloadsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create downloads directory: %w", err)
	}

	meta, err := o.extractor.ResolveMetadata(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	outputPath := filepath.Join(o.downloadsDir, artifactFileName(meta, videoID))

	if err := o.extractor.Download(ctx, videoID, outputPath); err != nil {
		removeIfExists(outputPath)
		return nil, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		removeIfExists(outputPath)
		return nil, fmt.Errorf("%w: %s", ErrArtifactMissing, outputPath)
	}
	if info.Size() == 0 {
		removeIfExists(outputPath)
		return nil, fmt.Errorf("%w: %s is empty", ErrArtifactMissing, outputPath)
	}

	return &Artifact{
		Path:   outputPath,
		Title:  meta.Title,
		Artist: meta.Artist,
		Size:   info.Size(),
	}, nil
}

// artifactFileName builds "Artist - Title.mp3" from scrubbed metadata,
// falling back to the video id when nothing printable survives.
func artifactFileName(meta Metadata, videoID string) string {
	artist := scrubFileName(meta.Artist)
	title := scrubFileName(meta.Title)

	var base string
	switch {
	case artist != "" && title != "":
		base = fmt.Sprintf("%s - %s", artist, title)
	case title != "":
		base = title
	default:
		base = videoID
	}
	return base + ".mp3"
}

// scrubFileName keeps letters, digits, spaces, hyphens, and underscores.
func scrubFileName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func removeIfExists(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove partial artifact", "path", path, "error", err)
	}
}
