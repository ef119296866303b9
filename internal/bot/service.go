// Package bot implements the chat-facing behavior: turning messages into
// searches, button presses into downloads, and failures into classified,
// recorded errors.
package bot

import (
	"context"
	"errors"
	"log/slog"

	"github.com/soundseek/soundseek/internal/domain"
	"github.com/soundseek/soundseek/internal/download"
	"github.com/soundseek/soundseek/internal/registry"
	"github.com/soundseek/soundseek/internal/search"
	"github.com/soundseek/soundseek/internal/storage"
)

// Error kinds recorded with failed interactions.
const (
	errKindEmptyQuery      = "empty_query"
	errKindInvalidQuery    = "invalid_query"
	errKindNoResults       = "no_results"
	errKindSearchFailed    = "search_failed"
	errKindInvalidID       = "invalid_id"
	errKindArtifactMissing = "artifact_missing"
	errKindDownloadFailed  = "download_failed"
	errKindTokenExpired    = "token_expired"
)

// Searcher turns a raw query into candidates.
type Searcher interface {
	Search(ctx context.Context, rawQuery string) ([]domain.Candidate, error)
}

// Fetcher produces a verified audio artifact for a video id.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (*download.Artifact, error)
}

// Registrar binds candidates to short-lived tokens and resolves them back.
type Registrar interface {
	Register(candidates []domain.Candidate) []registry.Binding
	Resolve(token string) (domain.Candidate, error)
}

// EventLogger records interactions for the statistics subsystem.
type EventLogger interface {
	LogSearch(userID int64, query string, resultCount int)
	LogDownload(userID int64, videoID, title, artist string)
	LogError(userID int64, errorKind, message string, context map[string]string)
}

// Service coordinates one user interaction end to end. It owns the policy
// of what gets recorded; the transport layer only renders outcomes.
type Service struct {
	searcher Searcher
	fetcher  Fetcher
	tokens   Registrar
	events   EventLogger
	archive  storage.Archive
}

func NewService(searcher Searcher, fetcher Fetcher, tokens Registrar, events EventLogger, archive storage.Archive) *Service {
	return &Service{
		searcher: searcher,
		fetcher:  fetcher,
		tokens:   tokens,
		events:   events,
		archive:  archive,
	}
}

// Search runs rawQuery for userID and returns token-bound candidates ready
// for presentation. Every outcome, success or failure, is recorded.
func (s *Service) Search(ctx context.Context, userID int64, rawQuery string) ([]registry.Binding, error) {
	candidates, err := s.searcher.Search(ctx, rawQuery)
	if err != nil {
		s.events.LogError(userID, classifySearchError(err), err.Error(), map[string]string{"query": rawQuery})
		return nil, err
	}

	bindings := s.tokens.Register(candidates)
	s.events.LogSearch(userID, rawQuery, len(candidates))
	return bindings, nil
}

// Download resolves token to its candidate and fetches the audio artifact.
// The artifact is archived after a successful fetch when an archive is
// configured; archive failures are logged, not surfaced.
func (s *Service) Download(ctx context.Context, userID int64, token string) (*download.Artifact, error) {
	candidate, err := s.tokens.Resolve(token)
	if err != nil {
		s.events.LogError(userID, errKindTokenExpired, err.Error(), nil)
		return nil, err
	}

	artifact, err := s.fetcher.Fetch(ctx, candidate.VideoID)
	if err != nil {
		s.events.LogError(userID, classifyDownloadError(err), err.Error(), map[string]string{"videoId": candidate.VideoID})
		return nil, err
	}

	s.events.LogDownload(userID, candidate.VideoID, artifact.Title, artifact.Artist)

	if s.archive != nil {
		name := candidate.VideoID + ".mp3"
		if location, archiveErr := s.archive.Store(ctx, artifact.Path, name); archiveErr != nil {
			slog.Warn("Failed to archive artifact", "videoId", candidate.VideoID, "error", archiveErr)
		} else {
			slog.Info("Artifact archived", "videoId", candidate.VideoID, "location", location)
		}
	}

	return artifact, nil
}

func classifySearchError(err error) string {
	switch {
	case errors.Is(err, search.ErrEmptyQuery):
		return errKindEmptyQuery
	case errors.Is(err, search.ErrInvalidQuery):
		return errKindInvalidQuery
	case errors.Is(err, search.ErrNoResults):
		return errKindNoResults
	default:
		return errKindSearchFailed
	}
}

func classifyDownloadError(err error) string {
	switch {
	case errors.Is(err, download.ErrInvalidID):
		return errKindInvalidID
	case errors.Is(err, download.ErrArtifactMissing):
		return errKindArtifactMissing
	default:
		return errKindDownloadFailed
	}
}
