// Package recorder ties the event store and the stats aggregator together
// behind a best-effort facade: bookkeeping never blocks or fails a
// user-facing interaction.
package recorder

import (
	"log/slog"
	"time"

	"github.com/soundseek/soundseek/internal/domain"
)

// EventAppender appends an event to its durable log.
type EventAppender interface {
	Append(event domain.Event) error
}

// StatsRecorder folds an event into the aggregate statistics.
type StatsRecorder interface {
	Record(event domain.Event) error
}

// Recorder writes the event log first (the durable record), then updates
// the derived stats. Either failure is logged and swallowed.
type Recorder struct {
	store EventAppender
	stats StatsRecorder
	now   func() time.Time
}

func New(store EventAppender, stats StatsRecorder) *Recorder {
	return &Recorder{store: store, stats: stats, now: time.Now}
}

// LogSearch records a completed search.
func (r *Recorder) LogSearch(userID int64, query string, resultCount int) {
	r.record(domain.SearchEvent{
		Timestamp:   r.now().UTC(),
		UserID:      userID,
		Query:       query,
		ResultCount: resultCount,
	})
	slog.Info("Search logged", "userId", userID, "query", query, "results", resultCount)
}

// LogDownload records a delivered download.
func (r *Recorder) LogDownload(userID int64, videoID, title, artist string) {
	r.record(domain.DownloadEvent{
		Timestamp: r.now().UTC(),
		UserID:    userID,
		VideoID:   videoID,
		Title:     title,
		Artist:    artist,
	})
	slog.Info("Download logged", "userId", userID, "videoId", videoID, "title", title)
}

// LogError records a classified failure with optional context.
func (r *Recorder) LogError(userID int64, errorKind, message string, context map[string]string) {
	r.record(domain.ErrorEvent{
		Timestamp: r.now().UTC(),
		UserID:    userID,
		ErrorKind: errorKind,
		Message:   message,
		Context:   context,
	})
	slog.Warn("Error logged", "userId", userID, "kind", errorKind, "message", message)
}

func (r *Recorder) record(event domain.Event) {
	if err := r.store.Append(event); err != nil {
		slog.Warn("Failed to append event", "kind", event.Kind(), "error", err)
	}
	if err := r.stats.Record(event); err != nil {
		slog.Warn("Failed to update stats", "kind", event.Kind(), "error", err)
	}
}
