package domain

import "time"

// EventKind identifies the log an event belongs to.
type EventKind string

const (
	EventKindSearch   EventKind = "search"
	EventKindDownload EventKind = "download"
	EventKindError    EventKind = "error"
)

// Event is an immutable record of a search, download, or error occurrence.
// Events are owned by the event store and never mutated after append.
type Event interface {
	Kind() EventKind
}

// SearchEvent records a completed search.
type SearchEvent struct {
	Timestamp   time.Time `json:"timestamp"`
	UserID      int64     `json:"user_id"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
}

func (SearchEvent) Kind() EventKind { return EventKindSearch }

// DownloadEvent records a delivered download.
type DownloadEvent struct {
	Timestamp time.Time `json:"timestamp"`
	UserID    int64     `json:"user_id"`
	VideoID   string    `json:"video_id"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
}

func (DownloadEvent) Kind() EventKind { return EventKindDownload }

// ErrorEvent records a classified failure along with optional context.
type ErrorEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	UserID    int64             `json:"user_id"`
	ErrorKind string            `json:"error_kind"`
	Message   string            `json:"message"`
	Context   map[string]string `json:"context,omitempty"`
}

func (ErrorEvent) Kind() EventKind { return EventKindError }
