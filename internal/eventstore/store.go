// Package eventstore persists discrete bot events (searches, downloads,
// errors) as append-only JSON logs, one file per event kind.
package eventstore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/soundseek/soundseek/internal/domain"
)

var (
	ErrUnknownKind = fmt.Errorf("unknown event kind")
)

const (
	searchLogFile   = "search_log.json"
	downloadLogFile = "download_log.json"
	errorLogFile    = "error_log.json"
)

// Store appends events to per-kind JSON log files. Writes to the same log
// are serialized by a per-kind mutex; different kinds proceed independently.
type Store struct {
	dir  string
	logs map[domain.EventKind]*logFile
}

type logFile struct {
	mu   sync.Mutex
	path string
}

// New creates the data directory if needed and returns a store over it.
func New(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Store{
		dir: dataDir,
		logs: map[domain.EventKind]*logFile{
			domain.EventKindSearch:   {path: filepath.Join(dataDir, searchLogFile)},
			domain.EventKindDownload: {path: filepath.Join(dataDir, downloadLogFile)},
			domain.EventKindError:    {path: filepath.Join(dataDir, errorLogFile)},
		},
	}, nil
}

// Append durably appends event to the log for its kind. The write is
// complete on disk before Append returns.
func (s *Store) Append(event domain.Event) error {
	lf, ok := s.logs[event.Kind()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKind, event.Kind())
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()

	records, err := s.loadRaw(lf.path)
	if err != nil {
		return err
	}

	encoded, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	records = append(records, encoded)

	return writeJSONAtomic(lf.path, records)
}

// SearchEvents returns all recorded search events in append order.
func (s *Store) SearchEvents() ([]domain.SearchEvent, error) {
	return loadEvents[domain.SearchEvent](s, domain.EventKindSearch)
}

// DownloadEvents returns all recorded download events in append order.
func (s *Store) DownloadEvents() ([]domain.DownloadEvent, error) {
	return loadEvents[domain.DownloadEvent](s, domain.EventKindDownload)
}

// ErrorEvents returns all recorded error events in append order.
func (s *Store) ErrorEvents() ([]domain.ErrorEvent, error) {
	return loadEvents[domain.ErrorEvent](s, domain.EventKindError)
}

func loadEvents[T any](s *Store, kind domain.EventKind) ([]T, error) {
	lf := s.logs[kind]

	lf.mu.Lock()
	defer lf.mu.Unlock()

	records, err := s.loadRaw(lf.path)
	if err != nil {
		return nil, err
	}

	events := make([]T, 0, len(records))
	for _, raw := range records {
		var event T
		if err := json.Unmarshal(raw, &event); err != nil {
			return nil, fmt.Errorf("failed to decode event in %s: %w", lf.path, err)
		}
		events = append(events, event)
	}
	return events, nil
}

// loadRaw reads the log file as a JSON array of raw records. A missing file
// is an empty log. A corrupt file is moved aside, so an earlier durable
// write is never silently overwritten, and the log restarts empty.
func (s *Store) loadRaw(path string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []json.RawMessage{}, nil
		}
		return nil, fmt.Errorf("failed to read log %s: %w", path, err)
	}

	var records []json.RawMessage
	if err := json.Unmarshal(data, &records); err != nil {
		quarantined := fmt.Sprintf("%s.corrupt.%d", path, time.Now().UnixNano())
		if renameErr := os.Rename(path, quarantined); renameErr != nil {
			return nil, fmt.Errorf("failed to quarantine corrupt log %s: %w", path, renameErr)
		}
		slog.Warn("Corrupt event log moved aside, starting empty",
			"log", path, "quarantined", quarantined, "error", err)
		return []json.RawMessage{}, nil
	}
	return records, nil
}

// writeJSONAtomic writes v to path via a temp file in the same directory,
// syncing before rename so the log is durable once Append returns.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode log: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp log file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write log: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync log: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close log: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace log: %w", err)
	}
	return nil
}
