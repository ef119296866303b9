// Package stats maintains aggregate counters and frequency tables derived
// from bot events, persisted alongside the event logs.
package stats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/soundseek/soundseek/internal/domain"
)

// Snapshot is a stable point-in-time copy of the aggregate statistics.
type Snapshot struct {
	TotalSearches  uint64            `json:"total_searches"`
	TotalDownloads uint64            `json:"total_downloads"`
	TotalErrors    uint64            `json:"total_errors"`
	PopularQueries map[string]uint64 `json:"popular_queries"`
	PopularArtists map[string]uint64 `json:"popular_artists"`
	LastUpdated    time.Time         `json:"last_updated"`
}

// Entry is a single frequency-table row.
type Entry struct {
	Key   string `json:"key"`
	Count uint64 `json:"count"`
}

// EventSource supplies the event logs used to rebuild statistics when the
// persisted snapshot is missing or unreadable.
type EventSource interface {
	SearchEvents() ([]domain.SearchEvent, error)
	DownloadEvents() ([]domain.DownloadEvent, error)
	ErrorEvents() ([]domain.ErrorEvent, error)
}

// table is a frequency table that remembers first-insertion order so that
// equal counts rank deterministically across runs.
type table struct {
	counts map[string]uint64
	order  []string
}

func newTable() *table {
	return &table{counts: make(map[string]uint64)}
}

func (t *table) bump(key string) {
	if _, seen := t.counts[key]; !seen {
		t.order = append(t.order, key)
	}
	t.counts[key]++
}

func (t *table) entries() []Entry {
	entries := make([]Entry, 0, len(t.order))
	for _, key := range t.order {
		entries = append(entries, Entry{Key: key, Count: t.counts[key]})
	}
	return entries
}

func (t *table) top(k int) []Entry {
	entries := t.entries()
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Count > entries[j].Count
	})
	if k >= 0 && k < len(entries) {
		entries = entries[:k]
	}
	return entries
}

func (t *table) copyCounts() map[string]uint64 {
	out := make(map[string]uint64, len(t.counts))
	for k, v := range t.counts {
		out[k] = v
	}
	return out
}

// persistedState mirrors the in-memory aggregator on disk. Frequency tables
// are stored as ordered arrays so insertion order survives restarts.
type persistedState struct {
	TotalSearches  uint64    `json:"total_searches"`
	TotalDownloads uint64    `json:"total_downloads"`
	TotalErrors    uint64    `json:"total_errors"`
	PopularQueries []Entry   `json:"popular_queries"`
	PopularArtists []Entry   `json:"popular_artists"`
	LastUpdated    time.Time `json:"last_updated"`
}

// Aggregator keeps running statistics in memory and writes them to a single
// JSON resource after every record. The event logs are the source of truth:
// a missing or corrupt stats file is rebuilt from them at startup.
type Aggregator struct {
	mu   sync.Mutex
	path string
	now  func() time.Time

	totalSearches  uint64
	totalDownloads uint64
	totalErrors    uint64
	queries        *table
	artists        *table
	lastUpdated    time.Time
}

// New loads the aggregator state from path, falling back to a rebuild from
// source when the file is absent or unreadable.
func New(path string, source EventSource) (*Aggregator, error) {
	a := &Aggregator{
		path:    path,
		now:     time.Now,
		queries: newTable(),
		artists: newTable(),
	}

	if err := a.loadFromDisk(); err != nil {
		slog.Warn("Stats file unreadable, rebuilding from event logs", "path", path, "error", err)
		if err := a.rebuild(source); err != nil {
			return nil, fmt.Errorf("failed to rebuild stats: %w", err)
		}
	}
	return a, nil
}

func (a *Aggregator) loadFromDisk() error {
	data, err := os.ReadFile(a.path)
	if err != nil {
		return err
	}

	var state persistedState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("failed to decode stats file: %w", err)
	}

	a.totalSearches = state.TotalSearches
	a.totalDownloads = state.TotalDownloads
	a.totalErrors = state.TotalErrors
	a.lastUpdated = state.LastUpdated
	a.queries = newTable()
	for _, e := range state.PopularQueries {
		a.queries.counts[e.Key] = e.Count
		a.queries.order = append(a.queries.order, e.Key)
	}
	a.artists = newTable()
	for _, e := range state.PopularArtists {
		a.artists.counts[e.Key] = e.Count
		a.artists.order = append(a.artists.order, e.Key)
	}
	return nil
}

func (a *Aggregator) rebuild(source EventSource) error {
	a.totalSearches = 0
	a.totalDownloads = 0
	a.totalErrors = 0
	a.queries = newTable()
	a.artists = newTable()

	if source == nil {
		return a.persist()
	}

	searches, err := source.SearchEvents()
	if err != nil {
		return err
	}
	for _, ev := range searches {
		a.applySearch(ev)
	}

	downloads, err := source.DownloadEvents()
	if err != nil {
		return err
	}
	for _, ev := range downloads {
		a.applyDownload(ev)
	}

	errors, err := source.ErrorEvents()
	if err != nil {
		return err
	}
	a.totalErrors = uint64(len(errors))

	return a.persist()
}

// Record updates the counters for event and persists the new state. Callers
// never observe a partially updated snapshot.
func (a *Aggregator) Record(event domain.Event) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch ev := event.(type) {
	case domain.SearchEvent:
		a.applySearch(ev)
	case domain.DownloadEvent:
		a.applyDownload(ev)
	case domain.ErrorEvent:
		a.totalErrors++
	default:
		return fmt.Errorf("unknown event kind: %s", event.Kind())
	}

	a.lastUpdated = a.now()
	return a.persist()
}

func (a *Aggregator) applySearch(ev domain.SearchEvent) {
	a.totalSearches++
	if key := normalizeKey(ev.Query); key != "" {
		a.queries.bump(key)
	}
}

func (a *Aggregator) applyDownload(ev domain.DownloadEvent) {
	a.totalDownloads++
	if key := normalizeKey(ev.Artist); key != "" {
		a.artists.bump(key)
	}
}

// Snapshot returns a stable copy of the current statistics.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	return Snapshot{
		TotalSearches:  a.totalSearches,
		TotalDownloads: a.totalDownloads,
		TotalErrors:    a.totalErrors,
		PopularQueries: a.queries.copyCounts(),
		PopularArtists: a.artists.copyCounts(),
		LastUpdated:    a.lastUpdated,
	}
}

// TopQueries returns the k most frequent queries, ties broken by first
// insertion so repeated calls rank identically.
func (a *Aggregator) TopQueries(k int) []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.queries.top(k)
}

// TopArtists returns the k most frequent artists.
func (a *Aggregator) TopArtists(k int) []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.artists.top(k)
}

func (a *Aggregator) persist() error {
	state := persistedState{
		TotalSearches:  a.totalSearches,
		TotalDownloads: a.totalDownloads,
		TotalErrors:    a.totalErrors,
		PopularQueries: a.queries.entries(),
		PopularArtists: a.artists.entries(),
		LastUpdated:    a.lastUpdated,
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode stats: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(a.path), filepath.Base(a.path)+".tmp*")
	if err != nil {
		return fmt.Errorf("failed to create temp stats file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write stats: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close stats file: %w", err)
	}
	if err := os.Rename(tmpPath, a.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace stats file: %w", err)
	}
	return nil
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
