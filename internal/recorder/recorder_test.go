package recorder

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundseek/soundseek/internal/domain"
)

type captureAppender struct {
	events []domain.Event
	err    error
}

func (c *captureAppender) Append(event domain.Event) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

type captureStats struct {
	events []domain.Event
	err    error
}

func (c *captureStats) Record(event domain.Event) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func TestRecorderWritesLogThenStats(t *testing.T) {
	store := &captureAppender{}
	stats := &captureStats{}
	rec := New(store, stats)

	rec.LogSearch(7, "Sunflower Post Malone", 4)
	rec.LogDownload(7, "dQw4w9WgXcQ", "Sunflower", "Post Malone")
	rec.LogError(7, "no_results", "nothing found", map[string]string{"query": "x"})

	require.Len(t, store.events, 3)
	require.Len(t, stats.events, 3)

	search, ok := store.events[0].(domain.SearchEvent)
	require.True(t, ok)
	assert.Equal(t, int64(7), search.UserID)
	assert.Equal(t, 4, search.ResultCount)
	assert.False(t, search.Timestamp.IsZero())

	dl, ok := store.events[1].(domain.DownloadEvent)
	require.True(t, ok)
	assert.Equal(t, "Post Malone", dl.Artist)

	errEv, ok := store.events[2].(domain.ErrorEvent)
	require.True(t, ok)
	assert.Equal(t, "no_results", errEv.ErrorKind)
	assert.Equal(t, map[string]string{"query": "x"}, errEv.Context)
}

func TestStorageFailuresAreSwallowed(t *testing.T) {
	store := &captureAppender{err: fmt.Errorf("disk full")}
	stats := &captureStats{}
	rec := New(store, stats)

	// Must not panic or propagate; stats still gets the event.
	rec.LogSearch(1, "query", 1)
	assert.Len(t, stats.events, 1)

	rec = New(&captureAppender{}, &captureStats{err: fmt.Errorf("disk full")})
	rec.LogDownload(1, "dQw4w9WgXcQ", "t", "a")
}
