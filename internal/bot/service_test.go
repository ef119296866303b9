package bot

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/soundseek/soundseek/internal/download"
	"github.com/soundseek/soundseek/internal/eventstore"
	"github.com/soundseek/soundseek/internal/recorder"
	"github.com/soundseek/soundseek/internal/registry"
	"github.com/soundseek/soundseek/internal/search"
	"github.com/soundseek/soundseek/internal/stats"
	"github.com/soundseek/soundseek/internal/storage"
)

type MockSearchClient struct {
	mock.Mock
}

func (m *MockSearchClient) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	args := m.Called(ctx, query, maxResults)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]search.Result), args.Error(1)
}

type MockExtractor struct {
	mock.Mock
}

func (m *MockExtractor) ResolveMetadata(ctx context.Context, videoID string) (download.Metadata, error) {
	args := m.Called(ctx, videoID)
	return args.Get(0).(download.Metadata), args.Error(1)
}

func (m *MockExtractor) Download(ctx context.Context, videoID, outputPath string) error {
	args := m.Called(ctx, videoID, outputPath)
	if args.Error(0) == nil {
		if err := os.WriteFile(outputPath, []byte("audio"), 0o644); err != nil {
			return err
		}
	}
	return args.Error(0)
}

// failingArchive rejects every store call.
type failingArchive struct{}

func (failingArchive) Store(ctx context.Context, localPath, name string) (string, error) {
	return "", fmt.Errorf("bucket unreachable")
}

func (failingArchive) Close() error { return nil }

// newFixture wires a Service over real storage, registry, and stats with
// mocked collaborators.
func newFixture(t *testing.T, client search.Client, extractor download.Extractor) (*Service, *stats.Aggregator) {
	return newFixtureWithArchive(t, client, extractor, nil)
}

func newFixtureWithArchive(t *testing.T, client search.Client, extractor download.Extractor, archive storage.Archive) (*Service, *stats.Aggregator) {
	t.Helper()
	dataDir := t.TempDir()

	store, err := eventstore.New(dataDir)
	require.NoError(t, err)

	aggregator, err := stats.New(filepath.Join(dataDir, "stats.json"), store)
	require.NoError(t, err)

	service := NewService(
		search.NewOrchestrator(client, 5),
		download.NewOrchestrator(extractor, filepath.Join(dataDir, "downloads")),
		registry.New(0),
		recorder.New(store, aggregator),
		archive,
	)
	return service, aggregator
}

func TestSearchThenDownloadFlow(t *testing.T) {
	client := new(MockSearchClient)
	extractor := new(MockExtractor)
	service, aggregator := newFixture(t, client, extractor)

	// Five collaborator results, one with a malformed id.
	client.On("Search", mock.Anything, "Sunflower Post Malone", 5).Return([]search.Result{
		{ID: "aaaaaaaaaaa", Title: "Sunflower", Uploader: "Post Malone", Duration: "158"},
		{ID: "bad", Title: "broken entry"},
		{ID: "bbbbbbbbbbb", Title: "Sunflower (Lyrics)", Uploader: "Lyrics Channel"},
		{ID: "ccccccccccc", Title: "Sunflower Live", Uploader: "Post Malone"},
		{ID: "ddddddddddd", Title: "Sunflower Cover", Uploader: "Someone Else"},
	}, nil)

	bindings, err := service.Search(context.Background(), 42, "Sunflower Post Malone")
	require.NoError(t, err)
	require.Len(t, bindings, 4)

	// The second token resolves to the second surviving candidate.
	second := bindings[1]
	assert.Equal(t, "bbbbbbbbbbb", second.Candidate.VideoID)

	extractor.On("ResolveMetadata", mock.Anything, "bbbbbbbbbbb").
		Return(download.Metadata{Title: "Sunflower (Lyrics)", Artist: "Lyrics Channel"}, nil)
	extractor.On("Download", mock.Anything, "bbbbbbbbbbb", mock.Anything).Return(nil)

	artifact, err := service.Download(context.Background(), 42, second.Token)
	require.NoError(t, err)
	defer artifact.Close()

	assert.Equal(t, "Sunflower (Lyrics)", artifact.Title)

	snapshot := aggregator.Snapshot()
	assert.Equal(t, uint64(1), snapshot.TotalSearches)
	assert.Equal(t, uint64(1), snapshot.TotalDownloads)
	assert.Equal(t, uint64(0), snapshot.TotalErrors)
	assert.Equal(t, uint64(1), snapshot.PopularQueries["sunflower post malone"])
	assert.Equal(t, uint64(1), snapshot.PopularArtists["lyrics channel"])
}

func TestSearchFailureIsClassifiedAndRecorded(t *testing.T) {
	client := new(MockSearchClient)
	service, aggregator := newFixture(t, client, new(MockExtractor))

	client.On("Search", mock.Anything, mock.Anything, 5).Return(nil, fmt.Errorf("network down"))

	_, err := service.Search(context.Background(), 7, "anything")
	require.ErrorIs(t, err, search.ErrCollaborator)

	assert.Equal(t, uint64(1), aggregator.Snapshot().TotalErrors)
}

func TestEmptyQueryNeverReachesCollaborator(t *testing.T) {
	client := new(MockSearchClient)
	service, aggregator := newFixture(t, client, new(MockExtractor))

	_, err := service.Search(context.Background(), 7, "   ")
	require.ErrorIs(t, err, search.ErrEmptyQuery)

	client.AssertNotCalled(t, "Search")
	assert.Equal(t, uint64(1), aggregator.Snapshot().TotalErrors)
}

func TestExpiredTokenIsRecorded(t *testing.T) {
	service, aggregator := newFixture(t, new(MockSearchClient), new(MockExtractor))

	_, err := service.Download(context.Background(), 7, "not-a-token")
	require.ErrorIs(t, err, registry.ErrTokenExpired)

	assert.Equal(t, uint64(1), aggregator.Snapshot().TotalErrors)
}

func TestArchiveFailureDoesNotFailDownload(t *testing.T) {
	client := new(MockSearchClient)
	extractor := new(MockExtractor)
	service, aggregator := newFixtureWithArchive(t, client, extractor, failingArchive{})

	client.On("Search", mock.Anything, "song", 5).Return([]search.Result{
		{ID: "aaaaaaaaaaa", Title: "Song", Uploader: "Artist"},
	}, nil)
	extractor.On("ResolveMetadata", mock.Anything, "aaaaaaaaaaa").
		Return(download.Metadata{Title: "Song", Artist: "Artist"}, nil)
	extractor.On("Download", mock.Anything, "aaaaaaaaaaa", mock.Anything).Return(nil)

	bindings, err := service.Search(context.Background(), 7, "song")
	require.NoError(t, err)

	artifact, err := service.Download(context.Background(), 7, bindings[0].Token)
	require.NoError(t, err)
	defer artifact.Close()

	assert.Equal(t, "Song", artifact.Title)

	snapshot := aggregator.Snapshot()
	assert.Equal(t, uint64(1), snapshot.TotalDownloads)
	assert.Equal(t, uint64(0), snapshot.TotalErrors)
}

func TestDownloadFailureDoesNotCountAsDownload(t *testing.T) {
	client := new(MockSearchClient)
	extractor := new(MockExtractor)
	service, aggregator := newFixture(t, client, extractor)

	client.On("Search", mock.Anything, "song", 5).Return([]search.Result{
		{ID: "aaaaaaaaaaa", Title: "Song"},
	}, nil)
	extractor.On("ResolveMetadata", mock.Anything, "aaaaaaaaaaa").
		Return(download.Metadata{}, fmt.Errorf("unreachable"))

	bindings, err := service.Search(context.Background(), 7, "song")
	require.NoError(t, err)

	_, err = service.Download(context.Background(), 7, bindings[0].Token)
	require.Error(t, err)

	snapshot := aggregator.Snapshot()
	assert.Equal(t, uint64(0), snapshot.TotalDownloads)
	assert.Equal(t, uint64(1), snapshot.TotalErrors)
}
