// Package youtube implements the search and extraction collaborators
// against the public video platform: a results-page scrape for candidate
// ids, the oEmbed endpoint for metadata, and yt-dlp for audio extraction.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"time"

	"github.com/gocolly/colly"

	"github.com/soundseek/soundseek/internal/download"
	"github.com/soundseek/soundseek/internal/search"
)

const (
	defaultBaseURL = "https://www.youtube.com"

	// Filter parameter restricting results to videos only.
	videoFilterParam = "EgIQAQ%3D%3D"

	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	metadataTimeout = 10 * time.Second
)

var (
	ErrSearchRequestFailed = fmt.Errorf("search request failed")
	ErrMetadataUnavailable = fmt.Errorf("video metadata unavailable")

	videoIDPattern = regexp.MustCompile(`"videoId":"([A-Za-z0-9_-]{11})"`)
)

// Client talks to the video platform. The base URL is overridable for
// tests; everything else is fixed.
type Client struct {
	baseURL    string
	httpClient *http.Client
	ytdlp      string
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at an alternate platform endpoint.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) { c.baseURL = baseURL }
}

// WithYtDlpBinary overrides the yt-dlp executable name.
func WithYtDlpBinary(binary string) Option {
	return func(c *Client) { c.ytdlp = binary }
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: metadataTimeout},
		ytdlp:      "yt-dlp",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search scrapes the results page for video ids and resolves display
// metadata per id via oEmbed. Entries whose metadata lookup fails are
// skipped rather than failing the whole search.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]search.Result, error) {
	ids, err := c.scrapeVideoIDs(query, maxResults)
	if err != nil {
		return nil, err
	}

	results := make([]search.Result, 0, len(ids))
	for _, id := range ids {
		meta, err := c.ResolveMetadata(ctx, id)
		if err != nil {
			slog.Warn("Skipping result without metadata", "videoId", id, "error", err)
			continue
		}
		// The results page embeds no duration or view count we can rely
		// on; those fields stay empty and render as "Unknown".
		results = append(results, search.Result{
			ID:       id,
			Title:    meta.Title,
			Uploader: meta.Artist,
		})
	}
	return results, nil
}

func (c *Client) scrapeVideoIDs(query string, maxResults int) ([]string, error) {
	searchURL := fmt.Sprintf("%s/results?search_query=%s&sp=%s",
		c.baseURL, url.QueryEscape(query), videoFilterParam)

	collector := colly.NewCollector(colly.AllowURLRevisit())
	collector.OnRequest(func(r *colly.Request) {
		r.Headers.Set("User-Agent", userAgent)
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
	})

	var body []byte
	collector.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	var requestErr error
	collector.OnError(func(r *colly.Response, err error) {
		requestErr = err
	})

	if err := collector.Visit(searchURL); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchRequestFailed, err)
	}
	if requestErr != nil {
		return nil, fmt.Errorf("%w: %v", ErrSearchRequestFailed, requestErr)
	}

	// The page embeds results as JSON inside a script tag; pull the ids
	// straight off the payload and dedupe in document order.
	seen := make(map[string]bool)
	var ids []string
	for _, match := range videoIDPattern.FindAllSubmatch(body, -1) {
		id := string(match[1])
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
		if len(ids) >= maxResults {
			break
		}
	}
	return ids, nil
}

// oembedResponse is the subset of the oEmbed payload we use.
type oembedResponse struct {
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// ResolveMetadata fetches title and uploader for videoID via oEmbed.
func (c *Client) ResolveMetadata(ctx context.Context, videoID string) (download.Metadata, error) {
	watchURL := fmt.Sprintf("%s/watch?v=%s", c.baseURL, videoID)
	oembedURL := fmt.Sprintf("%s/oembed?url=%s&format=json", c.baseURL, url.QueryEscape(watchURL))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, oembedURL, nil)
	if err != nil {
		return download.Metadata{}, fmt.Errorf("failed to build metadata request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return download.Metadata{}, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return download.Metadata{}, fmt.Errorf("%w: status %d", ErrMetadataUnavailable, resp.StatusCode)
	}

	var payload oembedResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return download.Metadata{}, fmt.Errorf("%w: %v", ErrMetadataUnavailable, err)
	}

	return download.Metadata{Title: payload.Title, Artist: payload.AuthorName}, nil
}
