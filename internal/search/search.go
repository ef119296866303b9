// Package search turns raw user queries into validated, presentable
// candidate lists using an external search collaborator.
package search

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/soundseek/soundseek/internal/domain"
)

// DefaultMaxResults is how many candidates the collaborator is asked for.
const DefaultMaxResults = 5

const unknownDisplay = "Unknown"

var (
	ErrEmptyQuery   = fmt.Errorf("empty query")
	ErrInvalidQuery = fmt.Errorf("query contains no searchable characters")
	ErrNoResults    = fmt.Errorf("no results found")
	ErrCollaborator = fmt.Errorf("search collaborator failed")
)

// Result is a raw collaborator response entry. Fields may be empty or
// non-numeric; validation and defaulting happen in the orchestrator.
type Result struct {
	ID       string
	Title    string
	Uploader string
	Duration string
	Views    string
}

// Client is the external search collaborator.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]Result, error)
}

// Orchestrator normalizes queries, invokes the collaborator, and filters
// malformed entries out of the response.
type Orchestrator struct {
	client     Client
	maxResults int
}

// NewOrchestrator returns an orchestrator over client. maxResults <= 0
// falls back to DefaultMaxResults.
func NewOrchestrator(client Client, maxResults int) *Orchestrator {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Orchestrator{client: client, maxResults: maxResults}
}

// Search validates rawQuery, queries the collaborator, and returns ranked
// candidates. Failures are terminal for the call; retries belong to the
// collaborator or the caller.
func (o *Orchestrator) Search(ctx context.Context, rawQuery string) ([]domain.Candidate, error) {
	query := strings.TrimSpace(rawQuery)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	query = sanitizeQuery(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}

	results, err := o.client.Search(ctx, query, o.maxResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCollaborator, err)
	}

	candidates := make([]domain.Candidate, 0, len(results))
	for _, r := range results {
		if !domain.ValidVideoID(r.ID) {
			continue
		}
		candidates = append(candidates, buildCandidate(r))
	}

	if len(candidates) == 0 {
		return nil, ErrNoResults
	}
	return candidates, nil
}

// sanitizeQuery strips everything outside letters, digits, whitespace, and
// hyphens. Lossy by policy: the platform chokes on most other punctuation.
func sanitizeQuery(query string) string {
	var b strings.Builder
	for _, r := range query {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || r == '-' {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

func buildCandidate(r Result) domain.Candidate {
	c := domain.Candidate{
		VideoID:         r.ID,
		Title:           strings.TrimSpace(r.Title),
		Artist:          strings.TrimSpace(r.Uploader),
		DurationDisplay: unknownDisplay,
		ViewsDisplay:    unknownDisplay,
	}

	if secs, err := strconv.ParseUint(strings.TrimSpace(r.Duration), 10, 32); err == nil {
		c.DurationSeconds = uint(secs)
		c.DurationDisplay = FormatDuration(uint(secs))
	}
	if views, err := strconv.ParseUint(strings.TrimSpace(r.Views), 10, 32); err == nil {
		c.ViewCount = uint(views)
		c.ViewsDisplay = strconv.FormatUint(views, 10)
	}
	return c
}

// FormatDuration renders a duration in seconds as minutes:seconds with the
// seconds zero-padded, e.g. 125 -> "2:05".
func FormatDuration(seconds uint) string {
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
