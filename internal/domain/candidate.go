package domain

import "regexp"

// VideoIDLength is the fixed length of a video platform identifier.
const VideoIDLength = 11

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// Candidate represents a single downloadable search result.
type Candidate struct {
	VideoID         string `json:"video_id"`
	Title           string `json:"title"`
	Artist          string `json:"artist"`
	DurationSeconds uint   `json:"duration_seconds,omitempty"`
	ViewCount       uint   `json:"view_count,omitempty"`

	// Display strings computed at search time, "Unknown" when the
	// collaborator omitted the underlying field.
	DurationDisplay string `json:"duration_display"`
	ViewsDisplay    string `json:"views_display"`
}

// ValidVideoID reports whether id has the expected shape: exactly 11
// characters from the platform's URL-safe alphabet.
func ValidVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}
