// Package storage archives delivered audio artifacts. Downloads are
// produced and sent from a scratch directory and removed afterwards; an
// Archive keeps a durable copy, either on the local filesystem or in a
// Google Cloud Storage bucket.
package storage

import "context"

// Archive stores a delivered artifact under name and returns the location
// of the stored copy (a filesystem path or an object name).
type Archive interface {
	Store(ctx context.Context, localPath, name string) (string, error)
	Close() error
}
