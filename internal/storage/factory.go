package storage

import (
	"context"
	"fmt"

	"github.com/soundseek/soundseek/config"
)

// NewArchive builds the archive named by cfg. An empty type disables
// archiving and returns nil.
func NewArchive(ctx context.Context, cfg config.ArchiveConfig) (Archive, error) {
	switch cfg.Type {
	case "":
		return nil, nil
	case "local":
		return NewLocalArchive(cfg.Dir)
	case "gcs":
		return NewGCSArchive(ctx, cfg.Bucket, cfg.ObjectPrefix, cfg.CredentialsFile)
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
