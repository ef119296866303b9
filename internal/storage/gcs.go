package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const uploadTimeout = time.Minute * 5

// GCSArchive uploads artifacts to a Google Cloud Storage bucket.
type GCSArchive struct {
	client       *storage.Client
	bucket       string
	objectPrefix string
}

// NewGCSArchive creates an archive backed by bucketName. When
// credentialsFile is empty, application default credentials are used.
func NewGCSArchive(ctx context.Context, bucketName, objectPrefix, credentialsFile string) (*GCSArchive, error) {
	var client *storage.Client
	var err error

	if credentialsFile != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(credentialsFile))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}

	return &GCSArchive{
		client:       client,
		bucket:       bucketName,
		objectPrefix: objectPrefix,
	}, nil
}

// Store uploads localPath to the bucket under name and returns the
// object name.
func (a *GCSArchive) Store(ctx context.Context, localPath, name string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open artifact %s: %w", localPath, err)
	}
	defer f.Close()

	objectName := name
	if a.objectPrefix != "" {
		objectName = a.objectPrefix + "/" + name
	}

	uploadCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	wc := a.client.Bucket(a.bucket).Object(objectName).NewWriter(uploadCtx)
	if _, err := io.Copy(wc, f); err != nil {
		return "", fmt.Errorf("failed to copy artifact to GCS: %w", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close GCS writer: %w", err)
	}
	return objectName, nil
}

// Close closes the GCS client.
func (a *GCSArchive) Close() error {
	return a.client.Close()
}
