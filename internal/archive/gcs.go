package archive

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCS stores blobs in a Google Cloud Storage bucket.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS builds a GCS store over an existing client. The caller owns the
// client's lifecycle.
func NewGCS(client *storage.Client, bucket string) *GCS {
	return &GCS{client: client, bucket: bucket}
}

// Save uploads the blob and returns its gs:// URI.
func (g *GCS) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	obj := g.client.Bucket(g.bucket).Object(key)
	w := obj.NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("upload archive blob %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize archive blob %q: %w", key, err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, key), nil
}
