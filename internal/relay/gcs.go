package relay

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
)

// Compile-time check: GCSUploader implements Uploader.
var _ Uploader = (*GCSUploader)(nil)

// GCSUploader mirrors artifacts into a GCS bucket. Credentials come from
// the ambient environment (GOOGLE_APPLICATION_CREDENTIALS or metadata
// server), separate from the Drive OAuth identity.
type GCSUploader struct {
	client *storage.Client
	bucket string
}

// NewGCSUploader creates the mirror for one bucket.
func NewGCSUploader(ctx context.Context, bucket string) (*GCSUploader, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create GCS client: %w", err)
	}
	return &GCSUploader{client: client, bucket: bucket}, nil
}

func (g *GCSUploader) Name() string { return "gcs" }

// Upload streams the artifact into an object named after the file and
// returns its gs:// URI.
func (g *GCSUploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath) //nolint:gosec // artifact path produced by the retriever
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck

	key := filepath.Base(localPath)
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = xlsxMIME

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", g.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gs://%s/%s: %w", g.bucket, key, err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, key), nil
}
