package relay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"omnirelay/internal/config"
)

// Compile-time check: S3Uploader implements Uploader.
var _ Uploader = (*S3Uploader)(nil)

// S3Uploader mirrors artifacts into an S3 bucket using static credentials.
type S3Uploader struct {
	client *s3.Client
	bucket string
}

// NewS3Uploader creates the mirror from the S3 mirror configuration. A
// custom endpoint switches to path-style addressing (MinIO, Hetzner and
// most S3-compatibles require it).
func NewS3Uploader(m *config.MirrorConfig) (*S3Uploader, error) {
	if !m.HasS3() {
		return nil, fmt.Errorf("S3 mirror config is incomplete")
	}

	opts := s3.Options{
		Region: *m.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			*m.S3KeyID, *m.S3Secret, "",
		),
	}
	if m.S3Endpoint != nil {
		opts.BaseEndpoint = aws.String(fmt.Sprintf("https://%s", *m.S3Endpoint))
		opts.UsePathStyle = true
	}

	return &S3Uploader{client: s3.New(opts), bucket: *m.S3Bucket}, nil
}

func (u *S3Uploader) Name() string { return "s3" }

// Upload puts the artifact under its file name and returns the s3:// URI.
func (u *S3Uploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath) //nolint:gosec // artifact path produced by the retriever
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck

	key := filepath.Base(localPath)
	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(xlsxMIME),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", u.bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
