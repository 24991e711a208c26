package relay

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Compile-time check: DriveUploader implements Uploader.
var _ Uploader = (*DriveUploader)(nil)

// DriveUploader places artifacts in one Drive folder. Uploads go through
// the resumable media path so a large spreadsheet survives flaky links.
type DriveUploader struct {
	svc      *drive.Service
	folderID string
}

// NewDriveUploader builds the uploader on an authenticated token source.
func NewDriveUploader(ctx context.Context, ts oauth2.TokenSource, folderID string) (*DriveUploader, error) {
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return &DriveUploader{svc: svc, folderID: folderID}, nil
}

func (d *DriveUploader) Name() string { return "drive" }

// Upload creates the file inside the configured folder and returns the
// Drive file id.
func (d *DriveUploader) Upload(ctx context.Context, localPath string) (string, error) {
	f, err := os.Open(localPath) //nolint:gosec // artifact path produced by the retriever
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close() //nolint:errcheck

	meta := &drive.File{
		Name:    filepath.Base(localPath),
		Parents: []string{d.folderID},
	}
	created, err := d.svc.Files.Create(meta).
		Media(f, googleapi.ContentType(xlsxMIME)).
		SupportsAllDrives(true).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("drive files.create: %w", err)
	}
	return created.Id, nil
}
