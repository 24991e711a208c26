// Package relay delivers downloaded artifacts to their destinations: Google
// Drive as the primary, with optional GCS, S3 and Azure Blob mirrors.
// Delivery is strictly best effort; a failed upload never invalidates the
// local artifact or the run that produced it.
package relay

import (
	"context"
	"fmt"
	"log/slog"

	"omnirelay/internal/config"
	"omnirelay/internal/domain"
	"omnirelay/internal/gauth"
)

// xlsx artifacts keep their spreadsheet MIME type at every destination.
const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Uploader sends one local artifact to a destination.
type Uploader interface {
	Name() string
	Upload(ctx context.Context, localPath string) (ref string, err error)
}

// Relay fans one artifact out to every configured destination in order.
type Relay struct {
	uploaders []Uploader
	logger    *slog.Logger
}

// New builds a relay over the given uploaders.
func New(logger *slog.Logger, uploaders ...Uploader) *Relay {
	return &Relay{uploaders: uploaders, logger: logger.With("component", "relay")}
}

// Store uploads the artifact to each destination and returns the per-target
// outcomes. Failures are logged and recorded in the outcome, never
// returned: the artifact on disk outranks any single destination.
func (r *Relay) Store(ctx context.Context, art domain.Artifact) []domain.UploadOutcome {
	outcomes := make([]domain.UploadOutcome, 0, len(r.uploaders))
	for _, up := range r.uploaders {
		ref, err := up.Upload(ctx, art.LocalPath)
		if err != nil {
			uploadErr := &domain.UploadError{Target: up.Name(), Err: err}
			r.logger.Error("upload failed",
				"target", up.Name(), "path", art.LocalPath, "error", uploadErr)
			outcomes = append(outcomes, domain.UploadOutcome{Target: up.Name(), Error: uploadErr.Error()})
			continue
		}
		r.logger.Info("artifact uploaded", "target", up.Name(), "ref", ref)
		outcomes = append(outcomes, domain.UploadOutcome{Target: up.Name(), Ref: ref})
	}
	return outcomes
}

// Targets returns the configured destination names in upload order.
func (r *Relay) Targets() []string {
	names := make([]string, 0, len(r.uploaders))
	for _, up := range r.uploaders {
		names = append(names, up.Name())
	}
	return names
}

// FromConfig assembles every destination the configuration enables: Drive
// first, then the mirrors. A misconfigured destination is a construction
// error, not a silent skip; with nothing configured the relay is an empty
// no-op.
func FromConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Relay, error) {
	var uploaders []Uploader

	if cfg.DriveEnabled() {
		gm, err := gauth.New(cfg.ClientSecretsFile, cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		ts, err := gm.TokenSource(ctx)
		if err != nil {
			return nil, err
		}
		du, err := NewDriveUploader(ctx, ts, cfg.DriveFolderID)
		if err != nil {
			return nil, err
		}
		uploaders = append(uploaders, du)
	}

	if cfg.Mirror.HasGCS() {
		gu, err := NewGCSUploader(ctx, cfg.Mirror.GCSBucket)
		if err != nil {
			return nil, err
		}
		uploaders = append(uploaders, gu)
	}
	if cfg.Mirror.HasS3() {
		su, err := NewS3Uploader(&cfg.Mirror)
		if err != nil {
			return nil, err
		}
		uploaders = append(uploaders, su)
	}
	if cfg.Mirror.HasAzure() {
		au, err := NewAzureUploader(&cfg.Mirror)
		if err != nil {
			return nil, fmt.Errorf("azure mirror: %w", err)
		}
		uploaders = append(uploaders, au)
	}

	return New(logger, uploaders...), nil
}
