package omni

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"omnirelay/internal/domain"
)

// Download streams the artifact at rawURL into dir, named
// <prefix>_<YYYYMMDD_HHMMSS>.xlsx. It uses the bare client: download
// locations are pre-authorized URLs on a storage host, and sending session
// cookies to a foreign host would leak them. On any failure the partial
// file is removed, so a file that exists at an artifact path is always a
// complete download.
func (c *Client) Download(ctx context.Context, rawURL, dir, prefix string) (domain.Artifact, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return domain.Artifact{}, fmt.Errorf("create download dir: %w", err)
	}

	createdAt := c.now()
	name := fmt.Sprintf("%s_%s.xlsx", prefix, createdAt.Format("20060102_150405"))
	path := filepath.Join(dir, name)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return domain.Artifact{}, &domain.DownloadError{URL: rawURL, Err: err}
	}
	resp, err := c.download.Do(req)
	if err != nil {
		return domain.Artifact{}, &domain.DownloadError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Artifact{}, &domain.DownloadError{URL: rawURL, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	f, err := os.Create(path) //nolint:gosec // path is built from config + clock
	if err != nil {
		return domain.Artifact{}, fmt.Errorf("create artifact file: %w", err)
	}

	written, err := io.CopyBuffer(f, resp.Body, make([]byte, 8192))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return domain.Artifact{}, &domain.DownloadError{URL: rawURL, Err: err}
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	c.logger.Info("artifact downloaded", "path", abs, "bytes", written)
	return domain.Artifact{LocalPath: abs, SizeBytes: written, CreatedAt: createdAt}, nil
}
