package omni

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omnirelay/internal/domain"
)

func TestDownloadWritesTimestampedFile(t *testing.T) {
	payload := []byte("xlsx bytes here")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Cookies(), "session cookies must not reach the artifact host")
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dir := t.TempDir()
	client := testClient(t, "http://unused.invalid")
	client.now = func() time.Time {
		return time.Date(2026, 8, 25, 10, 15, 0, 0, time.UTC)
	}

	art, err := client.Download(context.Background(), srv.URL, dir, "inventory_report")
	require.NoError(t, err)

	assert.Equal(t, "inventory_report_20260825_101500.xlsx", filepath.Base(art.LocalPath))
	assert.True(t, filepath.IsAbs(art.LocalPath))
	assert.Equal(t, int64(len(payload)), art.SizeBytes)
	assert.Equal(t, time.Date(2026, 8, 25, 10, 15, 0, 0, time.UTC), art.CreatedAt)

	got, err := os.ReadFile(art.LocalPath)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestDownloadCreatesDir(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "nested", "downloads")
	_, err := testClient(t, "http://unused.invalid").Download(context.Background(), srv.URL, dir, "return_report")
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDownloadHTTPErrorLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := testClient(t, "http://unused.invalid").Download(context.Background(), srv.URL, dir, "inventory_report")

	var dlErr *domain.DownloadError
	require.ErrorAs(t, err, &dlErr)
	assert.Contains(t, dlErr.Error(), "404")

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestDownloadTruncatedBodyRemovesPartialFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		// Declare more bytes than are written; the client sees an
		// unexpected EOF mid-stream.
		w.Header().Set("Content-Length", "4096")
		_, _ = w.Write([]byte("partial"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := testClient(t, "http://unused.invalid").Download(context.Background(), srv.URL, dir, "inventory_report")

	var dlErr *domain.DownloadError
	require.ErrorAs(t, err, &dlErr)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "partial file removed")
}

func TestDownloadTransportErrorIsDownloadError(t *testing.T) {
	dir := t.TempDir()
	_, err := testClient(t, "http://unused.invalid").
		Download(context.Background(), "http://127.0.0.1:0/nope", dir, "inventory_report")

	var dlErr *domain.DownloadError
	require.ErrorAs(t, err, &dlErr)
}
