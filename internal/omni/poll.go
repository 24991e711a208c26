package omni

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"omnirelay/internal/domain"
)

// AwaitDownloadURL polls the status listing until the request reaches
// COMPLETED and publishes a usable download location. The first check runs
// immediately, later checks on a fixed ticker. The poll budget is enforced
// through a context deadline, so callers can also cancel early; budget
// exhaustion and caller cancellation surface as distinct errors, and an
// empty URL is never returned without an error.
func (c *Client) AwaitDownloadURL(parent context.Context, id domain.RequestID) (string, error) {
	ctx, cancel := context.WithTimeout(parent, c.maxWait)
	defer cancel()

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	start := c.now()
	for {
		url, err := c.checkOnce(ctx, id)
		switch {
		case err != nil && ctx.Err() != nil && parent.Err() == nil:
			// The budget expired mid-request; report the timeout, not the
			// aborted transport call.
			return "", &domain.PollTimeoutError{RequestID: id, Waited: c.maxWait}
		case err != nil:
			return "", err
		case url != "":
			c.logger.Info("report completed",
				"request_id", id, "waited", time.Since(start).Round(time.Millisecond))
			return url, nil
		}

		select {
		case <-ctx.Done():
			if parent.Err() != nil {
				return "", fmt.Errorf("wait for report completion: %w", parent.Err())
			}
			return "", &domain.PollTimeoutError{RequestID: id, Waited: c.maxWait}
		case <-ticker.C:
		}
	}
}

// checkOnce performs one listing fetch. Empty URL with nil error means the
// request is still in flight and the poller should keep going.
func (c *Client) checkOnce(ctx context.Context, id domain.RequestID) (string, error) {
	entries, err := c.Listing(ctx)
	if err != nil {
		return "", err
	}

	var entry *domain.StatusEntry
	for i := range entries {
		if entries[i].RequestID == id {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		// Not visible in the listing yet.
		return "", nil
	}

	switch entry.Status {
	case domain.StatusFailed:
		// A failed request never publishes a download location.
		return "", &domain.ReportFailedError{RequestID: id}
	case domain.StatusCompleted:
		return c.resolveDownloadURL(ctx, id)
	default:
		return "", nil
	}
}

// resolveDownloadURL fetches the status detail for a completed request. The
// endpoint serves two shapes (a bare JSON string, or an object whose status
// field carries the value); both normalize to one string, accepted only
// with an http(s) scheme. Anything else means the location is not published
// yet and polling continues.
func (c *Client) resolveDownloadURL(ctx context.Context, id domain.RequestID) (string, error) {
	_, body, err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%d", statusPath, id), nil)
	if err != nil {
		return "", err
	}

	val, err := domain.NormalizeDetail(body)
	if err != nil {
		c.logger.Warn("undecodable status detail", "request_id", id, "error", err)
		return "", nil
	}
	if !strings.HasPrefix(val, "http") {
		c.logger.Debug("completed without download url yet", "request_id", id, "value", val)
		return "", nil
	}
	return val, nil
}
