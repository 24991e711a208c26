// Package omni talks to the Omni reporting service: submitting report
// generation requests, polling them to completion and retrieving the
// finished artifact.
package omni

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"omnirelay/internal/config"
	"omnirelay/internal/domain"
)

const (
	generatePath = "/reporting/api/standard/app-access/request-report"
	statusPath   = "/reporting/api/standard/request-report"
)

// The service fronts a browser SPA; requests that do not look like the web
// client get bounced to the login page.
const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/26.2 Safari/605.1.15"

// Client is an authenticated reporting-service client. It serves one run at
// a time: the submission fallback reads the listing head, which is not safe
// under concurrent submitters, so callers must not overlap pulls.
type Client struct {
	baseURL   string
	session   string
	authToken string

	http     *http.Client
	download *http.Client // bare client for pre-signed artifact URLs
	limiter  *rate.Limiter
	logger   *slog.Logger

	pollInterval time.Duration
	maxWait      time.Duration

	now func() time.Time
}

// NewClient builds a client from the loaded configuration.
func NewClient(cfg *config.Config, logger *slog.Logger) *Client {
	burst := int(cfg.RateLimitRPS)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:      cfg.BaseURL,
		session:      cfg.Session,
		authToken:    cfg.AuthToken,
		http:         &http.Client{Timeout: 30 * time.Second},
		download:     &http.Client{},
		limiter:      rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst),
		logger:       logger.With("component", "omni"),
		pollInterval: cfg.PollInterval,
		maxWait:      cfg.MaxWait,
		now:          time.Now,
	}
}

// decorate applies the session cookies and browser-profile headers the
// service expects on every authenticated request.
func (c *Client) decorate(req *http.Request) {
	req.Header.Set("Accept", "application/json, text/plain, */*")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.AddCookie(&http.Cookie{Name: "SESSION", Value: c.session})
	req.AddCookie(&http.Cookie{Name: "authToken", Value: c.authToken})
}

// do sends one authenticated request and returns the status and full body.
// Every response is screened for session loss before the caller sees it.
func (c *Client) do(ctx context.Context, method, path string, payload any) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, fmt.Errorf("rate limit wait: %w", err)
	}

	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return 0, nil, fmt.Errorf("encode %s payload: %w", path, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, nil, fmt.Errorf("create %s request: %w", path, err)
	}
	c.decorate(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("read %s response: %w", path, err)
	}
	if err := checkSession(resp.StatusCode, data); err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, data, nil
}

// Listing fetches the request-report status listing, newest first.
func (c *Client) Listing(ctx context.Context) ([]domain.StatusEntry, error) {
	_, body, err := c.do(ctx, http.MethodGet, statusPath, nil)
	if err != nil {
		return nil, err
	}
	var entries []domain.StatusEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode status listing: %w", err)
	}
	return entries, nil
}
