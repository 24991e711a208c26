// Package gauth manages the Google OAuth identity used by the Drive relay:
// loading installed-app client secrets, caching the user token on disk and
// refreshing it transparently.
package gauth

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
)

// Manager owns the OAuth client configuration and the token cache file.
type Manager struct {
	oauth     *oauth2.Config
	tokenFile string
}

// New loads the installed-app client secrets at secretsFile and binds the
// token cache at tokenFile. The scope is drive.file: the tool only ever
// touches files it created itself.
func New(secretsFile, tokenFile string) (*Manager, error) {
	data, err := os.ReadFile(secretsFile) //nolint:gosec // path is caller-controlled
	if err != nil {
		return nil, fmt.Errorf("read client secrets %s: %w", secretsFile, err)
	}
	conf, err := google.ConfigFromJSON(data, drive.DriveFileScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secrets: %w", err)
	}
	if conf.RedirectURL == "" {
		// Manual flow: the operator copies the code parameter off the
		// redirect URL in the browser address bar.
		conf.RedirectURL = "http://localhost"
	}
	return &Manager{oauth: conf, tokenFile: tokenFile}, nil
}

// CachedToken loads the token cache. A missing cache surfaces as the
// underlying os.IsNotExist error.
func (m *Manager) CachedToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(m.tokenFile)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, fmt.Errorf("parse token cache %s: %w", m.tokenFile, err)
	}
	return &tok, nil
}

// SaveToken writes the token cache with owner-only permissions.
func (m *Manager) SaveToken(tok *oauth2.Token) error {
	data, err := json.Marshal(tok)
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}
	if err := os.WriteFile(m.tokenFile, data, 0o600); err != nil {
		return fmt.Errorf("write token cache: %w", err)
	}
	return nil
}

// TokenSource returns a source that refreshes the cached token as needed and
// persists refreshed tokens back to the cache file, so the next process
// start skips the refresh round-trip.
func (m *Manager) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	tok, err := m.CachedToken()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no cached Google token at %s; run `auth drive` first", m.tokenFile)
		}
		return nil, err
	}
	return &savingSource{
		base:    m.oauth.TokenSource(ctx, tok),
		manager: m,
		last:    tok.AccessToken,
	}, nil
}

// ConsentURL returns the offline-access consent URL for the manual flow.
func (m *Manager) ConsentURL(state string) string {
	return m.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Exchange trades a pasted auth code for a token and caches it.
func (m *Manager) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := m.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange auth code: %w", err)
	}
	if err := m.SaveToken(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// TokenFile returns the cache path (for status output).
func (m *Manager) TokenFile() string {
	return m.tokenFile
}

type savingSource struct {
	mu      sync.Mutex
	base    oauth2.TokenSource
	manager *Manager
	last    string // access token already persisted
}

func (s *savingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		// Refresh already succeeded; failing to cache it only costs the
		// next start a refresh.
		_ = s.manager.SaveToken(tok)
	}
	return tok, nil
}
