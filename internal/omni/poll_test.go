package omni

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omnirelay/internal/domain"
)

// pollServer scripts the status listing and detail endpoints for one
// request id. listing is called per tick; detail answers are consumed in
// order, repeating the last one.
type pollServer struct {
	mu          sync.Mutex
	listings    []string
	details     []string
	listCalls   int
	detailCalls int
}

func (p *pollServer) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		defer p.mu.Unlock()
		switch r.URL.Path {
		case "/reporting/api/standard/request-report":
			i := p.listCalls
			if i >= len(p.listings) {
				i = len(p.listings) - 1
			}
			p.listCalls++
			_, _ = w.Write([]byte(p.listings[i]))
		case "/reporting/api/standard/request-report/555":
			i := p.detailCalls
			if i >= len(p.details) {
				i = len(p.details) - 1
			}
			p.detailCalls++
			_, _ = w.Write([]byte(p.details[i]))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestAwaitDownloadURLCompletes(t *testing.T) {
	ps := &pollServer{
		listings: []string{
			`[]`,
			`[{"requestId": 555, "status": "PENDING"}]`,
			`[{"requestId": 555, "status": "RUNNING"}]`,
			`[{"requestId": 555, "status": "COMPLETED"}]`,
		},
		details: []string{`{"status": "https://cdn.example.com/r/555.xlsx"}`},
	}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	url, err := testClient(t, srv.URL).AwaitDownloadURL(context.Background(), 555)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/r/555.xlsx", url)

	ps.mu.Lock()
	defer ps.mu.Unlock()
	assert.GreaterOrEqual(t, ps.listCalls, 4)
	assert.Equal(t, 1, ps.detailCalls, "detail fetched exactly once")
}

func TestAwaitDownloadURLStringDetailForm(t *testing.T) {
	ps := &pollServer{
		listings: []string{`[{"requestId": 555, "status": "COMPLETED"}]`},
		details:  []string{`"https://cdn.example.com/r/555.xlsx"`},
	}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	url, err := testClient(t, srv.URL).AwaitDownloadURL(context.Background(), 555)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/r/555.xlsx", url)
}

func TestAwaitDownloadURLNonURLDetailKeepsPolling(t *testing.T) {
	ps := &pollServer{
		listings: []string{`[{"requestId": 555, "status": "COMPLETED"}]`},
		details: []string{
			`{"status": "PROCESSING"}`,
			`{"status": "https://cdn.example.com/r/555.xlsx"}`,
		},
	}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	url, err := testClient(t, srv.URL).AwaitDownloadURL(context.Background(), 555)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/r/555.xlsx", url)

	ps.mu.Lock()
	defer ps.mu.Unlock()
	assert.Equal(t, 2, ps.detailCalls)
}

func TestAwaitDownloadURLTimeout(t *testing.T) {
	ps := &pollServer{
		listings: []string{`[{"requestId": 555, "status": "RUNNING"}]`},
	}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	_, err := testClient(t, srv.URL).AwaitDownloadURL(context.Background(), 555)

	var timeoutErr *domain.PollTimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	assert.Equal(t, domain.RequestID(555), timeoutErr.RequestID)
	assert.Equal(t, 250*time.Millisecond, timeoutErr.Waited)
}

func TestAwaitDownloadURLFailedShortCircuits(t *testing.T) {
	ps := &pollServer{
		listings: []string{`[{"requestId": 555, "status": "FAILED"}]`},
	}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	start := time.Now()
	_, err := testClient(t, srv.URL).AwaitDownloadURL(context.Background(), 555)

	var failedErr *domain.ReportFailedError
	require.ErrorAs(t, err, &failedErr)
	assert.Equal(t, domain.RequestID(555), failedErr.RequestID)
	assert.Less(t, time.Since(start), 200*time.Millisecond, "no full poll budget burned")
}

func TestAwaitDownloadURLCallerCancelDistinctFromTimeout(t *testing.T) {
	ps := &pollServer{
		listings: []string{`[{"requestId": 555, "status": "RUNNING"}]`},
	}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	client := testClient(t, srv.URL)
	client.maxWait = 10 * time.Second

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	_, err := client.AwaitDownloadURL(ctx, 555)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled), "got %v", err)

	var timeoutErr *domain.PollTimeoutError
	assert.NotErrorAs(t, err, &timeoutErr)
}

func TestAwaitDownloadURLAuthErrorMidPoll(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			_, _ = w.Write([]byte(`[{"requestId": 555, "status": "RUNNING"}]`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).AwaitDownloadURL(context.Background(), 555)
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr, "session checked on every poll response")
}

func TestAwaitDownloadURLUndecodableDetailKeepsPolling(t *testing.T) {
	ps := &pollServer{
		listings: []string{`[{"requestId": 555, "status": "COMPLETED"}]`},
		details: []string{
			``,
			`"https://cdn.example.com/r/555.xlsx"`,
		},
	}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	url, err := testClient(t, srv.URL).AwaitDownloadURL(context.Background(), 555)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/r/555.xlsx", url)
}

func TestAwaitDownloadURLIgnoresOtherEntries(t *testing.T) {
	listing := `[
		{"requestId": 700, "status": "COMPLETED"},
		{"requestId": 555, "status": "COMPLETED"},
		{"requestId": 300, "status": "FAILED"}
	]`
	ps := &pollServer{
		listings: []string{listing},
		details:  []string{`"https://cdn.example.com/r/555.xlsx"`},
	}
	srv := httptest.NewServer(ps.handler())
	defer srv.Close()

	url, err := testClient(t, srv.URL).AwaitDownloadURL(context.Background(), 555)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("https://cdn.example.com/r/%d.xlsx", 555), url)
}
