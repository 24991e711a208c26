package omni

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"omnirelay/internal/domain"
)

func inventoryRequest() domain.ReportRequest {
	return domain.ReportRequest{
		ReportID: 106899,
		Params: map[string][]string{
			"client": {"1101201064", "1101210390"},
			"brand":  {},
		},
		Timezone: "Asia/Calcutta",
		Format:   "XLSX",
	}
}

func TestSubmitUsesResponseID(t *testing.T) {
	var wire map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/reporting/api/standard/app-access/request-report", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&wire))
		_, _ = w.Write([]byte(`{"id": 555}`))
	}))
	defer srv.Close()

	id, err := testClient(t, srv.URL).Submit(context.Background(), inventoryRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestID(555), id)

	// Wire field names are the service's, not ours.
	assert.Contains(t, wire, "paramMap")
	assert.Contains(t, wire, "reportId")
	assert.Contains(t, wire, "timezone")
	assert.Contains(t, wire, "fileFormat")
	assert.Equal(t, `106899`, string(wire["reportId"]))
}

func TestSubmitAcceptsQuotedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": "789"}`))
	}))
	defer srv.Close()

	id, err := testClient(t, srv.URL).Submit(context.Background(), inventoryRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestID(789), id)
}

func TestSubmitTwiceYieldsDistinctIDs(t *testing.T) {
	var mu sync.Mutex
	next := 100
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		next++
		id := next
		mu.Unlock()
		fmt.Fprintf(w, `{"id": %d}`, id)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	first, err := client.Submit(context.Background(), inventoryRequest())
	require.NoError(t, err)
	second, err := client.Submit(context.Background(), inventoryRequest())
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestSubmitFallsBackToListingHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`[
			{"requestId": 888, "status": "PENDING"},
			{"requestId": 887, "status": "COMPLETED"}
		]`))
	}))
	defer srv.Close()

	id, err := testClient(t, srv.URL).Submit(context.Background(), inventoryRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestID(888), id, "newest entry adopted")
}

func TestSubmitNonJSONBodyFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			_, _ = w.Write([]byte(`accepted`))
			return
		}
		_, _ = w.Write([]byte(`[{"requestId": 12, "status": "PENDING"}]`))
	}))
	defer srv.Close()

	id, err := testClient(t, srv.URL).Submit(context.Background(), inventoryRequest())
	require.NoError(t, err)
	assert.Equal(t, domain.RequestID(12), id)
}

func TestSubmitNoIDAnywhere(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Submit(context.Background(), inventoryRequest())
	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
}

func TestSubmitRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`upstream unavailable`))
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Submit(context.Background(), inventoryRequest())
	var resErr *domain.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Contains(t, err.Error(), "502")
}

func TestSubmitUnauthorizedIsAuthErrorNotResolution(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).Submit(context.Background(), inventoryRequest())
	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	var resErr *domain.ResolutionError
	assert.NotErrorAs(t, err, &resErr)
}
