package app

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/odyssey-erp/odyssey-ledger/internal/observability"
	"github.com/odyssey-erp/odyssey-ledger/jobs"
)

func serve(h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, vv := range header {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouterProbes(t *testing.T) {
	ready := errors.New("postgres down")
	router := NewRouter(RouterParams{
		Logger:  discardLogger(),
		Config:  &Config{LogLevel: "info"},
		Metrics: observability.NewMetrics(),
		Ready:   func(*http.Request) error { return ready },
	})

	rr := serve(router, "/healthz", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	require.Equal(t, http.StatusServiceUnavailable, serve(router, "/readyz", nil).Code)
	ready = nil
	require.Equal(t, http.StatusOK, serve(router, "/readyz", nil).Code)

	require.Equal(t, http.StatusOK, serve(router, "/metrics", nil).Code)
}

func TestRouterGuardsJobsWithAPIKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("ops"), bcrypt.MinCost)
	require.NoError(t, err)
	router := NewRouter(RouterParams{
		Logger:     discardLogger(),
		Config:     &Config{LogLevel: "info", APIKeyHashes: []string{string(hash)}},
		JobHandler: jobs.NewHandler(nil, discardLogger()),
	})

	require.Equal(t, http.StatusUnauthorized, serve(router, "/jobs/health", nil).Code)
	rr := serve(router, "/jobs/health", http.Header{APIKeyHeader: []string{"ops"}})
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), `"queue":"ledger"`)
	require.Equal(t, http.StatusOK, serve(router, "/jobs/health", http.Header{"x-api-key": []string{"ops"}}).Code)
	require.Equal(t, http.StatusUnauthorized, serve(router, "/jobs/health", http.Header{APIKeyHeader: []string{"dev"}}).Code)
	require.Equal(t, http.StatusOK, serve(router, "/healthz", nil).Code)
}
