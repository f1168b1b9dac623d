package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusTeapot, rr.Code)

	body := scrape(t, metrics)
	require.Contains(t, body, `odyssey_http_requests_total{code="418",route="/test"} 1`)
	require.Contains(t, body, `odyssey_http_request_duration_seconds_bucket{route="/test"`)
}

func TestLedgerMetricsLabelFailuresByKind(t *testing.T) {
	metrics := NewMetrics()
	ledger := metrics.Ledger()
	started := time.Now()

	ledger.ObserveJournal("post", started, nil)
	ledger.ObserveJournal("post", started, fmt.Errorf("%w: P01 is CLOSED", shared.ErrPeriodClosed))
	ledger.ObserveJournal("post", started, errors.New("connection reset"))
	ledger.AddPostedLines(2)
	ledger.ObserveReportCache(true)
	ledger.ObserveReportCache(false)

	body := scrape(t, metrics)
	for _, want := range []string{
		`odyssey_ledger_journal_operations_total{op="post",result="ok"} 1`,
		`odyssey_ledger_journal_operations_total{op="post",result="period_closed"} 1`,
		`odyssey_ledger_journal_operations_total{op="post",result="error"} 1`,
		`odyssey_ledger_lines_posted_total 2`,
		`odyssey_ledger_report_cache_total{outcome="hit"} 1`,
	} {
		require.True(t, strings.Contains(body, want), "missing %s", want)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	require.Nil(t, m.Ledger())
	m.Ledger().ObserveJournal("post", time.Now(), nil)
	m.Ledger().AddPostedLines(1)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
