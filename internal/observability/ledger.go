package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/odyssey-erp/odyssey-ledger/internal/accounting/shared"
)

// LedgerMetrics counts journal operations and report cache outcomes.
type LedgerMetrics struct {
	operations  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	linesPosted prometheus.Counter
	reportCache *prometheus.CounterVec
}

func newLedgerMetrics(registerer prometheus.Registerer) *LedgerMetrics {
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_ledger_journal_operations_total",
		Help: "Journal operations by operation and outcome kind.",
	}, []string{"op", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "odyssey_ledger_journal_operation_duration_seconds",
		Help:    "Duration of journal operations including the database transaction.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})
	lines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "odyssey_ledger_lines_posted_total",
		Help: "Journal lines applied to account balances.",
	})
	reportCache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "odyssey_ledger_report_cache_total",
		Help: "Report snapshot lookups by cache outcome.",
	}, []string{"outcome"})
	registerer.MustRegister(operations, duration, lines, reportCache)
	return &LedgerMetrics{operations: operations, duration: duration, linesPosted: lines, reportCache: reportCache}
}

// ObserveJournal records one journal operation. Failures are labelled
// with their error kind so rejected postings are told apart from outages.
func (m *LedgerMetrics) ObserveJournal(op string, started time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = shared.Kind(err)
		if result == "" {
			result = "error"
		}
	}
	m.operations.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(started).Seconds())
}

// AddPostedLines counts lines applied by a posting or reversal.
func (m *LedgerMetrics) AddPostedLines(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.linesPosted.Add(float64(n))
}

// ObserveReportCache counts report snapshot cache hits and misses.
func (m *LedgerMetrics) ObserveReportCache(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.reportCache.WithLabelValues(outcome).Inc()
}
