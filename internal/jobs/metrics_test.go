package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	require.NoError(t, m.Track("ledger:integrity").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("ledger:integrity").End(boom), boom)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ledger:integrity", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("ledger:integrity", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("ledger:integrity")))
	require.Positive(t, testutil.ToFloat64(m.lastSuccess.WithLabelValues("ledger:integrity")))
}

func TestNilMetricsAreNoOps(t *testing.T) {
	var m *Metrics
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("x").End(boom), boom)
	m.AddIntegrityIssues("critical", 1, 2)
}

func TestAddIntegrityIssues(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddIntegrityIssues("critical", 7, 2)
	m.AddIntegrityIssues("critical", 7, 0)
	require.Equal(t, 2.0, testutil.ToFloat64(m.issues.WithLabelValues("critical", "7")))
}
