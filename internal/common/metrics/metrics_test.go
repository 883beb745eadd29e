package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kitchen-scheduler/internal/scheduler"
)

func TestObserveSweep(t *testing.T) {
	m := New("delay-monitor")

	m.ObserveSweep(scheduler.WorkloadSummary{ActiveOrderCount: 4, WorkloadScore: 75}, []scheduler.DelayedOrder{
		{Severity: scheduler.SeverityHigh},
		{Severity: scheduler.SeverityMedium},
		{Severity: scheduler.SeverityHigh},
	})

	assert.Equal(t, 4.0, testutil.ToFloat64(m.ActiveOrders))
	assert.Equal(t, 75.0, testutil.ToFloat64(m.WorkloadScore))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DelayedOrders.WithLabelValues("high")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.DelayedOrders.WithLabelValues("medium")))

	m.ObserveSweep(scheduler.WorkloadSummary{}, nil)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.DelayedOrders.WithLabelValues("high")), "stale severities are reset")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveSweep(scheduler.WorkloadSummary{}, nil)
		m.ObservePrepEstimate(12)
	})
}

func TestHandler(t *testing.T) {
	m := New("board-service")
	m.ObservePrepEstimate(31.7)
	m.HTTPRequests.WithLabelValues("/api/v1/kitchen/queue", "200").Inc()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "kitchen_preparation_estimate_minutes_count")
	assert.Contains(t, string(body), `kitchen_http_requests_total{path="/api/v1/kitchen/queue",service="board-service",status="200"} 1`)
}
