package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"kitchen-scheduler/internal/scheduler"
)

const namespace = "kitchen"

// Metrics holds the scheduler gauges of one service process.
type Metrics struct {
	registry *prometheus.Registry

	ActiveOrders     prometheus.Gauge
	DelayedOrders    *prometheus.GaugeVec
	WorkloadScore    prometheus.Gauge
	PrepEstimates    prometheus.Histogram
	AlertsPublished  *prometheus.CounterVec
	AlertsReceived   *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
	SnapshotFailures prometheus.Counter
}

func New(service string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(prometheus.NewGoCollector())
	registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	factory := promauto.With(registry)
	labels := prometheus.Labels{"service": service}

	return &Metrics{
		registry: registry,
		ActiveOrders: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "active_orders",
			Help:        "Pending and processing orders in the last snapshot",
			ConstLabels: labels,
		}),
		DelayedOrders: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "delayed_orders",
			Help:        "Orders flagged as delayed in the last snapshot",
			ConstLabels: labels,
		}, []string{"severity"}),
		WorkloadScore: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   namespace,
			Name:        "workload_score",
			Help:        "Kitchen workload score of the last snapshot",
			ConstLabels: labels,
		}),
		PrepEstimates: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   namespace,
			Name:        "preparation_estimate_minutes",
			Help:        "Estimated preparation time of queued orders",
			ConstLabels: labels,
			Buckets:     []float64{5, 10, 15, 20, 30, 45, 60, 90, 120},
		}),
		AlertsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "alerts_published_total",
			Help:        "Kitchen alerts published to the broker",
			ConstLabels: labels,
		}, []string{"type", "status"}),
		AlertsReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "alerts_received_total",
			Help:        "Kitchen alerts consumed from the broker",
			ConstLabels: labels,
		}, []string{"type", "status"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "http_requests_total",
			Help:        "Board API requests",
			ConstLabels: labels,
		}, []string{"path", "status"}),
		SnapshotFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   namespace,
			Name:        "snapshot_failures_total",
			Help:        "Snapshots that could not be loaded or scheduled",
			ConstLabels: labels,
		}),
	}
}

// ObserveSweep records the outcome of one pass over a snapshot.
func (m *Metrics) ObserveSweep(w scheduler.WorkloadSummary, delayed []scheduler.DelayedOrder) {
	if m == nil {
		return
	}
	m.ActiveOrders.Set(float64(w.ActiveOrderCount))
	m.WorkloadScore.Set(w.WorkloadScore)

	counts := map[scheduler.Severity]int{scheduler.SeverityMedium: 0, scheduler.SeverityHigh: 0}
	for _, d := range delayed {
		counts[d.Severity]++
	}
	for sev, n := range counts {
		m.DelayedOrders.WithLabelValues(string(sev)).Set(float64(n))
	}
}

func (m *Metrics) ObservePrepEstimate(minutes float64) {
	if m == nil {
		return
	}
	m.PrepEstimates.Observe(minutes)
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
