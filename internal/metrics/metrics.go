package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "inventario"

// Metrics holds the process metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	RemoteRequests   *prometheus.CounterVec
	RemoteDuration   *prometheus.HistogramVec
	TransferOutcomes *prometheus.CounterVec
	DraftUpdates     *prometheus.CounterVec
	AuditFailures    prometheus.Counter
	ProductsFetched  prometheus.Gauge
	BreakerState     *prometheus.GaugeVec
}

// New creates a Metrics instance on a private registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.RemoteRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_requests_total",
			Help:      "Requests sent to Shopify and Firestore",
		},
		[]string{"service", "operation", "code"},
	)
	m.RemoteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "remote_request_duration_seconds",
			Help:      "Remote request duration in seconds",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service", "operation"},
	)
	m.TransferOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_outcomes_total",
			Help:      "Inventory transfers by terminal status",
		},
		[]string{"status"},
	)
	m.DraftUpdates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "draft_updates_total",
			Help:      "Draft-status updates by result",
		},
		[]string{"result"},
	)
	m.AuditFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "audit_failures_total",
			Help:      "Audit records that could not be written",
		},
	)
	m.ProductsFetched = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "scan_products_fetched",
			Help:      "Products returned by the last catalog scan",
		},
	)
	m.BreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	registry.MustRegister(
		m.RemoteRequests,
		m.RemoteDuration,
		m.TransferOutcomes,
		m.DraftUpdates,
		m.AuditFailures,
		m.ProductsFetched,
		m.BreakerState,
	)

	return m
}

// Handler returns the HTTP handler for the metrics endpoint
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordRemoteRequest records one remote call. code 0 means no response was received.
func (m *Metrics) RecordRemoteRequest(service, operation string, code int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RemoteRequests.WithLabelValues(service, operation, strconv.Itoa(code)).Inc()
	m.RemoteDuration.WithLabelValues(service, operation).Observe(duration.Seconds())
}

// RecordTransfer records a transfer's terminal status
func (m *Metrics) RecordTransfer(status string) {
	if m == nil {
		return
	}
	m.TransferOutcomes.WithLabelValues(status).Inc()
}

// RecordDraftUpdate records one draft-status update attempt
func (m *Metrics) RecordDraftUpdate(result string) {
	if m == nil {
		return
	}
	m.DraftUpdates.WithLabelValues(result).Inc()
}

// RecordAuditFailure counts an audit record that was dropped
func (m *Metrics) RecordAuditFailure() {
	if m == nil {
		return
	}
	m.AuditFailures.Inc()
}

// SetProductsFetched records the size of the last catalog scan
func (m *Metrics) SetProductsFetched(n int) {
	if m == nil {
		return
	}
	m.ProductsFetched.Set(float64(n))
}

// SetBreakerState records a circuit breaker state
func (m *Metrics) SetBreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.BreakerState.WithLabelValues(name).Set(float64(state))
}
