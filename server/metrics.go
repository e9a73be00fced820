package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "docket"

// Metrics holds the Prometheus collectors of one Server.
type Metrics struct {
	registry *prometheus.Registry

	submissions     *prometheus.CounterVec   // By outcome
	seedEntries     *prometheus.CounterVec   // By outcome
	requestsTotal   *prometheus.CounterVec   // By method, route and status_code
	requestDuration *prometheus.HistogramVec // By method and route
}

// NewMetrics registers the server collectors with registry. A nil
// registry gets a fresh one.
func NewMetrics(registry *prometheus.Registry) (*Metrics, error) {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "submissions_total",
			Help:      "Total number of document submissions",
		}, []string{"outcome"}), // outcome: saved, invalid_input, malformed_json, conflict, unavailable, failed
		seedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "seed_entries_total",
			Help:      "Total number of seed entries applied",
		}, []string{"outcome"}), // outcome: succeeded, failed
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status_code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}

	for _, c := range []prometheus.Collector{m.submissions, m.seedEntries, m.requestsTotal, m.requestDuration} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) recordSubmission(outcome string) {
	m.submissions.WithLabelValues(outcome).Inc()
}

func (m *Metrics) recordSeed(succeeded, failed int) {
	m.seedEntries.WithLabelValues("succeeded").Add(float64(succeeded))
	m.seedEntries.WithLabelValues("failed").Add(float64(failed))
}

func (m *Metrics) recordRequest(method, route string, status int, elapsed time.Duration) {
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
