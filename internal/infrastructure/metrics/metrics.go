// Package metrics exposes prometheus collectors for document submissions,
// HTTP traffic and the database pool.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tradedesk/internal/domain/documents"
	"tradedesk/internal/domain/ledger"
)

const namespace = "tradedesk"

var _ documents.SubmissionObserver = (*SubmissionMetrics)(nil)

// SubmissionMetrics counts submission attempts by document kind and outcome.
type SubmissionMetrics struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewSubmissionMetrics registers the submission collectors on reg.
// A nil registerer yields a no-op recorder.
func NewSubmissionMetrics(reg prometheus.Registerer) *SubmissionMetrics {
	if reg == nil {
		return &SubmissionMetrics{}
	}
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "submissions_total",
		Help:      "Document submission attempts by outcome.",
	}, []string{"kind", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "submission_duration_seconds",
		Help:      "Time spent validating, numbering and storing a document.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"kind"})
	reg.MustRegister(total, duration)
	return &SubmissionMetrics{total: total, duration: duration}
}

// ObserveSubmission implements documents.SubmissionObserver.
func (m *SubmissionMetrics) ObserveSubmission(kind ledger.Kind, outcome string, took time.Duration) {
	if m == nil || m.total == nil {
		return
	}
	k := normalizeLabel(string(kind))
	m.total.WithLabelValues(k, normalizeLabel(outcome)).Inc()
	m.duration.WithLabelValues(k).Observe(took.Seconds())
}

// HTTPMetrics records request rate, latency and in-flight requests.
type HTTPMetrics struct {
	inFlight prometheus.Gauge
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics registers the HTTP collectors on reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		return &HTTPMetrics{}
	}
	inFlight := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_in_flight_requests",
		Help:      "In-flight HTTP requests.",
	})
	total := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "route", "status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latencies in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
	reg.MustRegister(inFlight, total, duration)
	return &HTTPMetrics{inFlight: inFlight, total: total, duration: duration}
}

// Start marks a request as in flight and returns the func that finishes it.
// route should be the matched route pattern, never the raw path.
func (m *HTTPMetrics) Start(method string) func(route string, status int) {
	if m == nil || m.inFlight == nil {
		return func(string, int) {}
	}
	m.inFlight.Inc()
	start := time.Now()
	return func(route string, status int) {
		m.inFlight.Dec()
		code := strconv.Itoa(status)
		route = normalizeLabel(route)
		m.duration.WithLabelValues(method, route, code).Observe(time.Since(start).Seconds())
		m.total.WithLabelValues(method, route, code).Inc()
	}
}

// PoolStats is a snapshot of database pool usage.
type PoolStats struct {
	Total    int32
	Acquired int32
	Idle     int32
	Max      int32
}

// RegisterPoolStats exports pool gauges sampled from stats at scrape time.
func RegisterPoolStats(reg prometheus.Registerer, stats func() PoolStats) {
	if reg == nil || stats == nil {
		return
	}
	gauge := func(name, help string, pick func(PoolStats) int32) prometheus.GaugeFunc {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(pick(stats())) })
	}
	reg.MustRegister(
		gauge("total_conns", "Open connections.", func(s PoolStats) int32 { return s.Total }),
		gauge("acquired_conns", "Connections in use.", func(s PoolStats) int32 { return s.Acquired }),
		gauge("idle_conns", "Idle connections.", func(s PoolStats) int32 { return s.Idle }),
		gauge("max_conns", "Pool size limit.", func(s PoolStats) int32 { return s.Max }),
	)
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
