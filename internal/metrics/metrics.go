// Package metrics exposes Prometheus counters for the token lifecycle, the
// HTTP surface and the token janitor.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tasker"

// Auth operations used as the "op" label.
const (
	OpLogin    = "login"
	OpValidate = "validate"
	OpRenew    = "renew"
)

// Metrics owns a private registry so tests and multiple servers in one
// process never collide. All methods are safe on a nil *Metrics.
type Metrics struct {
	registry *prometheus.Registry

	tokensIssued  *prometheus.CounterVec
	authFailures  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	tokensPurged  prometheus.Counter
	rateLimitHits prometheus.Counter
}

// New creates the registry with Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		tokensIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_sets_issued_total",
			Help:      "Token sets issued, by operation (login or renew).",
		}, []string{"op"}),
		authFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_failures_total",
			Help:      "Rejected credentials, by operation.",
		}, []string{"op"}),
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		tokensPurged: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_sets_purged_total",
			Help:      "Expired token sets removed by the janitor.",
		}),
		rateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the token endpoint rate limiter.",
		}),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TokenSetIssued(op string) {
	if m == nil {
		return
	}
	m.tokensIssued.WithLabelValues(op).Inc()
}

func (m *Metrics) AuthFailure(op string) {
	if m == nil {
		return
	}
	m.authFailures.WithLabelValues(op).Inc()
}

// ObserveRequest records one served request. route is the mux pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) TokenSetsPurged(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.tokensPurged.Add(float64(n))
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimitHits.Inc()
}
