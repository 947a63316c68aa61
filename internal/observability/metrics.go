package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	Registry *prometheus.Registry

	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	ErrorsTotal     *prometheus.CounterVec
	AuthDecisions   *prometheus.CounterVec
	LoginThrottled  prometheus.Counter
}

// NewMetrics registers collectors on reg. A nil reg gets a private registry
// so tests and tools never collide on the global one.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userauth_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "userauth_http_request_duration_seconds",
			Help:    "Histogram of HTTP request latencies.",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"method", "route"}),
		ErrorsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userauth_errors_total",
			Help: "Errors reported to clients by kind.",
		}, []string{"kind"}),
		AuthDecisions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "userauth_auth_decisions_total",
			Help: "Authorization middleware outcomes.",
		}, []string{"outcome", "kind"}),
		LoginThrottled: factory.NewCounter(prometheus.CounterOpts{
			Name: "userauth_login_throttled_total",
			Help: "Login attempts rejected by the rate limiter.",
		}),
	}
}

// RecordRequest observes a finished request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordError counts an error rendered to a client.
func (m *Metrics) RecordError(kind string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordAuthDecision counts an authorization outcome.
func (m *Metrics) RecordAuthDecision(outcome, kind string) {
	if m == nil {
		return
	}
	m.AuthDecisions.WithLabelValues(outcome, kind).Inc()
}

// RecordLoginThrottled counts a login rejected by the limiter.
func (m *Metrics) RecordLoginThrottled() {
	if m == nil {
		return
	}
	m.LoginThrottled.Inc()
}
