// Package metrics exposes Prometheus collectors for the UI server.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Its-donkey/Symphony-apply/internal/ui/api"
	"github.com/Its-donkey/Symphony-apply/internal/ui/forms"
)

const namespace = "symphony_apply"

// Metrics holds the collectors of one UI server on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	configFetches  *prometheus.CounterVec
	submissions    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	activeSessions prometheus.Gauge
}

// New registers a fresh set of collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		configFetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "config",
				Name:      "fetches_total",
				Help:      "Config fetches by outcome.",
			},
			[]string{"outcome"},
		),
		submissions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "applications",
				Name:      "submissions_total",
				Help:      "Application submissions by outcome.",
			},
			[]string{"outcome"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests handled.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
			},
			[]string{"method", "path"},
		),
		activeSessions: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "sessions",
				Name:      "active",
				Help:      "Visitor sessions currently held in memory.",
			},
		),
	}
	m.Registry.MustRegister(
		m.configFetches,
		m.submissions,
		m.httpRequests,
		m.httpDuration,
		m.activeSessions,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler returns an HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// ConfigFetch records the outcome of a config fetch.
func (m *Metrics) ConfigFetch(applied bool, err error) {
	if m == nil {
		return
	}
	m.configFetches.WithLabelValues(ConfigOutcome(applied, err)).Inc()
}

// Submission records the outcome of an application submission.
func (m *Metrics) Submission(err error) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(SubmissionOutcome(err)).Inc()
}

// SetActiveSessions reports the current session count.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.activeSessions.Set(float64(n))
}

// ObserveHTTP records one handled request. It matches logging.HTTPLogger.Observe.
func (m *Metrics) ObserveHTTP(r *http.Request, status int, duration time.Duration) {
	if m == nil || r.URL.Path == "/metrics" {
		return
	}
	path := canonicalPath(r.URL.Path)
	method := strings.ToUpper(r.Method)
	m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// ConfigOutcome labels a config fetch.
func ConfigOutcome(applied bool, err error) string {
	switch {
	case !applied:
		return "stale"
	case err == nil:
		return "ok"
	case errors.Is(err, api.ErrMalformedConfig):
		return "malformed"
	}
	var statusErr *api.StatusError
	if errors.As(err, &statusErr) {
		return "status"
	}
	return "transport"
}

// SubmissionOutcome labels a submission attempt.
func SubmissionOutcome(err error) string {
	var validationErr *forms.ValidationError
	var statusErr *api.StatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, forms.ErrApplicationsClosed):
		return "closed"
	case errors.Is(err, forms.ErrSubmissionInFlight), errors.Is(err, forms.ErrNotEditable):
		return "rejected"
	case errors.As(err, &validationErr):
		return "invalid"
	case errors.As(err, &statusErr):
		return "status"
	}
	return "transport"
}

// canonicalPath collapses unknown paths so label cardinality stays bounded.
func canonicalPath(path string) string {
	switch path {
	case "/", "/retry", "/apply", "/apply/another", "/lang", "/styles.css", "/healthz":
		return path
	}
	return "other"
}
