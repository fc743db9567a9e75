package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels for csvsentry_analyses_total.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder holds the service collectors on a private registry.
type Recorder struct {
	reg                  *prometheus.Registry
	analyses             *prometheus.CounterVec
	anomalies            *prometheus.CounterVec
	notificationFailures prometheus.Counter
	duration             prometheus.Histogram
}

// New registers the collectors, plus the Go and process collectors, on a fresh registry.
func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csvsentry_analyses_total",
			Help: "Analysis runs by outcome.",
		}, []string{"outcome"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "csvsentry_anomalies_total",
			Help: "Anomalies detected by field.",
		}, []string{"field"}),
		notificationFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "csvsentry_notification_failures_total",
			Help: "Completion notifications that could not be delivered.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "csvsentry_analysis_duration_seconds",
			Help:    "Time spent fetching, analyzing and storing one file.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	r.reg.MustRegister(
		r.analyses, r.anomalies, r.notificationFailures, r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Analysis records one run. Nil receivers are no-ops so callers may skip metrics.
func (r *Recorder) Analysis(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.analyses.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
}

// Anomalies adds n anomalies for field.
func (r *Recorder) Anomalies(field string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.anomalies.WithLabelValues(field).Add(float64(n))
}

// NotificationFailed counts a failed notification send.
func (r *Recorder) NotificationFailed() {
	if r == nil {
		return
	}
	r.notificationFailures.Inc()
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}
