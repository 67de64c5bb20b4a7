// Package metrics exposes Prometheus instrumentation for the engine.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ganot/cropline/internal/domain/crop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder implements crop.TransitionObserver and HTTP request metrics.
type Recorder struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	requests    *prometheus.CounterVec
}

// New creates a recorder with its own registry.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropline",
			Name:      "transitions_total",
			Help:      "Crop timeline transitions by operation and outcome.",
		}, []string{"op", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "cropline",
			Name:      "transition_duration_seconds",
			Help:      "Time spent applying crop timeline transitions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cropline",
			Name:      "http_requests_total",
			Help:      "HTTP API requests by route pattern and status code.",
		}, []string{"route", "code"}),
	}
	r.registry.MustRegister(
		r.transitions,
		r.latency,
		r.requests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveTransition records one transition attempt.
func (r *Recorder) ObserveTransition(op string, elapsed time.Duration, err error) {
	r.transitions.WithLabelValues(op, Outcome(err)).Inc()
	r.latency.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveRequest counts one HTTP request.
func (r *Recorder) ObserveRequest(route string, code int) {
	r.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry { return r.registry }

// Outcome classifies an engine error into a metric label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, crop.ErrValidation):
		return "validation"
	case errors.Is(err, crop.ErrNotFound):
		return "not_found"
	case errors.Is(err, crop.ErrState):
		return "state"
	case errors.Is(err, crop.ErrOrderViolation):
		return "order_violation"
	case errors.Is(err, crop.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}
