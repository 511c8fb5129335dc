// Package metrics exports workflow and notification metrics to Prometheus.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "shop"

// Metrics implements the workflow observer and the notification recorder.
type Metrics struct {
	registry *prometheus.Registry

	transitions        *prometheus.CounterVec
	transitionDuration *prometheus.HistogramVec
	transitionFailures *prometheus.CounterVec
	notifications      *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Applied order transitions.",
		}, []string{"transition", "from", "to", "automatic"}),
		transitionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transition_duration_seconds",
			Help:      "Time spent in guards and body of a transition.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"transition"}),
		transitionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transition_failures_total",
			Help:      "Rejected or failed transition attempts.",
		}, []string{"transition", "from", "reason"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notifications",
			Name:      "rules_total",
			Help:      "Notification rule outcomes per transition target.",
		}, []string{"target", "outcome", "reason"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.transitions,
		m.transitionDuration,
		m.transitionFailures,
		m.notifications,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) TransitionApplied(name, from, to string, automatic bool, elapsed time.Duration) {
	m.transitions.WithLabelValues(name, from, to, strconv.FormatBool(automatic)).Inc()
	m.transitionDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

func (m *Metrics) TransitionFailed(name, from, reason string) {
	m.transitionFailures.WithLabelValues(name, from, reason).Inc()
}

func (m *Metrics) NotificationQueued(target string) {
	m.notifications.WithLabelValues(target, "queued", "").Inc()
}

func (m *Metrics) NotificationSkipped(target, reason string) {
	m.notifications.WithLabelValues(target, "skipped", reason).Inc()
}

func (m *Metrics) NotificationFailed(target, reason string) {
	m.notifications.WithLabelValues(target, "failed", reason).Inc()
}
