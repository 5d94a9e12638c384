// Package metrics exposes prometheus collectors for dispatched actions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type Actions struct {
	total    *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewActions registers the action collectors on reg.
func NewActions(reg prometheus.Registerer) *Actions {
	a := &Actions{
		total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "messaging_actions_total",
			Help: "Dispatched messaging actions by outcome.",
		}, []string{"action", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "messaging_action_duration_seconds",
			Help:    "Time spent handling a messaging action.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),
	}
	reg.MustRegister(a.total, a.duration)
	return a
}

func (a *Actions) Observe(action, outcome string, elapsed time.Duration) {
	a.total.WithLabelValues(action, outcome).Inc()
	a.duration.WithLabelValues(action).Observe(elapsed.Seconds())
}

// NewRegistry returns a registry with the Go and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}
