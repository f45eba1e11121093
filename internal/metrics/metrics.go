// Package metrics holds the Prometheus collectors exported by the daemon.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the collectors on a dedicated registry so tests and
// multiple instances never collide on the global one.
type Metrics struct {
	Registry *prometheus.Registry

	TasksSubmitted *prometheus.CounterVec
	TasksCompleted *prometheus.CounterVec

	PollIntervalUpdates prometheus.Counter
	PollIntervalSeconds prometheus.Gauge
	Subscribers         prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		TasksSubmitted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yhm_tasks_submitted_total",
				Help: "Total number of background tasks submitted",
			},
			[]string{"label"},
		),
		TasksCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yhm_tasks_completed_total",
				Help: "Total number of background tasks finished, by outcome",
			},
			[]string{"label", "outcome"},
		),
		PollIntervalUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "yhm_poll_interval_updates_total",
			Help: "Total number of accepted poll interval changes",
		}),
		PollIntervalSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yhm_poll_interval_seconds",
			Help: "Current mail poll interval in seconds",
		}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "yhm_poll_interval_subscribers",
			Help: "Number of active poll interval subscriptions",
		}),
	}

	m.Registry.MustRegister(
		m.TasksSubmitted,
		m.TasksCompleted,
		m.PollIntervalUpdates,
		m.PollIntervalSeconds,
		m.Subscribers,
		collectors.NewGoCollector(),
	)
	return m
}

// Outcome labels for TasksCompleted.
const (
	OutcomeSuccess  = "success"
	OutcomeFailure  = "failure"
	OutcomeCanceled = "canceled"
)
