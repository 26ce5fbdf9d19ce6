// Package metrics defines the Prometheus collectors exported by runners.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "lazypool"

// Outcome label values.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Collectors groups the metrics a runner updates. The zero value is not
// usable; use New.
type Collectors struct {
	// RunsTotal counts finished runs by strategy and outcome.
	RunsTotal *prometheus.CounterVec
	// TasksTotal counts finished tasks by strategy and outcome.
	TasksTotal *prometheus.CounterVec
	// TaskDuration records time spent inside the task function.
	TaskDuration *prometheus.HistogramVec
	// LiveWorkers is the number of worker goroutines or processes alive.
	LiveWorkers *prometheus.GaugeVec
}

func newCollectors() *Collectors {
	return &Collectors{
		RunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "runner",
				Name:      "runs_total",
				Help:      "Total count of finished runs.",
			}, []string{"strategy", "outcome"}),
		TasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "runner",
				Name:      "tasks_total",
				Help:      "Total count of finished tasks.",
			}, []string{"strategy", "outcome"}),
		TaskDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "runner",
				Name:      "task_duration_seconds",
				Help:      "Bucketed histogram of time (s) spent in the task function.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 18),
			}, []string{"strategy"}),
		LiveWorkers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "runner",
				Name:      "live_workers",
				Help:      "Number of live worker goroutines or processes.",
			}, []string{"strategy"}),
	}
}

// New creates the collectors and registers them with reg, or leaves them
// unregistered when reg is nil. If an identical
// collector is already registered, the existing one is reused so several
// runners can report into the same registry.
func New(reg prometheus.Registerer) (*Collectors, error) {
	c := newCollectors()
	if reg == nil {
		return c, nil
	}

	var err error
	if c.RunsTotal, err = register(reg, c.RunsTotal); err != nil {
		return nil, err
	}
	if c.TasksTotal, err = register(reg, c.TasksTotal); err != nil {
		return nil, err
	}
	if c.TaskDuration, err = register(reg, c.TaskDuration); err != nil {
		return nil, err
	}
	if c.LiveWorkers, err = register(reg, c.LiveWorkers); err != nil {
		return nil, err
	}
	return c, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}
