// Package prom exports semaphore and scope activity as Prometheus metrics.
package prom

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NetPo4ki/go-sizedsem/sizedsem"
)

// Metrics implements both sizedsem.Observer and scope.Observer and is a
// prometheus.Collector. Register it once per name.
type Metrics struct {
	// semaphore
	acquisitions *prometheus.CounterVec
	acquiredSum  prometheus.Counter
	held         prometheus.Gauge
	acquireWait  prometheus.Histogram
	holdTime     prometheus.Histogram

	// scopes and tasks
	scopesCreated   prometheus.Counter
	scopesCancelled prometheus.Counter
	joinWait        prometheus.Histogram
	activeTasks     prometheus.Gauge
	tasksFinished   *prometheus.CounterVec
	taskDuration    prometheus.Histogram
}

// New returns collectors in namespace, labeled with name=name.
func New(namespace, name string) *Metrics {
	labels := prometheus.Labels{"name": name}
	counter := func(n, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: n, Help: help, ConstLabels: labels,
		})
	}
	gauge := func(n, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: n, Help: help, ConstLabels: labels,
		})
	}
	histogram := func(n, help string) prometheus.Histogram {
		return prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: n, Help: help, ConstLabels: labels,
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
		})
	}
	return &Metrics{
		acquisitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "acquisitions_total", ConstLabels: labels,
			Help: "Acquisition attempts by result.",
		}, []string{"result"}),
		acquiredSum: counter("acquired_quantity_total", "Total quantity granted."),
		held:        gauge("held_quantity", "Quantity currently held by unreleased locks."),
		acquireWait: histogram("acquire_wait_seconds", "Time spent inside acquiring calls."),
		holdTime:    histogram("hold_seconds", "Time between grant and release of a lock."),

		scopesCreated:   counter("scopes_created_total", "Scopes created."),
		scopesCancelled: counter("scopes_cancelled_total", "Scopes cancelled."),
		joinWait:        histogram("scope_join_seconds", "Time spent in Scope.Wait."),
		activeTasks:     gauge("tasks_active", "Tasks currently running."),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tasks_finished_total", ConstLabels: labels,
			Help: "Finished tasks by outcome.",
		}, []string{"outcome"}),
		taskDuration: histogram("task_duration_seconds", "Task run time."),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.acquisitions, m.acquiredSum, m.held, m.acquireWait, m.holdTime,
		m.scopesCreated, m.scopesCancelled, m.joinWait, m.activeTasks, m.tasksFinished, m.taskDuration,
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// Result label values of acquisitions_total.
const (
	ResultAcquired        = "acquired"
	ResultCanceled        = "canceled"
	ResultTimedOut        = "timed_out"
	ResultExceedsCapacity = "exceeds_capacity"
	ResultError           = "error"
)

func result(err error) string {
	switch {
	case errors.Is(err, sizedsem.ErrTimedOut):
		return ResultTimedOut
	case errors.Is(err, sizedsem.ErrCanceled):
		return ResultCanceled
	case errors.Is(err, sizedsem.ErrQuantityExceedsCapacity):
		return ResultExceedsCapacity
	}
	return ResultError
}

// Acquired records a granted lock.
func (m *Metrics) Acquired(_ context.Context, quantity uint64, wait time.Duration) {
	m.acquisitions.WithLabelValues(ResultAcquired).Inc()
	m.acquiredSum.Add(float64(quantity))
	m.held.Add(float64(quantity))
	m.acquireWait.Observe(wait.Seconds())
}

// AcquireFailed records a failed acquisition by its cause.
func (m *Metrics) AcquireFailed(_ context.Context, _ uint64, wait time.Duration, err error) {
	m.acquisitions.WithLabelValues(result(err)).Inc()
	m.acquireWait.Observe(wait.Seconds())
}

// Released records a released lock.
func (m *Metrics) Released(quantity uint64, held time.Duration) {
	m.held.Sub(float64(quantity))
	m.holdTime.Observe(held.Seconds())
}

// ScopeCreated records scope creation.
func (m *Metrics) ScopeCreated(_ context.Context) {
	m.scopesCreated.Inc()
}

// ScopeCancelled records scope cancellation.
func (m *Metrics) ScopeCancelled(_ context.Context, _ error) {
	m.scopesCancelled.Inc()
}

// ScopeJoined records a join and its wait time.
func (m *Metrics) ScopeJoined(_ context.Context, wait time.Duration) {
	m.joinWait.Observe(wait.Seconds())
}

// TaskStarted increments the active task gauge.
func (m *Metrics) TaskStarted(_ context.Context) {
	m.activeTasks.Inc()
}

// TaskFinished decrements active tasks and records the outcome and duration.
func (m *Metrics) TaskFinished(_ context.Context, dur time.Duration, err error, panicked bool) {
	m.activeTasks.Dec()
	outcome := "ok"
	switch {
	case panicked:
		outcome = "panic"
	case err != nil:
		outcome = "error"
	}
	m.tasksFinished.WithLabelValues(outcome).Inc()
	m.taskDuration.Observe(dur.Seconds())
}
