// Package metrics provides Prometheus instrumentation for gosem components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds all metric instances for gosem components.
type Registry struct {
	// Semaphore Metrics
	SemaphoreAcquires     *prometheus.CounterVec
	SemaphoreWaitTime     *prometheus.HistogramVec
	SemaphoreHeld         *prometheus.GaugeVec
	SemaphoreWaiting      *prometheus.GaugeVec
	SemaphoreFastPathHits *prometheus.CounterVec

	// Deferred Task Metrics
	TasksStarted *prometheus.CounterVec
	TasksFailed  *prometheus.CounterVec
	TaskRunTime  *prometheus.HistogramVec

	// Distributed Semaphore Metrics
	DistributedAcquires *prometheus.CounterVec
	DistributedLeases   *prometheus.GaugeVec
	DistributedSweeps   *prometheus.CounterVec
	DistributedReaped   *prometheus.CounterVec
}

// DefaultRegistry is the default metrics registry used by gosem components.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry(prometheus.DefaultRegisterer)
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)

	return &Registry{
		// Semaphore Metrics
		SemaphoreAcquires: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gosem",
				Subsystem: "semaphore",
				Name:      "acquires_total",
				Help:      "Total number of acquire attempts by outcome",
			},
			[]string{"semaphore_name", "outcome"},
		),

		SemaphoreWaitTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gosem",
				Subsystem: "semaphore",
				Name:      "wait_duration_seconds",
				Help:      "Time spent waiting for a slot",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"semaphore_name"},
		),

		SemaphoreHeld: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gosem",
				Subsystem: "semaphore",
				Name:      "held",
				Help:      "Number of slots currently held",
			},
			[]string{"semaphore_name"},
		),

		SemaphoreWaiting: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gosem",
				Subsystem: "semaphore",
				Name:      "waiting",
				Help:      "Number of acquires waiting for a slot",
			},
			[]string{"semaphore_name"},
		),

		SemaphoreFastPathHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gosem",
				Subsystem: "semaphore",
				Name:      "fast_path_hits_total",
				Help:      "Total number of uncontended acquires",
			},
			[]string{"semaphore_name"},
		),

		// Deferred Task Metrics
		TasksStarted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gosem",
				Subsystem: "deferred",
				Name:      "tasks_started_total",
				Help:      "Total number of deferred tasks started",
			},
			[]string{"task_name"},
		),

		TasksFailed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gosem",
				Subsystem: "deferred",
				Name:      "tasks_failed_total",
				Help:      "Total number of deferred tasks that failed",
			},
			[]string{"task_name"},
		),

		TaskRunTime: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gosem",
				Subsystem: "deferred",
				Name:      "task_duration_seconds",
				Help:      "Time spent running deferred tasks",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"task_name"},
		),

		// Distributed Semaphore Metrics
		DistributedAcquires: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gosem",
				Subsystem: "distributed",
				Name:      "acquires_total",
				Help:      "Total number of distributed acquire attempts by outcome",
			},
			[]string{"semaphore_key", "outcome"},
		),

		DistributedLeases: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: "gosem",
				Subsystem: "distributed",
				Name:      "leases",
				Help:      "Number of leases this instance currently holds",
			},
			[]string{"semaphore_key"},
		),

		DistributedSweeps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gosem",
				Subsystem: "distributed",
				Name:      "sweeps_total",
				Help:      "Total number of lease sweep runs",
			},
			[]string{"semaphore_key"},
		),

		DistributedReaped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gosem",
				Subsystem: "distributed",
				Name:      "reaped_leases_total",
				Help:      "Total number of expired leases reaped by the sweeper",
			},
			[]string{"semaphore_key"},
		),
	}
}
