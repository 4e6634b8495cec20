// Package metrics provides Prometheus instrumentation for gosem components.
//
// The package holds one Registry type with every metric family used by the
// library. Components accept a metrics.Config and record through a Registry;
// the metrics-enabled constructors (semaphore.NewWithMetrics,
// distributed.NewWithMetrics) wire this up.
//
// # Quick Start
//
// Enable metrics by using the metrics-enabled constructors:
//
//	sem := semaphore.NewWithMetrics(10, "db_connections")
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":8080", nil))
//
// # Custom Registry
//
// Use a custom Prometheus registry for isolation:
//
//	registry := prometheus.NewRegistry()
//	config := metrics.Config{
//		Enabled:  true,
//		Registry: registry,
//	}
//	sem := semaphore.NewWithConfigAndMetrics(
//		semaphore.Config{Capacity: 10},
//		"db_connections",
//		config,
//	)
//
// # Available Metrics
//
// Semaphore:
//
//   - gosem_semaphore_acquires_total{semaphore_name,outcome}: acquire attempts
//     by outcome ("granted", "canceled", "timed_out")
//   - gosem_semaphore_wait_duration_seconds{semaphore_name}: slot wait time
//   - gosem_semaphore_held{semaphore_name}: slots currently held
//   - gosem_semaphore_waiting{semaphore_name}: acquires waiting for a slot
//   - gosem_semaphore_fast_path_hits_total{semaphore_name}: uncontended acquires
//
// Deferred tasks:
//
//   - gosem_deferred_tasks_started_total{task_name}
//   - gosem_deferred_tasks_failed_total{task_name}
//   - gosem_deferred_task_duration_seconds{task_name}
//
// Distributed semaphore:
//
//   - gosem_distributed_acquires_total{semaphore_key,outcome}
//   - gosem_distributed_leases{semaphore_key}
//   - gosem_distributed_sweeps_total{semaphore_key}
//   - gosem_distributed_reaped_leases_total{semaphore_key}
package metrics
