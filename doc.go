/*
Package gosem provides asynchronous concurrency primitives built around a
counting semaphore with FIFO waiters, cancellable waits, and future-based
acquisition.

Core (pkg/semaphore, pkg/future):
  - semaphore: Counting semaphore; immediate, blocking, and async acquires
  - future: Single-assignment result cells backing async acquisition

Supporting (pkg/ambient, pkg/scheduling):
  - ambient: Task identity propagation and holder tracking
  - scheduling/deferred: Construct-now, run-later task wrappers

Infrastructure (pkg/distributed, pkg/metrics):
  - distributed: Cross-instance semaphore leases coordinated via Redis
  - metrics: Prometheus instrumentation for all components

Example usage:

	import (
		"github.com/vnykmshr/gosem/pkg/semaphore"
	)

	sem, _ := semaphore.NewSafe(10) // at most 10 concurrent holders

	rel, err := sem.Acquire(ctx)
	if err != nil {
		return err
	}
	defer rel.Release()
*/
package gosem
