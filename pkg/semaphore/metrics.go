package semaphore

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	gserrors "github.com/vnykmshr/gosem/pkg/common/errors"
	"github.com/vnykmshr/gosem/pkg/future"
	"github.com/vnykmshr/gosem/pkg/metrics"
)

// Acquire outcome label values.
const (
	outcomeGranted  = "granted"
	outcomeCanceled = "canceled"
	outcomeTimedOut = "timed_out"
)

// MetricsSemaphore wraps a Semaphore with Prometheus metrics collection.
type MetricsSemaphore struct {
	sem      *Semaphore
	name     string
	registry *metrics.Registry
	enabled  bool
}

// NewWithMetrics creates a semaphore with metrics enabled.
func NewWithMetrics(capacity int, name string) *MetricsSemaphore {
	// Use a separate registry for each metrics-enabled component to avoid conflicts
	registry := prometheus.NewRegistry()
	config := metrics.Config{
		Enabled:  true,
		Registry: registry,
	}

	return NewWithConfigAndMetrics(Config{
		Capacity:         capacity,
		InitialAvailable: -1,
	}, name, config)
}

// NewWithConfigAndMetrics creates a semaphore with custom config and metrics.
func NewWithConfigAndMetrics(config Config, name string, metricsConfig metrics.Config) *MetricsSemaphore {
	sem, err := NewWithConfigSafe(config)
	if err != nil {
		panic("invalid semaphore configuration: " + err.Error())
	}

	ms := &MetricsSemaphore{
		sem:     sem,
		name:    name,
		enabled: metricsConfig.Enabled,
	}

	if metricsConfig.Registry != nil {
		ms.registry = metrics.NewRegistry(metricsConfig.Registry)
	} else {
		ms.registry = metrics.DefaultRegistry
	}

	ms.updateGauges()
	return ms
}

// Semaphore returns the wrapped semaphore.
func (ms *MetricsSemaphore) Semaphore() *Semaphore {
	return ms.sem
}

// updateGauges refreshes the point-in-time state metrics.
func (ms *MetricsSemaphore) updateGauges() {
	if !ms.enabled {
		return
	}
	ms.registry.SemaphoreHeld.WithLabelValues(ms.name).Set(float64(ms.sem.InUse()))
	ms.registry.SemaphoreWaiting.WithLabelValues(ms.name).Set(float64(ms.sem.Waiting()))
}

func (ms *MetricsSemaphore) recordOutcome(err error) {
	if !ms.enabled {
		return
	}
	outcome := outcomeGranted
	switch {
	case errors.Is(err, gserrors.ErrTimeout):
		outcome = outcomeTimedOut
	case err != nil:
		outcome = outcomeCanceled
	}
	ms.registry.SemaphoreAcquires.WithLabelValues(ms.name, outcome).Inc()
}

// TryAcquire claims a slot without waiting.
func (ms *MetricsSemaphore) TryAcquire(ctx context.Context) (Releaser, bool) {
	rel, ok := ms.sem.TryAcquire(ctx)
	if ms.enabled && ok {
		ms.registry.SemaphoreFastPathHits.WithLabelValues(ms.name).Inc()
		ms.registry.SemaphoreAcquires.WithLabelValues(ms.name, outcomeGranted).Inc()
	}
	ms.updateGauges()
	return rel, ok
}

// Acquire waits for a slot, recording the wait duration and outcome.
func (ms *MetricsSemaphore) Acquire(ctx context.Context) (Releaser, error) {
	return ms.AcquireTimeout(ctx, NoTimeout)
}

// AcquireTimeout is Acquire bounded by a timeout.
func (ms *MetricsSemaphore) AcquireTimeout(ctx context.Context, timeout time.Duration) (Releaser, error) {
	start := time.Now()
	rel, err := ms.sem.AcquireTimeout(ctx, timeout)

	if ms.enabled {
		ms.registry.SemaphoreWaitTime.WithLabelValues(ms.name).Observe(time.Since(start).Seconds())
		ms.recordOutcome(err)
		ms.updateGauges()
	}
	return rel, err
}

// AcquireAsync requests a slot without suspending the caller. Uncontended
// grants count as fast-path hits; queued outcomes are recorded when the
// future resolves.
func (ms *MetricsSemaphore) AcquireAsync(ctx context.Context) *future.Future[Releaser] {
	return ms.AcquireAsyncTimeout(ctx, NoTimeout)
}

// AcquireAsyncTimeout is AcquireAsync bounded by a timeout.
func (ms *MetricsSemaphore) AcquireAsyncTimeout(ctx context.Context, timeout time.Duration) *future.Future[Releaser] {
	start := time.Now()
	fut := ms.sem.AcquireAsyncTimeout(ctx, timeout)

	if !ms.enabled {
		return fut
	}

	if _, err, ok := fut.TryResult(); ok {
		if err == nil {
			ms.registry.SemaphoreFastPathHits.WithLabelValues(ms.name).Inc()
		}
		ms.recordOutcome(err)
		ms.updateGauges()
		return fut
	}

	ms.updateGauges()
	go func() {
		_, err := fut.Result()
		ms.registry.SemaphoreWaitTime.WithLabelValues(ms.name).Observe(time.Since(start).Seconds())
		ms.recordOutcome(err)
		ms.updateGauges()
	}()
	return fut
}

// Capacity returns the maximum number of concurrent holders.
func (ms *MetricsSemaphore) Capacity() int { return ms.sem.Capacity() }

// Available returns the number of slots currently free.
func (ms *MetricsSemaphore) Available() int { return ms.sem.Available() }

// InUse returns the number of slots currently held.
func (ms *MetricsSemaphore) InUse() int { return ms.sem.InUse() }

// Waiting returns the number of queued acquires still awaiting a slot.
func (ms *MetricsSemaphore) Waiting() int { return ms.sem.Waiting() }

// EnableMetrics enables metrics collection.
func (ms *MetricsSemaphore) EnableMetrics(config metrics.Config) error {
	ms.enabled = config.Enabled
	if config.Registry != nil {
		ms.registry = metrics.NewRegistry(config.Registry)
	}
	ms.updateGauges()
	return nil
}

// DisableMetrics disables metrics collection.
func (ms *MetricsSemaphore) DisableMetrics() {
	ms.enabled = false
}

// MetricsEnabled returns true if metrics are currently enabled.
func (ms *MetricsSemaphore) MetricsEnabled() bool {
	return ms.enabled
}
