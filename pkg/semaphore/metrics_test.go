package semaphore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/vnykmshr/gosem/internal/testutil"
	gserrors "github.com/vnykmshr/gosem/pkg/common/errors"
	"github.com/vnykmshr/gosem/pkg/metrics"
)

// counterValue digs a labeled counter out of a gathered registry.
func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
		for _, m := range fam.GetMetric() {
			if metricMatches(m, labels) {
				if c := m.GetCounter(); c != nil {
					return c.GetValue()
				}
				if g := m.GetGauge(); g != nil {
					return g.GetValue()
				}
			}
		}
	}
	return 0
}

func metricMatches(m *dto.Metric, labels map[string]string) bool {
	have := make(map[string]string, len(m.GetLabel()))
	for _, lp := range m.GetLabel() {
		have[lp.GetName()] = lp.GetValue()
	}
	for k, v := range labels {
		if have[k] != v {
			return false
		}
	}
	return true
}

func TestNewWithMetrics(t *testing.T) {
	ms := NewWithMetrics(3, "test_sem")

	if !ms.MetricsEnabled() {
		t.Fatal("metrics should be enabled")
	}
	testutil.AssertEqual(t, ms.Capacity(), 3)
	testutil.AssertEqual(t, ms.Available(), 3)

	rel, ok := ms.TryAcquire(context.Background())
	if !ok {
		t.Fatal("TryAcquire should succeed")
	}
	testutil.AssertEqual(t, ms.InUse(), 1)
	rel.Release()
}

func TestNewWithConfigAndMetricsPanicsOnInvalidConfig(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for invalid configuration")
		}
	}()
	NewWithConfigAndMetrics(Config{Capacity: 0}, "bad", metrics.DefaultConfig())
}

func TestMetricsRecordsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	ms := NewWithConfigAndMetrics(
		Config{Capacity: 1, InitialAvailable: -1},
		"outcomes",
		metrics.Config{Enabled: true, Registry: reg},
	)
	ctx := context.Background()

	rel, err := ms.Acquire(ctx)
	testutil.AssertNoError(t, err)
	granted := counterValue(t, reg, "gosem_semaphore_acquires_total",
		map[string]string{"semaphore_name": "outcomes", "outcome": "granted"})
	testutil.AssertEqual(t, granted, 1)

	if _, err := ms.AcquireTimeout(ctx, 10*time.Millisecond); !errors.Is(err, gserrors.ErrTimeout) {
		t.Fatalf("got %v, want ErrTimeout", err)
	}
	timedOut := counterValue(t, reg, "gosem_semaphore_acquires_total",
		map[string]string{"semaphore_name": "outcomes", "outcome": "timed_out"})
	testutil.AssertEqual(t, timedOut, 1)

	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()
	fut := ms.AcquireAsync(cancelCtx)
	if _, err, ok := fut.TryResult(); !ok || !errors.Is(err, gserrors.ErrCanceled) {
		t.Fatalf("pre-canceled acquire: (%v, %v)", err, ok)
	}
	canceled := counterValue(t, reg, "gosem_semaphore_acquires_total",
		map[string]string{"semaphore_name": "outcomes", "outcome": "canceled"})
	testutil.AssertEqual(t, canceled, 1)

	rel.Release()
}

func TestMetricsFastPathCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	ms := NewWithConfigAndMetrics(
		Config{Capacity: 2, InitialAvailable: -1},
		"fastpath",
		metrics.Config{Enabled: true, Registry: reg},
	)
	ctx := context.Background()

	fut := ms.AcquireAsync(ctx)
	rel, _, ok := fut.TryResult()
	if !ok {
		t.Fatal("uncontended async acquire should resolve immediately")
	}

	hits := counterValue(t, reg, "gosem_semaphore_fast_path_hits_total",
		map[string]string{"semaphore_name": "fastpath"})
	testutil.AssertEqual(t, hits, 1)
	rel.Release()
}

func TestMetricsQueuedAcquireObserved(t *testing.T) {
	reg := prometheus.NewRegistry()
	ms := NewWithConfigAndMetrics(
		Config{Capacity: 1, InitialAvailable: -1},
		"queued",
		metrics.Config{Enabled: true, Registry: reg},
	)
	ctx := context.Background()

	rel, err := ms.Acquire(ctx)
	testutil.AssertNoError(t, err)

	fut := ms.AcquireAsync(ctx)
	if fut.IsResolved() {
		t.Fatal("contended acquire should queue")
	}

	rel.Release()
	next := awaitGrant(t, fut)

	// The background observer records the outcome after resolution.
	testutil.AssertEventually(t, func() bool {
		granted := counterValue(t, reg, "gosem_semaphore_acquires_total",
			map[string]string{"semaphore_name": "queued", "outcome": "granted"})
		return granted == 2
	})
	next.Release()
}

func TestMetricsDisabled(t *testing.T) {
	reg := prometheus.NewRegistry()
	ms := NewWithConfigAndMetrics(
		Config{Capacity: 1, InitialAvailable: -1},
		"disabled",
		metrics.Config{Enabled: false, Registry: reg},
	)

	rel, ok := ms.TryAcquire(context.Background())
	if !ok {
		t.Fatal("TryAcquire should succeed")
	}
	rel.Release()

	if ms.MetricsEnabled() {
		t.Fatal("metrics should be disabled")
	}
	acquires := counterValue(t, reg, "gosem_semaphore_acquires_total",
		map[string]string{"semaphore_name": "disabled", "outcome": "granted"})
	testutil.AssertEqual(t, acquires, 0)
}

func TestEnableDisableMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	ms := NewWithConfigAndMetrics(
		Config{Capacity: 1, InitialAvailable: -1},
		"toggle",
		metrics.Config{Enabled: false, Registry: reg},
	)

	// Reuse the registry wired at construction; passing the same prometheus
	// registry again would double-register the collectors.
	testutil.AssertNoError(t, ms.EnableMetrics(metrics.Config{Enabled: true}))
	if !ms.MetricsEnabled() {
		t.Fatal("metrics should be enabled after EnableMetrics")
	}

	ms.DisableMetrics()
	if ms.MetricsEnabled() {
		t.Fatal("metrics should be disabled after DisableMetrics")
	}
}
