package testutil

import (
	"sync"
	"time"
)

// MockClock implements a Clock interface for testing with controllable time.
// Lease and sweeper tests use it to avoid waiting out real TTLs.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses current time.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = time.Now()
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// ManualDispatcher collects dispatched functions and runs them only when the
// test asks, so resolution ordering can be controlled deterministically.
type ManualDispatcher struct {
	mu      sync.Mutex
	pending []func()
}

// NewManualDispatcher creates an empty ManualDispatcher.
func NewManualDispatcher() *ManualDispatcher {
	return &ManualDispatcher{}
}

// Dispatch queues fn without running it.
func (d *ManualDispatcher) Dispatch(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = append(d.pending, fn)
}

// Pending returns the number of queued functions.
func (d *ManualDispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// RunOne runs the oldest queued function. Returns false if none is queued.
func (d *ManualDispatcher) RunOne() bool {
	d.mu.Lock()
	if len(d.pending) == 0 {
		d.mu.Unlock()
		return false
	}
	fn := d.pending[0]
	d.pending = d.pending[1:]
	d.mu.Unlock()
	fn()
	return true
}

// RunAll drains the queue, including functions queued by the ones it runs.
func (d *ManualDispatcher) RunAll() {
	for d.RunOne() {
	}
}
