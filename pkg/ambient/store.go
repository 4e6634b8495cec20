package ambient

import (
	"context"
	"sync"
)

// Store abstracts how the ambient task identity is carried across a call
// chain. Two interchangeable implementations exist: one backed by native
// context values and one backed by an explicit registry for callers that
// cannot thread a derived context through. The backing is chosen once at
// startup by DefaultStore, not per call.
type Store interface {
	// Get returns the task associated with the context, or nil.
	Get(ctx context.Context) Task

	// Set associates a task with the context and returns the context to use
	// downstream.
	Set(ctx context.Context, task Task) context.Context
}

// contextStore flows the task through context values.
type contextStore struct{}

func (contextStore) Get(ctx context.Context) Task {
	return TaskFrom(ctx)
}

func (contextStore) Set(ctx context.Context, task Task) context.Context {
	return WithTask(ctx, task)
}

// registryStore keeps an external context-to-task registry. Entries must be
// cleared by setting a nil task once the call chain completes; the registry
// holds the context key alive until then.
type registryStore struct {
	mu      sync.Mutex
	entries map[context.Context]Task
}

func newRegistryStore() *registryStore {
	return &registryStore{entries: make(map[context.Context]Task)}
}

func (s *registryStore) Get(ctx context.Context) Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[ctx]
}

func (s *registryStore) Set(ctx context.Context, task Task) context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task == nil {
		delete(s.entries, ctx)
	} else {
		s.entries[ctx] = task
	}
	return ctx
}

// NewContextStore returns the context-value backed Store.
func NewContextStore() Store { return contextStore{} }

// NewRegistryStore returns the registry backed Store.
func NewRegistryStore() Store { return newRegistryStore() }

var defaultStore = sync.OnceValue(func() Store {
	if probeContextFlow() {
		return NewContextStore()
	}
	return NewRegistryStore()
})

// DefaultStore returns the process-wide Store, selecting the backing exactly
// once with a capability probe.
func DefaultStore() Store {
	return defaultStore()
}

// probeContextFlow verifies that a value set on a derived context is visible
// downstream through further derivation.
func probeContextFlow() bool {
	type marker struct{}
	probe := &marker{}
	ctx := WithTask(context.Background(), probe)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	return TaskFrom(ctx) == probe
}
