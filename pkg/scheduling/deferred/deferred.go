package deferred

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vnykmshr/gosem/pkg/ambient"
	gserrors "github.com/vnykmshr/gosem/pkg/common/errors"
	"github.com/vnykmshr/gosem/pkg/future"
	"github.com/vnykmshr/gosem/pkg/metrics"
)

// Func is the unit of work a Task runs when started.
type Func[T any] func(ctx context.Context) (T, error)

// Task pairs a not-yet-started unit of work with its result cell. The work
// runs at most once, on the goroutine that calls Start; its result, error, or
// recovered panic is observed only through the task's future.
//
// The zero Task is inert: Start fails and Future returns nil.
type Task[T any] struct {
	mu   sync.Mutex
	fn   Func[T]
	cell *future.Future[T]

	name     string
	registry *metrics.Registry
	recorded bool
}

// New creates a Task that will run fn when started.
func New[T any](fn Func[T]) (*Task[T], error) {
	if fn == nil {
		return nil, gserrors.NewValidationError("deferred", "fn", nil, "function must not be nil").
			WithHint("pass the work to run as a non-nil Func")
	}
	return &Task[T]{
		fn:   fn,
		cell: future.New[T](),
	}, nil
}

// NewNamed creates a Task that records start, failure, and duration metrics
// under the given task name.
func NewNamed[T any](name string, fn Func[T], metricsConfig metrics.Config) (*Task[T], error) {
	task, err := New(fn)
	if err != nil {
		return nil, err
	}
	if metricsConfig.Enabled {
		task.name = name
		if metricsConfig.Registry != nil {
			task.registry = metrics.NewRegistry(metricsConfig.Registry)
		} else {
			task.registry = metrics.DefaultRegistry
		}
		task.recorded = true
	}
	return task, nil
}

// Start runs the task's work on the calling goroutine. The delegate's result,
// error, or recovered panic goes into the task's future, never back to
// Start's caller; Start itself only reports whether the task was runnable.
//
// A task starts at most once: the second Start, and Start on the zero Task,
// fail with ErrInvalidOperation. Ambient task identity is established here,
// not at construction: the work inherits the identity carried by ctx, and the
// task itself becomes the identity when ctx carries none, so slot
// acquisitions inside the delegate are attributable.
func (t *Task[T]) Start(ctx context.Context) error {
	t.mu.Lock()
	fn := t.fn
	t.fn = nil
	t.mu.Unlock()

	if fn == nil {
		return gserrors.NewOperationError("deferred", "start", gserrors.ErrInvalidOperation).
			WithContext("task already started or not initialized")
	}

	t.run(ctx, fn)
	return nil
}

func (t *Task[T]) run(ctx context.Context, fn Func[T]) {
	if t.recorded {
		t.registry.TasksStarted.WithLabelValues(t.name).Inc()
	}
	if ambient.TaskFrom(ctx) == nil {
		ctx = ambient.WithTask(ctx, t)
	}
	start := time.Now()

	defer func() {
		if t.recorded {
			t.registry.TaskRunTime.WithLabelValues(t.name).Observe(time.Since(start).Seconds())
		}
		if r := recover(); r != nil {
			t.fail(fmt.Errorf("task panicked: %v", r))
		}
	}()

	value, err := fn(ctx)
	if err != nil {
		t.fail(err)
		return
	}
	t.cell.Complete(value)
}

func (t *Task[T]) fail(err error) {
	if t.recorded {
		t.registry.TasksFailed.WithLabelValues(t.name).Inc()
	}
	t.cell.Fail(err)
}

// Future returns the task's result cell. It is nil for the zero Task.
func (t *Task[T]) Future() *future.Future[T] {
	return t.cell
}

// Started reports whether Start has consumed the task's work.
func (t *Task[T]) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.fn == nil && t.cell != nil
}
