package ambient

import (
	"context"
	"sync"
)

// Task identifies a logical unit of work flowing through a call chain.
// Values used as Tasks must be comparable; typically a pointer to the
// caller's own task record.
type Task interface{}

type taskKey struct{}

// WithTask returns a context carrying the given ambient task identity.
func WithTask(ctx context.Context, task Task) context.Context {
	return context.WithValue(ctx, taskKey{}, task)
}

// TaskFrom returns the ambient task carried by the context, or nil.
func TaskFrom(ctx context.Context) Task {
	return ctx.Value(taskKey{})
}

// Tracker is the collaborator through which a semaphore reports slot
// ownership: a granted task is added for as long as it holds a slot and
// removed when the slot is released. A single-threaded dispatcher blocked on
// the semaphore can then process work belonging to the current holders
// instead of deadlocking against them.
type Tracker interface {
	// Current returns the ambient task identity of the caller, or nil when
	// the call chain carries none.
	Current(ctx context.Context) Task

	// Add records that task now holds a slot.
	Add(task Task)

	// Remove records that task no longer holds a slot.
	Remove(task Task)
}

// Collection is the reference Tracker implementation: a counted multiset of
// tasks with change notification. Add and Remove of the same task nest;
// removing a task that is not tracked is a no-op.
type Collection struct {
	mu      sync.Mutex
	members map[Task]int
	changed chan struct{}
}

// NewCollection creates an empty Collection.
func NewCollection() *Collection {
	return &Collection{
		members: make(map[Task]int),
		changed: make(chan struct{}),
	}
}

// Current returns the ambient task carried by the context, or nil.
func (c *Collection) Current(ctx context.Context) Task {
	return TaskFrom(ctx)
}

// Add records one more slot held by task.
func (c *Collection) Add(task Task) {
	if task == nil {
		return
	}
	c.mu.Lock()
	c.members[task]++
	c.notifyLocked()
	c.mu.Unlock()
}

// Remove records one fewer slot held by task.
func (c *Collection) Remove(task Task) {
	if task == nil {
		return
	}
	c.mu.Lock()
	if n, ok := c.members[task]; ok {
		if n <= 1 {
			delete(c.members, task)
		} else {
			c.members[task] = n - 1
		}
		c.notifyLocked()
	}
	c.mu.Unlock()
}

// Len returns the number of distinct tasks currently holding slots.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.members)
}

// notifyLocked wakes membership watchers. Must be called with c.mu held.
func (c *Collection) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// Join opens a scoped view of the collection for a caller that is about to
// block and wants to process work belonging to the current holders while it
// waits. The returned handle must be closed with Done.
func (c *Collection) Join() *JoinHandle {
	return &JoinHandle{c: c}
}

// JoinHandle is a scoped view of a Collection's membership.
type JoinHandle struct {
	c    *Collection
	once sync.Once
	done bool
}

// Tasks returns a snapshot of the tasks currently holding slots, each listed
// once regardless of how many slots it holds.
func (h *JoinHandle) Tasks() []Task {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	tasks := make([]Task, 0, len(h.c.members))
	for task := range h.c.members {
		tasks = append(tasks, task)
	}
	return tasks
}

// Changed returns a channel closed on the next membership change. Callers
// re-arm by calling Changed again after each wakeup.
func (h *JoinHandle) Changed() <-chan struct{} {
	h.c.mu.Lock()
	defer h.c.mu.Unlock()
	return h.c.changed
}

// Wait blocks until the collection becomes empty or the context fires.
func (h *JoinHandle) Wait(ctx context.Context) error {
	for {
		h.c.mu.Lock()
		empty := len(h.c.members) == 0
		changed := h.c.changed
		h.c.mu.Unlock()
		if empty {
			return nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Done ends the join scope. It is idempotent.
func (h *JoinHandle) Done() {
	h.once.Do(func() { h.done = true })
}
