package semaphore

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/vnykmshr/gosem/pkg/ambient"
	"github.com/vnykmshr/gosem/pkg/common/validation"
	"github.com/vnykmshr/gosem/pkg/future"
)

// Semaphore is an asynchronous counting semaphore. It limits concurrent
// access to a resource to a fixed number of simultaneous holders; waiting for
// a slot suspends a logical operation (a pending future) rather than a
// goroutine, and a queued wait can be canceled or time-bounded.
//
// The uncontended path is lock-free and allocation-free: a single atomic
// decrement claims a slot. Contended acquires queue FIFO behind a mutex that
// guards only the queue itself, never waiter resolution or caller code.
type Semaphore struct {
	// count tracks available capacity. Negative excursions represent claims
	// that have not yet been matched to a free slot or a queued waiter.
	count atomic.Int64

	capacity int
	tracker  ambient.Tracker
	dispatch Dispatcher

	mu    sync.Mutex
	queue []*waiter

	// fastGrant is the shared pre-resolved future handed out by the
	// uncontended async path. Only used when no tracker is configured, since
	// a tracked grant must carry per-call task identity.
	fastGrant *future.Future[Releaser]
}

// Config holds configuration options for creating a Semaphore.
type Config struct {
	// Capacity is the maximum number of concurrent holders.
	Capacity int

	// InitialAvailable is the initial number of available slots.
	// If negative or greater than Capacity, defaults to Capacity.
	InitialAvailable int

	// Tracker, when set, receives slot ownership reports: the ambient task of
	// a granted acquire is added for as long as it holds the slot. Used for
	// deadlock avoidance with single-threaded dispatchers. Optional.
	Tracker ambient.Tracker

	// Dispatcher runs waiter resolution off the releasing call stack.
	// Defaults to spawning a goroutine per resolution.
	Dispatcher Dispatcher
}

// NewSafe creates a semaphore with the given capacity, validating the
// configuration instead of panicking.
func NewSafe(capacity int) (*Semaphore, error) {
	return NewWithConfigSafe(Config{
		Capacity:         capacity,
		InitialAvailable: -1, // Use capacity as default
	})
}

// NewWithConfigSafe creates a semaphore from a Config, validating it instead
// of panicking.
func NewWithConfigSafe(config Config) (*Semaphore, error) {
	if err := validation.ValidatePositive("semaphore", "capacity", config.Capacity); err != nil {
		return nil, err
	}

	initialAvailable := config.InitialAvailable
	if initialAvailable < 0 || initialAvailable > config.Capacity {
		initialAvailable = config.Capacity
	}

	dispatch := config.Dispatcher
	if dispatch == nil {
		dispatch = goDispatcher{}
	}

	s := &Semaphore{
		capacity: config.Capacity,
		tracker:  config.Tracker,
		dispatch: dispatch,
		queue:    make([]*waiter, 0, config.Capacity),
	}
	s.count.Store(int64(initialAvailable))
	s.fastGrant = future.Completed(Releaser{sem: s})
	return s, nil
}

// tryClaim atomically claims one slot. It returns true iff a previously free
// slot was obtained; false means the decrement drove the counter negative and
// the caller now carries a debt it must either queue against or restore.
func (s *Semaphore) tryClaim() bool {
	return s.count.Add(-1) >= 0
}

// restore atomically returns one slot and reports the new counter value.
func (s *Semaphore) restore() int64 {
	return s.count.Add(1)
}

// Capacity returns the maximum number of concurrent holders.
func (s *Semaphore) Capacity() int {
	return s.capacity
}

// Available returns the number of slots currently free.
func (s *Semaphore) Available() int {
	if n := s.count.Load(); n > 0 {
		return int(n)
	}
	return 0
}

// InUse returns the number of slots currently held.
func (s *Semaphore) InUse() int {
	return s.capacity - s.Available()
}

// Waiting returns the number of queued acquires still awaiting a slot.
func (s *Semaphore) Waiting() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.queue {
		if !w.cell.IsResolved() {
			n++
		}
	}
	return n
}

// String returns a human-readable representation of the semaphore's state.
func (s *Semaphore) String() string {
	return fmt.Sprintf("Semaphore(%d/%d, %d waiting)", s.InUse(), s.capacity, s.Waiting())
}

func (s *Semaphore) trackAdd(task ambient.Task) {
	if s.tracker != nil && task != nil {
		s.tracker.Add(task)
	}
}

func (s *Semaphore) trackRemove(task ambient.Task) {
	if s.tracker != nil && task != nil {
		s.tracker.Remove(task)
	}
}
