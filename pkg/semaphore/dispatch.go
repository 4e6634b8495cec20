package semaphore

import (
	"sync"

	"github.com/vnykmshr/gosem/pkg/common/validation"
)

// Dispatcher runs a unit of work on some goroutine other than the caller's.
// The semaphore uses it to resolve waiters off the releasing call stack, so a
// release never runs arbitrary waiter continuations inline and nested
// release chains cannot grow the caller's stack.
type Dispatcher interface {
	Dispatch(fn func())
}

// goDispatcher is the default Dispatcher: one goroutine per dispatched unit.
type goDispatcher struct{}

func (goDispatcher) Dispatch(fn func()) {
	go fn()
}

// PoolDispatcher is a bounded Dispatcher backed by a fixed set of worker
// goroutines and a task queue. Useful when grant continuations are frequent
// enough that a goroutine per resolution is unwanted.
type PoolDispatcher struct {
	tasks    chan func()
	stop     chan struct{}
	workerWg sync.WaitGroup
	stopOnce sync.Once
}

// NewPoolDispatcher creates a dispatcher with the given number of workers and
// queue size.
func NewPoolDispatcher(workers, queueSize int) (*PoolDispatcher, error) {
	if err := validation.ValidatePositive("semaphore", "workers", workers); err != nil {
		return nil, err
	}
	if err := validation.ValidatePositive("semaphore", "queueSize", queueSize); err != nil {
		return nil, err
	}

	p := &PoolDispatcher{
		tasks: make(chan func(), queueSize),
		stop:  make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.workerWg.Add(1)
		go p.run()
	}
	return p, nil
}

func (p *PoolDispatcher) run() {
	defer p.workerWg.Done()
	for {
		select {
		case <-p.stop:
			return
		case fn := <-p.tasks:
			fn()
		}
	}
}

// Dispatch queues fn for a worker, blocking while the queue is full. After
// Close, fn falls back to a fresh goroutine so dispatched work is never
// dropped.
func (p *PoolDispatcher) Dispatch(fn func()) {
	select {
	case <-p.stop:
		go fn()
	default:
		select {
		case p.tasks <- fn:
		case <-p.stop:
			go fn()
		}
	}
}

// Close stops the workers, runs any still-queued work, and waits for the
// workers to exit. Idempotent.
func (p *PoolDispatcher) Close() {
	p.stopOnce.Do(func() {
		close(p.stop)
		p.workerWg.Wait()
		for {
			select {
			case fn := <-p.tasks:
				fn()
			default:
				return
			}
		}
	})
}
