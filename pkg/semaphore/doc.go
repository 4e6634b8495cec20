/*
Package semaphore provides an asynchronous counting semaphore: concurrent
access to a resource is limited to a fixed number of holders, and waiting for
a slot suspends a pending future instead of blocking a thread of execution.

Basic usage:

	sem, err := semaphore.NewSafe(10) // allow 10 concurrent holders
	if err != nil {
		log.Fatal(err)
	}

	rel, err := sem.Acquire(ctx)
	if err != nil {
		return err // canceled before a slot arrived
	}
	defer rel.Release()
	// ... use the resource ...

Key properties:

  - The uncontended acquire is a single atomic decrement: no allocation, no
    locking, no suspension.
  - Contended acquires queue FIFO. Slots freed by Release go to the
    longest-waiting live acquire; canceled and timed-out entries are skipped
    without consuming a slot.
  - A queued acquire can be canceled through its context or bounded by a
    timeout. The race between a grant, a cancellation, and a timeout is
    adjudicated exactly once, first writer wins.
  - Release hands slots to waiters on a Dispatcher, never inline on the
    releasing call stack, so releasing never runs arbitrary waiter
    continuations and nested release chains cannot grow the stack.

Asynchronous acquisition:

	fut := sem.AcquireAsync(ctx)
	select {
	case <-fut.Done():
		rel, err := fut.Result()
		// ...
	case <-other:
		// keep doing something else; the future resolves on its own
	}

Timeouts:

	// Fail with ErrTimeout if no slot arrives within a second.
	rel, err := sem.AcquireTimeout(ctx, time.Second)

	// Zero timeout: try-only. Fails with ErrCanceled on contention and
	// leaves capacity untouched.
	rel, err = sem.AcquireTimeout(ctx, 0)

Fairness:

Waiters are granted strictly in enqueue order. An uncontended TryAcquire or
Acquire racing a Release may claim the freed slot before a queued waiter sees
it; this barging is accepted for the sake of the allocation-free fast path,
the same trade channel-based semaphores make.

Releaser discipline:

Release must be called exactly once per successful acquire. Releaser is a
copyable value; releasing multiple copies of the same Releaser is misuse and
inflates capacity, exactly like double-releasing any semaphore. The zero
Releaser releases nothing.

Deadlock avoidance:

A semaphore configured with an ambient.Tracker reports which logical tasks
hold slots, so a single-threaded dispatcher blocked on Acquire can process
work belonging to the current holders instead of deadlocking against them.
See package ambient.
*/
package semaphore
