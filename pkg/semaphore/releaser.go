package semaphore

import "github.com/vnykmshr/gosem/pkg/ambient"

// Releaser is the capability returned by a successful acquire. Releasing it
// returns the slot to the semaphore, exactly once per logical acquire.
//
// Releaser is a plain value and copies are not guarded: releasing two copies
// of the same Releaser releases two slots and corrupts the semaphore's
// accounting. That is caller misuse, the same as calling Release twice on a
// mutex capability. The zero Releaser holds no slot and its Release is a
// no-op.
type Releaser struct {
	sem  *Semaphore
	task ambient.Task
}

// Release returns the held slot to the semaphore, handing it to the
// head-most live waiter if one is queued. The waiter's continuation runs on
// the semaphore's dispatcher, never on the releasing call stack.
func (r Releaser) Release() {
	if r.sem == nil {
		return
	}
	r.sem.trackRemove(r.task)
	r.sem.redistribute()
}

// redistribute returns one slot to circulation and, while capacity remains,
// hands it to the first live queued waiter.
//
// The loop re-claims the slot on behalf of the next waiter, dequeues past
// already-resolved entries, and resolves the live one off this call stack via
// the dispatcher. If that resolution loses a race against the waiter's own
// cancellation or timeout, the dispatched continuation feeds the slot back in
// by calling redistribute again. A released slot is never lost: it either
// satisfies a live waiter or the counter keeps it available. At most one
// waiter is resolved per call.
func (s *Semaphore) redistribute() {
	for s.restore() > 0 {
		s.mu.Lock()
		if len(s.queue) == 0 {
			// Nobody waiting; the slot stays available.
			s.mu.Unlock()
			return
		}
		var next *waiter
		claimed := s.tryClaim()
		if claimed {
			for len(s.queue) > 0 {
				head := s.queue[0]
				s.queue[0] = nil
				s.queue = s.queue[1:]
				if !head.cell.IsResolved() {
					next = head
					break
				}
			}
		}
		s.mu.Unlock()

		if !claimed {
			// A concurrent acquire beat us to the restored slot. The failed
			// claim drove the counter negative; loop so the restore at the
			// top repays that debt, then re-examine.
			continue
		}
		if next != nil {
			s.dispatch.Dispatch(func() { s.grantTo(next) })
			return
		}
		// Only dead entries were queued; loop to return the claimed slot and
		// re-examine.
	}
}

// grantTo resolves a dequeued waiter with a Releaser. Runs on the
// dispatcher, off the releasing caller's stack.
func (s *Semaphore) grantTo(w *waiter) {
	if w.cell.Complete(Releaser{sem: s, task: w.task}) {
		w.detach()
		s.trackAdd(w.task)
		return
	}
	// The waiter was canceled or timed out between dequeue and resolution;
	// its slot goes back into circulation.
	s.redistribute()
}
