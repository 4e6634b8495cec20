package semaphore

import (
	"context"
	"fmt"
	"time"

	gsctx "github.com/vnykmshr/gosem/pkg/common/context"
	gserrors "github.com/vnykmshr/gosem/pkg/common/errors"
	"github.com/vnykmshr/gosem/pkg/future"
)

// NoTimeout makes an acquire wait indefinitely for a slot.
const NoTimeout time.Duration = -1

// TryAcquire claims a slot without waiting. It returns false when the
// semaphore is at capacity; the counter is left unchanged either way. The
// context is consulted only for the ambient task identity of a tracked grant.
func (s *Semaphore) TryAcquire(ctx context.Context) (Releaser, bool) {
	if !s.tryClaim() {
		s.restore()
		return Releaser{}, false
	}
	if s.tracker == nil {
		return Releaser{sem: s}, true
	}
	task := s.tracker.Current(ctx)
	s.trackAdd(task)
	return Releaser{sem: s, task: task}, true
}

// Acquire waits for a slot, suspending the calling goroutine until one is
// granted or the context fires. The returned Releaser must be released
// exactly once.
func (s *Semaphore) Acquire(ctx context.Context) (Releaser, error) {
	return s.AcquireAsync(ctx).Result()
}

// AcquireTimeout is Acquire bounded by a timeout. A zero timeout fails
// immediately with ErrCanceled when the semaphore is contended; NoTimeout
// waits indefinitely.
func (s *Semaphore) AcquireTimeout(ctx context.Context, timeout time.Duration) (Releaser, error) {
	return s.AcquireAsyncTimeout(ctx, timeout).Result()
}

// AcquireAsync requests a slot without suspending the caller. The returned
// future resolves with a Releaser once a slot is granted, or fails with
// ErrCanceled if the context fires first. On the uncontended path the future
// comes back already resolved, with no allocation and no locking (when no
// tracker is configured).
func (s *Semaphore) AcquireAsync(ctx context.Context) *future.Future[Releaser] {
	return s.AcquireAsyncTimeout(ctx, NoTimeout)
}

// AcquireAsyncTimeout is AcquireAsync bounded by a timeout: the future fails
// with ErrTimeout if no slot arrives within the given duration. A zero
// timeout degrades to a try-acquire that fails with ErrCanceled on
// contention. NoTimeout waits indefinitely.
func (s *Semaphore) AcquireAsyncTimeout(ctx context.Context, timeout time.Duration) *future.Future[Releaser] {
	if gsctx.IsCanceled(ctx) {
		return future.Failed[Releaser](gsctx.Classify(ctx.Err()))
	}

	var w *waiter
	for {
		if s.tryClaim() {
			if w == nil {
				// Uncontended: hand out the prebuilt grant.
				return s.grantFast(ctx)
			}
			// A slot freed up while we were queueing; try to take it for our
			// own waiter before anyone behind us sees it.
			if w.cell.Complete(Releaser{sem: s, task: w.task}) {
				w.detach()
				s.trackAdd(w.task)
			} else {
				// The cell was resolved in the meantime, by cancellation,
				// timeout, or a concurrent release that granted it. Either
				// way our claimed slot goes back into circulation.
				s.redistribute()
			}
			return w.cell
		}

		// The claim drove the counter negative: contended.
		if timeout == 0 {
			s.restore()
			return future.Failed[Releaser](fmt.Errorf("%w: semaphore contended and timeout is zero", gserrors.ErrCanceled))
		}

		if w == nil {
			w = s.newWaiter(ctx, timeout)
			s.enqueue(w)
		}

		// Restore the debt the failed claim incurred. If the counter comes
		// back positive a release slipped in between our claim and the
		// enqueue; loop and try to claim it.
		if s.restore() <= 0 {
			return w.cell
		}
	}
}

// grantFast completes an uncontended acquire. Without a tracker this returns
// the shared pre-resolved future and allocates nothing; with a tracker the
// grant carries the caller's ambient task and is reported.
func (s *Semaphore) grantFast(ctx context.Context) *future.Future[Releaser] {
	if s.tracker == nil {
		return s.fastGrant
	}
	task := s.tracker.Current(ctx)
	s.trackAdd(task)
	return future.Completed(Releaser{sem: s, task: task})
}
