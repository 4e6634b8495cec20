package semaphore

import (
	"context"
	"fmt"
	"time"

	"github.com/vnykmshr/gosem/pkg/ambient"
	gsctx "github.com/vnykmshr/gosem/pkg/common/context"
	gserrors "github.com/vnykmshr/gosem/pkg/common/errors"
	"github.com/vnykmshr/gosem/pkg/future"
)

// waiter is one queued acquire request: a pending result cell plus the
// subscriptions that can resolve it with a failure. The cell is resolvable
// exactly once; whichever of {grant, timeout, cancellation} writes first
// wins, and the losers back off.
type waiter struct {
	cell       *future.Future[Releaser]
	task       ambient.Task
	timer      *time.Timer
	stopCancel func() bool
}

// detach disposes the timeout and cancellation subscriptions. Safe to call
// from any resolution winner, including the subscriptions themselves.
func (w *waiter) detach() {
	if w.timer != nil {
		w.timer.Stop()
	}
	if w.stopCancel != nil {
		w.stopCancel()
	}
}

// newWaiter materializes a waiter for a contended acquire, arming the timeout
// timer and the cancellation subscription. A timeout of NoTimeout arms no
// timer.
func (s *Semaphore) newWaiter(ctx context.Context, timeout time.Duration) *waiter {
	w := &waiter{cell: future.New[Releaser]()}
	if s.tracker != nil {
		w.task = s.tracker.Current(ctx)
	}
	if timeout > 0 {
		w.timer = time.AfterFunc(timeout, func() {
			if w.cell.Fail(fmt.Errorf("%w: no slot within %v", gserrors.ErrTimeout, timeout)) {
				w.detach()
			}
		})
	}
	if ctx.Done() != nil {
		w.stopCancel = context.AfterFunc(ctx, func() {
			if w.cell.Fail(gsctx.Classify(ctx.Err())) {
				w.detach()
			}
		})
	}
	return w
}

// enqueue publishes the waiter at the tail of the queue, opportunistically
// evicting already-resolved entries from the head. Eviction is bounded and
// best-effort; correctness only needs the release path to skip dead entries.
func (s *Semaphore) enqueue(w *waiter) {
	s.mu.Lock()
	evicted := 0
	for len(s.queue) > 0 && evicted < evictScanLimit && s.queue[0].cell.IsResolved() {
		s.queue[0] = nil
		s.queue = s.queue[1:]
		evicted++
	}
	s.queue = append(s.queue, w)
	s.mu.Unlock()
}

// evictScanLimit bounds the head scan performed on each enqueue so a queue
// full of canceled entries cannot stall a publishing acquire.
const evictScanLimit = 32
