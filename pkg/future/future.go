package future

import (
	"context"
	"sync/atomic"

	gsctx "github.com/vnykmshr/gosem/pkg/common/context"
)

// Future is a single-assignment result cell. It starts out pending and is
// resolved exactly once, either with a value (Complete) or with an error
// (Fail). Resolution is first-writer-wins: concurrent attempts race on an
// atomic state transition and exactly one of them succeeds; the losers
// observe an already-resolved cell and report false.
//
// A Future must be created with New, Completed, or Failed. The zero value is
// not usable.
type Future[T any] struct {
	done  chan struct{}
	state atomic.Int32 // 0 = pending, 1 = resolved
	value T
	err   error
}

// New creates a pending Future.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed creates a Future already resolved with the given value.
func Completed[T any](value T) *Future[T] {
	f := New[T]()
	f.Complete(value)
	return f
}

// Failed creates a Future already resolved with the given error.
func Failed[T any](err error) *Future[T] {
	f := New[T]()
	f.Fail(err)
	return f
}

// Complete resolves the Future with a value. It returns true if this call won
// the resolution race, false if the Future was already resolved.
func (f *Future[T]) Complete(value T) bool {
	if !f.state.CompareAndSwap(0, 1) {
		return false
	}
	f.value = value
	close(f.done)
	return true
}

// Fail resolves the Future with an error. It returns true if this call won
// the resolution race, false if the Future was already resolved.
func (f *Future[T]) Fail(err error) bool {
	if !f.state.CompareAndSwap(0, 1) {
		return false
	}
	f.err = err
	close(f.done)
	return true
}

// Done returns a channel that is closed once the Future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsResolved reports whether a resolution attempt has already won the race.
// It may return true briefly before Done is closed; it never returns true for
// a cell that can still be won.
func (f *Future[T]) IsResolved() bool {
	return f.state.Load() != 0
}

// Result blocks until the Future is resolved and returns its outcome.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.value, f.err
}

// TryResult returns the outcome without blocking. The third return value
// reports whether the Future was resolved; when false, the value and error
// are zero.
func (f *Future[T]) TryResult() (T, error, bool) {
	select {
	case <-f.done:
		return f.value, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Wait blocks until the Future is resolved or the context fires, whichever
// comes first. A context failure is reported through the gosem error taxonomy
// and leaves the Future unresolved.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, gsctx.Classify(ctx.Err())
	}
}
