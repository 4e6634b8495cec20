// Package context provides small context.Context helpers shared across gosem.
package context

import (
	"context"
	"fmt"

	gserrors "github.com/vnykmshr/gosem/pkg/common/errors"
)

// IsCanceled returns true if the context has been canceled
func IsCanceled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// IsTimedOut returns true if the context was canceled due to a timeout
func IsTimedOut(ctx context.Context) bool {
	return ctx.Err() == context.DeadlineExceeded
}

// Classify maps a context error into the gosem error taxonomy while keeping
// the original error inspectable through errors.Is/errors.As.
// context.DeadlineExceeded becomes ErrTimeout, context.Canceled (and any
// other non-nil error) becomes ErrCanceled. A nil error is returned as nil.
func Classify(err error) error {
	switch err {
	case nil:
		return nil
	case context.DeadlineExceeded:
		return fmt.Errorf("%w: %w", gserrors.ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", gserrors.ErrCanceled, err)
	}
}
