/*
Package scheduling provides task execution primitives for Go applications.

  - deferred: Tasks whose construction is separated from execution; the
    result travels through a future so consumers never care whether the
    work has run yet.

Deferred Tasks:

	task, err := deferred.New(func(ctx context.Context) (Report, error) {
		return buildReport(ctx)
	})
	if err != nil {
		return err
	}

	go renderWhenReady(task.Future())

	if err := task.Start(ctx); err != nil {
		return err
	}

All scheduling components are thread-safe and integrate with context for
cancellation and timeout handling.
*/
package scheduling
