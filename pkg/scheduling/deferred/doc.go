// Package deferred separates constructing a unit of work from running it.
//
// A Task wraps a function together with the future that will carry its
// result. Construction does nothing; Start runs the function exactly once,
// synchronously on the calling goroutine, and routes its return value,
// error, or recovered panic into the future. Consumers hold the future and
// never need to know whether the work has run yet:
//
//	task, err := deferred.New(func(ctx context.Context) (int, error) {
//		return expensiveComputation(ctx)
//	})
//	if err != nil {
//		return err
//	}
//
//	go consumer(task.Future())
//
//	if err := task.Start(ctx); err != nil {
//		return err
//	}
//
// Start on an already-started task fails with ErrInvalidOperation rather
// than running the work twice. Tasks created with NewNamed additionally
// record start counts, failure counts, and run durations to Prometheus.
package deferred
