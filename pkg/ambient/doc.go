/*
Package ambient carries a logical task identity across call chains and tracks
which tasks currently hold semaphore slots.

The package exists for one scenario: a single-threaded dispatcher blocks on a
semaphore whose slot is held by work that needs that same dispatcher to make
progress. A semaphore configured with a Tracker reports every grant and
release, so the blocked dispatcher can Join the holder set and process work on
behalf of the holders instead of deadlocking:

	collection := ambient.NewCollection()
	sem, _ := semaphore.NewWithConfigSafe(semaphore.Config{
		Capacity: 1,
		Tracker:  collection,
	})

	ctx := ambient.WithTask(ctx, myTask)
	rel, _ := sem.Acquire(ctx) // collection now tracks myTask
	defer rel.Release()        // and forgets it here

Task identity flows through context values by default. The Store interface
abstracts that choice; DefaultStore probes the runtime once at startup and
falls back to an explicit registry when context flow is unavailable.
*/
package ambient
