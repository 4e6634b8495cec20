/*
Package future provides a single-assignment result cell used throughout gosem
to adjudicate races between competing resolution attempts.

A Future resolves exactly once. Competing writers (a slot grant, a timeout, a
cancellation callback) each attempt resolution; the first writer wins and the
losers are told so, letting them roll back side effects they staged for the
outcome they lost:

	cell := future.New[string]()

	go func() { cell.Complete("granted") }()
	go func() {
		if !cell.Fail(errors.New("canceled")) {
			// lost the race; the grant stands
		}
	}()

	value, err := cell.Result()

Consumers await resolution through Done (select-friendly), Result (blocking),
Wait (context-bounded), or TryResult (polling).
*/
package future
