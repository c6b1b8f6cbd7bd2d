// Package backoff provides capped exponential delay policies used by the
// reconnection controller.
//
// A Policy is a pure value: Delay(attempt) computes the wait before a given
// retry attempt and Exhausted(attempts) reports whether the retry budget is
// spent. The caller owns the timer and the attempt counter, which keeps the
// policy trivially testable and free of goroutines.
//
// Two presets exist: Default (1s base doubling to a 32s cap, 10 attempts)
// and Linear (fixed 3s steps capped at 15s) for deployments that prefer the
// older behavior. Both are plain configuration; the reconnection contract
// does not change between them.
//
// Example:
//
//	p := backoff.Default()
//	for attempt := 1; !p.Exhausted(attempt - 1); attempt++ {
//	    if err := dial(); err == nil {
//	        break
//	    }
//	    time.Sleep(p.Delay(attempt))
//	}
package backoff
