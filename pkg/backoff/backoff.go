// Package backoff provides capped exponential delay policies for reconnection
package backoff

import (
	"errors"
	"math/rand"
	"sync"
	"time"
)

var (
	// Thread-safe random source for jitter
	randMu     sync.Mutex
	randSource = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// Policy describes how reconnect delays grow between attempts.
// The delay for attempt n (1-based) is min(Initial * Multiplier^(n-1), Max),
// optionally widened by up to 25% jitter.
type Policy struct {
	Initial     time.Duration // Delay before the first retry
	Max         time.Duration // Upper bound on any single delay
	Multiplier  float64       // Growth factor between attempts (typically 2.0)
	MaxAttempts int           // Attempts before giving up (0 = unlimited)
	Jitter      bool          // Add randomness to prevent thundering herd
}

// Default returns the canonical reconnect policy: 1s base doubling to a
// 32s cap, giving up after 10 attempts.
func Default() Policy {
	return Policy{
		Initial:     1 * time.Second,
		Max:         32 * time.Second,
		Multiplier:  2.0,
		MaxAttempts: 10,
		Jitter:      true,
	}
}

// Linear returns the alternate fixed-step policy observed in older deploys:
// 3s steps capped at 15s. Kept as a configuration choice, not a contract.
func Linear() Policy {
	return Policy{
		Initial:     3 * time.Second,
		Max:         15 * time.Second,
		Multiplier:  1.0,
		MaxAttempts: 10,
		Jitter:      false,
	}
}

// Validate checks the policy for nonsensical values
func (p Policy) Validate() error {
	if p.Initial < 0 {
		return errors.New("backoff: Initial cannot be negative")
	}
	if p.Max < 0 {
		return errors.New("backoff: Max cannot be negative")
	}
	if p.Multiplier < 0 {
		return errors.New("backoff: Multiplier cannot be negative")
	}
	if p.MaxAttempts < 0 {
		return errors.New("backoff: MaxAttempts cannot be negative")
	}
	if p.Max > 0 && p.Max < p.Initial {
		return errors.New("backoff: Max must be >= Initial")
	}
	return nil
}

// withDefaults fills zero fields with the canonical values
func (p Policy) withDefaults() Policy {
	if p.Initial == 0 {
		p.Initial = 1 * time.Second
	}
	if p.Max == 0 {
		p.Max = 32 * time.Second
	}
	if p.Multiplier == 0 {
		p.Multiplier = 2.0
	}
	// Prevent overflow with extremely large multipliers
	if p.Multiplier > 1000 {
		p.Multiplier = 1000
	}
	return p
}

// Delay returns the wait before the given retry attempt (1-based).
// Attempt values below 1 are treated as 1.
func (p Policy) Delay(attempt int) time.Duration {
	p = p.withDefaults()
	if attempt < 1 {
		attempt = 1
	}

	delay := float64(p.Initial)
	for i := 1; i < attempt; i++ {
		delay *= p.Multiplier
		if delay >= float64(p.Max) {
			delay = float64(p.Max)
			break
		}
	}
	if delay > float64(p.Max) {
		delay = float64(p.Max)
	}

	d := time.Duration(delay)
	if p.Jitter && d > 0 {
		// Add up to 25% jitter using thread-safe random
		randMu.Lock()
		jitter := time.Duration(randSource.Int63n(int64(d/4) + 1))
		randMu.Unlock()
		d += jitter
	}
	return d
}

// Exhausted reports whether the given attempt count has consumed the
// policy's retry budget. A zero MaxAttempts never exhausts.
func (p Policy) Exhausted(attempts int) bool {
	return p.MaxAttempts > 0 && attempts >= p.MaxAttempts
}
