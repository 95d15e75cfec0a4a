package realtime

import (
	"math"
	"time"
)

// Backoff is the automatic reconnection policy.
type Backoff struct {
	Base        time.Duration // Delay before the first retry
	Max         time.Duration // Ceiling for any single delay (0 = uncapped)
	MaxAttempts int           // Automatic retries before giving up
}

// DefaultBackoff returns the policy used when none is configured.
func DefaultBackoff() Backoff {
	return Backoff{
		Base:        1 * time.Second,
		Max:         30 * time.Second,
		MaxAttempts: 5,
	}
}

// Delay returns the wait before retry number attempt (starting at 1):
// Base * 2^(attempt-1), capped at Max.
func (b Backoff) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	delay := b.Base
	for i := 1; i < attempt; i++ {
		if b.Max > 0 && delay >= b.Max {
			break
		}
		if delay > math.MaxInt64/2 {
			delay = math.MaxInt64
			break
		}
		delay *= 2
	}

	if b.Max > 0 && delay > b.Max {
		return b.Max
	}
	return delay
}
