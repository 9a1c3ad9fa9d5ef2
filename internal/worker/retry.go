package worker

import (
	"math"
	"time"
)

// RetryPolicy defines exponential backoff parameters for failed
// notification deliveries.
type RetryPolicy struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// NextDelay returns the delay before a given attempt (1-based), clamped
// to MaxDelay.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if r.InitialDelay <= 0 {
		r.InitialDelay = time.Second
	}
	if r.BackoffFactor <= 0 {
		r.BackoffFactor = 2
	}

	delay := time.Duration(float64(r.InitialDelay) * math.Pow(r.BackoffFactor, float64(attempt-1)))
	if r.MaxDelay > 0 && delay > r.MaxDelay {
		delay = r.MaxDelay
	}
	if delay <= 0 {
		delay = time.Second
	}
	return delay
}
