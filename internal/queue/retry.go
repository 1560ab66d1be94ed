package queue

import (
	"math/rand"
	"time"
)

// Default retry policy: 5m, 10m, 20m, ... capped at one hour.
const (
	DefaultMaxRetries     = 3
	DefaultInitialBackoff = 5 * time.Minute
	DefaultMaxBackoff     = time.Hour
	DefaultMultiplier     = 2.0
)

// RetryStrategy implements exponential backoff with jitter for job retries.
type RetryStrategy struct {
	MaxRetries int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64

	// jitter returns a value in [0,1). Tests replace it.
	jitter func() float64
}

// NewRetryStrategy creates a RetryStrategy with the default backoff and the
// given maximum retry count. A non-positive count uses DefaultMaxRetries.
func NewRetryStrategy(maxRetries int) *RetryStrategy {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &RetryStrategy{
		MaxRetries: maxRetries,
		Initial:    DefaultInitialBackoff,
		Max:        DefaultMaxBackoff,
		Multiplier: DefaultMultiplier,
		jitter:     rand.Float64,
	}
}

// ShouldRetry returns true if the job has not exhausted its retry budget.
func (r *RetryStrategy) ShouldRetry(retryCount int) bool {
	return retryCount < r.MaxRetries
}

// Base returns the un-jittered backoff for the given retry attempt.
func (r *RetryStrategy) Base(retryCount int) time.Duration {
	d := float64(r.Initial)
	for i := 0; i < retryCount; i++ {
		d *= r.Multiplier
		if d >= float64(r.Max) {
			return r.Max
		}
	}
	if d > float64(r.Max) {
		return r.Max
	}
	return time.Duration(d)
}

// NextBackoff returns the backoff for the given retry attempt with jitter
// applied: base * (0.5 + rand * 0.5).
func (r *RetryStrategy) NextBackoff(retryCount int) time.Duration {
	j := rand.Float64
	if r.jitter != nil {
		j = r.jitter
	}
	return time.Duration(float64(r.Base(retryCount)) * (0.5 + j()*0.5))
}
