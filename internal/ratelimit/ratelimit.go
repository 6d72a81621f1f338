// Package ratelimit provides token bucket rate limiting, per client key.
package ratelimit

import (
	"time"

	"golang.org/x/time/rate"
)

// Limiter is a token bucket holding up to burst tokens that refills at a
// fixed rate per second. It is safe for concurrent use.
type Limiter struct {
	bucket *rate.Limiter
	now    func() time.Time
}

// New creates a full bucket of burst tokens refilling at refillRate tokens
// per second.
func New(burst int, refillRate float64) *Limiter {
	return newWithClock(burst, refillRate, time.Now)
}

func newWithClock(burst int, refillRate float64, now func() time.Time) *Limiter {
	return &Limiter{
		bucket: rate.NewLimiter(rate.Limit(refillRate), burst),
		now:    now,
	}
}

// Allow takes a token if one is available.
func (l *Limiter) Allow() bool {
	return l.bucket.AllowN(l.now(), 1)
}

// RetryAfter returns how long until the next token is available.
func (l *Limiter) RetryAfter() time.Duration {
	tokens := l.bucket.TokensAt(l.now())
	perSecond := float64(l.bucket.Limit())
	if tokens >= 1 || perSecond <= 0 {
		return 0
	}
	return time.Duration((1 - tokens) / perSecond * float64(time.Second))
}

// Available returns the current number of tokens.
func (l *Limiter) Available() float64 {
	return l.bucket.TokensAt(l.now())
}

// IsFull reports whether the bucket is at capacity, i.e. idle.
func (l *Limiter) IsFull() bool {
	return l.Available() >= float64(l.bucket.Burst())
}
