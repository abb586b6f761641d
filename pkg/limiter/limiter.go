package limiter

import (
	"context"
	"fmt"
	"sync"
	"time"
)

/*
TokenBucket admits at most rate operations per interval, refilling
continuously. A zero value is not usable, use New.
*/
type TokenBucket struct {
	mu       sync.Mutex
	rate     float64 // tokens per second
	capacity float64
	tokens   float64
	last     time.Time
	now      func() time.Time
}

// New creates a bucket that starts full.
func New(rate int64, interval time.Duration) (*TokenBucket, error) {
	if rate <= 0 || interval <= 0 {
		return nil, fmt.Errorf("rate and interval must be positive, got %d per %s", rate, interval)
	}

	return &TokenBucket{
		rate:     float64(rate) / interval.Seconds(),
		capacity: float64(rate),
		tokens:   float64(rate),
		last:     time.Now(),
		now:      time.Now,
	}, nil
}

// Allow takes a token if one is available.
func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens < 1.0 {
		return false
	}

	tb.tokens--
	return true
}

// WaitTime returns how long until the next token is available.
func (tb *TokenBucket) WaitTime() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()

	if tb.tokens >= 1.0 {
		return 0
	}

	return time.Duration((1.0 - tb.tokens) / tb.rate * float64(time.Second))
}

/*
Wait blocks until a token is taken or ctx is done, whichever comes first.
*/
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		if tb.Allow() {
			return nil
		}

		timer := time.NewTimer(tb.WaitTime())

		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.last).Seconds()
	tb.last = now

	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.rate)
}
