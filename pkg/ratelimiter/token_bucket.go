// Kunhua Huang 2026

package ratelimiter

import (
	"context"
	"sync"
	"time"
)

// TokenBucket refills rate tokens per second up to burst. It starts full.
//
// - implements Limiter
type TokenBucket struct {
	burst int64
	rate  int64

	tokens     int64
	lastUpdate time.Time

	nsRemainder int64 // carried over so slow refills do not lose time
	now         func() time.Time
	mu          sync.Mutex
}

var _ Limiter = (*TokenBucket)(nil)

// NewTokenBucket returns a bucket with the given refill rate per second. A
// burst below 1 is raised to 1.
func NewTokenBucket(rate, burst int64) *TokenBucket {
	if burst < 1 {
		burst = 1
	}

	return &TokenBucket{
		burst:      burst,
		rate:       rate,
		tokens:     burst,
		lastUpdate: time.Now(),
		now:        time.Now,
	}
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(tb.now())

	if tb.tokens > 0 {
		tb.tokens--
		return true
	}

	return false
}

// Wait blocks until a token is available or ctx is done.
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		tb.mu.Lock()
		tb.refill(tb.now())

		if tb.tokens > 0 {
			tb.tokens--
			tb.mu.Unlock()
			return nil
		}

		wait := tb.nsPerToken() - tb.nsRemainder
		tb.mu.Unlock()

		if wait < int64(time.Microsecond) {
			wait = int64(time.Microsecond)
		}

		timer := time.NewTimer(time.Duration(wait))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Tokens reports the tokens left after refilling.
func (tb *TokenBucket) Tokens() int64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill(tb.now())
	return tb.tokens
}

func (tb *TokenBucket) nsPerToken() int64 {
	if tb.rate <= 0 {
		return int64(time.Second)
	}
	return int64(time.Second) / tb.rate
}

func (tb *TokenBucket) refill(now time.Time) {
	elapsed := now.Sub(tb.lastUpdate)
	if elapsed <= 0 {
		return
	}
	tb.lastUpdate = now

	if tb.rate <= 0 {
		return
	}

	nsPerToken := tb.nsPerToken()
	if nsPerToken <= 0 {
		tb.tokens = tb.burst
		tb.nsRemainder = 0
		return
	}

	total := tb.nsRemainder + int64(elapsed)
	add := total / nsPerToken
	tb.nsRemainder = total % nsPerToken

	if add > 0 {
		tb.tokens += add
		if tb.tokens > tb.burst {
			tb.tokens = tb.burst
			tb.nsRemainder = 0
		}
	}
}
