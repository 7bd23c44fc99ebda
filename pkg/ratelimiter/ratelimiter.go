// Kunhua Huang 2026

// Package ratelimiter caps how fast the listener starts new exchanges.
package ratelimiter

import (
	"context"
	"errors"
)

var ErrRateLimitExceeded = errors.New("connection rate limit exceeded")

type Limiter interface {
	Allow() bool
	Wait(ctx context.Context) error
}
