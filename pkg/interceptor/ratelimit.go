// Kunhua Huang 2026

package interceptor

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/ecstasoy/hellowire/pkg/ratelimiter"
	"github.com/ecstasoy/hellowire/pkg/transport"
)

// RateLimit drops the connection without replying when the limiter has no
// token left.
func RateLimit(limiter ratelimiter.Limiter, logger zerolog.Logger) Interceptor {
	return func(ctx context.Context, conn transport.Connection, invoker Invoker) error {
		if !limiter.Allow() {
			logger.Warn().
				Str("remote", conn.RemoteAddr().String()).
				Msg("connection rate limit exceeded, dropping client")
			return ratelimiter.ErrRateLimitExceeded
		}

		return invoker(ctx, conn)
	}
}
