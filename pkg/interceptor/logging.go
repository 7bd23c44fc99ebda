// Kunhua Huang 2026

package interceptor

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecstasoy/hellowire/pkg/transport"
)

func Logging(logger zerolog.Logger) Interceptor {
	return func(ctx context.Context, conn transport.Connection, invoker Invoker) error {
		start := time.Now()

		log := logger.With().Str("remote", conn.RemoteAddr().String()).Logger()
		log.Info().Msg("client connected")

		err := invoker(ctx, conn)

		event := log.Info()
		if err != nil {
			event = log.Warn().Err(err)
		}
		event.Dur("duration", time.Since(start)).Msg("client disconnected")

		return err
	}
}
