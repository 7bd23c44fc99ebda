// Kunhua Huang 2026

// Command listener serves the fixed reply sequence to every client that
// connects, one connection at a time unless concurrent dispatch is enabled.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/ecstasoy/hellowire/pkg/config"
	"github.com/ecstasoy/hellowire/pkg/exchange"
	"github.com/ecstasoy/hellowire/pkg/interceptor"
	"github.com/ecstasoy/hellowire/pkg/logging"
	"github.com/ecstasoy/hellowire/pkg/ratelimiter"
	"github.com/ecstasoy/hellowire/pkg/transport"
	"github.com/ecstasoy/hellowire/pkg/transport/tcp"
)

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:   "listener",
		Usage:  "accept connections and answer with the fixed replies",
		Writer: out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "path to a YAML config file"},
			&cli.StringFlag{Name: "address", Usage: "listen address (default \":8080\")"},
			&cli.StringFlag{Name: "variant", Usage: "exchange variant: single-shot or repeat"},
			&cli.StringFlag{Name: "dispatch", Usage: "sequential or concurrent"},
			&cli.IntFlag{Name: "backlog", Usage: "listen backlog (default 3)"},
			&cli.Int64Flag{Name: "rate-limit", Usage: "new exchanges per second, 0 for no limit"},
			&cli.StringFlag{Name: "metrics-address", Usage: "serve Prometheus metrics on this address"},
			&cli.StringFlag{Name: "log-level", Usage: "trace, debug, info, warn or error"},
			&cli.StringFlag{Name: "log-format", Usage: "console or json"},
		},
		Action: run,
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()

	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("address") {
		cfg.Listener.Address = c.String("address")
	}
	if c.IsSet("variant") {
		cfg.Listener.Variant = c.String("variant")
	}
	if c.IsSet("dispatch") {
		cfg.Listener.Dispatch = c.String("dispatch")
	}
	if c.IsSet("backlog") {
		cfg.Listener.Backlog = c.Int("backlog")
	}
	if c.IsSet("rate-limit") {
		cfg.Listener.RateLimit = c.Int64("rate-limit")
	}
	if c.IsSet("metrics-address") {
		cfg.Listener.MetricsAddress = c.String("metrics-address")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format, c.App.Writer); err != nil {
		return err
	}
	logger := logging.Logger

	variant, err := exchange.ParseVariant(cfg.Listener.Variant)
	if err != nil {
		return err
	}

	handler, err := exchange.New(variant,
		exchange.WithBufferSize(cfg.Listener.BufferSize),
		exchange.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	interceptors := []interceptor.Interceptor{interceptor.Recovery()}
	if cfg.Listener.RateLimit > 0 {
		burst := cfg.Listener.RateBurst
		if burst == 0 {
			burst = cfg.Listener.RateLimit
		}
		limiter := ratelimiter.NewTokenBucket(cfg.Listener.RateLimit, burst)
		interceptors = append(interceptors, interceptor.RateLimit(limiter, logger))
	}
	interceptors = append(interceptors,
		interceptor.Logging(logger),
		interceptor.Metrics(variant.String()),
	)
	chain := interceptor.NewChain(interceptors...)

	options, err := cfg.Listener.ServerOptions()
	if err != nil {
		return err
	}
	srv := tcp.NewServer(append(options, transport.WithLogger(logger))...)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Listen(ctx, cfg.Listener.Address); err != nil {
		return err
	}

	logger.Info().
		Str("variant", variant.String()).
		Msgf("Server listening on %s", srv.Addr())

	if cfg.Listener.MetricsAddress != "" {
		go serveMetrics(ctx, cfg.Listener.MetricsAddress, logger)
	}

	err = srv.Serve(ctx, chain.Then(handler))
	if closeErr := srv.Close(); closeErr != nil {
		logger.Warn().Err(closeErr).Msg("close listener failed")
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info().Msg("listener stopped")
	return nil
}

func serveMetrics(ctx context.Context, addr string, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("address", addr).Msg("serving metrics")

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Warn().Err(err).Msg("metrics server stopped")
	}
}
