// Kunhua Huang 2026

// Package exchange holds the per-connection behaviours of the listener. One
// variant is picked when the server is composed.
package exchange

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ecstasoy/hellowire/pkg/logging"
	"github.com/ecstasoy/hellowire/pkg/message"
	"github.com/ecstasoy/hellowire/pkg/transport"
)

type Variant int

const (
	// SingleShot reads once, then sends the reply and the second reply.
	SingleShot Variant = iota
	// RepeatUntilDisconnect answers every read with the reply until EOF.
	RepeatUntilDisconnect
)

func (v Variant) String() string {
	switch v {
	case SingleShot:
		return "single-shot"
	case RepeatUntilDisconnect:
		return "repeat"
	default:
		return fmt.Sprintf("unknown(%d)", int(v))
	}
}

func ParseVariant(s string) (Variant, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "single-shot", "single", "singleshot":
		return SingleShot, nil
	case "repeat", "repeat-until-disconnect":
		return RepeatUntilDisconnect, nil
	default:
		return 0, fmt.Errorf("unknown exchange variant %q", s)
	}
}

type Options struct {
	BufferSize  int
	Reply       string
	SecondReply string
	Logger      zerolog.Logger
}

func defaultOptions() *Options {
	return &Options{
		BufferSize:  message.DefaultBufferSize,
		Reply:       message.Reply,
		SecondReply: message.SecondReply,
		Logger:      logging.Logger,
	}
}

type Option func(*Options)

func WithBufferSize(size int) Option {
	return func(o *Options) {
		o.BufferSize = size
	}
}

func WithReplies(reply, second string) Option {
	return func(o *Options) {
		o.Reply = reply
		o.SecondReply = second
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// New returns the handler for variant v.
func New(v Variant, opts ...Option) (transport.Handler, error) {
	options := defaultOptions()
	for _, o := range opts {
		o(options)
	}

	switch v {
	case SingleShot:
		return &singleShot{opts: options}, nil
	case RepeatUntilDisconnect:
		return &repeatUntilDisconnect{opts: options}, nil
	default:
		return nil, fmt.Errorf("unknown exchange variant %s", v)
	}
}

// singleShot
// - implements transport.Handler
type singleShot struct {
	opts *Options
}

func (h *singleShot) Handle(ctx context.Context, conn transport.Connection) error {
	remote := conn.RemoteAddr().String()
	logger := h.opts.Logger.With().Str("remote", remote).Logger()

	buf := message.NewBuffer(h.opts.BufferSize)

	n, err := conn.Read(buf.Space())
	buf.Commit(n)

	if buf.Len() == 0 {
		logger.Info().Err(err).Msg("no data received from client")
		if err != nil && !errors.Is(err, io.EOF) {
			return transport.NewError(transport.KindRead, "read", remote, err)
		}
		return nil
	}

	logger.Info().Str("data", buf.Text()).Msg("message from client")

	if _, err := io.WriteString(conn, h.opts.Reply); err != nil {
		return transport.NewError(transport.KindWrite, "write reply", remote, err)
	}

	buf.Reset()

	if _, err := io.WriteString(conn, h.opts.SecondReply); err != nil {
		return transport.NewError(transport.KindWrite, "write second reply", remote, err)
	}

	return nil
}

// repeatUntilDisconnect
// - implements transport.Handler
type repeatUntilDisconnect struct {
	opts *Options
}

func (h *repeatUntilDisconnect) Handle(ctx context.Context, conn transport.Connection) error {
	remote := conn.RemoteAddr().String()
	logger := h.opts.Logger.With().Str("remote", remote).Logger()

	buf := message.NewBuffer(h.opts.BufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := conn.Read(buf.Space())
		buf.Commit(n)

		if buf.Len() > 0 {
			logger.Info().Str("data", buf.Text()).Msg("message from client")

			if _, werr := io.WriteString(conn, h.opts.Reply); werr != nil {
				return transport.NewError(transport.KindWrite, "write reply", remote, werr)
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return transport.NewError(transport.KindRead, "read", remote, err)
		}

		if n == 0 {
			return nil
		}
	}
}
