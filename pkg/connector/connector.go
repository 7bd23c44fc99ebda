// Kunhua Huang 2026

package connector

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/ecstasoy/hellowire/pkg/config"
	"github.com/ecstasoy/hellowire/pkg/logging"
	"github.com/ecstasoy/hellowire/pkg/message"
	"github.com/ecstasoy/hellowire/pkg/transport"
	"github.com/ecstasoy/hellowire/pkg/transport/tcp"
)

// Result lists the payloads in the order they were read. A short list means
// the listener closed the connection early.
type Result struct {
	Replies [][]byte
}

type Connector struct {
	cfg    config.ConnectorConfig
	out    io.Writer
	logger zerolog.Logger
}

func New(cfg config.ConnectorConfig, out io.Writer) *Connector {
	return &Connector{
		cfg:    cfg,
		out:    out,
		logger: logging.Logger,
	}
}

func (c *Connector) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// Run connects, sends the request, performs the configured number of reads
// printing each reply, and closes. A dial failure returns before anything is
// sent or read.
func (c *Connector) Run(ctx context.Context) (*Result, error) {
	options := append(c.cfg.ClientOptions(), transport.WithClientLogger(c.logger))
	client := tcp.NewClient(c.cfg.Address, options...)

	if err := client.Dial(ctx, ""); err != nil {
		return nil, err
	}
	defer func() {
		if err := client.Close(); err != nil {
			c.logger.Warn().Err(err).Msg("close connection failed")
		}
	}()

	req := message.RequestBytes(c.cfg.Message, c.cfg.TrailingNUL)
	if err := client.Send(ctx, req); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	c.logger.Debug().Int("bytes", len(req)).Msg("request sent")

	result := &Result{}
	buf := client.NewBuffer()

	for i := 0; i < c.cfg.Reads; i++ {
		n, err := client.Receive(ctx, buf.Space())
		buf.Commit(n)

		if buf.Len() > 0 {
			result.Replies = append(result.Replies, append([]byte(nil), buf.Bytes()...))
			fmt.Fprintf(c.out, "Server says: %s\n", buf.Text())
		}

		if errors.Is(err, io.EOF) {
			c.logger.Debug().Int("read", i+1).Msg("server closed the connection")
			break
		}
		if err != nil {
			return result, fmt.Errorf("read reply %d: %w", i+1, err)
		}
	}

	return result, nil
}
