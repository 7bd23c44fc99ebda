//Kunhua Huang 2026

package tcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ecstasoy/hellowire/pkg/message"
	"github.com/ecstasoy/hellowire/pkg/transport"
)

type Client struct {
	address   string
	opts      *transport.ClientOptions
	conn      net.Conn
	connected bool
	mu        sync.RWMutex // protects connected and conn
	ioMu      sync.Mutex   // one reader/writer at a time
}

var _ transport.ClientTransport = (*Client)(nil)

func NewClient(address string, options ...transport.ClientOption) *Client {
	opts := transport.DefaultClientOptions()

	for _, o := range options {
		o(opts)
	}

	return &Client{
		address: address,
		opts:    opts,
	}
}

func (c *Client) Dial(ctx context.Context, address string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected {
		return transport.NewError(transport.KindConnect, "dial", address,
			fmt.Errorf("already connected to: %s", c.conn.RemoteAddr().String()))
	}

	addr := address
	if addr == "" {
		addr = c.address
	}

	dialer := &net.Dialer{
		Timeout: c.opts.DialTimeout,
	}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return transport.NewError(transport.KindConnect, "dial", addr, err)
	}

	if tcpConn, ok := conn.(*net.TCPConn); ok {
		if err := tcpConn.SetNoDelay(true); err != nil {
			_ = conn.Close()
			return transport.NewError(transport.KindConnect, "set no delay", addr, err)
		}
	}

	c.conn = conn
	c.connected = true
	c.address = addr

	c.opts.Logger.Debug().
		Str("local", conn.LocalAddr().String()).
		Str("remote", addr).
		Msg("connected")

	return nil
}

// Send writes all of data to the connection.
func (c *Client) Send(ctx context.Context, data []byte) error {
	conn, err := c.current()
	if err != nil {
		return err
	}

	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	if err := setDeadline(ctx, conn.SetWriteDeadline, c.opts.WriteTimeout); err != nil {
		return transport.NewError(transport.KindWrite, "set write deadline", c.address, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetWriteDeadline(aLongTimeAgo)
	})
	defer stop()

	if err := writeFull(conn, data); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return transport.NewError(transport.KindWrite, "write", c.address, err)
	}

	return nil
}

// Receive clears buf and performs exactly one read into it. Only buf[:n] is
// meaningful. It returns io.EOF once the peer has closed its side.
func (c *Client) Receive(ctx context.Context, buf []byte) (int, error) {
	conn, err := c.current()
	if err != nil {
		return 0, err
	}

	c.ioMu.Lock()
	defer c.ioMu.Unlock()

	clear(buf)

	if err := setDeadline(ctx, conn.SetReadDeadline, c.opts.ReadTimeout); err != nil {
		return 0, transport.NewError(transport.KindRead, "set read deadline", c.address, err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetReadDeadline(aLongTimeAgo)
	})
	defer stop()

	n, err := conn.Read(buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return n, io.EOF
		}
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		return n, transport.NewError(transport.KindRead, "read", c.address, err)
	}

	return n, nil
}

// NewBuffer returns a receive buffer sized by the client options.
func (c *Client) NewBuffer() *message.Buffer {
	return message.NewBuffer(c.opts.ReadBufferSize)
}

func (c *Client) current() (net.Conn, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.connected || c.conn == nil {
		return nil, transport.ErrNotConnected
	}
	return c.conn, nil
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			return fmt.Errorf("close connection failed: %w", err)
		}
		c.conn = nil
	}

	c.connected = false

	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) LocalAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn != nil {
		return c.conn.LocalAddr()
	}

	return nil
}

func (c *Client) RemoteAddr() net.Addr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.conn != nil {
		return c.conn.RemoteAddr()
	}

	return nil
}

var aLongTimeAgo = time.Unix(1, 0)

// setDeadline prefers the context deadline, then the configured timeout. With
// neither, any previous deadline is cleared.
func setDeadline(ctx context.Context, set func(time.Time) error, timeout time.Duration) error {
	if deadline, ok := ctx.Deadline(); ok {
		return set(deadline)
	}

	if timeout > 0 {
		return set(time.Now().Add(timeout))
	}

	return set(time.Time{})
}

func writeFull(w io.Writer, b []byte) error {
	for len(b) > 0 {
		n, err := w.Write(b)
		if err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}
