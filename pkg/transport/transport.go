// Kunhua Huang 2025

package transport

import (
	"context"
	"io"
	"net"
	"time"
)

// ClientTransport Thank God Golang has context to manage timeouts and cancellations
type ClientTransport interface {
	Dial(ctx context.Context, addr string) error
	Send(ctx context.Context, data []byte) error
	Receive(ctx context.Context, buf []byte) (int, error)
	Close() error
	IsConnected() bool
	LocalAddr() net.Addr
	RemoteAddr() net.Addr
}

type ServerTransport interface {
	Listen(ctx context.Context, addr string) error
	Serve(ctx context.Context, handler Handler) error
	Close() error
	Addr() net.Addr
}

// Handler runs one exchange on an accepted connection. The server closes the
// connection once Handle returns, so implementations must not keep it.
type Handler interface {
	Handle(ctx context.Context, conn Connection) error
}

type HandlerFunc func(ctx context.Context, conn Connection) error

func (f HandlerFunc) Handle(ctx context.Context, conn Connection) error {
	return f(ctx, conn)
}

// Connection embeds io.ReadWriter and io.Closer to use std interfaces for network connections
type Connection interface {
	io.ReadWriter
	io.Closer

	LocalAddr() net.Addr
	RemoteAddr() net.Addr
	SetDeadline(t time.Time) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

var _ Connection = (net.Conn)(nil)
