// Kunhua Huang 2026

package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ecstasoy/hellowire/pkg/transport"
)

type Server struct {
	address  string
	opts     *transport.ServerOptions
	logger   zerolog.Logger
	handler  transport.Handler
	listener net.Listener
	wg       sync.WaitGroup
	mu       sync.RWMutex
	serving  bool
	closed   bool
	closing  chan struct{}
	// atomic counters
	activeConnections   int64
	totalConnections    int64
	rejectedConnections int64
	// semaphore to limit max concurrent connections
	connSemaphore chan struct{}
}

var _ transport.ServerTransport = (*Server)(nil)

func NewServer(options ...transport.ServerOption) *Server {
	opts := transport.DefaultServerOptions()

	for _, o := range options {
		o(opts)
	}

	server := &Server{
		opts:    opts,
		logger:  opts.Logger,
		closing: make(chan struct{}),
	}

	if opts.Dispatch == transport.DispatchConcurrent && opts.MaxConnections > 0 {
		server.connSemaphore = make(chan struct{}, opts.MaxConnections)
	}

	return server
}

// Listen creates, configures, binds and starts listening on addr. Every failure
// here is a setup error.
func (s *Server) Listen(ctx context.Context, addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return transport.NewError(transport.KindSetup, "listen", addr, transport.ErrServerClosed)
	}

	if s.listener != nil {
		return transport.NewError(transport.KindSetup, "listen", addr,
			fmt.Errorf("already listening on %s", s.address))
	}

	if err := ctx.Err(); err != nil {
		return transport.NewError(transport.KindSetup, "listen", addr, err)
	}

	listener, err := listenSocket(addr, s.opts)
	if err != nil {
		return transport.NewError(transport.KindSetup, "listen", addr, err)
	}

	s.listener = listener
	s.address = listener.Addr().String()

	s.logger.Debug().
		Str("address", s.address).
		Int("backlog", s.opts.Backlog).
		Str("dispatch", s.opts.Dispatch.String()).
		Msg("listener ready")

	return nil
}

// Serve runs the accept loop until the server is closed or ctx is done. The
// loop itself is always sequential; the dispatch mode decides whether it waits
// for each exchange before accepting again.
func (s *Server) Serve(ctx context.Context, handler transport.Handler) error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return transport.ErrServerClosed
	}

	if s.listener == nil {
		s.mu.Unlock()
		return fmt.Errorf("not listening, call Listen() first")
	}

	if s.serving {
		s.mu.Unlock()
		return fmt.Errorf("already serving on %s", s.address)
	}

	s.serving = true
	s.handler = handler
	listener := s.listener
	s.mu.Unlock()

	// close the listener when ctx is done to unblock Accept
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
			_ = listener.Close()
		case <-stop:
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return ctx.Err()
			}

			s.mu.RLock()
			closed := s.closed
			s.mu.RUnlock()

			if closed || errors.Is(err, net.ErrClosed) {
				return nil
			}

			s.logger.Warn().
				Err(transport.NewError(transport.KindAccept, "accept", s.address, err)).
				Msg("accept failed")

			select {
			case <-time.After(s.opts.AcceptBackoff):
			case <-s.closing:
			}
			continue
		}

		if s.opts.Dispatch == transport.DispatchSequential {
			s.track()
			s.handleConnection(ctx, conn)
			continue
		}

		if s.connSemaphore != nil {
			select {
			case s.connSemaphore <- struct{}{}:
				// acquired semaphore
			default:
				// max connections reached
				atomic.AddInt64(&s.rejectedConnections, 1)
				s.logger.Warn().
					Str("remote", conn.RemoteAddr().String()).
					Msg("max connections reached, closing connection")
				if err := conn.Close(); err != nil {
					s.logger.Warn().Err(err).Msg("close rejected connection failed")
				}
				continue
			}
		}

		s.track()
		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) track() {
	atomic.AddInt64(&s.activeConnections, 1)
	atomic.AddInt64(&s.totalConnections, 1)
	s.wg.Add(1)
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer s.CloseConnection(conn)

	// a blocked read only returns once the connection is closed
	finished := make(chan struct{})
	defer close(finished)
	go func() {
		select {
		case <-ctx.Done():
		case <-s.closing:
		case <-finished:
			return
		}
		_ = conn.Close()
	}()

	var c transport.Connection = conn
	if s.opts.ReadTimeout > 0 || s.opts.WriteTimeout > 0 {
		c = &deadlineConn{Conn: conn, read: s.opts.ReadTimeout, write: s.opts.WriteTimeout}
	}

	if err := s.handler.Handle(ctx, c); err != nil {
		s.logger.Warn().
			Err(err).
			Str("remote", conn.RemoteAddr().String()).
			Msg("exchange ended with error")
	}
}

func (s *Server) CloseConnection(conn net.Conn) error {
	defer s.wg.Done()

	atomic.AddInt64(&s.activeConnections, -1)

	if s.connSemaphore != nil {
		<-s.connSemaphore
	}

	err := conn.Close()
	if err != nil && !errors.Is(err, net.ErrClosed) {
		return fmt.Errorf("close connection failed: %w", err)
	}

	return nil
}

// Close stops accepting, closes in-flight connections and waits for their
// exchanges to return.
func (s *Server) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()
		return nil
	}

	s.closed = true
	close(s.closing)
	listener := s.listener
	s.mu.Unlock()

	if listener != nil {
		err := listener.Close()
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return fmt.Errorf("close listener failed: %w", err)
		}
	}

	s.wg.Wait()

	return nil
}

func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

func (s *Server) Stats() ServerStats {
	s.mu.RLock()
	address := s.address
	s.mu.RUnlock()

	return ServerStats{
		ActiveConnections:   atomic.LoadInt64(&s.activeConnections),
		TotalConnections:    atomic.LoadInt64(&s.totalConnections),
		RejectedConnections: atomic.LoadInt64(&s.rejectedConnections),
		Address:             address,
	}
}

type ServerStats struct {
	ActiveConnections   int64
	TotalConnections    int64
	RejectedConnections int64
	Address             string
}

// deadlineConn refreshes the read/write deadline before every call.
type deadlineConn struct {
	net.Conn
	read  time.Duration
	write time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if c.read > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.read)); err != nil {
			return 0, fmt.Errorf("set read deadline failed: %w", err)
		}
	}
	return c.Conn.Read(p)
}

func (c *deadlineConn) Write(p []byte) (int, error) {
	if c.write > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.write)); err != nil {
			return 0, fmt.Errorf("set write deadline failed: %w", err)
		}
	}
	return c.Conn.Write(p)
}
