package transport

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/ecstasoy/hellowire/pkg/logging"
	"github.com/ecstasoy/hellowire/pkg/message"
)

// ------------------- Client Options -------------------

// Zero timeouts mean no deadline: reads block until data, EOF or an OS error.
type ClientOptions struct {
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	ReadBufferSize int
	Logger         zerolog.Logger
}

func DefaultClientOptions() *ClientOptions {
	return &ClientOptions{
		DialTimeout:    0,
		ReadTimeout:    0,
		WriteTimeout:   0,
		ReadBufferSize: message.DefaultBufferSize,
		Logger:         logging.Logger,
	}
}

type ClientOption func(*ClientOptions)

func WithDialTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.DialTimeout = timeout
	}
}

func WithReadTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.ReadTimeout = timeout
	}
}

func WithWriteTimeout(timeout time.Duration) ClientOption {
	return func(opts *ClientOptions) {
		opts.WriteTimeout = timeout
	}
}

func WithBufferSize(size int) ClientOption {
	return func(opts *ClientOptions) {
		opts.ReadBufferSize = size
	}
}

func WithClientLogger(logger zerolog.Logger) ClientOption {
	return func(opts *ClientOptions) {
		opts.Logger = logger
	}
}

// ------------------- Server Options -------------------

type DispatchMode int

const (
	// DispatchSequential handles one connection at a time; pending clients
	// wait in the OS backlog.
	DispatchSequential DispatchMode = iota
	// DispatchConcurrent hands each accepted connection to its own goroutine.
	DispatchConcurrent
)

func (m DispatchMode) String() string {
	switch m {
	case DispatchSequential:
		return "sequential"
	case DispatchConcurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

type ServerOptions struct {
	Backlog        int
	ReusePort      bool
	Dispatch       DispatchMode
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxConnections int
	AcceptBackoff  time.Duration
	Logger         zerolog.Logger
}

func DefaultServerOptions() *ServerOptions {
	return &ServerOptions{
		Backlog:        3,
		ReusePort:      true,
		Dispatch:       DispatchSequential,
		ReadTimeout:    0,
		WriteTimeout:   0,
		MaxConnections: 0,
		AcceptBackoff:  10 * time.Millisecond,
		Logger:         logging.Logger,
	}
}

type ServerOption func(*ServerOptions)

func WithBacklog(backlog int) ServerOption {
	return func(opts *ServerOptions) {
		opts.Backlog = backlog
	}
}

func WithReusePort(enable bool) ServerOption {
	return func(opts *ServerOptions) {
		opts.ReusePort = enable
	}
}

func WithDispatch(mode DispatchMode) ServerOption {
	return func(opts *ServerOptions) {
		opts.Dispatch = mode
	}
}

func WithServerTimeout(read, write time.Duration) ServerOption {
	return func(opts *ServerOptions) {
		opts.ReadTimeout = read
		opts.WriteTimeout = write
	}
}

// WithMaxConnections caps in-flight exchanges in concurrent dispatch; 0 is unlimited.
func WithMaxConnections(maxConnections int) ServerOption {
	return func(opts *ServerOptions) {
		opts.MaxConnections = maxConnections
	}
}

func WithLogger(logger zerolog.Logger) ServerOption {
	return func(opts *ServerOptions) {
		opts.Logger = logger
	}
}
