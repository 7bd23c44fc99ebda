// Kunhua Huang 2026

package transport

import (
	"errors"
	"fmt"
)

var (
	ErrServerClosed = errors.New("server closed")
	ErrNotConnected = errors.New("not connected, call Dial() first")
)

type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindSetup
	KindConnect
	KindAccept
	KindRead
	KindWrite
)

func (k ErrorKind) String() string {
	switch k {
	case KindSetup:
		return "setup"
	case KindConnect:
		return "connect"
	case KindAccept:
		return "accept"
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Error tells apart the failure kinds of a socket exchange. Setup and connect
// failures end the process, the others end a single exchange.
type Error struct {
	Kind ErrorKind
	Op   string
	Addr string
	Err  error
}

func NewError(kind ErrorKind, op, addr string, err error) *Error {
	return &Error{
		Kind: kind,
		Op:   op,
		Addr: addr,
		Err:  err,
	}
}

func (e *Error) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("[%s] %s %s: %v", e.Kind, e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func KindOf(err error) ErrorKind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

func IsFatal(err error) bool {
	switch KindOf(err) {
	case KindSetup, KindConnect:
		return true
	default:
		return false
	}
}
