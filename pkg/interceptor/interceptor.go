// Kunhua Huang 2026

package interceptor

import (
	"context"

	"github.com/ecstasoy/hellowire/pkg/transport"
)

type Invoker func(ctx context.Context, conn transport.Connection) error

type Interceptor func(ctx context.Context, conn transport.Connection, invoker Invoker) error

type Chain struct {
	interceptors []Interceptor
}

func NewChain(interceptor ...Interceptor) *Chain {
	return &Chain{interceptors: interceptor}
}

// Then wraps handler so that the interceptors run in the order they were added.
func (ic *Chain) Then(handler transport.Handler) transport.Handler {
	if len(ic.interceptors) == 0 {
		return handler
	}

	return transport.HandlerFunc(ic.buildChain(handler.Handle))
}

func (ic *Chain) buildChain(invoker Invoker) Invoker {
	for i := len(ic.interceptors) - 1; i >= 0; i-- {
		next := invoker
		interceptor := ic.interceptors[i]

		invoker = func(ctx context.Context, conn transport.Connection) error {
			return interceptor(ctx, conn, next)
		}
	}

	return invoker
}
