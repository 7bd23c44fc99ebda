// Kunhua Huang 2026

package interceptor

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/ecstasoy/hellowire/pkg/transport"
)

func Recovery() Interceptor {
	return func(ctx context.Context, conn transport.Connection, invoker Invoker) (err error) {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				err = fmt.Errorf("panic recovered: %v\nstack:\n%s", r, stack)
			}
		}()

		return invoker(ctx, conn)
	}
}
