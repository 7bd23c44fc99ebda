// Kunhua Huang 2026

//go:build !linux

package tcp

import (
	"context"
	"net"

	"github.com/ecstasoy/hellowire/pkg/transport"
)

// listenSocket falls back to the runtime listener. Backlog and SO_REUSEPORT
// are left to the platform defaults here.
func listenSocket(addr string, _ *transport.ServerOptions) (net.Listener, error) {
	lc := net.ListenConfig{}
	return lc.Listen(context.Background(), "tcp4", addr)
}
