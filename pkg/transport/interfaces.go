package transport

import (
	"context"
	"net"
)

// Socket is the non-blocking byte stream a connection reads and writes on
// each tick. Read and Write return ErrWouldBlock instead of waiting.
type Socket interface {
	ID() string
	RemoteAddr() net.Addr
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
}

// Listener is one bound endpoint, plain or TLS. Accept hands over a
// connection accepted since the last call, if any, and never blocks.
type Listener interface {
	Start(ctx context.Context) error
	Stop() error
	Addr() net.Addr
	TLS() bool
	ConnectionCount() int
	Accept() (*ServerConn, bool)
}

var (
	_ Socket   = (*ServerConn)(nil)
	_ Listener = (*Server)(nil)
)
