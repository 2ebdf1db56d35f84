package transport

import "errors"

// Transport errors.
var (
	// ErrWouldBlock means the operation could not complete without blocking;
	// retry on a later tick.
	ErrWouldBlock = errors.New("operation would block")

	// ErrConnectionClosed is returned by operations on a closed connection.
	ErrConnectionClosed = errors.New("connection closed")

	// ErrServerRunning is returned by Start on a running server.
	ErrServerRunning = errors.New("server already running")

	// ErrTLSConfig indicates the TLS certificate could not be loaded.
	ErrTLSConfig = errors.New("invalid TLS configuration")
)
