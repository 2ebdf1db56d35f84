package transport

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
)

// ServerConn is one accepted connection, exposed as a non-blocking socket.
// Read and Write must be called from a single goroutine (the tick loop).
type ServerConn struct {
	conn         net.Conn
	server       *Server
	id           string
	remoteAddr   net.Addr
	writeTimeout time.Duration
	logger       log.Logger

	inbox   chan []byte
	pending []byte
	readErr error // written by readLoop before inbox is closed

	// outbox is set for TLS connections; writeLoop sends its chunks.
	outbox   chan []byte
	writeMu  sync.Mutex
	writeErr error

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	bytesIn  atomic.Uint64
	bytesOut atomic.Uint64
}

// NewServerConn wraps an established connection. It is used for connections
// not accepted by a Server, such as tests over net.Pipe.
func NewServerConn(conn net.Conn, writeTimeout time.Duration, logger log.Logger) *ServerConn {
	c := &ServerConn{
		conn:         conn,
		id:           conn.RemoteAddr().String(),
		remoteAddr:   conn.RemoteAddr(),
		writeTimeout: writeTimeout,
		logger:       logger,
		inbox:        make(chan []byte, inboxSize),
		closeCh:      make(chan struct{}),
	}
	go c.readLoop(DefaultReadBufferSize)
	return c
}

// ID returns the unique connection identifier.
func (c *ServerConn) ID() string {
	return c.id
}

// RemoteAddr returns the remote address of the client.
func (c *ServerConn) RemoteAddr() net.Addr {
	return c.remoteAddr
}

// Read copies received bytes into p. It returns ErrWouldBlock when nothing
// has arrived, and io.EOF (or the read error) once the peer has gone.
func (c *ServerConn) Read(p []byte) (int, error) {
	if len(c.pending) == 0 {
		select {
		case chunk, ok := <-c.inbox:
			if !ok {
				return 0, c.readErr
			}
			c.pending = chunk
		default:
			return 0, ErrWouldBlock
		}
	}
	n := copy(p, c.pending)
	c.pending = c.pending[n:]
	return n, nil
}

// Write writes p within the write timeout. Bytes the kernel did not take in
// time are reported with ErrWouldBlock; the caller retries them. On a TLS
// connection p is queued whole, or refused with ErrWouldBlock while the
// queue is full.
func (c *ServerConn) Write(p []byte) (int, error) {
	if err := c.writeFailure(); err != nil {
		return 0, err
	}
	if c.closed.Load() {
		return 0, ErrConnectionClosed
	}
	if c.outbox != nil {
		select {
		case c.outbox <- append([]byte(nil), p...):
			return len(p), nil
		default:
			return 0, ErrWouldBlock
		}
	}
	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}

	n, err := c.conn.Write(p)
	if n > 0 {
		c.bytesOut.Add(uint64(n))
		c.logData(log.DirectionOut, p[:n])
	}
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return n, fmt.Errorf("%w: %d of %d bytes written", ErrWouldBlock, n, len(p))
		}
		return n, err
	}
	return n, nil
}

// Close closes the connection. Queued TLS output gets a short grace period
// before the writer closes the socket.
func (c *ServerConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.outbox != nil {
			_ = c.conn.SetWriteDeadline(time.Now().Add(closeLinger))
			close(c.closeCh)
		} else {
			close(c.closeCh)
			err = c.conn.Close()
		}
		if c.server != nil {
			c.server.unregister(c)
		}
		c.logState("CONNECTED", "DISCONNECTED", "")
	})
	return err
}

// Closed reports whether Close has been called.
func (c *ServerConn) Closed() bool {
	return c.closed.Load()
}

// Stats returns the bytes received and sent on the socket.
func (c *ServerConn) Stats() (in, out uint64) {
	return c.bytesIn.Load(), c.bytesOut.Load()
}

// readLoop moves received bytes to the inbox until the connection ends.
func (c *ServerConn) readLoop(bufSize int) {
	defer close(c.inbox)

	buf := make([]byte, bufSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			c.bytesIn.Add(uint64(n))
			c.logData(log.DirectionIn, chunk)

			select {
			case c.inbox <- chunk:
			case <-c.closeCh:
				c.readErr = ErrConnectionClosed
				return
			}
		}
		if err != nil {
			switch {
			case c.closed.Load():
				c.readErr = ErrConnectionClosed
			case errors.Is(err, net.ErrClosed):
				c.readErr = io.EOF
			default:
				c.readErr = err
			}
			return
		}
	}
}

// writeLoop sends queued chunks until Close or the first failed write. A
// TLS stream cannot resume after a timed-out write, so a failure is final.
func (c *ServerConn) writeLoop() {
	for {
		select {
		case chunk := <-c.outbox:
			if err := c.send(chunk, time.Now().Add(c.writeTimeout)); err != nil {
				c.failWrite(err)
				return
			}
		case <-c.closeCh:
			c.linger()
			return
		}
	}
}

// linger sends what is still queued after Close, then closes the socket.
func (c *ServerConn) linger() {
	deadline := time.Now().Add(closeLinger)
	defer c.conn.Close()
	for {
		select {
		case chunk := <-c.outbox:
			if c.send(chunk, deadline) != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *ServerConn) send(chunk []byte, deadline time.Time) error {
	if c.closed.Load() {
		deadline = time.Now().Add(closeLinger)
	}
	_ = c.conn.SetWriteDeadline(deadline)
	n, err := c.conn.Write(chunk)
	if n > 0 {
		c.bytesOut.Add(uint64(n))
		c.logData(log.DirectionOut, chunk[:n])
	}
	if err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// failWrite records err for the next Write and closes the socket, which also
// ends readLoop.
func (c *ServerConn) failWrite(err error) {
	c.writeMu.Lock()
	c.writeErr = err
	c.writeMu.Unlock()
	_ = c.conn.Close()
}

func (c *ServerConn) writeFailure() error {
	if c.outbox == nil {
		return nil
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.writeErr
}

func (c *ServerConn) logData(dir log.Direction, data []byte) {
	if c.logger == nil {
		return
	}
	clipped, truncated := log.Clip(data)
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryData,
		RemoteAddr:   c.remoteAddr.String(),
		Data: &log.DataEvent{
			Size:      len(data),
			Data:      append([]byte(nil), clipped...),
			Truncated: truncated,
		},
	})
}

func (c *ServerConn) logState(oldState, newState, reason string) {
	if c.logger == nil {
		return
	}
	c.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: c.id,
		Layer:        log.LayerTransport,
		Category:     log.CategoryState,
		RemoteAddr:   c.remoteAddr.String(),
		StateChange: &log.StateChangeEvent{
			Entity:   log.StateEntityConnection,
			OldState: oldState,
			NewState: newState,
			Reason:   reason,
		},
	})
}
