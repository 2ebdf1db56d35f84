package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
)

// Server defaults.
const (
	// DefaultPort is the default telnet listen port.
	DefaultPort = 4000

	// DefaultMaxConnections bounds concurrently open connections.
	DefaultMaxConnections = 512

	// DefaultReadBufferSize is the per-read buffer size.
	DefaultReadBufferSize = 4096

	// DefaultWriteTimeout is how long a write may wait for the kernel before
	// the remainder is reported as ErrWouldBlock.
	DefaultWriteTimeout = 5 * time.Millisecond

	// DefaultTLSWriteTimeout is how long a queued TLS write may stall before
	// the connection is failed.
	DefaultTLSWriteTimeout = 30 * time.Second

	// acceptBacklog bounds accepted connections not yet collected by Accept.
	acceptBacklog = 64

	// inboxSize bounds read chunks not yet collected by Read.
	inboxSize = 64

	// outboxSize bounds TLS write chunks not yet sent by the writer.
	outboxSize = 64

	// closeLinger bounds how long queued TLS output may take after Close.
	closeLinger = time.Second
)

// DefaultRefusal is written to connections beyond MaxConnections.
var DefaultRefusal = []byte("Too many connections, please try again later.\r\n")

// ServerConfig configures a telnet listener.
type ServerConfig struct {
	// Address to listen on (e.g., ":4000" or "127.0.0.1:4000").
	Address string

	// TLS wraps the listener when set. A timed-out TLS write corrupts the
	// stream, so TLS writes are queued to a per-connection writer instead.
	TLS *tls.Config

	// MaxConnections is the maximum number of open connections (default: 512).
	MaxConnections int

	// ReadBufferSize is the size of each socket read (default: 4 KB).
	ReadBufferSize int

	// WriteTimeout bounds each plain TCP write (default: 5ms).
	WriteTimeout time.Duration

	// TLSWriteTimeout bounds each queued TLS write; a write that misses it
	// fails the connection (default: 30s).
	TLSWriteTimeout time.Duration

	// Refusal is sent to a connection refused for capacity.
	Refusal []byte

	// BindRetries is how often a failed listen is retried; see BindPolicy.
	BindRetries int

	// Logger for protocol logging (optional).
	Logger log.Logger

	// OnError is called for accept errors and retried bind failures.
	OnError func(err error)
}

// Server accepts telnet connections and hands them to the tick loop through
// Accept.
type Server struct {
	config   ServerConfig
	listener net.Listener

	// Active connections
	conns   map[*ServerConn]struct{}
	connsMu sync.RWMutex

	accepted chan *ServerConn

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewServer creates a new telnet server.
func NewServer(config ServerConfig) (*Server, error) {
	if config.MaxConnections < 0 || config.ReadBufferSize < 0 || config.WriteTimeout < 0 || config.TLSWriteTimeout < 0 || config.BindRetries < 0 {
		return nil, fmt.Errorf("negative server limit")
	}
	if config.Address == "" {
		config.Address = fmt.Sprintf(":%d", DefaultPort)
	}
	if config.MaxConnections == 0 {
		config.MaxConnections = DefaultMaxConnections
	}
	if config.ReadBufferSize == 0 {
		config.ReadBufferSize = DefaultReadBufferSize
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = DefaultWriteTimeout
	}
	if config.TLSWriteTimeout == 0 {
		config.TLSWriteTimeout = DefaultTLSWriteTimeout
	}
	if config.Refusal == nil {
		config.Refusal = DefaultRefusal
	}

	return &Server{
		config:   config,
		conns:    make(map[*ServerConn]struct{}),
		accepted: make(chan *ServerConn, acceptBacklog),
	}, nil
}

// Start starts the server and begins accepting connections.
func (s *Server) Start(ctx context.Context) error {
	if s.running.Load() {
		return ErrServerRunning
	}

	s.ctx, s.cancel = context.WithCancel(ctx)

	var listener net.Listener
	policy := BindPolicy{
		Retries: s.config.BindRetries,
		Jitter:  DefaultBindJitter,
		OnRetry: func(attempt int, err error, wait time.Duration) {
			if s.config.OnError != nil {
				s.config.OnError(fmt.Errorf("bind %s (attempt %d, retrying in %s): %w", s.config.Address, attempt, wait.Round(time.Millisecond), err))
			}
		},
	}
	err := policy.Do(ctx, func() error {
		var lerr error
		listener, lerr = net.Listen("tcp", s.config.Address)
		return lerr
	})
	if err != nil {
		s.cancel()
		return fmt.Errorf("failed to listen: %w", err)
	}
	if s.config.TLS != nil {
		listener = tls.NewListener(listener, s.config.TLS)
	}
	s.listener = listener

	s.running.Store(true)

	s.wg.Add(1)
	go s.acceptLoop()

	return nil
}

// Stop stops the server and closes all connections.
func (s *Server) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()

	// Close listener to stop accept loop
	if s.listener != nil {
		s.listener.Close()
	}

	// Close all connections
	s.connsMu.RLock()
	conns := make([]*ServerConn, 0, len(s.conns))
	for conn := range s.conns {
		conns = append(conns, conn)
	}
	s.connsMu.RUnlock()
	for _, conn := range conns {
		conn.Close()
	}

	s.wg.Wait()

	return nil
}

// Addr returns the server's listen address.
func (s *Server) Addr() net.Addr {
	if s.listener != nil {
		return s.listener.Addr()
	}
	return nil
}

// TLS reports whether the listener wraps connections in TLS.
func (s *Server) TLS() bool {
	return s.config.TLS != nil
}

// PortOf returns the TCP port of addr, or 0.
func PortOf(addr net.Addr) int {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// ConnectionCount returns the number of active connections.
func (s *Server) ConnectionCount() int {
	s.connsMu.RLock()
	defer s.connsMu.RUnlock()
	return len(s.conns)
}

// Accept returns the next accepted connection without blocking.
func (s *Server) Accept() (*ServerConn, bool) {
	select {
	case conn := <-s.accepted:
		return conn, true
	default:
		return nil, false
	}
}

// acceptLoop accepts incoming connections.
func (s *Server) acceptLoop() {
	defer s.wg.Done()

	for s.running.Load() {
		conn, err := s.listener.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) {
				return
			}
			if s.config.OnError != nil {
				s.config.OnError(fmt.Errorf("accept error: %w", err))
			}
			continue
		}

		if s.ConnectionCount() >= s.config.MaxConnections {
			s.refuse(conn)
			continue
		}

		sconn := s.register(conn)

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			sconn.readLoop(s.config.ReadBufferSize)
		}()
		if sconn.outbox != nil {
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				sconn.writeLoop()
			}()
		}

		select {
		case s.accepted <- sconn:
		case <-s.ctx.Done():
			sconn.Close()
			return
		}
	}
}

func (s *Server) register(conn net.Conn) *ServerConn {
	sconn := &ServerConn{
		conn:         conn,
		server:       s,
		id:           uuid.New().String(),
		remoteAddr:   conn.RemoteAddr(),
		writeTimeout: s.config.WriteTimeout,
		logger:       s.config.Logger,
		inbox:        make(chan []byte, inboxSize),
		closeCh:      make(chan struct{}),
	}
	if s.config.TLS != nil {
		sconn.writeTimeout = s.config.TLSWriteTimeout
		sconn.outbox = make(chan []byte, outboxSize)
	}

	s.connsMu.Lock()
	s.conns[sconn] = struct{}{}
	s.connsMu.Unlock()

	sconn.logState("", "CONNECTED", "")
	return sconn
}

func (s *Server) unregister(c *ServerConn) {
	s.connsMu.Lock()
	delete(s.conns, c)
	s.connsMu.Unlock()
}

// refuse writes the refusal text best-effort and closes conn.
func (s *Server) refuse(conn net.Conn) {
	_ = conn.SetWriteDeadline(time.Now().Add(time.Second))
	_, _ = conn.Write(s.config.Refusal)
	conn.Close()

	if log.Enabled(s.config.Logger) {
		s.config.Logger.Log(log.Event{
			Timestamp:  time.Now(),
			Layer:      log.LayerTransport,
			Category:   log.CategoryState,
			RemoteAddr: conn.RemoteAddr().String(),
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityConnection,
				NewState: "REFUSED",
				Reason:   "connection limit reached",
			},
		})
	}
}
