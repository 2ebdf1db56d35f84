package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/connection"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/discovery"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/msdp"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/spy"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/transport"
)

// callQueueSize bounds operator calls waiting for the next tick.
const callQueueSize = 64

// call is a function queued to run on the tick goroutine.
type call struct {
	fn   func()
	done chan struct{}
}

// Service owns the listeners and every open connection.
type Service struct {
	mu    sync.Mutex
	state ServiceState

	config  Config
	handler CommandHandler

	serverID string
	catalog  *msdp.Catalog

	listeners []transport.Listener
	conns     *connTracker
	spies     *spy.Table
	hosts     *hostnameResolver

	advertiser        discovery.Advertiser
	advertisedPlayers int

	calls   chan call
	started time.Time
	ticks   uint64

	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a service that hands input to handler.
func New(cfg Config, handler CommandHandler) (*Service, error) {
	if handler == nil {
		return nil, fmt.Errorf("%w: nil command handler", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	s := &Service{
		state:    StateIdle,
		config:   cfg,
		handler:  handler,
		serverID: uuid.New().String(),
		conns:    newConnTracker(),
		spies:    spy.New(cfg.SpyBacklog),
		calls:    make(chan call, callQueueSize),
		logger:   cfg.Logger,
		started:  cfg.Now(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())

	if cfg.Reporting {
		s.catalog = cfg.Catalog
		if s.catalog == nil {
			catalog, err := msdp.NewDefaultCatalog(s.serverID, cfg.CatalogEntries...)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
			}
			s.catalog = catalog
		}
	}

	if cfg.ResolveHostnames {
		hosts, err := newHostnameResolver(cfg.Resolver, cfg.HostnameCacheSize, cfg.ResolveTimeout, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		s.hosts = hosts
	}

	return s, nil
}

// ServerID returns the identifier reported as SERVER_ID.
func (s *Service) ServerID() string { return s.serverID }

// Catalog returns the reporting catalog, or nil when reporting is off.
func (s *Service) Catalog() *msdp.Catalog { return s.catalog }

// State returns the service state.
func (s *Service) State() ServiceState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start opens the listeners and, when enabled, starts advertising.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.mu.Unlock()

	s.ctx, s.cancel = context.WithCancel(ctx)

	type listen struct {
		addr string
		tls  bool
	}
	var addrs []listen
	if s.config.Listen != "" {
		addrs = append(addrs, listen{addr: s.config.Listen})
	}
	if s.config.TLS != nil {
		addrs = append(addrs, listen{addr: s.config.TLSListen, tls: true})
	}

	for _, l := range addrs {
		scfg := transport.ServerConfig{
			Address:        l.addr,
			MaxConnections: s.config.MaxConnections,
			BindRetries:    s.config.BindRetries,
			Logger:         s.config.ProtocolLogger,
			OnError: func(err error) {
				s.debug("listener error", "error", err)
			},
		}
		if l.tls {
			scfg.TLS = s.config.TLS
		}
		server, err := transport.NewServer(scfg)
		if err == nil {
			err = server.Start(s.ctx)
		}
		if err != nil {
			s.stopListeners()
			s.cancel()
			return fmt.Errorf("listen %s: %w", l.addr, err)
		}
		s.listeners = append(s.listeners, server)
		s.info("listening", "addr", server.Addr().String(), "tls", l.tls)
	}

	if s.config.Discovery {
		if err := s.advertise(); err != nil {
			// Advertisement is optional; the server still runs.
			s.warn("mDNS advertisement failed", "error", err)
		}
	}

	s.mu.Lock()
	s.state = StateRunning
	s.started = s.config.Now()
	s.mu.Unlock()
	return nil
}

// Run ticks until ctx is done.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.config.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop closes every connection, the listeners and the advertisement. It
// must not run concurrently with Tick.
func (s *Service) Stop() error {
	s.mu.Lock()
	if s.state == StateStopped || s.state == StateStopping {
		s.mu.Unlock()
		return nil
	}
	s.state = StateStopping
	s.mu.Unlock()

	s.runCalls()
	for _, c := range s.conns.List() {
		s.drop(c, "server shutdown")
	}
	s.stopListeners()
	if s.advertiser != nil {
		_ = s.advertiser.Stop()
	}
	s.cancel()

	s.mu.Lock()
	s.state = StateStopped
	s.mu.Unlock()
	s.info("service stopped")
	return nil
}

func (s *Service) stopListeners() {
	for _, l := range s.listeners {
		_ = l.Stop()
	}
	s.listeners = nil
}

// Call runs fn on the tick goroutine and waits for it to finish. Use it to
// touch connections from another goroutine.
func (s *Service) Call(ctx context.Context, fn func()) error {
	if s.State() == StateStopped {
		return ErrStopped
	}
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case s.calls <- c:
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-c.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Service) runCalls() {
	for {
		select {
		case c := <-s.calls:
			c.fn()
			close(c.done)
		default:
			return
		}
	}
}

// Add wraps an accepted socket in a connection, queues the initial offers
// and hands it to the command layer.
func (s *Service) Add(sock transport.Socket) *connection.Conn {
	cfg := s.config
	c := connection.New(connection.Config{
		Socket:             sock,
		Catalog:            s.catalog,
		ReportIntervals:    cfg.ReportIntervals,
		LegacyReporting:    cfg.LegacyReporting,
		MaxSubscriptions:   cfg.MaxSubscriptions,
		MaxLineLength:      cfg.MaxLineLength,
		MaxSubnegotiation:  cfg.MaxSubnegotiation,
		MaxOutput:          cfg.MaxOutput,
		CompressionEnabled: cfg.Compression,
		CompressionLevel:   cfg.CompressionLevel,
		CompressionVersion: cfg.CompressionVersion,
		MarkupEnabled:      cfg.Markup,
		OfferUTF8:          cfg.OfferUTF8,
		SoundEnabled:       cfg.Sound,
		Status:             s.statusVars,
		Tap:                s.tap,
		KeepAlive: transport.KeepAliveConfig{
			ProbeInterval: orDisabled(cfg.KeepAliveInterval),
			IdleTimeout:   orDisabled(cfg.IdleTimeout),
		},
		Logger:         cfg.Logger,
		ProtocolLogger: cfg.ProtocolLogger,
		Now:            cfg.Now,
	})
	s.conns.Add(c, cfg.Now())
	c.Start()

	s.info("connection accepted", "conn", c.ID(), "remote", c.RemoteAddr())
	if s.hosts != nil {
		if host, ok := s.hosts.Lookup(s.ctx, c.ID(), c.RemoteAddr()); ok {
			c.SetHost(host)
		}
	}
	s.handler.Connected(c)
	return c
}

// Disconnect tears a connection down. Queued output, including anything
// the command layer enqueues from Disconnected, is flushed best-effort.
func (s *Service) Disconnect(c *connection.Conn, reason string) {
	s.drop(c, reason)
}

func (s *Service) drop(c *connection.Conn, reason string) {
	if _, ok := s.conns.Get(c.ID()); !ok {
		return
	}
	if !c.Closed() {
		s.handler.Disconnected(c, reason)
	}

	for _, id := range s.spies.Sever(c.ID()) {
		if o, ok := s.conns.Get(id); ok {
			o.Observe(fmt.Sprintf("\n^y[%s disconnected; observation ended.]^x\n", c.Host()))
		}
	}

	if err := c.Close(reason); err != nil {
		s.debug("close failed", "conn", c.ID(), "error", err)
	}
	s.conns.Remove(c.ID())
}

// Addrs returns the bound listener addresses.
func (s *Service) Addrs() []string {
	out := make([]string, 0, len(s.listeners))
	for _, l := range s.listeners {
		if addr := l.Addr(); addr != nil {
			out = append(out, addr.String())
		}
	}
	return out
}

// Find returns the open connection with id.
func (s *Service) Find(id string) (*connection.Conn, bool) {
	return s.conns.Get(id)
}

// Connections returns the open connections in accept order.
func (s *Service) Connections() []*connection.Conn {
	return s.conns.List()
}

// Count returns the number of open connections.
func (s *Service) Count() int {
	return s.conns.Len()
}

// Players returns the number of connections with an authenticated session.
func (s *Service) Players() int {
	n := 0
	for _, c := range s.conns.List() {
		if sess := c.Session(); sess != nil && sess.Authenticated() {
			n++
		}
	}
	return n
}

// Broadcast queues text for every playing connection and returns how many
// received it.
func (s *Service) Broadcast(text string) int {
	n := 0
	for _, c := range s.conns.List() {
		if c.Mode() == connection.ModePlaying {
			c.Enqueue(text)
			n++
		}
	}
	return n
}

// Uptime returns the time since Start.
func (s *Service) Uptime() time.Duration {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	return s.config.Now().Sub(started)
}

func (s *Service) advertise() error {
	if s.advertiser == nil {
		adv := s.config.Advertiser
		if adv == nil {
			cfg := discovery.DefaultAdvertiserConfig()
			cfg.Interface = s.config.DiscoveryInterface
			mdns, err := discovery.NewMDNSAdvertiser(cfg)
			if err != nil {
				return err
			}
			adv = mdns
		}
		s.advertiser = adv
	}
	s.advertisedPlayers = s.Players()
	return s.advertiser.Advertise(s.ctx, s.serverInfo())
}

// updateAdvertisement refreshes the player count in the TXT records.
func (s *Service) updateAdvertisement() {
	if s.advertiser == nil {
		return
	}
	players := s.Players()
	if players == s.advertisedPlayers {
		return
	}
	s.advertisedPlayers = players
	if err := s.advertiser.Update(s.serverInfo()); err != nil {
		s.debug("mDNS update failed", "error", err)
	}
}

func (s *Service) serverInfo() *discovery.ServerInfo {
	info := &discovery.ServerInfo{
		Instance: s.config.DiscoveryInstance,
		Name:     s.config.Status.Name,
		Codebase: s.config.Status.Codebase,
		Players:  s.advertisedPlayers,
	}
	for _, l := range s.listeners {
		port := uint16(transport.PortOf(l.Addr()))
		if l.TLS() {
			info.TLSPort = port
		} else if info.Port == 0 {
			info.Port = port
		}
	}
	if info.Port == 0 {
		info.Port = uint16(s.config.Status.Port)
	}
	if s.config.OfferUTF8 {
		info.Charsets = append(info.Charsets, "UTF-8")
	}
	info.Charsets = append(info.Charsets, "ISO-8859-1")
	if s.catalog != nil {
		info.Reporting = append(info.Reporting, "MSDP")
		if s.config.LegacyReporting {
			info.Reporting = append(info.Reporting, "ATCP")
		}
	}
	return info
}

// orDisabled maps zero, which the keep-alive tracker treats as "default",
// to a negative duration that disables the check.
func orDisabled(d time.Duration) time.Duration {
	if d == 0 {
		return -1
	}
	return d
}

func (s *Service) info(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}

func (s *Service) warn(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Warn(msg, args...)
	}
}

func (s *Service) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
