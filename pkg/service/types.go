package service

import (
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/compress"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/config"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/discovery"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/msdp"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/spy"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/transport"
)

// Service errors.
var (
	ErrNotStarted        = errors.New("service not started")
	ErrAlreadyStarted    = errors.New("service already started")
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrStopped           = errors.New("service stopped")
)

// ServiceState represents the service state.
type ServiceState uint8

const (
	// StateIdle - service created but not started.
	StateIdle ServiceState = iota

	// StateRunning - listeners are open and ticks are served.
	StateRunning

	// StateStopping - connections are being closed.
	StateStopping

	// StateStopped - service has stopped.
	StateStopped
)

// String returns the state name.
func (s ServiceState) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateStopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Defaults.
const (
	DefaultTick              = 100 * time.Millisecond
	DefaultIdleTimeout       = 30 * time.Minute
	DefaultKeepAliveInterval = time.Minute
	DefaultLoginTimeout      = 5 * time.Minute
	DefaultMaxLineLength     = 2048
	DefaultMaxSubnegotiation = 8192
	DefaultMaxOutput         = 1 << 20
	DefaultHostnameCacheSize = 1024
	DefaultResolveTimeout    = 5 * time.Second
	DefaultBindRetries       = 5

	// DefaultFarewell is queued before an idle connection is dropped.
	DefaultFarewell = "\n^yIdle timeout. Goodbye.^x\n"
)

// StatusInfo holds the static server status values.
type StatusInfo struct {
	Name     string
	Codebase string
	Contact  string
	Website  string
	Language string
	Port     int
	Extra    map[string]string
}

// Config configures the service.
type Config struct {
	// Listen is the plain telnet address. Empty disables it.
	Listen string
	// TLSListen is the TLS address, used when TLS is set.
	TLSListen string
	TLS       *tls.Config

	Tick           time.Duration
	MaxConnections int
	BindRetries    int

	MaxLineLength     int
	MaxSubnegotiation int
	MaxOutput         int

	// IdleTimeout and KeepAliveInterval of zero disable that check.
	IdleTimeout       time.Duration
	KeepAliveInterval time.Duration
	// LoginTimeout bounds how long a connection may stay at the login
	// prompt. Zero disables it.
	LoginTimeout time.Duration

	Compression        bool
	CompressionLevel   int
	CompressionVersion compress.Version
	Markup             bool
	Sound              bool
	OfferUTF8          bool

	Reporting        bool
	LegacyReporting  bool
	MaxSubscriptions int
	ReportIntervals  map[string]int
	// Catalog replaces the default catalog when set. CatalogEntries are
	// added to the default catalog otherwise.
	Catalog        *msdp.Catalog
	CatalogEntries []msdp.Entry

	Status StatusInfo

	SpyBacklog int

	ResolveHostnames  bool
	HostnameCacheSize int
	ResolveTimeout    time.Duration
	Resolver          Resolver

	Discovery          bool
	DiscoveryInstance  string
	DiscoveryInterface string
	Advertiser         discovery.Advertiser

	Farewell string

	// Logger receives operational messages; nil is silent.
	Logger *slog.Logger
	// ProtocolLogger receives protocol events; nil disables capture.
	ProtocolLogger log.Logger

	// Now returns the current time; nil uses time.Now.
	Now func() time.Time
}

// DefaultConfig returns a configuration with the package defaults.
func DefaultConfig() Config {
	return Config{
		Listen:            fmt.Sprintf(":%d", transport.DefaultPort),
		Tick:              DefaultTick,
		MaxConnections:    transport.DefaultMaxConnections,
		BindRetries:       DefaultBindRetries,
		MaxLineLength:     DefaultMaxLineLength,
		MaxSubnegotiation: DefaultMaxSubnegotiation,
		MaxOutput:         DefaultMaxOutput,
		IdleTimeout:       DefaultIdleTimeout,
		KeepAliveInterval: DefaultKeepAliveInterval,
		LoginTimeout:      DefaultLoginTimeout,
		Compression:       true,
		CompressionLevel:  6,
		Markup:            true,
		Sound:             true,
		OfferUTF8:         true,
		Reporting:         true,
		LegacyReporting:   true,
		Status: StatusInfo{
			Name:     "Realms",
			Codebase: "RealmsCode",
			Language: "English",
			Port:     transport.DefaultPort,
		},
		SpyBacklog:        spy.DefaultBacklog,
		ResolveHostnames:  true,
		HostnameCacheSize: DefaultHostnameCacheSize,
		ResolveTimeout:    DefaultResolveTimeout,
		Farewell:          DefaultFarewell,
	}
}

// FromFile maps a loaded configuration file onto a service configuration.
func FromFile(c *config.Config) Config {
	cfg := DefaultConfig()
	cfg.Listen = c.Listen
	cfg.Tick = c.Tick
	cfg.MaxConnections = c.MaxConnections
	cfg.MaxLineLength = c.MaxLineLength
	cfg.MaxOutput = c.MaxOutput
	cfg.IdleTimeout = c.IdleTimeout
	cfg.KeepAliveInterval = c.KeepAliveInterval
	cfg.LoginTimeout = c.LoginTimeout

	if c.TLS.Enabled {
		cfg.TLSListen = c.TLS.Listen
	}

	cfg.Compression = c.Compression.Enabled
	cfg.CompressionLevel = c.Compression.Level
	cfg.CompressionVersion = compress.Version(c.Compression.Version)
	cfg.Markup = c.Markup.Enabled
	cfg.Sound = c.Sound.Enabled
	cfg.OfferUTF8 = c.Charset.OfferUTF8

	cfg.Reporting = c.Reporting.Enabled
	cfg.LegacyReporting = c.Reporting.Legacy
	cfg.MaxSubscriptions = c.Reporting.MaxSubscriptions
	cfg.ReportIntervals = c.Reporting.Intervals

	cfg.Status = StatusInfo{
		Name:     c.Status.Name,
		Codebase: c.Status.Codebase,
		Contact:  c.Status.Contact,
		Website:  c.Status.Website,
		Language: c.Status.Language,
		Port:     c.Status.Port,
		Extra:    c.Status.Extra,
	}

	cfg.SpyBacklog = c.Spy.Backlog
	cfg.ResolveHostnames = c.Hostname.Resolve
	cfg.HostnameCacheSize = c.Hostname.CacheSize

	cfg.Discovery = c.Discovery.Enabled
	cfg.DiscoveryInstance = c.Discovery.Instance
	cfg.DiscoveryInterface = c.Discovery.Interface
	return cfg
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Listen == "" && c.TLS == nil {
		return fmt.Errorf("%w: no listener configured", ErrInvalidConfig)
	}
	if c.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Listen); err != nil {
			return fmt.Errorf("%w: listen %q: %v", ErrInvalidConfig, c.Listen, err)
		}
	}
	if c.TLS != nil && c.TLSListen == "" {
		return fmt.Errorf("%w: TLS configured without an address", ErrInvalidConfig)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive", ErrInvalidConfig)
	}
	if c.MaxConnections < 0 || c.MaxLineLength < 0 || c.MaxSubnegotiation < 0 || c.MaxOutput < 0 || c.SpyBacklog < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidConfig)
	}
	if c.IdleTimeout < 0 || c.KeepAliveInterval < 0 || c.LoginTimeout < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidConfig)
	}
	switch c.CompressionVersion {
	case compress.VersionNone, compress.V1, compress.V2:
	default:
		return fmt.Errorf("%w: compression version %d", ErrInvalidConfig, c.CompressionVersion)
	}
	if c.Discovery && c.DiscoveryInstance == "" && c.Status.Name == "" {
		return fmt.Errorf("%w: discovery needs an instance or server name", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.MaxLineLength == 0 {
		c.MaxLineLength = DefaultMaxLineLength
	}
	if c.MaxSubnegotiation == 0 {
		c.MaxSubnegotiation = DefaultMaxSubnegotiation
	}
	if c.HostnameCacheSize <= 0 {
		c.HostnameCacheSize = DefaultHostnameCacheSize
	}
	if c.ResolveTimeout <= 0 {
		c.ResolveTimeout = DefaultResolveTimeout
	}
	if c.Resolver == nil {
		c.Resolver = net.DefaultResolver
	}
	if c.Farewell == "" {
		c.Farewell = DefaultFarewell
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}
