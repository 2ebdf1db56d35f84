// Package config loads the server configuration.
//
// The built-in defaults are embedded from defaults.yaml. Load decodes a user
// file over them, so a user file only names the keys it changes.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the server configuration.
type Config struct {
	Listen            string        `yaml:"listen"`
	Tick              time.Duration `yaml:"tick"`
	MaxConnections    int           `yaml:"max_connections"`
	MaxLineLength     int           `yaml:"max_line_length"`
	MaxOutput         int           `yaml:"max_output"`
	IdleTimeout       time.Duration `yaml:"idle_timeout"`
	KeepAliveInterval time.Duration `yaml:"keepalive_interval"`
	LoginTimeout      time.Duration `yaml:"login_timeout"`

	TLS         TLSConfig         `yaml:"tls"`
	Compression CompressionConfig `yaml:"compression"`
	Markup      ToggleConfig      `yaml:"markup"`
	Sound       ToggleConfig      `yaml:"sound"`
	Charset     CharsetConfig     `yaml:"charset"`
	Reporting   ReportingConfig   `yaml:"reporting"`
	Status      StatusConfig      `yaml:"status"`
	Spy         SpyConfig         `yaml:"spy"`
	Hostname    HostnameConfig    `yaml:"hostname"`
	Log         LogConfig         `yaml:"log"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
}

// TLSConfig configures the optional TLS listener.
type TLSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	Cert    string `yaml:"cert"`
	Key     string `yaml:"key"`
}

// CompressionConfig configures output compression.
type CompressionConfig struct {
	Enabled bool `yaml:"enabled"`
	Level   int  `yaml:"level"`
	// Version is the highest protocol version offered (1 or 2).
	Version int `yaml:"version"`
}

// ToggleConfig is a feature switch.
type ToggleConfig struct {
	Enabled bool `yaml:"enabled"`
}

// CharsetConfig configures charset negotiation.
type CharsetConfig struct {
	OfferUTF8 bool   `yaml:"offer_utf8"`
	Fallback  string `yaml:"fallback"`
}

// ReportingConfig configures structured variable reporting.
type ReportingConfig struct {
	Enabled          bool           `yaml:"enabled"`
	Legacy           bool           `yaml:"legacy"`
	MaxSubscriptions int            `yaml:"max_subscriptions"`
	Intervals        map[string]int `yaml:"intervals"`
}

// StatusConfig holds the values sent on a status request.
type StatusConfig struct {
	Name     string            `yaml:"name"`
	Codebase string            `yaml:"codebase"`
	Contact  string            `yaml:"contact"`
	Website  string            `yaml:"website"`
	Language string            `yaml:"language"`
	Port     int               `yaml:"port"`
	Extra    map[string]string `yaml:"extra"`
}

// SpyConfig configures observers.
type SpyConfig struct {
	// Backlog is the number of output bytes replayed to a new observer.
	Backlog int `yaml:"backlog"`
}

// HostnameConfig configures reverse lookups of client addresses.
type HostnameConfig struct {
	Resolve   bool `yaml:"resolve"`
	CacheSize int  `yaml:"cache_size"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
	// ProtocolLog is the path of the protocol capture file; empty disables it.
	ProtocolLog string `yaml:"protocol_log"`
}

// DiscoveryConfig configures mDNS advertisement.
type DiscoveryConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Instance  string `yaml:"instance"`
	Interface string `yaml:"interface"`
}

// Default returns the embedded defaults.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Parse decodes data over the embedded defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parse defaults: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the file at path over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("%w: listen %q: %v", ErrInvalidConfig, c.Listen, err)
	}
	if c.Tick <= 0 {
		return fmt.Errorf("%w: tick must be positive", ErrInvalidConfig)
	}
	if c.MaxConnections < 1 {
		return fmt.Errorf("%w: max_connections must be at least 1", ErrInvalidConfig)
	}
	if c.MaxLineLength < 1 {
		return fmt.Errorf("%w: max_line_length must be at least 1", ErrInvalidConfig)
	}
	if c.MaxOutput < 0 || c.IdleTimeout < 0 || c.KeepAliveInterval < 0 || c.LoginTimeout < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidConfig)
	}
	if c.TLS.Enabled {
		if c.TLS.Cert == "" || c.TLS.Key == "" {
			return fmt.Errorf("%w: tls requires cert and key", ErrInvalidConfig)
		}
		if _, _, err := net.SplitHostPort(c.TLS.Listen); err != nil {
			return fmt.Errorf("%w: tls.listen %q: %v", ErrInvalidConfig, c.TLS.Listen, err)
		}
	}
	if c.Compression.Level < -1 || c.Compression.Level > 9 {
		return fmt.Errorf("%w: compression.level %d out of range", ErrInvalidConfig, c.Compression.Level)
	}
	if c.Compression.Version != 1 && c.Compression.Version != 2 {
		return fmt.Errorf("%w: compression.version must be 1 or 2", ErrInvalidConfig)
	}
	switch strings.ToUpper(c.Charset.Fallback) {
	case "ISO-8859-1", "LATIN1":
	default:
		return fmt.Errorf("%w: unsupported charset.fallback %q", ErrInvalidConfig, c.Charset.Fallback)
	}
	if c.Reporting.MaxSubscriptions < 0 {
		return fmt.Errorf("%w: reporting.max_subscriptions is negative", ErrInvalidConfig)
	}
	for name, n := range c.Reporting.Intervals {
		if n < 1 {
			return fmt.Errorf("%w: reporting interval for %s must be at least 1", ErrInvalidConfig, name)
		}
	}
	if c.Spy.Backlog < 0 {
		return fmt.Errorf("%w: spy.backlog is negative", ErrInvalidConfig)
	}
	if c.Hostname.Resolve && c.Hostname.CacheSize < 1 {
		return fmt.Errorf("%w: hostname.cache_size must be at least 1", ErrInvalidConfig)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Discovery.Enabled && c.Discovery.Instance == "" {
		return fmt.Errorf("%w: discovery.instance is empty", ErrInvalidConfig)
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("%w: unknown log level %q", ErrInvalidConfig, s)
}

// Port returns the numeric port of the plain listener, or 0.
func (c *Config) Port() int {
	_, p, err := net.SplitHostPort(c.Listen)
	if err != nil {
		return 0
	}
	var port int
	if _, err := fmt.Sscanf(p, "%d", &port); err != nil {
		return 0
	}
	return port
}
