package discovery

import (
	"errors"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD type of the telnet service.
	ServiceType = "_telnet._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default telnet port.
	DefaultPort = 4000
)

// TXT record key constants.
const (
	TXTKeyName      = "N"
	TXTKeyCodebase  = "CB"
	TXTKeyPlayers   = "PL"
	TXTKeyTLSPort   = "TLS"
	TXTKeyCharsets  = "CS"
	TXTKeyReporting = "RP"
)

// Timing constants.
const (
	// DefaultTTL is the DNS record TTL.
	DefaultTTL = 120 * time.Second

	// BrowseTimeout is the default browse duration.
	BrowseTimeout = 10 * time.Second
)

const (
	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// Discovery errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotAdvertising      = errors.New("service not advertised")
)

// ServerInfo describes an advertised telnet server.
type ServerInfo struct {
	// Instance is the DNS-SD instance name. Defaults to Name.
	Instance string

	Name     string
	Codebase string
	Port     uint16
	TLSPort  uint16
	Players  int

	Charsets  []string
	Reporting []string
}

// InstanceName returns the instance name to register, clipped to the DNS
// label limit.
func (i *ServerInfo) InstanceName() string {
	name := i.Instance
	if name == "" {
		name = i.Name
	}
	if len(name) > MaxInstanceNameLen {
		name = name[:MaxInstanceNameLen]
	}
	return name
}

// Service is a server found by browsing.
type Service struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	Info ServerInfo
}
