package discovery

import (
	"context"
	"time"
)

// Advertiser announces one telnet server under ServiceType.
//
// The service calls Advertise when its listeners are bound, Update whenever
// the player count or the reporting capabilities change, and Stop on
// shutdown.
type Advertiser interface {
	Advertise(ctx context.Context, info *ServerInfo) error
	Update(info *ServerInfo) error
	Stop() error
}

// Browser lists telnet servers on the local link. Browse closes its channel
// when ctx ends.
type Browser interface {
	Browse(ctx context.Context) (<-chan *Service, error)
	Stop()
}

// AdvertiserConfig controls the mDNS responder.
type AdvertiserConfig struct {
	// Interface restricts announcements to one interface; empty means all.
	Interface string

	// TTL of the published records. Zero keeps the responder default.
	TTL time.Duration
}

// BrowserConfig controls mDNS queries.
type BrowserConfig struct {
	// Interface restricts queries to one interface; empty means all.
	Interface string

	// BrowseTimeout bounds BrowseAll. Zero means BrowseTimeout.
	BrowseTimeout time.Duration
}

// DefaultAdvertiserConfig announces on every interface with DefaultTTL.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: DefaultTTL}
}

// DefaultBrowserConfig queries every interface for BrowseTimeout.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{BrowseTimeout: BrowseTimeout}
}

var (
	_ Advertiser = (*MDNSAdvertiser)(nil)
	_ Browser    = (*MDNSBrowser)(nil)
)
