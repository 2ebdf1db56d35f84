package discovery

import (
	"context"
	"fmt"
	"net"
	"slices"
	"sync"

	"github.com/enbility/zeroconf/v3"
)

// MDNSAdvertiser implements the Advertiser interface using zeroconf.
type MDNSAdvertiser struct {
	config AdvertiserConfig

	mu     sync.Mutex
	server *zeroconf.Server
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) (*MDNSAdvertiser, error) {
	if config.TTL < 0 {
		return nil, fmt.Errorf("negative TTL")
	}
	return &MDNSAdvertiser{config: config}, nil
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	return selectInterface(a.config.Interface)
}

// Advertise starts advertising the telnet service.
func (a *MDNSAdvertiser) Advertise(ctx context.Context, info *ServerInfo) error {
	instanceName := info.InstanceName()
	if err := ValidateInstanceName(instanceName); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}

	txtStrings := TXTRecordsToStrings(EncodeServerTXT(info))

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	var opts []zeroconf.ServerOption
	if a.config.TTL > 0 {
		opts = append(opts, zeroconf.TTL(uint32(a.config.TTL.Seconds())))
	}

	server, err := zeroconf.Register(
		instanceName,
		ServiceType,
		Domain,
		port,
		txtStrings,
		a.getInterfaces(),
		opts...,
	)
	if err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	a.server = server
	return nil
}

// Update updates the TXT records of the advertised service.
func (a *MDNSAdvertiser) Update(info *ServerInfo) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server == nil {
		return ErrNotAdvertising
	}
	a.server.SetText(TXTRecordsToStrings(EncodeServerTXT(info)))
	return nil
}

// Stop withdraws the advertisement. Stopping an idle advertiser is a no-op.
func (a *MDNSAdvertiser) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	return nil
}

// Advertising reports whether a registration is active.
func (a *MDNSAdvertiser) Advertising() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.server != nil
}

// MDNSBrowser implements the Browser interface using zeroconf.
type MDNSBrowser struct {
	config BrowserConfig

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) (*MDNSBrowser, error) {
	if config.BrowseTimeout == 0 {
		config.BrowseTimeout = BrowseTimeout
	}
	return &MDNSBrowser{config: config}, nil
}

// Browse searches for telnet servers. Services are aggregated by instance
// name: addresses seen on several interfaces are merged into one entry, and
// an entry is forgotten once all its addresses are removed.
func (b *MDNSBrowser) Browse(ctx context.Context) (<-chan *Service, error) {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return nil, fmt.Errorf("browser stopped")
	}
	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.mu.Unlock()

	out := make(chan *Service)
	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	go func() {
		defer close(out)
		aggregate(ctx, entries, removed, out)
	}()

	opts := b.browserOptions()
	go func() {
		_ = zeroconf.Browse(ctx, ServiceType, Domain, entries, removed, opts...)
	}()

	return out, nil
}

// BrowseAll collects every server found within the browse timeout.
func (b *MDNSBrowser) BrowseAll(ctx context.Context) ([]*Service, error) {
	ctx, cancel := context.WithTimeout(ctx, b.config.BrowseTimeout)
	defer cancel()

	results, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}
	var found []*Service
	for svc := range results {
		found = append(found, svc)
	}
	return found, nil
}

// Stop stops all active browsing operations.
func (b *MDNSBrowser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	if b.cancel != nil {
		b.cancel()
	}
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption
	if ifaces := selectInterface(b.config.Interface); ifaces != nil {
		opts = append(opts, zeroconf.SelectIfaces(ifaces))
	}
	return opts
}

// aggregate converts zeroconf entries into services until ctx is done or
// entries is closed.
func aggregate(ctx context.Context, entries, removed <-chan *zeroconf.ServiceEntry, out chan<- *Service) {
	services := make(map[string]*Service)

	for {
		select {
		case entry, ok := <-entries:
			if !ok {
				return
			}
			svc := entryToService(entry)
			if svc == nil {
				continue
			}

			existing, found := services[svc.InstanceName]
			if found {
				existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
				continue
			}
			services[svc.InstanceName] = svc
			select {
			case out <- svc:
			case <-ctx.Done():
				return
			}

		case entry, ok := <-removed:
			if !ok {
				removed = nil
				continue
			}
			if existing, found := services[entry.Instance]; found {
				existing.Addresses = removeAddresses(existing.Addresses, entry)
				if len(existing.Addresses) == 0 {
					delete(services, entry.Instance)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// entryToService converts a zeroconf entry to a Service. Entries whose TXT
// records do not describe a server are skipped.
func entryToService(entry *zeroconf.ServiceEntry) *Service {
	info, err := DecodeServerTXT(StringsToTXTRecords(entry.Text))
	if err != nil {
		return nil
	}
	info.Instance = entry.Instance
	info.Port = uint16(entry.Port)

	return &Service{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    entryAddresses(entry),
		Info:         *info,
	}
}

func entryAddresses(entry *zeroconf.ServiceEntry) []string {
	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}
	return addrs
}

// mergeAddresses appends the addresses not already listed.
func mergeAddresses(existing, added []string) []string {
	for _, addr := range added {
		if !slices.Contains(existing, addr) {
			existing = append(existing, addr)
		}
	}
	return existing
}

// removeAddresses drops the addresses a goodbye packet withdrew.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	gone := entryAddresses(entry)
	return slices.DeleteFunc(slices.Clone(addresses), func(addr string) bool {
		return slices.Contains(gone, addr)
	})
}

func selectInterface(name string) []net.Interface {
	if name == "" {
		return nil
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}
