package service

import (
	"context"
	"log/slog"
	"net"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// resultQueueSize bounds finished lookups waiting for the next tick.
const resultQueueSize = 256

type hostResult struct {
	connID string
	ip     string
	host   string
}

// hostnameResolver runs reverse lookups off the tick goroutine and caches
// answers by address. Failed lookups are cached as the bare address so a
// client without a PTR record is not looked up again on every connect.
type hostnameResolver struct {
	resolver Resolver
	timeout  time.Duration
	cache    *lru.Cache[string, string]
	results  chan hostResult
	logger   *slog.Logger
}

func newHostnameResolver(r Resolver, size int, timeout time.Duration, logger *slog.Logger) (*hostnameResolver, error) {
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, err
	}
	return &hostnameResolver{
		resolver: r,
		timeout:  timeout,
		cache:    cache,
		results:  make(chan hostResult, resultQueueSize),
		logger:   logger,
	}, nil
}

// Lookup returns the cached name of remote. On a miss it starts a lookup
// whose result is returned by a later Drain.
func (h *hostnameResolver) Lookup(ctx context.Context, connID, remote string) (string, bool) {
	ip := remote
	if host, _, err := net.SplitHostPort(remote); err == nil {
		ip = host
	}
	if ip == "" {
		return "", false
	}
	if host, ok := h.cache.Get(ip); ok {
		return host, true
	}

	go h.resolve(ctx, connID, ip)
	return "", false
}

func (h *hostnameResolver) resolve(ctx context.Context, connID, ip string) {
	lookupCtx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	host := ip
	names, err := h.resolver.LookupAddr(lookupCtx, ip)
	switch {
	case err != nil:
		if h.logger != nil {
			h.logger.Debug("reverse lookup failed", "ip", ip, "error", err)
		}
	case len(names) > 0:
		host = strings.TrimSuffix(names[0], ".")
	}

	select {
	case h.results <- hostResult{connID: connID, ip: ip, host: host}:
	case <-ctx.Done():
	}
}

// Drain returns the lookups finished since the last call and caches them.
func (h *hostnameResolver) Drain() []hostResult {
	var out []hostResult
	for {
		select {
		case r := <-h.results:
			h.cache.Add(r.ip, r.host)
			out = append(out, r)
		default:
			return out
		}
	}
}

// Cached returns the number of cached addresses.
func (h *hostnameResolver) Cached() int {
	return h.cache.Len()
}
