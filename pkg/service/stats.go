package service

import (
	"time"
)

// Stats summarises the server.
type Stats struct {
	Connections int
	Players     int
	Observers   int
	Ticks       uint64
	Uptime      time.Duration

	BytesIn  uint64
	PlainOut uint64
	WireOut  uint64

	// Compressed is the number of connections that negotiated compression.
	Compressed int
	// Reporting is the number of connections with reporting active.
	Reporting int

	HostnamesCached int
}

// Ratio returns wire bytes per plain byte across all connections.
func (s Stats) Ratio() float64 {
	if s.PlainOut == 0 {
		return 0
	}
	return float64(s.WireOut) / float64(s.PlainOut)
}

// Stats returns aggregate counters. Call it on the tick goroutine.
func (s *Service) Stats() Stats {
	st := Stats{
		Players:   s.Players(),
		Observers: s.spies.Len(),
		Ticks:     s.ticks,
		Uptime:    s.Uptime(),
	}
	for _, c := range s.conns.List() {
		st.Connections++
		cs := c.Stats()
		st.BytesIn += cs.BytesIn
		st.PlainOut += cs.PlainOut
		st.WireOut += cs.WireOut
		if cs.Compression.Streams > 0 {
			st.Compressed++
		}
		if c.Reporting() {
			st.Reporting++
		}
	}
	if s.hosts != nil {
		st.HostnamesCached = s.hosts.Cached()
	}
	return st
}
