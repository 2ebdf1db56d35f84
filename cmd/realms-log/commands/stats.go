package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	EventsByOption    map[uint8]int
	Connections       map[string]*ConnectionStats
	Anomalies         int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// ConnectionStats holds statistics for a single connection.
type ConnectionStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	RemoteAddr string
	Player     string

	// Compressed is set once a compressed stream started.
	Compressed bool

	// ReportBytes counts reporting payload bytes sent to the client.
	ReportBytes int
}

// RunStats summarises the selected events of the capture at path.
func RunStats(path string, sel Selection, w io.Writer) error {
	f, err := sel.Filter()
	if err != nil {
		return err
	}
	stats, err := collectStats(path, f)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		EventsByOption:    make(map[uint8]int),
		Connections:       make(map[string]*ConnectionStats),
	}
}

func collectStats(path string, f log.Filter) (*Stats, error) {
	stats := newStats()
	err := log.Scan(path, f, func(ev log.Event) error {
		stats.add(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func (s *Stats) add(ev log.Event) {
	s.TotalEvents++
	s.EventsByLayer[ev.Layer]++
	s.EventsByCategory[ev.Category]++
	s.EventsByDirection[ev.Direction]++
	if opt, ok := ev.OptionCode(); ok {
		s.EventsByOption[opt]++
	}
	if ev.Anomaly != nil {
		s.Anomalies++
	}

	if s.TimeRange.Start.IsZero() || ev.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = ev.Timestamp
	}
	if ev.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = ev.Timestamp
	}

	conn := s.Connections[ev.ConnectionID]
	if conn == nil {
		conn = &ConnectionStats{FirstSeen: ev.Timestamp, LastSeen: ev.Timestamp}
		s.Connections[ev.ConnectionID] = conn
	}
	conn.add(ev)
}

func (c *ConnectionStats) add(ev log.Event) {
	c.Events++
	if ev.Timestamp.After(c.LastSeen) {
		c.LastSeen = ev.Timestamp
	}
	if c.RemoteAddr == "" {
		c.RemoteAddr = ev.RemoteAddr
	}
	if ev.Player != "" {
		c.Player = ev.Player
	}
	if sc := ev.StateChange; sc != nil && sc.Entity == log.StateEntityCompression {
		c.Compressed = true
	}
	if sb := ev.Subnegotiation; sb != nil && ev.Layer == log.LayerReporting && ev.Direction == log.DirectionOut {
		c.ReportBytes += sb.Size
	}
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Realms Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerTelnet, log.LayerReporting, log.LayerService} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryNegotiation, log.CategorySubnegotiation, log.CategoryState, log.CategoryAnomaly, log.CategoryData} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.EventsByOption) > 0 {
		opts := make([]int, 0, len(stats.EventsByOption))
		for o := range stats.EventsByOption {
			opts = append(opts, int(o))
		}
		sort.Ints(opts)
		fmt.Fprintln(w, "Events by Option:")
		for _, o := range opts {
			fmt.Fprintf(w, "  %-16s %d\n", telnet.OptionName(byte(o))+":", stats.EventsByOption[uint8(o)])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Connections: %d\n", len(stats.Connections))
	if len(stats.Connections) > 0 {
		type connInfo struct {
			id    string
			stats *ConnectionStats
		}
		conns := make([]connInfo, 0, len(stats.Connections))
		for id, cs := range stats.Connections {
			conns = append(conns, connInfo{id, cs})
		}
		sort.Slice(conns, func(i, j int) bool {
			return conns[i].stats.FirstSeen.Before(conns[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, c := range conns {
			duration := c.stats.LastSeen.Sub(c.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenConnID(c.id), c.stats.Events, duration)
			if c.stats.RemoteAddr != "" {
				fmt.Fprintf(w, "           Address: %s\n", c.stats.RemoteAddr)
			}
			if c.stats.Player != "" {
				fmt.Fprintf(w, "           Player: %s\n", c.stats.Player)
			}
			if c.stats.Compressed {
				fmt.Fprintln(w, "           Compressed: yes")
			}
			if c.stats.ReportBytes > 0 {
				fmt.Fprintf(w, "           Reported: %d bytes\n", c.stats.ReportBytes)
			}
		}
	}

	if stats.Anomalies > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Anomalies: %d\n", stats.Anomalies)
	}
}
