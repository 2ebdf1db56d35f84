package service

import (
	"sync"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/connection"
)

// connTracker holds the open connections in accept order, with the time
// each was accepted. The tick loop owns the connections; the mutex only
// guards the index so counts can be read from other goroutines.
type connTracker struct {
	mu    sync.Mutex
	order []string
	conns map[string]trackedConn
}

type trackedConn struct {
	conn  *connection.Conn
	added time.Time
}

// newConnTracker creates a new connection tracker.
func newConnTracker() *connTracker {
	return &connTracker{
		conns: make(map[string]trackedConn),
	}
}

// Add registers a connection accepted at now.
func (ct *connTracker) Add(c *connection.Conn, now time.Time) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if _, ok := ct.conns[c.ID()]; ok {
		return
	}
	ct.conns[c.ID()] = trackedConn{conn: c, added: now}
	ct.order = append(ct.order, c.ID())
}

// Remove deregisters a connection. Safe to call on absent connections.
func (ct *connTracker) Remove(id string) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	if _, ok := ct.conns[id]; !ok {
		return
	}
	delete(ct.conns, id)
	for i, o := range ct.order {
		if o == id {
			ct.order = append(ct.order[:i], ct.order[i+1:]...)
			break
		}
	}
}

// Get returns the connection with id.
func (ct *connTracker) Get(id string) (*connection.Conn, bool) {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	t, ok := ct.conns[id]
	return t.conn, ok
}

// List returns the connections in accept order.
func (ct *connTracker) List() []*connection.Conn {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	out := make([]*connection.Conn, 0, len(ct.order))
	for _, id := range ct.order {
		out = append(out, ct.conns[id].conn)
	}
	return out
}

// Stale returns the connections accepted before now-maxAge that are still
// in mode.
func (ct *connTracker) Stale(mode connection.Mode, maxAge time.Duration, now time.Time) []*connection.Conn {
	ct.mu.Lock()
	defer ct.mu.Unlock()

	cutoff := now.Add(-maxAge)
	var stale []*connection.Conn
	for _, id := range ct.order {
		t := ct.conns[id]
		if t.conn.Mode() == mode && t.added.Before(cutoff) {
			stale = append(stale, t.conn)
		}
	}
	return stale
}

// Len returns the number of tracked connections.
func (ct *connTracker) Len() int {
	ct.mu.Lock()
	defer ct.mu.Unlock()
	return len(ct.conns)
}
