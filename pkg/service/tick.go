package service

import (
	"github.com/RealmsMud/RealmsCode-sub003/pkg/connection"
)

// loginTimeoutNotice is queued before a connection that never logged in is
// dropped.
const loginTimeoutNotice = "\n^yLogin timed out.^x\n"

// Tick runs one pass over every connection. It never blocks.
func (s *Service) Tick() {
	s.ticks++
	s.runCalls()
	s.acceptAll()
	s.applyHostnames()

	for _, c := range s.conns.List() {
		if err := c.Read(); err != nil {
			s.debug("read failed", "conn", c.ID(), "error", err)
			s.drop(c, "connection lost")
			continue
		}
		s.dispatch(c)
	}

	for _, c := range s.conns.List() {
		c.Tick()
	}

	s.reap()

	for _, c := range s.conns.List() {
		if _, err := c.Flush(); err != nil {
			s.debug("flush failed", "conn", c.ID(), "error", err)
			s.drop(c, "write failed")
		}
	}

	s.updateAdvertisement()
}

// Ticks returns the number of ticks run.
func (s *Service) Ticks() uint64 { return s.ticks }

func (s *Service) acceptAll() {
	for _, l := range s.listeners {
		for {
			sock, ok := l.Accept()
			if !ok {
				break
			}
			s.Add(sock)
		}
	}
}

// dispatch hands completed lines to the command layer by mode. The handler
// may change the mode or disconnect between lines.
func (s *Service) dispatch(c *connection.Conn) {
	for {
		if c.Closed() {
			return
		}
		line, ok := c.NextLine()
		if !ok {
			return
		}
		switch c.Mode() {
		case connection.ModeLogin:
			s.handler.Login(c, line)
		case connection.ModePlaying:
			s.handler.Command(c, line)
		case connection.ModeEditing:
			s.handler.Edit(c, line)
		case connection.ModeClosing:
			return
		}
	}
}

// reap sends keepalive probes and drops idle connections and connections
// that stayed at the login prompt too long.
func (s *Service) reap() {
	for _, c := range s.conns.List() {
		if c.KeepAlive() {
			c.Enqueue(s.config.Farewell)
			s.drop(c, "idle timeout")
		}
	}

	if s.config.LoginTimeout <= 0 {
		return
	}
	for _, c := range s.conns.Stale(connection.ModeLogin, s.config.LoginTimeout, s.config.Now()) {
		c.Enqueue(loginTimeoutNotice)
		s.drop(c, "login timeout")
	}
}

func (s *Service) applyHostnames() {
	if s.hosts == nil {
		return
	}
	for _, r := range s.hosts.Drain() {
		c, ok := s.conns.Get(r.connID)
		if !ok || r.host == "" {
			continue
		}
		c.SetHost(r.host)
		s.debug("hostname resolved", "conn", c.ID(), "host", r.host)
	}
}
