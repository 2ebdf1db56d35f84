package transport

import "time"

// Keep-alive constants.
const (
	// DefaultProbeInterval is the default interval of input silence after
	// which an IAC NOP probe is sent.
	DefaultProbeInterval = 60 * time.Second

	// DefaultIdleTimeout is the default input silence after which a
	// connection is dropped.
	DefaultIdleTimeout = 30 * time.Minute
)

// KeepAliveConfig configures keep-alive behavior. A negative duration
// disables that check.
type KeepAliveConfig struct {
	// ProbeInterval is the silence between probes.
	ProbeInterval time.Duration

	// IdleTimeout is the silence after which the connection is idle.
	IdleTimeout time.Duration
}

// DefaultKeepAliveConfig returns the default keep-alive configuration.
func DefaultKeepAliveConfig() KeepAliveConfig {
	return KeepAliveConfig{
		ProbeInterval: DefaultProbeInterval,
		IdleTimeout:   DefaultIdleTimeout,
	}
}

// KeepAliveStats contains keep-alive statistics.
type KeepAliveStats struct {
	Probes    uint64
	LastInput time.Time
	LastProbe time.Time
}

// KeepAlive tracks liveness of one connection. It is driven by the tick
// loop and never starts timers of its own.
type KeepAlive struct {
	config KeepAliveConfig

	lastInput time.Time
	lastProbe time.Time
	probes    uint64
}

// NewKeepAlive creates a keep-alive tracker; now counts as the last input.
func NewKeepAlive(config KeepAliveConfig, now time.Time) *KeepAlive {
	if config.ProbeInterval == 0 {
		config.ProbeInterval = DefaultProbeInterval
	}
	if config.IdleTimeout == 0 {
		config.IdleTimeout = DefaultIdleTimeout
	}
	return &KeepAlive{config: config, lastInput: now}
}

// Touch records input from the peer.
func (ka *KeepAlive) Touch(now time.Time) {
	ka.lastInput = now
}

// ProbeDue reports whether a probe should be sent now, and records it.
func (ka *KeepAlive) ProbeDue(now time.Time) bool {
	if ka.config.ProbeInterval < 0 {
		return false
	}
	last := ka.lastInput
	if ka.lastProbe.After(last) {
		last = ka.lastProbe
	}
	if now.Sub(last) < ka.config.ProbeInterval {
		return false
	}
	ka.lastProbe = now
	ka.probes++
	return true
}

// Idle reports whether the peer has been silent past the idle timeout.
func (ka *KeepAlive) Idle(now time.Time) bool {
	return ka.config.IdleTimeout >= 0 && now.Sub(ka.lastInput) >= ka.config.IdleTimeout
}

// IdleFor returns the time since the last input.
func (ka *KeepAlive) IdleFor(now time.Time) time.Duration {
	return now.Sub(ka.lastInput)
}

// Stats returns keep-alive statistics.
func (ka *KeepAlive) Stats() KeepAliveStats {
	return KeepAliveStats{
		Probes:    ka.probes,
		LastInput: ka.lastInput,
		LastProbe: ka.lastProbe,
	}
}
