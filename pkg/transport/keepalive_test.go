package transport

import (
	"testing"
	"time"
)

func TestKeepAliveProbeDue(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ka := NewKeepAlive(KeepAliveConfig{ProbeInterval: time.Minute, IdleTimeout: time.Hour}, start)

	if ka.ProbeDue(start.Add(59 * time.Second)) {
		t.Error("probe due before interval")
	}
	if !ka.ProbeDue(start.Add(time.Minute)) {
		t.Error("probe not due after interval")
	}
	if ka.ProbeDue(start.Add(90 * time.Second)) {
		t.Error("probe due again before a full interval since the last probe")
	}
	if !ka.ProbeDue(start.Add(2 * time.Minute)) {
		t.Error("second probe not due")
	}

	if got := ka.Stats().Probes; got != 2 {
		t.Errorf("Probes = %d, want 2", got)
	}
}

func TestKeepAliveTouchResetsProbe(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ka := NewKeepAlive(KeepAliveConfig{ProbeInterval: time.Minute}, start)

	ka.Touch(start.Add(50 * time.Second))

	if ka.ProbeDue(start.Add(70 * time.Second)) {
		t.Error("probe due although input arrived recently")
	}
	if !ka.ProbeDue(start.Add(110 * time.Second)) {
		t.Error("probe not due a full interval after input")
	}
}

func TestKeepAliveIdle(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ka := NewKeepAlive(KeepAliveConfig{IdleTimeout: 10 * time.Minute}, start)

	if ka.Idle(start.Add(9 * time.Minute)) {
		t.Error("idle before timeout")
	}
	if !ka.Idle(start.Add(10 * time.Minute)) {
		t.Error("not idle at timeout")
	}
	if got := ka.IdleFor(start.Add(3 * time.Minute)); got != 3*time.Minute {
		t.Errorf("IdleFor = %v, want 3m", got)
	}
}

func TestKeepAliveDisabled(t *testing.T) {
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	ka := NewKeepAlive(KeepAliveConfig{ProbeInterval: -1, IdleTimeout: -1}, start)

	later := start.Add(24 * time.Hour)
	if ka.ProbeDue(later) {
		t.Error("probe due with probes disabled")
	}
	if ka.Idle(later) {
		t.Error("idle with idle timeout disabled")
	}
}

func TestDefaultKeepAliveConfig(t *testing.T) {
	cfg := DefaultKeepAliveConfig()
	if cfg.ProbeInterval != DefaultProbeInterval || cfg.IdleTimeout != DefaultIdleTimeout {
		t.Errorf("DefaultKeepAliveConfig() = %+v", cfg)
	}
}
