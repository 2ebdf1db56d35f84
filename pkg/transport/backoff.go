package transport

import (
	"context"
	"math/rand/v2"
	"time"
)

// Defaults for BindPolicy.
const (
	DefaultBindWait   = 250 * time.Millisecond
	DefaultBindCap    = 10 * time.Second
	DefaultBindJitter = 0.25
)

// BindPolicy spaces out listen attempts. A restarted server may find its
// port still held by the previous process for a few seconds.
type BindPolicy struct {
	// Retries after the first failed attempt. Zero tries once.
	Retries int

	// First is the pause before the first retry; each later pause doubles,
	// up to Cap.
	First time.Duration
	Cap   time.Duration

	// Jitter adds up to this fraction of the pause, at random.
	Jitter float64

	// OnRetry, when set, is told about each failure that will be retried.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Wait returns the pause before retry n (counting from zero), without jitter.
func (p BindPolicy) Wait(n int) time.Duration {
	first, limit := p.First, p.Cap
	if first <= 0 {
		first = DefaultBindWait
	}
	if limit <= 0 {
		limit = DefaultBindCap
	}
	d := first
	for i := 0; i < n && d < limit; i++ {
		d *= 2
	}
	return min(d, limit)
}

func (p BindPolicy) jittered(n int) time.Duration {
	d := p.Wait(n)
	if p.Jitter <= 0 {
		return d
	}
	return d + time.Duration(float64(d)*min(p.Jitter, 1)*rand.Float64())
}

// Do calls fn until it succeeds, the retries run out or ctx ends. It
// returns the last error from fn, or ctx's error.
func (p BindPolicy) Do(ctx context.Context, fn func() error) error {
	err := fn()
	for n := 0; err != nil && n < p.Retries; n++ {
		wait := p.jittered(n)
		if p.OnRetry != nil {
			p.OnRetry(n+1, err, wait)
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
		err = fn()
	}
	return err
}
