// Package spy tracks which connections are observing which.
//
// An observer watches at most one target; a target may have any number of
// observers. Edges are stored by connection id, so tearing down either end
// only requires Sever. Each target also keeps a short history of its output
// that is replayed to a new observer.
package spy

import (
	"errors"
	"sync"

	"github.com/armon/circbuf"
)

// DefaultBacklog is the replay history kept per target, in bytes.
const DefaultBacklog = 2048

// Spy errors.
var (
	ErrSelf        = errors.New("connection cannot observe itself")
	ErrUnknownID   = errors.New("empty connection id")
	ErrNotWatching = errors.New("connection is not observing anyone")
)

// Table is the observer relation for a whole server.
type Table struct {
	mu sync.Mutex

	backlog  int64
	watching map[string]string
	watchers map[string][]string
	history  map[string]*circbuf.Buffer
}

// New creates a table that keeps backlog bytes of history per target.
// A backlog of zero or less disables replay.
func New(backlog int) *Table {
	return &Table{
		backlog:  int64(backlog),
		watching: make(map[string]string),
		watchers: make(map[string][]string),
		history:  make(map[string]*circbuf.Buffer),
	}
}

// Watch makes observer watch target, replacing any previous target. It
// returns the target's recent output for replay.
func (t *Table) Watch(observer, target string) ([]byte, error) {
	if observer == "" || target == "" {
		return nil, ErrUnknownID
	}
	if observer == target {
		return nil, ErrSelf
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if prev, ok := t.watching[observer]; ok {
		if prev == target {
			return nil, nil
		}
		t.removeEdge(observer, prev)
	}
	t.watching[observer] = target
	t.watchers[target] = append(t.watchers[target], observer)

	buf, ok := t.history[target]
	if !ok {
		return nil, nil
	}
	replay := buf.Bytes()
	out := make([]byte, len(replay))
	copy(out, replay)
	return out, nil
}

// Unwatch stops observer watching its target and returns that target.
func (t *Table) Unwatch(observer string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	target, ok := t.watching[observer]
	if !ok {
		return "", ErrNotWatching
	}
	t.removeEdge(observer, target)
	return target, nil
}

// Watching returns the target observer is watching.
func (t *Table) Watching(observer string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	target, ok := t.watching[observer]
	return target, ok
}

// Watchers returns the observers of target, in the order they started.
func (t *Table) Watchers(target string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	obs := t.watchers[target]
	if len(obs) == 0 {
		return nil
	}
	out := make([]string, len(obs))
	copy(out, obs)
	return out
}

// Record appends a target's output to its replay history.
func (t *Table) Record(target string, p []byte) {
	if t.backlog <= 0 || len(p) == 0 {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	buf, ok := t.history[target]
	if !ok {
		var err error
		buf, err = circbuf.NewBuffer(t.backlog)
		if err != nil {
			return
		}
		t.history[target] = buf
	}
	buf.Write(p)
}

// Sever removes every edge touching id and its history. It returns the
// observers that were watching id.
func (t *Table) Sever(id string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if target, ok := t.watching[id]; ok {
		t.removeEdge(id, target)
	}
	orphans := t.watchers[id]
	for _, obs := range orphans {
		delete(t.watching, obs)
	}
	delete(t.watchers, id)
	delete(t.history, id)
	return orphans
}

// Len returns the number of observer edges.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.watching)
}

func (t *Table) removeEdge(observer, target string) {
	delete(t.watching, observer)
	obs := t.watchers[target]
	for i, o := range obs {
		if o == observer {
			obs = append(obs[:i], obs[i+1:]...)
			break
		}
	}
	if len(obs) == 0 {
		delete(t.watchers, target)
		return
	}
	t.watchers[target] = obs
}
