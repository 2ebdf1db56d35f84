package subscription

import "errors"

// Subscription errors.
var (
	ErrInvalidInterval      = errors.New("invalid subscription interval")
	ErrResourceExhausted    = errors.New("maximum subscriptions reached")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidName          = errors.New("invalid subscription name")
)

// Default subscription limits.
const (
	DefaultInterval         = 1
	DefaultMaxSubscriptions = 128
)

// Config holds subscription table configuration.
type Config struct {
	// MaxSubscriptions is the maximum number of subscriptions allowed.
	MaxSubscriptions int

	// DefaultInterval is used when Subscribe is given an interval of zero.
	DefaultInterval int
}

// DefaultConfig returns the default subscription configuration.
func DefaultConfig() Config {
	return Config{
		MaxSubscriptions: DefaultMaxSubscriptions,
		DefaultInterval:  DefaultInterval,
	}
}

// Subscription is a single reported variable.
type Subscription[V any] struct {
	// Name is the variable name.
	Name string

	// Interval is the minimum number of ticks between transmissions.
	Interval int

	last   V
	primed bool
	dirty  bool
	since  int
}

// Last returns the most recently recorded value.
func (s *Subscription[V]) Last() (V, bool) {
	return s.last, s.primed
}

// Dirty reports whether a recorded change is waiting to be transmitted.
func (s *Subscription[V]) Dirty() bool {
	return s.dirty
}

// Primed reports whether the subscription has been transmitted at least once.
func (s *Subscription[V]) Primed() bool {
	return s.primed
}

// Table is the set of subscriptions held by one connection.
type Table[V any] struct {
	config Config
	equal  func(a, b V) bool
	subs   []*Subscription[V]
	index  map[string]int
}

// NewTable creates a subscription table with default configuration.
// equal decides whether a recomputed value differs from the recorded one.
func NewTable[V any](equal func(a, b V) bool) *Table[V] {
	return NewTableWithConfig(DefaultConfig(), equal)
}

// NewTableWithConfig creates a subscription table with custom configuration.
func NewTableWithConfig[V any](config Config, equal func(a, b V) bool) *Table[V] {
	if config.MaxSubscriptions <= 0 {
		config.MaxSubscriptions = DefaultMaxSubscriptions
	}
	if config.DefaultInterval <= 0 {
		config.DefaultInterval = DefaultInterval
	}
	return &Table[V]{
		config: config,
		equal:  equal,
		index:  make(map[string]int),
	}
}

// Subscribe adds a subscription for name. Subscribing to a name that is
// already present returns the existing subscription and created=false.
func (t *Table[V]) Subscribe(name string, interval int) (sub *Subscription[V], created bool, err error) {
	if name == "" {
		return nil, false, ErrInvalidName
	}
	if interval < 0 {
		return nil, false, ErrInvalidInterval
	}
	if i, ok := t.index[name]; ok {
		return t.subs[i], false, nil
	}
	if len(t.subs) >= t.config.MaxSubscriptions {
		return nil, false, ErrResourceExhausted
	}
	if interval == 0 {
		interval = t.config.DefaultInterval
	}

	sub = &Subscription[V]{Name: name, Interval: interval}
	t.index[name] = len(t.subs)
	t.subs = append(t.subs, sub)
	return sub, true, nil
}

// Unsubscribe removes the subscription for name.
func (t *Table[V]) Unsubscribe(name string) error {
	i, ok := t.index[name]
	if !ok {
		return ErrSubscriptionNotFound
	}
	t.subs = append(t.subs[:i], t.subs[i+1:]...)
	delete(t.index, name)
	for j := i; j < len(t.subs); j++ {
		t.index[t.subs[j].Name] = j
	}
	return nil
}

// Get returns the subscription for name.
func (t *Table[V]) Get(name string) (*Subscription[V], bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.subs[i], true
}

// Has reports whether name is subscribed.
func (t *Table[V]) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Names returns subscribed names in subscription order.
func (t *Table[V]) Names() []string {
	names := make([]string, len(t.subs))
	for i, s := range t.subs {
		names[i] = s.Name
	}
	return names
}

// Count returns the number of subscriptions.
func (t *Table[V]) Count() int {
	return len(t.subs)
}

// ClearAll removes all subscriptions (e.g., on connection loss).
func (t *Table[V]) ClearAll() {
	t.subs = nil
	t.index = make(map[string]int)
}

// Prime records v as transmitted now: the subscription becomes clean and
// its interval timer restarts.
func (t *Table[V]) Prime(name string, v V) error {
	sub, ok := t.Get(name)
	if !ok {
		return ErrSubscriptionNotFound
	}
	sub.last = v
	sub.primed = true
	sub.dirty = false
	sub.since = 0
	return nil
}

// Record stores a recomputed value. It returns true when the value differs
// from the recorded one, in which case the subscription is marked dirty.
func (t *Table[V]) Record(name string, v V) bool {
	sub, ok := t.Get(name)
	if !ok {
		return false
	}
	if sub.primed && t.equal(sub.last, v) {
		return false
	}
	sub.last = v
	sub.primed = true
	sub.dirty = true
	return true
}

// MarkDirty forces the next Process to transmit name once its interval has
// elapsed, even if the value did not change.
func (t *Table[V]) MarkDirty(name string) {
	if sub, ok := t.Get(name); ok {
		sub.dirty = true
	}
}

// Process advances every subscription by one tick and calls send for each
// dirty subscription whose interval has elapsed. It returns the number of
// values sent.
func (t *Table[V]) Process(send func(name string, v V)) int {
	sent := 0
	for _, sub := range t.subs {
		sub.since++
		if !sub.dirty || sub.since < sub.Interval {
			continue
		}
		sub.dirty = false
		sub.since = 0
		send(sub.Name, sub.last)
		sent++
	}
	return sent
}
