package msdp

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// Catalog errors.
var (
	ErrUnsatisfiable = errors.New("catalog entry has neither a value function nor a configurable value")
	ErrDuplicate     = errors.New("duplicate catalog entry")
	ErrInvalidName   = errors.New("invalid catalog entry name")
)

// Unknown is the value of a configurable variable the client has not set.
const Unknown = "unknown"

// Session is the game-side state a connection may carry.
type Session interface {
	Name() string
	Authenticated() bool
}

// Subject is the connection a value is computed for.
type Subject interface {
	Capabilities() telnet.Capabilities
	Terminal() telnet.Terminal
	// Session returns nil while no session is attached.
	Session() Session
}

// ValueFunc computes an entry's current value.
type ValueFunc func(s Subject) Value

// Entry describes one reportable variable.
type Entry struct {
	Name string

	// Value computes the current value. Nil means the value is supplied by
	// the client (Configurable must then be set).
	Value ValueFunc

	// Reportable entries may be subscribed to with REPORT.
	Reportable bool

	// Configurable entries may be set by the client.
	Configurable bool

	// WriteOnce entries accept a client value only while still Unknown.
	WriteOnce bool

	// RequiresSession entries are withheld until the session is authenticated.
	RequiresSession bool

	// Interval is the minimum ticks between reports; 0 means every tick.
	Interval int
}

// Sendable reports whether the entry can produce a value.
func (e Entry) Sendable() bool {
	return e.Value != nil || e.Configurable
}

// Catalog is an immutable, ordered set of entries.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// Lookup returns the entry called name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	i, ok := c.index[name]
	if !ok {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns the entries in registration order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Names returns the names of entries matching keep, in registration order.
func (c *Catalog) Names(keep func(Entry) bool) []string {
	var out []string
	for _, e := range c.entries {
		if keep == nil || keep(e) {
			out = append(out, e.Name)
		}
	}
	return out
}

// Builder assembles a Catalog. The first invalid entry is reported by Build.
type Builder struct {
	entries []Entry
	index   map[string]int
	err     error
}

// NewBuilder creates an empty catalog builder.
func NewBuilder() *Builder {
	return &Builder{index: make(map[string]int)}
}

// Add registers entries.
func (b *Builder) Add(entries ...Entry) *Builder {
	for _, e := range entries {
		if b.err != nil {
			return b
		}
		switch {
		case e.Name == "" || strings.ContainsAny(e.Name, " \x01\x02\x03\x04\x05\x06\xff"):
			b.err = fmt.Errorf("%w: %q", ErrInvalidName, e.Name)
		case !e.Sendable():
			b.err = fmt.Errorf("%w: %s", ErrUnsatisfiable, e.Name)
		default:
			if _, dup := b.index[e.Name]; dup {
				b.err = fmt.Errorf("%w: %s", ErrDuplicate, e.Name)
				return b
			}
			b.index[e.Name] = len(b.entries)
			b.entries = append(b.entries, e)
		}
	}
	return b
}

// Build returns the catalog or the first registration error.
func (b *Builder) Build() (*Catalog, error) {
	if b.err != nil {
		return nil, b.err
	}
	c := &Catalog{
		entries: make([]Entry, len(b.entries)),
		index:   make(map[string]int, len(b.index)),
	}
	copy(c.entries, b.entries)
	for k, v := range b.index {
		c.index[k] = v
	}
	return c, nil
}

func flag(on bool) Value {
	if on {
		return String("1")
	}
	return String("0")
}

// DefaultEntries returns the protocol-level variables every server reports.
// Game-level variables are added by the embedding application.
func DefaultEntries(serverID string) []Entry {
	return []Entry{
		{
			Name:       "SERVER_ID",
			Value:      func(Subject) Value { return String(serverID) },
			Reportable: false,
		},
		{
			Name:       "SERVER_TIME",
			Value:      func(Subject) Value { return String(strconv.FormatInt(time.Now().Unix(), 10)) },
			Reportable: true,
			Interval:   10,
		},
		{Name: "CLIENT_NAME", Configurable: true, Reportable: true},
		{Name: "CLIENT_VERSION", Configurable: true, Reportable: true},
		{
			Name:       "ANSI_COLORS",
			Value:      func(s Subject) Value { return flag(s.Capabilities().ColorEnabled()) },
			Reportable: true,
		},
		{
			Name:       "XTERM_256_COLORS",
			Value:      func(s Subject) Value { return flag(s.Capabilities().Xterm256) },
			Reportable: true,
		},
		{
			Name:       "UTF_8",
			Value:      func(s Subject) Value { return flag(s.Capabilities().UTF8) },
			Reportable: true,
		},
		{
			Name:       "SOUND",
			Value:      func(s Subject) Value { return flag(s.Capabilities().Sound) },
			Reportable: true,
		},
		{Name: "MXP", Configurable: true, WriteOnce: true, Reportable: true},
		{
			Name:       "WINDOW_WIDTH",
			Value:      func(s Subject) Value { return String(strconv.Itoa(s.Terminal().Columns)) },
			Reportable: true,
		},
		{
			Name:       "WINDOW_HEIGHT",
			Value:      func(s Subject) Value { return String(strconv.Itoa(s.Terminal().Rows)) },
			Reportable: true,
		},
	}
}

// NewDefaultCatalog builds a catalog of the default entries plus extra.
func NewDefaultCatalog(serverID string, extra ...Entry) (*Catalog, error) {
	return NewBuilder().Add(DefaultEntries(serverID)...).Add(extra...).Build()
}
