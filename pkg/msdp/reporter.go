package msdp

import (
	"log/slog"
	"strings"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/subscription"
)

// Client commands.
const (
	CmdList     = "LIST"
	CmdReport   = "REPORT"
	CmdUnreport = "UNREPORT"
	CmdSend     = "SEND"
	CmdReset    = "RESET"
)

// Lists available to LIST.
const (
	ListCommands     = "COMMANDS"
	ListLists        = "LISTS"
	ListSendable     = "SENDABLE_VARIABLES"
	ListReportable   = "REPORTABLE_VARIABLES"
	ListReported     = "REPORTED_VARIABLES"
	ListConfigurable = "CONFIGURABLE_VARIABLES"
)

var commands = []string{CmdList, CmdReport, CmdUnreport, CmdSend, CmdReset}

var lists = []string{ListCommands, ListLists, ListSendable, ListReportable, ListReported, ListConfigurable}

// ReporterConfig configures a Reporter.
type ReporterConfig struct {
	Catalog *Catalog
	Subject Subject
	Framing Framing

	// Send receives complete outbound sub-negotiations.
	Send func(frame []byte)

	// Intervals overrides catalog intervals by name.
	Intervals map[string]int

	// MaxSubscriptions bounds REPORT; 0 uses the subscription default.
	MaxSubscriptions int

	// OnConfigure is called after the client sets a configurable variable.
	OnConfigure func(name string, v Value)

	Logger *slog.Logger
}

// ReporterStats counts reporter activity.
type ReporterStats struct {
	Received uint64
	Sent     uint64
	Ignored  uint64
}

// Reporter serves one connection's reporting requests and pushes
// subscribed values on each tick.
type Reporter struct {
	config     ReporterConfig
	subs       *subscription.Table[Value]
	configured map[string]Value
	stats      ReporterStats
}

// NewReporter creates a reporter. Configurable entries start as Unknown.
func NewReporter(config ReporterConfig) *Reporter {
	if config.Catalog == nil {
		config.Catalog = &Catalog{index: make(map[string]int)}
	}
	r := &Reporter{
		config: config,
		subs: subscription.NewTableWithConfig(subscription.Config{
			MaxSubscriptions: config.MaxSubscriptions,
		}, Value.Equal),
		configured: make(map[string]Value),
	}
	for _, e := range config.Catalog.entries {
		if e.Configurable && e.Value == nil {
			r.configured[e.Name] = String(Unknown)
		}
	}
	return r
}

// Framing returns the framing replies are sent in.
func (r *Reporter) Framing() Framing {
	return r.config.Framing
}

// SetFraming switches the framing used for replies and pushes.
func (r *Reporter) SetFraming(f Framing) {
	r.config.Framing = f
}

// Stats returns activity counters.
func (r *Reporter) Stats() ReporterStats {
	return r.stats
}

// Reported returns the subscribed names in subscription order.
func (r *Reporter) Reported() []string {
	return r.subs.Names()
}

// Configured returns the client-supplied value of a configurable entry.
func (r *Reporter) Configured(name string) (Value, bool) {
	v, ok := r.configured[name]
	return v, ok
}

// Handle decodes an inbound payload in the reporter's framing and applies
// each variable. Unknown names are ignored.
func (r *Reporter) Handle(payload []byte) error {
	vars, err := r.config.Framing.Decode(payload)
	for _, v := range vars {
		r.apply(v)
	}
	return err
}

func (r *Reporter) apply(v Var) {
	r.stats.Received++
	switch v.Name {
	case CmdList:
		r.list(v.Args())
	case CmdReport:
		for _, name := range v.Args() {
			r.Report(name)
		}
	case CmdUnreport:
		for _, name := range v.Args() {
			r.Unreport(name)
		}
	case CmdSend:
		for _, name := range v.Args() {
			r.Send(name)
		}
	case CmdReset:
		r.reset(v.Args())
	default:
		r.set(v)
	}
}

func (r *Reporter) list(args []string) {
	if len(args) == 0 {
		r.emit(ListSendable, Strings(r.config.Catalog.Names(Entry.Sendable)...))
		return
	}
	for _, which := range args {
		switch strings.ToUpper(which) {
		case ListCommands:
			r.emit(ListCommands, Strings(commands...))
		case ListLists:
			r.emit(ListLists, Strings(lists...))
		case ListSendable:
			r.emit(ListSendable, Strings(r.config.Catalog.Names(Entry.Sendable)...))
		case ListReportable:
			r.emit(ListReportable, Strings(r.config.Catalog.Names(func(e Entry) bool { return e.Reportable })...))
		case ListReported:
			r.emit(ListReported, Strings(r.subs.Names()...))
		case ListConfigurable:
			r.emit(ListConfigurable, Strings(r.config.Catalog.Names(func(e Entry) bool { return e.Configurable })...))
		default:
			r.ignore("unknown list", which)
		}
	}
}

// Report subscribes to name and pushes its current value immediately when
// it can be computed. It returns false for unknown or non-reportable names.
func (r *Reporter) Report(name string) bool {
	e, ok := r.config.Catalog.Lookup(name)
	if !ok || !e.Reportable {
		r.ignore("not reportable", name)
		return false
	}
	interval := e.Interval
	if n, ok := r.config.Intervals[name]; ok {
		interval = n
	}
	_, created, err := r.subs.Subscribe(name, interval)
	if err != nil {
		r.ignore(err.Error(), name)
		return false
	}
	if !created {
		return true
	}
	if v, ok := r.current(e); ok {
		r.subs.Prime(name, v)
		r.emit(name, v)
	}
	return true
}

// Unreport drops the subscription for name.
func (r *Reporter) Unreport(name string) {
	if err := r.subs.Unsubscribe(name); err != nil {
		r.ignore("not reported", name)
	}
}

// Send pushes the current value of name once.
func (r *Reporter) Send(name string) bool {
	e, ok := r.config.Catalog.Lookup(name)
	if !ok {
		r.ignore("unknown variable", name)
		return false
	}
	v, ok := r.current(e)
	if !ok {
		return false
	}
	r.emit(name, v)
	return true
}

func (r *Reporter) reset(args []string) {
	if len(args) == 0 {
		r.Reset()
		return
	}
	for _, which := range args {
		switch strings.ToUpper(which) {
		case ListReportable, ListReported:
			r.Reset()
		default:
			r.ignore("unknown reset list", which)
		}
	}
}

// Reset drops every subscription.
func (r *Reporter) Reset() {
	r.subs.ClearAll()
}

func (r *Reporter) set(v Var) {
	e, ok := r.config.Catalog.Lookup(v.Name)
	if !ok || !e.Configurable {
		r.ignore("not configurable", v.Name)
		return
	}
	val := v.Value()
	if r.config.Framing == FramingATCP {
		val = String(strings.Join(v.Args(), " "))
	}
	if e.WriteOnce {
		if cur, ok := r.configured[v.Name]; ok && !cur.Equal(String(Unknown)) {
			r.ignore("write-once variable already set", v.Name)
			return
		}
	}
	r.configured[v.Name] = val
	if r.config.Logger != nil {
		r.config.Logger.Debug("reporting variable configured", "name", v.Name, "value", val.String())
	}
	if r.config.OnConfigure != nil {
		r.config.OnConfigure(v.Name, val)
	}
	if r.subs.Has(v.Name) {
		r.subs.Record(v.Name, r.valueOf(e))
	}
}

// current returns the value of e for this connection. Session-required
// entries have no value until the session is authenticated.
func (r *Reporter) current(e Entry) (Value, bool) {
	if e.RequiresSession && !r.authenticated() {
		return Value{}, false
	}
	return r.valueOf(e), true
}

func (r *Reporter) valueOf(e Entry) Value {
	if e.Value != nil {
		return e.Value(r.config.Subject)
	}
	if v, ok := r.configured[e.Name]; ok {
		return v
	}
	return String(Unknown)
}

func (r *Reporter) authenticated() bool {
	if r.config.Subject == nil {
		return false
	}
	s := r.config.Subject.Session()
	return s != nil && s.Authenticated()
}

// Tick recomputes every subscribed value and pushes those that changed and
// whose interval has elapsed. It returns the number of values pushed.
func (r *Reporter) Tick() int {
	for _, name := range r.subs.Names() {
		e, ok := r.config.Catalog.Lookup(name)
		if !ok {
			continue
		}
		v, ok := r.current(e)
		if !ok {
			continue
		}
		r.subs.Record(name, v)
	}
	return r.subs.Process(r.emit)
}

func (r *Reporter) emit(name string, v Value) {
	r.stats.Sent++
	if r.config.Send != nil {
		r.config.Send(r.config.Framing.Frame(name, v))
	}
}

func (r *Reporter) ignore(reason, name string) {
	r.stats.Ignored++
	if r.config.Logger != nil {
		r.config.Logger.Debug("reporting request ignored", "reason", reason, "name", name)
	}
}
