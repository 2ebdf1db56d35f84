package connection

import (
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/compress"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/msdp"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/output"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/transport"
)

// Connection errors.
var (
	ErrClosed = errors.New("connection closed")
)

// Defaults.
const (
	DefaultReadBufferSize = 4096

	// maxReadsPerTick bounds how much one connection may read in a tick.
	maxReadsPerTick = 16
)

// StatusFunc returns the server status variables sent on DO MSSP.
type StatusFunc func() []telnet.StatusVar

// TapFunc receives every text fragment queued for a connection, before
// rendering. Used to feed observers.
type TapFunc func(c *Conn, text string)

// Config configures a connection.
type Config struct {
	Socket transport.Socket

	// Catalog enables structured reporting when set.
	Catalog         *msdp.Catalog
	ReportIntervals  map[string]int
	LegacyReporting  bool
	MaxSubscriptions int

	MaxLineLength     int
	MaxSubnegotiation int
	MaxOutput         int

	CompressionEnabled bool
	CompressionLevel   int
	// CompressionVersion selects the offered protocol; zero offers v2.
	CompressionVersion compress.Version

	MarkupEnabled bool
	OfferUTF8     bool
	SoundEnabled  bool

	Status StatusFunc
	Tap    TapFunc

	KeepAlive transport.KeepAliveConfig

	// Logger receives operational messages; nil is silent.
	Logger *slog.Logger
	// ProtocolLogger receives protocol events; nil disables capture.
	ProtocolLogger log.Logger

	// Now returns the current time; nil uses time.Now.
	Now func() time.Time
}

// Stats counts per-connection traffic.
type Stats struct {
	BytesIn     uint64
	PlainOut    uint64
	WireOut     uint64
	ShortWrites uint64
	Compression compress.Stats
	LinesIn     uint64
}

// Ratio returns wire bytes per plain byte of compressed output.
func (s Stats) Ratio() float64 {
	return s.Compression.Ratio()
}

// Conn is one client connection: negotiated capabilities, terminal
// metadata, the input parser, the output pipeline and, once negotiated,
// a reporter. It is driven by a single goroutine.
type Conn struct {
	cfg Config

	id     string
	socket transport.Socket
	remote string
	host   string

	caps telnet.Capabilities
	term telnet.Terminal

	parser   *telnet.Parser
	codec    *compress.Codec
	out      *output.Pipeline
	reporter *msdp.Reporter

	// compression is the version requested and not yet ended.
	compression compress.Version
	charsetSent bool

	lines   []string
	mode    Mode
	session msdp.Session

	keepalive *transport.KeepAlive
	readBuf   []byte

	bytesIn  uint64
	plainOut uint64
	linesIn  uint64

	closed bool
}

// Compile-time interface satisfaction check.
var _ msdp.Subject = (*Conn)(nil)

// New creates a connection around an accepted socket. Call Start to send
// the initial offers.
func New(cfg Config) *Conn {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	c := &Conn{
		cfg:    cfg,
		id:     cfg.Socket.ID(),
		socket: cfg.Socket,
		caps:   telnet.DefaultCapabilities(),
		term:   telnet.DefaultTerminal(),
		parser: telnet.NewParser(telnet.ParserConfig{
			MaxLineLength:     cfg.MaxLineLength,
			MaxSubnegotiation: cfg.MaxSubnegotiation,
		}),
		codec:     compress.New(cfg.CompressionLevel),
		mode:      ModeLogin,
		keepalive: transport.NewKeepAlive(cfg.KeepAlive, cfg.Now()),
		readBuf:   make([]byte, DefaultReadBufferSize),
	}
	if addr := cfg.Socket.RemoteAddr(); addr != nil {
		c.remote = addr.String()
	}
	c.out = output.New(output.Config{
		Socket:            cfg.Socket,
		Codec:             c.codec,
		Caps:              &c.caps,
		MaxBuffered:       cfg.MaxOutput,
		OnCompressFailure: c.compressFailed,
	})
	return c
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() string { return c.remote }

// Host returns the resolved hostname, or the peer address until resolved.
func (c *Conn) Host() string {
	if c.host != "" {
		return c.host
	}
	return c.remote
}

// SetHost records the resolved hostname.
func (c *Conn) SetHost(host string) { c.host = host }

// Capabilities returns a copy of the negotiated capabilities.
func (c *Conn) Capabilities() telnet.Capabilities { return c.caps }

// Terminal returns a copy of the terminal metadata.
func (c *Conn) Terminal() telnet.Terminal { return c.term }

// Width returns the terminal width in columns.
func (c *Conn) Width() int { return c.term.Columns }

// ColorEnabled reports whether colour markup is rendered.
func (c *Conn) ColorEnabled() bool { return c.caps.ColorEnabled() }

// Reporting reports whether a reporting sub-protocol is active.
func (c *Conn) Reporting() bool { return c.caps.Reporting() }

// Reporter returns the reporter, or nil before reporting was negotiated.
func (c *Conn) Reporter() *msdp.Reporter { return c.reporter }

// Session returns the attached session, or nil.
func (c *Conn) Session() msdp.Session { return c.session }

// Attach binds a session to the connection.
func (c *Conn) Attach(s msdp.Session) {
	c.session = s
	if s != nil && s.Authenticated() && c.mode == ModeLogin {
		c.SetMode(ModePlaying)
	}
}

// Detach drops the session.
func (c *Conn) Detach() {
	c.session = nil
}

// Mode returns the current mode.
func (c *Conn) Mode() Mode { return c.mode }

// SetMode changes the mode. A closing connection stays closing.
func (c *Conn) SetMode(m Mode) {
	if c.mode == m || c.mode == ModeClosing {
		return
	}
	c.logState(log.StateEntityMode, c.mode.String(), m.String(), "")
	c.mode = m
}

// Closed reports whether Close has run.
func (c *Conn) Closed() bool { return c.closed }

// Start queues the initial option offers.
func (c *Conn) Start() {
	offers := [][2]byte{
		{telnet.DO, telnet.OptTTYPE},
		{telnet.DO, telnet.OptNAWS},
	}
	if c.cfg.OfferUTF8 {
		offers = append(offers, [2]byte{telnet.WILL, telnet.OptCharset})
	}
	if c.cfg.CompressionEnabled {
		v := c.cfg.CompressionVersion
		if v == compress.VersionNone {
			v = compress.V2
		}
		offers = append(offers, [2]byte{telnet.WILL, v.Option()})
	}
	if c.cfg.Catalog != nil {
		offers = append(offers, [2]byte{telnet.WILL, telnet.OptMSDP})
		if c.cfg.LegacyReporting {
			offers = append(offers, [2]byte{telnet.WILL, telnet.OptATCP})
		}
	}
	if c.cfg.MarkupEnabled {
		offers = append(offers, [2]byte{telnet.WILL, telnet.OptMXP})
	}
	if c.cfg.SoundEnabled {
		offers = append(offers, [2]byte{telnet.WILL, telnet.OptMSP})
	}
	if c.cfg.Status != nil {
		offers = append(offers, [2]byte{telnet.WILL, telnet.OptMSSP})
	}
	offers = append(offers, [2]byte{telnet.WILL, telnet.OptEOR})

	for _, o := range offers {
		c.sendNegotiation(o[0], o[1])
	}
	c.logState(log.StateEntityConnection, "", "CONNECTED", "")
}

// Read pulls every available byte from the socket through the parser. It
// returns nil when the socket would block and an error wrapping the
// transport failure when the peer is gone.
func (c *Conn) Read() error {
	if c.closed {
		return ErrClosed
	}
	for i := 0; i < maxReadsPerTick; i++ {
		n, err := c.socket.Read(c.readBuf)
		if n > 0 {
			c.Feed(c.readBuf[:n])
		}
		if errors.Is(err, transport.ErrWouldBlock) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read %s: %w", c.id, err)
		}
		if n == 0 {
			return nil
		}
	}
	return nil
}

// Feed runs received bytes through the parser and applies the events.
func (c *Conn) Feed(data []byte) {
	c.bytesIn += uint64(len(data))
	c.keepalive.Touch(c.cfg.Now())
	for _, ev := range c.parser.Feed(data) {
		c.handle(ev)
	}
}

// Lines returns and clears the completed input lines, oldest first.
func (c *Conn) Lines() []string {
	lines := c.lines
	c.lines = nil
	return lines
}

// NextLine pops the oldest completed input line.
func (c *Conn) NextLine() (string, bool) {
	if len(c.lines) == 0 {
		return "", false
	}
	line := c.lines[0]
	c.lines = c.lines[1:]
	return line, true
}

func (c *Conn) pushLine(line string) {
	if !c.mode.AcceptsInput() {
		return
	}
	if !c.caps.UTF8 && !utf8.ValidString(line) {
		if decoded, err := charmap.ISO8859_1.NewDecoder().String(line); err == nil {
			line = decoded
		}
	}
	c.linesIn++
	c.lines = append(c.lines, line)
}

// Enqueue queues markup text for the next flush.
func (c *Conn) Enqueue(text string) {
	if c.closed || text == "" {
		return
	}
	c.plainOut += uint64(len(text))
	c.out.Enqueue(text)
	if c.cfg.Tap != nil {
		c.cfg.Tap(c, text)
	}
}

// Printf formats and queues markup text.
func (c *Conn) Printf(format string, args ...any) {
	c.Enqueue(fmt.Sprintf(format, args...))
}

// Observe queues text copied from another connection. Observed text is
// not passed to the tap, so observer chains cannot loop.
func (c *Conn) Observe(text string) {
	if c.closed || text == "" {
		return
	}
	c.plainOut += uint64(len(text))
	c.out.Enqueue(text)
}

// SetPrompt sets the prompt shown after visible output.
func (c *Conn) SetPrompt(fn output.PromptFunc) {
	c.out.SetPrompt(fn)
}

// SetEcho hands echo to the server (on) for password entry, or back to
// the client.
func (c *Conn) SetEcho(on bool) {
	if c.caps.Echo == on {
		return
	}
	c.caps.Echo = on
	if on {
		c.sendNegotiation(telnet.WILL, telnet.OptEcho)
	} else {
		c.sendNegotiation(telnet.WONT, telnet.OptEcho)
	}
}

// Tick runs the reporting tick. Connections without a session are skipped.
func (c *Conn) Tick() int {
	if c.closed || c.session == nil || c.reporter == nil || !c.caps.Reporting() {
		return 0
	}
	return c.reporter.Tick()
}

// Pending reports whether output is waiting to be written.
func (c *Conn) Pending() bool {
	return c.out.Pending()
}

// Flush writes queued output. A would-block leaves the rest for the next
// flush; any other error means the connection should be torn down.
func (c *Conn) Flush() (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	n, err := c.out.Flush()
	if err != nil {
		return n, fmt.Errorf("flush %s: %w", c.id, err)
	}
	return n, nil
}

// KeepAlive sends a NOP when a probe is due and reports whether the
// connection has been idle past its timeout.
func (c *Conn) KeepAlive() (idle bool) {
	now := c.cfg.Now()
	if c.keepalive.Idle(now) {
		return true
	}
	if c.keepalive.ProbeDue(now) {
		c.out.EnqueueRaw(telnet.Command(telnet.NOP))
	}
	return false
}

// IdleFor returns the time since the client last sent anything.
func (c *Conn) IdleFor() time.Duration {
	return c.keepalive.IdleFor(c.cfg.Now())
}

// Stats returns traffic counters.
func (c *Conn) Stats() Stats {
	ps := c.out.Stats()
	return Stats{
		BytesIn:     c.bytesIn,
		PlainOut:    c.plainOut,
		WireOut:     ps.Written,
		ShortWrites: ps.ShortWrites,
		Compression: c.codec.Stats(),
		LinesIn:     c.linesIn,
	}
}

// Close tears the connection down: it ends compression, drops
// subscriptions, makes a best-effort flush of queued output and closes the
// socket. Close is idempotent.
func (c *Conn) Close(reason string) error {
	if c.closed {
		return nil
	}
	c.SetMode(ModeClosing)
	if c.compression != compress.VersionNone {
		c.out.EndCompression()
		c.compression = compress.VersionNone
	}
	if c.reporter != nil {
		c.reporter.Reset()
	}
	if _, err := c.out.Flush(); err != nil && c.cfg.Logger != nil {
		c.cfg.Logger.Debug("final flush failed", "conn", c.id, "error", err)
	}
	c.out.Discard()
	c.closed = true

	c.logState(log.StateEntityConnection, "CONNECTED", "CLOSED", reason)
	if c.cfg.Logger != nil {
		c.cfg.Logger.Info("connection closed", "conn", c.id, "remote", c.remote, "reason", reason)
	}
	return c.socket.Close()
}
