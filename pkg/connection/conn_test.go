package connection

import (
	"bytes"
	"errors"
	"io"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/compress"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/msdp"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/transport"
)

type fakeSocket struct {
	inbound [][]byte
	readErr error
	written []byte
	closed  bool

	// limit caps the bytes accepted per write; zero accepts everything.
	limit int
}

func (s *fakeSocket) ID() string { return "conn-1" }

func (s *fakeSocket) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(192, 0, 2, 1), Port: 4242}
}

func (s *fakeSocket) Read(p []byte) (int, error) {
	if len(s.inbound) == 0 {
		if s.readErr != nil {
			return 0, s.readErr
		}
		return 0, transport.ErrWouldBlock
	}
	n := copy(p, s.inbound[0])
	s.inbound[0] = s.inbound[0][n:]
	if len(s.inbound[0]) == 0 {
		s.inbound = s.inbound[1:]
	}
	return n, nil
}

func (s *fakeSocket) Write(p []byte) (int, error) {
	if s.closed {
		return 0, transport.ErrConnectionClosed
	}
	if s.limit > 0 && len(p) > s.limit {
		s.written = append(s.written, p[:s.limit]...)
		return s.limit, transport.ErrWouldBlock
	}
	s.written = append(s.written, p...)
	return len(p), nil
}

func (s *fakeSocket) Close() error {
	s.closed = true
	return nil
}

// take returns and clears everything written so far.
func (s *fakeSocket) take() []byte {
	out := s.written
	s.written = nil
	return out
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (l *captureLogger) Log(ev log.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *captureLogger) states() []string {
	var out []string
	for _, ev := range l.events {
		if ev.StateChange != nil {
			out = append(out, ev.StateChange.NewState)
		}
	}
	return out
}

type testSession struct {
	name   string
	authed bool
}

func (s *testSession) Name() string        { return s.name }
func (s *testSession) Authenticated() bool { return s.authed }

func testCatalog(t *testing.T) *msdp.Catalog {
	t.Helper()
	cat, err := msdp.NewDefaultCatalog("RealmsTest")
	require.NoError(t, err)
	return cat
}

func newTestConn(t *testing.T, mutate ...func(*Config)) (*Conn, *fakeSocket) {
	t.Helper()
	sock := &fakeSocket{}
	cfg := Config{
		Socket:             sock,
		Catalog:            testCatalog(t),
		LegacyReporting:    true,
		CompressionEnabled: true,
		MarkupEnabled:      true,
		OfferUTF8:          true,
		SoundEnabled:       true,
		Status: func() []telnet.StatusVar {
			return []telnet.StatusVar{{Name: "NAME", Values: []string{"Realms"}}}
		},
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return New(cfg), sock
}

func flush(t *testing.T, c *Conn, sock *fakeSocket) []byte {
	t.Helper()
	_, err := c.Flush()
	require.NoError(t, err)
	return sock.take()
}

func neg(verb, opt byte) []byte {
	return telnet.Negotiate(verb, opt)
}

func TestStartOffers(t *testing.T) {
	c, sock := newTestConn(t)
	c.Start()

	var want []byte
	for _, o := range [][2]byte{
		{telnet.DO, telnet.OptTTYPE},
		{telnet.DO, telnet.OptNAWS},
		{telnet.WILL, telnet.OptCharset},
		{telnet.WILL, telnet.OptCompress2},
		{telnet.WILL, telnet.OptMSDP},
		{telnet.WILL, telnet.OptATCP},
		{telnet.WILL, telnet.OptMXP},
		{telnet.WILL, telnet.OptMSP},
		{telnet.WILL, telnet.OptMSSP},
		{telnet.WILL, telnet.OptEOR},
	} {
		want = append(want, neg(o[0], o[1])...)
	}
	assert.Equal(t, want, flush(t, c, sock))
}

func TestStartOffersMinimal(t *testing.T) {
	c, sock := newTestConn(t, func(cfg *Config) {
		*cfg = Config{Socket: cfg.Socket}
	})
	c.Start()

	want := append(neg(telnet.DO, telnet.OptTTYPE), neg(telnet.DO, telnet.OptNAWS)...)
	want = append(want, neg(telnet.WILL, telnet.OptEOR)...)
	assert.Equal(t, want, flush(t, c, sock))
}

func TestStartOffersCompressV1(t *testing.T) {
	c, sock := newTestConn(t, func(cfg *Config) {
		cfg.CompressionVersion = compress.V1
	})
	c.Start()

	out := flush(t, c, sock)
	assert.True(t, bytes.Contains(out, neg(telnet.WILL, telnet.OptCompress)), "got %q", out)
	assert.False(t, bytes.Contains(out, neg(telnet.WILL, telnet.OptCompress2)))
}

func TestLines(t *testing.T) {
	c, _ := newTestConn(t)

	c.Feed([]byte("look\r\nsay hel"))
	c.Feed([]byte("lo\r\n"))

	assert.Equal(t, []string{"look", "say hello"}, c.Lines())
	assert.Empty(t, c.Lines())
	assert.Equal(t, uint64(2), c.Stats().LinesIn)
}

func TestNextLine(t *testing.T) {
	c, _ := newTestConn(t)
	c.Feed([]byte("a\r\nb\r\n"))

	line, ok := c.NextLine()
	assert.True(t, ok)
	assert.Equal(t, "a", line)
	line, _ = c.NextLine()
	assert.Equal(t, "b", line)
	_, ok = c.NextLine()
	assert.False(t, ok)
}

func TestLatin1Input(t *testing.T) {
	c, _ := newTestConn(t)
	c.Feed([]byte("caf\xe9\r\n"))
	assert.Equal(t, []string{"café"}, c.Lines())
}

func TestClosingModeDropsLines(t *testing.T) {
	c, _ := newTestConn(t)
	c.SetMode(ModeClosing)
	c.Feed([]byte("quit\r\n"))
	assert.Empty(t, c.Lines())

	c.SetMode(ModePlaying)
	assert.Equal(t, ModeClosing, c.Mode(), "closing is terminal")
}

func TestRead(t *testing.T) {
	c, sock := newTestConn(t)
	sock.inbound = [][]byte{[]byte("hel"), []byte("lo\r\n")}

	require.NoError(t, c.Read())
	assert.Equal(t, []string{"hello"}, c.Lines())

	sock.readErr = io.EOF
	err := c.Read()
	assert.ErrorIs(t, err, io.EOF)
}

func TestTerminalTypeCycling(t *testing.T) {
	c, sock := newTestConn(t)

	c.Feed(neg(telnet.WILL, telnet.OptTTYPE))
	assert.Equal(t, telnet.TTypeRequest(), flush(t, c, sock))

	reply := func(name string) []byte {
		return telnet.Subnegotiation(telnet.OptTTYPE, append([]byte{telnet.TTypeIS}, name...))
	}

	c.Feed(reply("Mudlet"))
	assert.Equal(t, telnet.TTypeRequest(), flush(t, c, sock))
	c.Feed(reply("ANSI-256COLOR"))
	assert.Equal(t, telnet.TTypeRequest(), flush(t, c, sock))
	c.Feed(reply("MTTS 137"))
	assert.Equal(t, telnet.TTypeRequest(), flush(t, c, sock))
	c.Feed(reply("MTTS 137"))
	assert.Empty(t, flush(t, c, sock), "an unchanged type ends the cycle")

	term := c.Terminal()
	assert.Equal(t, "MTTS 137", term.Type)
	assert.Equal(t, 137, term.MTTS)
	assert.Equal(t, telnet.MaxTTypeQueries, term.Queries)

	caps := c.Capabilities()
	assert.True(t, caps.TTYPE)
	assert.True(t, caps.Xterm256)
	assert.True(t, caps.ColorEnabled())
}

func TestTerminalTypeQueryLimit(t *testing.T) {
	c, sock := newTestConn(t)
	c.Feed(neg(telnet.WILL, telnet.OptTTYPE))
	sock.take()

	for i := 0; i < 10; i++ {
		c.Feed(telnet.Subnegotiation(telnet.OptTTYPE, append([]byte{telnet.TTypeIS}, byte('a'+i))))
	}
	flush(t, c, sock)

	assert.Equal(t, telnet.MaxTTypeQueries, c.Terminal().Queries)
}

func TestDumbTerminal(t *testing.T) {
	c, _ := newTestConn(t)
	c.Feed(neg(telnet.WILL, telnet.OptTTYPE))
	c.Feed(telnet.Subnegotiation(telnet.OptTTYPE, append([]byte{telnet.TTypeIS}, "dumb"...)))

	assert.False(t, c.ColorEnabled())
}

func TestWindowSize(t *testing.T) {
	c, _ := newTestConn(t)

	c.Feed(neg(telnet.WILL, telnet.OptNAWS))
	c.Feed([]byte{telnet.IAC, telnet.SB, telnet.OptNAWS, 0, 132, 0, 50, telnet.IAC, telnet.SE})

	assert.True(t, c.Capabilities().NAWS)
	assert.Equal(t, 132, c.Width())
	assert.Equal(t, 50, c.Terminal().Rows)
}

func TestWindowSizeConfirmedByDo(t *testing.T) {
	c, sock := newTestConn(t)

	c.Feed([]byte{255, 253, 31})

	assert.True(t, c.Capabilities().NAWS)
	assert.Empty(t, c.Lines())
	assert.Empty(t, flush(t, c, sock), "a confirmation is not answered")

	c.Feed(neg(telnet.DONT, telnet.OptNAWS))
	assert.False(t, c.Capabilities().NAWS)
	assert.Empty(t, flush(t, c, sock))
}

func TestRefuseUnknownOptions(t *testing.T) {
	c, sock := newTestConn(t)

	c.Feed(neg(telnet.DO, 3))
	c.Feed(neg(telnet.WILL, 3))
	c.Feed(neg(telnet.DONT, 3))
	c.Feed(neg(telnet.WONT, 3))

	want := append(neg(telnet.WONT, 3), neg(telnet.DONT, 3)...)
	assert.Equal(t, want, flush(t, c, sock))
}

func TestCharsetNegotiation(t *testing.T) {
	c, sock := newTestConn(t)

	c.Feed(neg(telnet.DO, telnet.OptCharset))
	c.Feed(neg(telnet.WILL, telnet.OptCharset))
	assert.Equal(t, telnet.CharsetOffer(), flush(t, c, sock), "offer is sent once")

	c.Feed(telnet.Subnegotiation(telnet.OptCharset, append([]byte{telnet.CharsetAccepted}, "UTF-8"...)))
	assert.True(t, c.Capabilities().UTF8)

	c.Feed(telnet.Subnegotiation(telnet.OptCharset, []byte{telnet.CharsetRejected}))
	assert.False(t, c.Capabilities().UTF8)
}

func TestCharsetRefusedWhenDisabled(t *testing.T) {
	c, sock := newTestConn(t, func(cfg *Config) { cfg.OfferUTF8 = false })

	c.Feed(neg(telnet.DO, telnet.OptCharset))

	assert.Equal(t, neg(telnet.WONT, telnet.OptCharset), flush(t, c, sock))
	assert.False(t, c.Capabilities().Charset)
}

func TestCompressionV2(t *testing.T) {
	c, sock := newTestConn(t)

	c.Enqueue("before\n")
	c.Feed(neg(telnet.DO, telnet.OptCompress2))
	c.Enqueue("hello\n")
	out := flush(t, c, sock)

	prefix := append([]byte("before\r\n"), compress.Marker(compress.V2)...)
	require.True(t, bytes.HasPrefix(out, prefix), "got %q", out)

	zr, err := zlib.NewReader(bytes.NewReader(out[len(prefix):]))
	require.NoError(t, err)
	got := make([]byte, len("hello\r\n"))
	_, err = io.ReadFull(zr, got)
	require.NoError(t, err)
	assert.Equal(t, "hello\r\n", string(got))

	caps := c.Capabilities()
	assert.True(t, caps.Compressing)
	assert.Equal(t, uint8(2), caps.CompressVersion)
	assert.Equal(t, uint64(1), c.Stats().Compression.Streams)
}

func TestCompressionV1IgnoredWhileV2Active(t *testing.T) {
	c, sock := newTestConn(t)

	c.Feed(neg(telnet.DO, telnet.OptCompress2))
	c.Feed(neg(telnet.DO, telnet.OptCompress))
	out := flush(t, c, sock)

	assert.True(t, bytes.HasPrefix(out, compress.Marker(compress.V2)))
	assert.False(t, bytes.Contains(out, compress.Marker(compress.V1)))
	assert.Equal(t, uint8(2), c.Capabilities().CompressVersion)
}

func TestCompressionEnd(t *testing.T) {
	c, sock := newTestConn(t)
	c.Feed(neg(telnet.DO, telnet.OptCompress2))
	flush(t, c, sock)

	c.Feed(neg(telnet.DONT, telnet.OptCompress2))
	c.Enqueue("plain\n")
	out := flush(t, c, sock)

	assert.True(t, bytes.HasSuffix(out, []byte("plain\r\n")), "got %q", out)
	assert.False(t, c.Capabilities().Compressing)
}

func TestCompressionRefusedWhenDisabled(t *testing.T) {
	c, sock := newTestConn(t, func(cfg *Config) { cfg.CompressionEnabled = false })

	c.Feed(neg(telnet.DO, telnet.OptCompress2))

	assert.Equal(t, neg(telnet.WONT, telnet.OptCompress2), flush(t, c, sock))
}

func TestEORAndSound(t *testing.T) {
	c, _ := newTestConn(t)

	c.Feed(neg(telnet.DO, telnet.OptEOR))
	c.Feed(neg(telnet.DO, telnet.OptMSP))
	caps := c.Capabilities()
	assert.True(t, caps.EOR)
	assert.True(t, caps.Sound)

	c.Feed(neg(telnet.DONT, telnet.OptMSP))
	assert.False(t, c.Capabilities().Sound)
}

func TestPromptUsesEOR(t *testing.T) {
	c, sock := newTestConn(t)
	c.Feed(neg(telnet.DO, telnet.OptEOR))
	c.SetPrompt(func() string { return "> " })

	c.Enqueue("You see a fountain.\n")
	out := flush(t, c, sock)

	assert.Equal(t, "You see a fountain.\r\n> \xff\xef", string(out))
}

func TestReportingOverMSDP(t *testing.T) {
	c, sock := newTestConn(t)
	c.Attach(&testSession{name: "Pippin"})

	c.Feed(neg(telnet.DO, telnet.OptMSDP))
	require.NotNil(t, c.Reporter())
	assert.True(t, c.Reporting())

	c.Feed(telnet.Subnegotiation(telnet.OptMSDP, msdp.Encode(msdp.Var{
		Name:   msdp.CmdReport,
		Values: []msdp.Value{msdp.String("WINDOW_WIDTH")},
	})))
	out := flush(t, c, sock)

	assert.Equal(t, msdp.FramingMSDP.Frame("WINDOW_WIDTH", msdp.String("80")), out)

	// unchanged values are not pushed again
	for i := 0; i < 5; i++ {
		c.Tick()
	}
	assert.Empty(t, flush(t, c, sock))

	c.Feed([]byte{telnet.IAC, telnet.SB, telnet.OptNAWS, 0, 100, 0, 40, telnet.IAC, telnet.SE})
	c.Tick()
	assert.Equal(t, msdp.FramingMSDP.Frame("WINDOW_WIDTH", msdp.String("100")), flush(t, c, sock))
}

func TestTickSkipsConnectionsWithoutSession(t *testing.T) {
	c, sock := newTestConn(t)
	c.Feed(neg(telnet.DO, telnet.OptMSDP))
	c.Reporter().Report("WINDOW_WIDTH")
	flush(t, c, sock)

	c.Feed([]byte{telnet.IAC, telnet.SB, telnet.OptNAWS, 0, 132, 0, 50, telnet.IAC, telnet.SE})
	require.Nil(t, c.Session())
	pushes := 0
	for i := 0; i < 3; i++ {
		pushes += c.Tick()
	}
	assert.Zero(t, pushes)
	assert.Empty(t, flush(t, c, sock))

	c.Attach(&testSession{name: "Sam"})
	assert.Equal(t, 1, c.Tick())
	assert.Equal(t, msdp.FramingMSDP.Frame("WINDOW_WIDTH", msdp.String("132")), flush(t, c, sock))
}

func TestReportingLegacyThenStructured(t *testing.T) {
	c, sock := newTestConn(t)

	c.Feed(neg(telnet.DO, telnet.OptATCP))
	assert.True(t, c.Capabilities().ATCP)
	assert.Equal(t, msdp.FramingATCP, c.Reporter().Framing())

	c.Feed(neg(telnet.DO, telnet.OptMSDP))
	caps := c.Capabilities()
	assert.True(t, caps.MSDP)
	assert.False(t, caps.ATCP, "structured reporting supersedes legacy")
	assert.Equal(t, msdp.FramingMSDP, c.Reporter().Framing())
	assert.Empty(t, flush(t, c, sock))
}

func TestReportingLegacyRefusedWhileStructured(t *testing.T) {
	c, sock := newTestConn(t)

	c.Feed(neg(telnet.DO, telnet.OptMSDP))
	c.Feed(neg(telnet.DO, telnet.OptATCP))

	assert.Equal(t, neg(telnet.WONT, telnet.OptATCP), flush(t, c, sock))
	assert.False(t, c.Capabilities().ATCP)
}

func TestReportingLegacyPayload(t *testing.T) {
	c, sock := newTestConn(t)
	c.Feed(neg(telnet.DO, telnet.OptATCP))

	c.Feed(telnet.Subnegotiation(telnet.OptATCP, []byte("MSDP.SEND SERVER_ID")))

	assert.Equal(t, telnet.Subnegotiation(telnet.OptATCP, []byte("MSDP.SERVER_ID RealmsTest")), flush(t, c, sock))
}

func TestReportingDisabledWithoutCatalog(t *testing.T) {
	c, sock := newTestConn(t, func(cfg *Config) { cfg.Catalog = nil })

	c.Feed(neg(telnet.DO, telnet.OptMSDP))

	assert.Equal(t, neg(telnet.WONT, telnet.OptMSDP), flush(t, c, sock))
	assert.Nil(t, c.Reporter())
}

func TestReportingSessionRequired(t *testing.T) {
	cat, err := msdp.NewDefaultCatalog("x", msdp.Entry{
		Name:            "CHARACTER_NAME",
		Reportable:      true,
		RequiresSession: true,
		Value: func(s msdp.Subject) msdp.Value {
			return msdp.String(s.Session().Name())
		},
	})
	require.NoError(t, err)
	c, sock := newTestConn(t, func(cfg *Config) { cfg.Catalog = cat })
	c.Feed(neg(telnet.DO, telnet.OptMSDP))
	c.Reporter().Report("CHARACTER_NAME")
	c.Tick()
	assert.Empty(t, flush(t, c, sock))

	c.Attach(&testSession{name: "Gandalf", authed: true})
	assert.Equal(t, ModePlaying, c.Mode())
	c.Tick()
	assert.Equal(t, msdp.FramingMSDP.Frame("CHARACTER_NAME", msdp.String("Gandalf")), flush(t, c, sock))
}

func TestReenableRepeatsNegotiation(t *testing.T) {
	t.Run("markup", func(t *testing.T) {
		c, sock := newTestConn(t)

		c.Feed(neg(telnet.DO, telnet.OptMXP))
		first := flush(t, c, sock)
		c.Feed(neg(telnet.DONT, telnet.OptMXP))
		assert.Empty(t, flush(t, c, sock))
		c.Feed(neg(telnet.DO, telnet.OptMXP))

		assert.Equal(t, first, flush(t, c, sock))
		assert.True(t, c.Capabilities().MXP)
	})

	t.Run("compression", func(t *testing.T) {
		c, sock := newTestConn(t)

		c.Feed(neg(telnet.DO, telnet.OptCompress2))
		first := flush(t, c, sock)
		caps := c.Capabilities()
		c.Feed(neg(telnet.DONT, telnet.OptCompress2))
		flush(t, c, sock)
		assert.False(t, c.Capabilities().Compressing)
		c.Feed(neg(telnet.DO, telnet.OptCompress2))

		assert.Equal(t, first, flush(t, c, sock))
		assert.Equal(t, caps, c.Capabilities())

		c.Enqueue("again\n")
		zr, err := zlib.NewReader(bytes.NewReader(flush(t, c, sock)))
		require.NoError(t, err, "a new stream starts with a fresh zlib header")
		got := make([]byte, len("again\r\n"))
		_, err = io.ReadFull(zr, got)
		require.NoError(t, err)
		assert.Equal(t, "again\r\n", string(got))
	})
}

func TestMarkupNegotiation(t *testing.T) {
	c, sock := newTestConn(t)

	c.Feed(neg(telnet.DO, telnet.OptMXP))
	want := append(telnet.Subnegotiation(telnet.OptMXP, nil), mxpQueries...)
	assert.Equal(t, want, flush(t, c, sock))
	assert.True(t, c.Capabilities().MXP)

	c.Feed([]byte("\x1b[1z<VERSION MXP=1.0 CLIENT=MUSHclient VERSION=5.07>\n"))
	term := c.Terminal()
	assert.Equal(t, "MUSHclient", term.MarkupClient)
	assert.True(t, c.Capabilities().MXPSecure)

	c.Feed(neg(telnet.DONT, telnet.OptMXP))
	assert.False(t, c.Capabilities().MXP)
	assert.False(t, c.Capabilities().MXPSecure)
}

func TestStatusOnDoMSSP(t *testing.T) {
	c, sock := newTestConn(t)

	c.Feed(neg(telnet.DO, telnet.OptMSSP))

	want := telnet.Subnegotiation(telnet.OptMSSP, telnet.EncodeStatus([]telnet.StatusVar{{Name: "NAME", Values: []string{"Realms"}}}))
	assert.Equal(t, want, flush(t, c, sock))
}

func TestSetEcho(t *testing.T) {
	c, sock := newTestConn(t)

	c.SetEcho(true)
	c.SetEcho(true)
	c.SetEcho(false)

	want := append(neg(telnet.WILL, telnet.OptEcho), neg(telnet.WONT, telnet.OptEcho)...)
	assert.Equal(t, want, flush(t, c, sock))
	assert.False(t, c.Capabilities().Echo)
}

func TestAreYouThere(t *testing.T) {
	c, sock := newTestConn(t)
	c.Feed(telnet.Command(telnet.AYT))
	assert.Equal(t, ayt, string(flush(t, c, sock)))
}

func TestKeepAlive(t *testing.T) {
	now := time.Unix(1000, 0)
	c, sock := newTestConn(t, func(cfg *Config) {
		cfg.KeepAlive = transport.KeepAliveConfig{ProbeInterval: time.Minute, IdleTimeout: 10 * time.Minute}
		cfg.Now = func() time.Time { return now }
	})

	assert.False(t, c.KeepAlive())
	assert.Empty(t, flush(t, c, sock))

	now = now.Add(2 * time.Minute)
	assert.False(t, c.KeepAlive())
	assert.Equal(t, telnet.Command(telnet.NOP), flush(t, c, sock))

	c.Feed([]byte("hi\r\n"))
	assert.Equal(t, time.Duration(0), c.IdleFor())

	now = now.Add(11 * time.Minute)
	assert.True(t, c.KeepAlive())
}

func TestTapAndObserve(t *testing.T) {
	var tapped []string
	c, _ := newTestConn(t, func(cfg *Config) {
		cfg.Tap = func(_ *Conn, text string) { tapped = append(tapped, text) }
	})

	c.Enqueue("one")
	c.Observe("two")
	c.Printf("%d", 3)

	assert.Equal(t, []string{"one", "3"}, tapped)
}

func TestProtocolLogging(t *testing.T) {
	logger := &captureLogger{}
	c, _ := newTestConn(t, func(cfg *Config) { cfg.ProtocolLogger = logger })
	c.Attach(&testSession{name: "Frodo"})

	c.Feed(neg(telnet.DO, telnet.OptEOR))

	var negs []*log.NegotiationEvent
	for _, ev := range logger.events {
		if ev.Negotiation != nil {
			negs = append(negs, ev.Negotiation)
			assert.Equal(t, "Frodo", ev.Player)
			assert.Equal(t, "conn-1", ev.ConnectionID)
		}
	}
	require.Len(t, negs, 1)
	assert.Equal(t, telnet.DO, negs[0].Verb)
	assert.Equal(t, "EOR", negs[0].Name)
	assert.Contains(t, logger.states(), "EOR ON")
}

func TestAnomalyLogged(t *testing.T) {
	logger := &captureLogger{}
	c, _ := newTestConn(t, func(cfg *Config) { cfg.ProtocolLogger = logger })

	c.Feed([]byte{telnet.IAC, telnet.SB, 99, 1, 2, telnet.IAC, telnet.SE})

	var found bool
	for _, ev := range logger.events {
		if ev.Anomaly != nil {
			found = true
			assert.Equal(t, log.LayerTelnet, ev.Anomaly.Layer)
		}
	}
	assert.True(t, found)
}

func TestClose(t *testing.T) {
	logger := &captureLogger{}
	c, sock := newTestConn(t, func(cfg *Config) { cfg.ProtocolLogger = logger })
	c.Feed(neg(telnet.DO, telnet.OptCompress2))
	c.Feed(neg(telnet.DO, telnet.OptMSDP))
	c.Reporter().Report("UTF_8")
	flush(t, c, sock)

	c.Enqueue("Goodbye!\n")
	require.NoError(t, c.Close("quit"))
	require.NoError(t, c.Close("again"))

	assert.True(t, sock.closed)
	assert.True(t, c.Closed())
	assert.Equal(t, ModeClosing, c.Mode())
	assert.Empty(t, c.Reporter().Reported())
	assert.False(t, c.Capabilities().Compressing)
	assert.Contains(t, logger.states(), "CLOSED")

	_, err := c.Flush()
	assert.True(t, errors.Is(err, ErrClosed))
	assert.ErrorIs(t, c.Read(), ErrClosed)
}

func TestCloseEndsCompressionBehindRemainder(t *testing.T) {
	c, sock := newTestConn(t)
	c.Feed(neg(telnet.DO, telnet.OptCompress2))
	flush(t, c, sock)

	sock.limit = 3
	c.Enqueue(strings.Repeat("The wind howls through the pass. ", 20))
	_, err := c.Flush()
	require.NoError(t, err)
	require.True(t, c.Pending())

	require.NoError(t, c.Close("lost"))

	caps := c.Capabilities()
	assert.False(t, caps.Compressing)
	assert.Zero(t, caps.CompressVersion)
	assert.False(t, c.codec.Active())
}
