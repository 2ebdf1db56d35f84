package connection

import (
	"strconv"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/compress"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/log"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/msdp"
	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// mxpQueries asks the client to identify itself over the secure line.
var mxpQueries = []byte("\x1b[1z<VERSION>\r\n\x1b[1z<SUPPORT>\r\n")

// ayt is the reply to IAC AYT.
const ayt = "\r\n[Yes]\r\n"

func (c *Conn) handle(ev telnet.Event) {
	switch ev.Kind {
	case telnet.EventLine:
		c.pushLine(ev.Line)
	case telnet.EventCommand:
		if ev.Command == telnet.AYT {
			c.out.EnqueueRaw([]byte(ayt))
		}
	case telnet.EventNegotiation:
		c.logNegotiation(log.DirectionIn, ev.Command, ev.Option)
		c.negotiate(ev.Command, ev.Option)
	case telnet.EventSubnegotiation:
		c.logSubnegotiation(log.DirectionIn, ev.Option, ev.Data)
		c.subnegotiate(ev.Option, ev.Data)
	case telnet.EventWindowSize:
		c.windowSize(ev.Width, ev.Height)
	case telnet.EventCharset:
		c.charsetReply(ev.Command)
	case telnet.EventSecureLine:
		c.secureLine(ev.Secure)
	case telnet.EventAnomaly:
		c.logAnomaly(log.LayerTelnet, ev.Reason, c.parser.State().String())
	}
}

func (c *Conn) negotiate(verb, opt byte) {
	switch opt {
	case telnet.OptTTYPE:
		switch verb {
		case telnet.WILL:
			if !c.caps.TTYPE {
				c.setFlag("TTYPE", &c.caps.TTYPE, true)
				c.requestTerminalType()
			}
		case telnet.WONT:
			c.setFlag("TTYPE", &c.caps.TTYPE, false)
		default:
			c.refuse(verb, opt)
		}

	case telnet.OptNAWS:
		// Clients answer the DO NAWS offer with either verb.
		switch verb {
		case telnet.WILL, telnet.DO:
			c.setFlag("NAWS", &c.caps.NAWS, true)
		case telnet.WONT, telnet.DONT:
			c.setFlag("NAWS", &c.caps.NAWS, false)
		}

	case telnet.OptCharset:
		switch verb {
		case telnet.DO, telnet.WILL:
			if !c.cfg.OfferUTF8 {
				c.refuse(verb, opt)
				return
			}
			c.setFlag("CHARSET", &c.caps.Charset, true)
			if !c.charsetSent {
				c.charsetSent = true
				c.sendSubnegotiation(telnet.OptCharset, telnet.CharsetOffer())
			}
		default:
			c.setFlag("CHARSET", &c.caps.Charset, false)
		}

	case telnet.OptCompress2:
		switch verb {
		case telnet.DO:
			c.startCompression(compress.V2)
		case telnet.DONT:
			c.endCompression(compress.V2)
		default:
			c.refuse(verb, opt)
		}

	case telnet.OptCompress:
		switch verb {
		case telnet.DO:
			c.startCompression(compress.V1)
		case telnet.DONT:
			c.endCompression(compress.V1)
		default:
			c.refuse(verb, opt)
		}

	case telnet.OptEOR:
		c.toggle(verb, opt, "EOR", &c.caps.EOR, true)

	case telnet.OptMSP:
		c.toggle(verb, opt, "SOUND", &c.caps.Sound, c.cfg.SoundEnabled)

	case telnet.OptEcho:
		// Echo is driven by SetEcho; the client's reply is only recorded.
		switch verb {
		case telnet.DO, telnet.DONT:
			c.logState(log.StateEntityCapability, "", "ECHO "+telnet.CommandName(verb), "")
		default:
			c.refuse(verb, opt)
		}

	case telnet.OptMSDP:
		switch verb {
		case telnet.DO:
			c.enableReporting(msdp.FramingMSDP)
		case telnet.DONT:
			c.disableReporting(msdp.FramingMSDP)
		default:
			c.refuse(verb, opt)
		}

	case telnet.OptATCP:
		switch verb {
		case telnet.DO, telnet.WILL:
			c.enableReporting(msdp.FramingATCP)
		case telnet.DONT, telnet.WONT:
			c.disableReporting(msdp.FramingATCP)
		}

	case telnet.OptMXP:
		switch verb {
		case telnet.DO:
			if !c.cfg.MarkupEnabled {
				c.refuse(verb, opt)
				return
			}
			if !c.caps.MXP {
				c.setFlag("MXP", &c.caps.MXP, true)
				c.sendSubnegotiation(telnet.OptMXP, telnet.Subnegotiation(telnet.OptMXP, nil))
				c.out.EnqueueRaw(mxpQueries)
			}
		case telnet.DONT:
			c.setFlag("MXP", &c.caps.MXP, false)
			c.caps.MXPSecure = false
		default:
			c.refuse(verb, opt)
		}

	case telnet.OptMSSP:
		switch verb {
		case telnet.DO:
			if c.cfg.Status == nil {
				c.refuse(verb, opt)
				return
			}
			c.sendStatus()
		case telnet.DONT:
		default:
			c.refuse(verb, opt)
		}

	default:
		c.refuse(verb, opt)
	}
}

// toggle handles an option the server offers with WILL and the client
// accepts with DO.
func (c *Conn) toggle(verb, opt byte, name string, flag *bool, allowed bool) {
	switch verb {
	case telnet.DO:
		if !allowed {
			c.refuse(verb, opt)
			return
		}
		c.setFlag(name, flag, true)
	case telnet.DONT:
		c.setFlag(name, flag, false)
	default:
		c.refuse(verb, opt)
	}
}

// refuse declines an option the server does not support. Negative replies
// are never answered, which keeps negotiation loops impossible.
func (c *Conn) refuse(verb, opt byte) {
	switch verb {
	case telnet.DO:
		c.sendNegotiation(telnet.WONT, opt)
	case telnet.WILL:
		c.sendNegotiation(telnet.DONT, opt)
	}
}

func (c *Conn) setFlag(name string, flag *bool, on bool) {
	if *flag == on {
		return
	}
	*flag = on
	old, now := "OFF", "ON"
	if !on {
		old, now = now, old
	}
	c.logState(log.StateEntityCapability, name+" "+old, name+" "+now, "")
}

func (c *Conn) requestTerminalType() {
	if c.term.Queries >= telnet.MaxTTypeQueries {
		return
	}
	c.term.Queries++
	c.sendSubnegotiation(telnet.OptTTYPE, telnet.TTypeRequest())
}

func (c *Conn) startCompression(v compress.Version) {
	if !c.cfg.CompressionEnabled {
		c.refuse(telnet.DO, v.Option())
		return
	}
	if c.compression != compress.VersionNone {
		// v2 wins over v1; a second request is a no-op.
		return
	}
	c.compression = v
	c.out.StartCompression(v)
	c.logState(log.StateEntityCompression, compress.VersionNone.String(), v.String(), "")
}

func (c *Conn) endCompression(v compress.Version) {
	if c.compression != v {
		return
	}
	c.compression = compress.VersionNone
	c.out.EndCompression()
	c.logState(log.StateEntityCompression, v.String(), compress.VersionNone.String(), "")
}

// compressFailed runs inside the pipeline when a queued start could not
// allocate a compressor. Output continues uncompressed.
func (c *Conn) compressFailed(v compress.Version, err error) {
	c.compression = compress.VersionNone
	c.out.EnqueueRaw(telnet.Negotiate(telnet.WONT, v.Option()))
	c.logAnomaly(log.LayerTransport, "compression start failed: "+err.Error(), v.String())
	if c.cfg.Logger != nil {
		c.cfg.Logger.Warn("compression start failed", "conn", c.id, "version", v, "error", err)
	}
}

// enableReporting turns on one reporting framing. Structured reporting
// supersedes the legacy framing; legacy is refused while structured
// reporting is active.
func (c *Conn) enableReporting(f msdp.Framing) {
	if c.cfg.Catalog == nil || (f == msdp.FramingATCP && !c.cfg.LegacyReporting) {
		c.refuse(telnet.DO, f.Option())
		return
	}
	switch f {
	case msdp.FramingMSDP:
		if c.caps.MSDP {
			return
		}
		c.setFlag("ATCP", &c.caps.ATCP, false)
		c.setFlag("MSDP", &c.caps.MSDP, true)
	case msdp.FramingATCP:
		if c.caps.MSDP {
			c.sendNegotiation(telnet.WONT, telnet.OptATCP)
			return
		}
		if c.caps.ATCP {
			return
		}
		c.setFlag("ATCP", &c.caps.ATCP, true)
	}

	if c.reporter == nil {
		c.reporter = msdp.NewReporter(msdp.ReporterConfig{
			Catalog:   c.cfg.Catalog,
			Subject:   c,
			Framing:   f,
			Send:      c.sendReport,
			Intervals: c.cfg.ReportIntervals,

			MaxSubscriptions: c.cfg.MaxSubscriptions,
			OnConfigure: func(name string, v msdp.Value) {
				c.logState(log.StateEntityCapability, "", name+"="+v.String(), "client configured")
			},
			Logger: c.cfg.Logger,
		})
		return
	}
	c.reporter.SetFraming(f)
}

func (c *Conn) disableReporting(f msdp.Framing) {
	switch f {
	case msdp.FramingMSDP:
		c.setFlag("MSDP", &c.caps.MSDP, false)
	case msdp.FramingATCP:
		c.setFlag("ATCP", &c.caps.ATCP, false)
	}
	if c.reporter != nil && !c.caps.Reporting() {
		c.reporter.Reset()
	}
}

func (c *Conn) sendReport(frame []byte) {
	if len(frame) >= 5 {
		c.logSubnegotiation(log.DirectionOut, frame[2], frame[3:len(frame)-2])
	}
	c.out.EnqueueRaw(frame)
}

func (c *Conn) sendStatus() {
	vars := c.cfg.Status()
	c.sendSubnegotiation(telnet.OptMSSP, telnet.Subnegotiation(telnet.OptMSSP, telnet.EncodeStatus(vars)))
}

func (c *Conn) subnegotiate(opt byte, payload []byte) {
	switch opt {
	case telnet.OptTTYPE:
		name, ok := telnet.ParseTType(payload)
		if !ok {
			c.logAnomaly(log.LayerTelnet, "malformed terminal type reply", strconv.Itoa(len(payload)))
			return
		}
		c.terminalType(name)

	case telnet.OptMSDP:
		if !c.caps.MSDP || c.reporter == nil {
			return
		}
		if err := c.reporter.Handle(payload); err != nil {
			c.logAnomaly(log.LayerReporting, err.Error(), "MSDP")
		}

	case telnet.OptATCP:
		if !c.caps.ATCP || c.reporter == nil {
			return
		}
		if err := c.reporter.Handle(payload); err != nil {
			c.logAnomaly(log.LayerReporting, err.Error(), "ATCP")
		}

	default:
		if c.cfg.Logger != nil {
			c.cfg.Logger.Debug("ignored subnegotiation", "conn", c.id, "option", telnet.OptionName(opt), "size", len(payload))
		}
	}
}

// terminalType records a TTYPE IS reply and re-queries while the reported
// type keeps changing, since some clients only reveal MTTS on later queries.
func (c *Conn) terminalType(name string) {
	changed := name != c.term.Type
	c.term.PreviousType = c.term.Type
	c.term.Type = name
	if bits, ok := telnet.ParseMTTS(name); ok {
		c.term.MTTS = bits
	}
	telnet.ApplyTerminalType(&c.caps, name)
	c.logState(log.StateEntityCapability, c.term.PreviousType, "TTYPE "+name, "")

	if changed {
		c.requestTerminalType()
	}
}

func (c *Conn) windowSize(width, height int) {
	if width > 0 {
		c.term.Columns = width
	}
	if height > 0 {
		c.term.Rows = height
	}
	c.caps.NAWS = true
}

func (c *Conn) charsetReply(code byte) {
	switch code {
	case telnet.CharsetAccepted:
		c.setFlag("UTF8", &c.caps.UTF8, true)
	case telnet.CharsetRejected:
		c.setFlag("UTF8", &c.caps.UTF8, false)
	}
}

func (c *Conn) secureLine(attrs telnet.SecureAttributes) {
	if !c.caps.MXP || attrs.Empty() {
		return
	}
	if attrs.Client != "" {
		c.term.MarkupClient = attrs.Client
	}
	if attrs.Version != "" {
		c.term.MarkupVersion = attrs.Version
	}
	if attrs.Support != "" {
		c.term.MarkupSupport = attrs.Support
	}
	c.setFlag("MXP_SECURE", &c.caps.MXPSecure, true)
}

func (c *Conn) sendNegotiation(verb, opt byte) {
	c.logNegotiation(log.DirectionOut, verb, opt)
	c.out.EnqueueRaw(telnet.Negotiate(verb, opt))
}

// sendSubnegotiation queues a framed sub-negotiation for opt.
func (c *Conn) sendSubnegotiation(opt byte, frame []byte) {
	if len(frame) >= 5 {
		c.logSubnegotiation(log.DirectionOut, opt, frame[3:len(frame)-2])
	}
	c.out.EnqueueRaw(frame)
}
