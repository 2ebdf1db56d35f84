package telnet

import (
	"strconv"
	"strings"
)

// ColorMode selects how colour markers are rendered.
type ColorMode uint8

const (
	// ColorOff drops colour markers.
	ColorOff ColorMode = iota
	// ColorANSI renders the 16 basic ANSI colours.
	ColorANSI
)

// String returns the colour mode name.
func (m ColorMode) String() string {
	switch m {
	case ColorOff:
		return "OFF"
	case ColorANSI:
		return "ANSI"
	default:
		return "UNKNOWN"
	}
}

// Capabilities holds the negotiated capability flags of one connection.
// Flags are only raised on a confirmed peer response.
type Capabilities struct {
	Color    ColorMode
	Xterm256 bool

	// CompressVersion is the MCCP version in use (1 or 2), 0 when inactive.
	CompressVersion uint8
	Compressing     bool

	MSDP bool // structured variable reporting
	ATCP bool // legacy reporting

	MXP       bool
	MXPSecure bool // client has answered the secure-line queries

	EOR     bool
	Sound   bool
	NAWS    bool
	TTYPE   bool
	Charset bool
	UTF8    bool
	Dumb    bool

	// Echo is true while the server has taken over echo (password entry).
	Echo bool
}

// DefaultCapabilities returns the capability set of a freshly accepted
// connection, before any negotiation.
func DefaultCapabilities() Capabilities {
	return Capabilities{Color: ColorANSI}
}

// ColorEnabled reports whether colour markers should be rendered.
func (c Capabilities) ColorEnabled() bool {
	return c.Color != ColorOff && !c.Dumb
}

// Reporting reports whether either reporting sub-protocol is active.
func (c Capabilities) Reporting() bool {
	return c.MSDP || c.ATCP
}

// Default terminal geometry used until NAWS reports otherwise.
const (
	DefaultColumns = 80
	DefaultRows    = 24
)

// MaxTTypeQueries bounds TTYPE re-query cycling.
const MaxTTypeQueries = 4

// Terminal holds client-reported terminal metadata.
type Terminal struct {
	Type         string
	PreviousType string
	Queries      int

	Columns int
	Rows    int

	// MTTS is the bitfield from an "MTTS <n>" terminal type, 0 if none.
	MTTS int

	MarkupClient  string
	MarkupVersion string
	MarkupSupport string
}

// DefaultTerminal returns terminal metadata with default geometry.
func DefaultTerminal() Terminal {
	return Terminal{Columns: DefaultColumns, Rows: DefaultRows}
}

// MTTS capability bits.
const (
	MTTSAnsi       = 1
	MTTSVT100      = 2
	MTTSUTF8       = 4
	MTTS256Colors  = 8
	MTTSMouse      = 16
	MTTSOSCColor   = 32
	MTTSScreenRead = 64
	MTTSProxy      = 128
	MTTSTrueColor  = 256
)

// ParseMTTS extracts the bitfield from an "MTTS <n>" terminal type.
func ParseMTTS(ttype string) (int, bool) {
	fields := strings.Fields(ttype)
	if len(fields) != 2 || !strings.EqualFold(fields[0], "MTTS") {
		return 0, false
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// ApplyTerminalType folds a reported terminal type into caps.
// It never lowers a flag raised by an earlier report.
func ApplyTerminalType(caps *Capabilities, ttype string) {
	if bits, ok := ParseMTTS(ttype); ok {
		if bits&MTTSAnsi != 0 {
			caps.Color = ColorANSI
		}
		if bits&MTTSUTF8 != 0 {
			caps.UTF8 = true
		}
		if bits&(MTTS256Colors|MTTSTrueColor) != 0 {
			caps.Xterm256 = true
		}
		return
	}

	upper := strings.ToUpper(ttype)
	switch {
	case upper == "DUMB":
		caps.Dumb = true
	case strings.Contains(upper, "256COLOR"), strings.HasPrefix(upper, "XTERM"):
		caps.Xterm256 = true
	}
}
