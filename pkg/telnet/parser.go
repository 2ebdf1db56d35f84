package telnet

import "fmt"

// State is the parse position of a Parser between bytes.
type State uint8

const (
	StateIdle          State = iota // plain text
	StateCommand                    // IAC seen, awaiting verb
	StateWill                       // IAC WILL, awaiting option
	StateWont                       // IAC WONT, awaiting option
	StateDo                         // IAC DO, awaiting option
	StateDont                       // IAC DONT, awaiting option
	StateSubneg                     // IAC SB, awaiting option
	StateNAWS                       // collecting the four NAWS bytes
	StateNAWSEnd                    // NAWS complete, awaiting IAC SE
	StateCharset                    // awaiting CHARSET accept/reject code
	StateCollect                    // accumulating a payload to IAC SE
	StateCollectIAC                 // IAC inside a collected payload
	StateSkip                       // discarding an unknown payload to IAC SE
	StateSkipIAC                    // IAC inside a discarded payload
	StateEscape                     // ESC seen
	StateEscapeBracket              // ESC [
	StateEscapeOne                  // ESC [ 1
	StateSecureLine                 // ESC [ 1 z, collecting to newline
	numStates
)

var stateNames = [numStates]string{
	StateIdle:          "IDLE",
	StateCommand:       "COMMAND",
	StateWill:          "WILL",
	StateWont:          "WONT",
	StateDo:            "DO",
	StateDont:          "DONT",
	StateSubneg:        "SUBNEG",
	StateNAWS:          "NAWS",
	StateNAWSEnd:       "NAWS_END",
	StateCharset:       "CHARSET",
	StateCollect:       "COLLECT",
	StateCollectIAC:    "COLLECT_IAC",
	StateSkip:          "SKIP",
	StateSkipIAC:       "SKIP_IAC",
	StateEscape:        "ESCAPE",
	StateEscapeBracket: "ESCAPE_BRACKET",
	StateEscapeOne:     "ESCAPE_ONE",
	StateSecureLine:    "SECURE_LINE",
}

// String returns the state name.
func (s State) String() string {
	if s < numStates {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// EventKind identifies the type of parser event.
type EventKind uint8

const (
	// EventLine carries one complete, control-stripped input line.
	EventLine EventKind = iota
	// EventCommand carries a bare IAC command such as GA or AYT.
	EventCommand
	// EventNegotiation carries WILL/WONT/DO/DONT and an option.
	EventNegotiation
	// EventSubnegotiation carries a complete payload for Option.
	EventSubnegotiation
	// EventWindowSize carries NAWS dimensions.
	EventWindowSize
	// EventCharset carries the CHARSET reply code.
	EventCharset
	// EventSecureLine carries markup secure-line attributes.
	EventSecureLine
	// EventAnomaly reports a recovered protocol anomaly.
	EventAnomaly
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventLine:
		return "LINE"
	case EventCommand:
		return "COMMAND"
	case EventNegotiation:
		return "NEGOTIATION"
	case EventSubnegotiation:
		return "SUBNEGOTIATION"
	case EventWindowSize:
		return "WINDOW_SIZE"
	case EventCharset:
		return "CHARSET"
	case EventSecureLine:
		return "SECURE_LINE"
	case EventAnomaly:
		return "ANOMALY"
	default:
		return "UNKNOWN"
	}
}

// Event is one unit of parser output.
type Event struct {
	Kind EventKind

	// EventLine
	Line      string
	Truncated bool

	// EventCommand, EventNegotiation (verb), EventCharset (reply code)
	Command byte

	// EventNegotiation, EventSubnegotiation
	Option byte
	Data   []byte

	// EventWindowSize
	Width  int
	Height int

	// EventSecureLine
	Secure SecureAttributes

	// EventAnomaly
	Reason string
}

// Parser limits.
const (
	DefaultMaxSubnegotiation = 8192
	maxSecureLine            = 1024
)

// ParserConfig configures a Parser. Zero values select defaults.
type ParserConfig struct {
	MaxLineLength     int
	MaxSubnegotiation int
}

// Parser is the per-connection negotiation state machine.
// It is not safe for concurrent use.
type Parser struct {
	state  State
	lines  *LineAssembler
	events []Event

	sbOption   byte
	payload    []byte
	maxPayload int

	naws           [4]byte
	nawsLen        int
	nawsIAC        bool
	nawsSuspicious bool

	secure []byte
}

// NewParser creates a parser in the idle state.
func NewParser(cfg ParserConfig) *Parser {
	if cfg.MaxSubnegotiation <= 0 {
		cfg.MaxSubnegotiation = DefaultMaxSubnegotiation
	}
	return &Parser{
		lines:      NewLineAssembler(cfg.MaxLineLength),
		maxPayload: cfg.MaxSubnegotiation,
	}
}

// State returns the current parse position.
func (p *Parser) State() State {
	return p.state
}

// PendingLine returns the partial input line held back so far.
func (p *Parser) PendingLine() string {
	return p.lines.Pending()
}

// Buffered returns the number of sub-negotiation bytes held.
func (p *Parser) Buffered() int {
	return len(p.payload) + len(p.secure)
}

// Reset discards all transient parse state.
func (p *Parser) Reset() {
	p.state = StateIdle
	p.payload = nil
	p.secure = nil
	p.nawsLen = 0
	p.nawsIAC = false
	p.nawsSuspicious = false
	p.lines.Reset()
}

// Feed consumes data and returns the events it produced, in order.
func (p *Parser) Feed(data []byte) []Event {
	p.events = nil
	for _, b := range data {
		// step returns false when the byte must be re-dispatched in the
		// state it just moved to; each such path changes state first.
		for !p.step(b) {
		}
	}
	return p.events
}

func (p *Parser) step(b byte) bool {
	switch p.state {
	case StateIdle:
		return p.idle(b)
	case StateCommand:
		return p.command(b)
	case StateWill:
		return p.option(WILL, b)
	case StateWont:
		return p.option(WONT, b)
	case StateDo:
		return p.option(DO, b)
	case StateDont:
		return p.option(DONT, b)
	case StateSubneg:
		return p.subneg(b)
	case StateNAWS:
		return p.nawsByte(b)
	case StateNAWSEnd:
		return p.nawsEnd(b)
	case StateCharset:
		return p.charset(b)
	case StateCollect:
		return p.collect(b)
	case StateCollectIAC:
		return p.collectIAC(b)
	case StateSkip:
		return p.skip(b)
	case StateSkipIAC:
		return p.skipIAC(b)
	case StateEscape:
		return p.escape(b)
	case StateEscapeBracket:
		return p.escapeBracket(b)
	case StateEscapeOne:
		return p.escapeOne(b)
	case StateSecureLine:
		return p.secureLine(b)
	default:
		p.anomaly("impossible parser state %d", p.state)
		p.Reset()
		return false
	}
}

func (p *Parser) idle(b byte) bool {
	switch b {
	case IAC:
		p.state = StateCommand
	case ESC:
		p.state = StateEscape
	default:
		p.text(b)
	}
	return true
}

func (p *Parser) command(b byte) bool {
	p.state = StateIdle
	switch b {
	case WILL:
		p.state = StateWill
	case WONT:
		p.state = StateWont
	case DO:
		p.state = StateDo
	case DONT:
		p.state = StateDont
	case SB:
		p.state = StateSubneg
	case IAC:
		p.text(IAC)
	case EC:
		p.lines.EraseChar()
	case EL:
		p.lines.EraseLine()
	case SE, NOP, DM:
	default:
		p.emit(Event{Kind: EventCommand, Command: b})
	}
	return true
}

func (p *Parser) option(verb, opt byte) bool {
	p.state = StateIdle
	p.emit(Event{Kind: EventNegotiation, Command: verb, Option: opt})
	return true
}

func (p *Parser) subneg(opt byte) bool {
	p.sbOption = opt
	p.payload = p.payload[:0]
	switch opt {
	case OptNAWS:
		p.nawsLen = 0
		p.nawsIAC = false
		p.nawsSuspicious = false
		p.state = StateNAWS
	case OptCharset:
		p.state = StateCharset
	case OptTTYPE, OptMSDP, OptATCP, OptMSSP:
		p.state = StateCollect
	default:
		p.anomaly("discarding unknown sub-negotiation %s", OptionName(opt))
		p.state = StateSkip
	}
	return true
}

func (p *Parser) nawsByte(b byte) bool {
	if p.nawsIAC {
		p.nawsIAC = false
		p.pushNAWS(IAC)
		if b == IAC {
			return true
		}
		p.anomaly("undoubled IAC in NAWS payload")
		return false
	}
	if b == IAC {
		p.nawsIAC = true
		return true
	}
	p.pushNAWS(b)
	return true
}

func (p *Parser) pushNAWS(b byte) {
	p.naws[p.nawsLen] = b
	p.nawsLen++
	if p.nawsLen < len(p.naws) {
		return
	}
	width := int(p.naws[0])<<8 | int(p.naws[1])
	height := int(p.naws[2])<<8 | int(p.naws[3])
	p.nawsSuspicious = width == 255 || height == 255
	p.nawsLen = 0
	p.state = StateNAWSEnd
	p.emit(Event{Kind: EventWindowSize, Option: OptNAWS, Width: width, Height: height})
}

func (p *Parser) nawsEnd(b byte) bool {
	switch {
	case b == IAC:
		p.state = StateSkipIAC
		return true
	case b == SE && p.nawsSuspicious:
		p.anomaly("bare SE after NAWS dimension 255, resynchronising")
		p.nawsSuspicious = false
		p.state = StateCommand
		return false
	default:
		p.anomaly("unterminated NAWS sub-negotiation")
		p.nawsSuspicious = false
		p.state = StateIdle
		return false
	}
}

func (p *Parser) charset(b byte) bool {
	if b == IAC {
		p.anomaly("empty CHARSET sub-negotiation")
		p.state = StateSkipIAC
		return true
	}
	p.emit(Event{Kind: EventCharset, Option: OptCharset, Command: b})
	p.state = StateSkip
	return true
}

func (p *Parser) collect(b byte) bool {
	if b == IAC {
		p.state = StateCollectIAC
		return true
	}
	p.appendPayload(b)
	return true
}

func (p *Parser) appendPayload(b byte) {
	if len(p.payload) >= p.maxPayload {
		p.anomaly("%s sub-negotiation exceeds %d bytes", OptionName(p.sbOption), p.maxPayload)
		p.payload = p.payload[:0]
		p.state = StateSkip
		return
	}
	p.payload = append(p.payload, b)
}

func (p *Parser) collectIAC(b byte) bool {
	switch b {
	case SE:
		data := make([]byte, len(p.payload))
		copy(data, p.payload)
		p.payload = p.payload[:0]
		p.state = StateIdle
		p.emit(Event{Kind: EventSubnegotiation, Option: p.sbOption, Data: data})
		return true
	case IAC:
		p.state = StateCollect
		p.appendPayload(IAC)
		return true
	default:
		p.anomaly("unterminated %s sub-negotiation", OptionName(p.sbOption))
		p.payload = p.payload[:0]
		p.state = StateCommand
		return false
	}
}

func (p *Parser) skip(b byte) bool {
	if b == IAC {
		p.state = StateSkipIAC
	}
	return true
}

func (p *Parser) skipIAC(b byte) bool {
	switch b {
	case SE:
		p.state = StateIdle
		return true
	case IAC:
		p.state = StateSkip
		return true
	default:
		p.state = StateCommand
		return false
	}
}

func (p *Parser) escape(b byte) bool {
	if b == '[' {
		p.state = StateEscapeBracket
		return true
	}
	p.text(ESC)
	p.state = StateIdle
	return false
}

func (p *Parser) escapeBracket(b byte) bool {
	if b == '1' {
		p.state = StateEscapeOne
		return true
	}
	p.text(ESC, '[')
	p.state = StateIdle
	return false
}

func (p *Parser) escapeOne(b byte) bool {
	if b == 'z' {
		p.secure = p.secure[:0]
		p.state = StateSecureLine
		return true
	}
	p.text(ESC, '[', '1')
	p.state = StateIdle
	return false
}

func (p *Parser) secureLine(b byte) bool {
	switch b {
	case '\n':
		attrs := ParseSecureAttributes(string(p.secure))
		p.secure = p.secure[:0]
		p.state = StateIdle
		p.emit(Event{Kind: EventSecureLine, Secure: attrs})
	case '\r':
	default:
		if len(p.secure) >= maxSecureLine {
			p.anomaly("secure line exceeds %d bytes", maxSecureLine)
			p.secure = p.secure[:0]
			p.state = StateIdle
			return true
		}
		p.secure = append(p.secure, b)
	}
	return true
}

func (p *Parser) text(bs ...byte) {
	for _, b := range bs {
		if line, truncated, done := p.lines.Push(b); done {
			p.emit(Event{Kind: EventLine, Line: line, Truncated: truncated})
		}
	}
}

func (p *Parser) emit(ev Event) {
	p.events = append(p.events, ev)
}

func (p *Parser) anomaly(format string, args ...any) {
	p.emit(Event{Kind: EventAnomaly, Reason: fmt.Sprintf(format, args...)})
}
