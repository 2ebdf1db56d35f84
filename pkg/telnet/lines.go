package telnet

import "unicode/utf8"

// DefaultMaxLineLength is the longest input line kept before truncation.
const DefaultMaxLineLength = 2048

const (
	backspace = 0x08
	del       = 0x7f
)

// LineAssembler accumulates plain-text bytes into complete lines.
type LineAssembler struct {
	buf       []byte
	max       int
	truncated bool
	lastEOL   byte
}

// NewLineAssembler returns an assembler enforcing maxLen bytes per line.
// A non-positive maxLen selects DefaultMaxLineLength.
func NewLineAssembler(maxLen int) *LineAssembler {
	if maxLen <= 0 {
		maxLen = DefaultMaxLineLength
	}
	return &LineAssembler{max: maxLen}
}

// Push adds one byte. When the byte completes a line, the line is returned
// with done set.
func (a *LineAssembler) Push(b byte) (line string, truncated bool, done bool) {
	if b == '\r' || b == '\n' {
		if a.lastEOL != 0 && a.lastEOL != b {
			// second half of CRLF or LFCR
			a.lastEOL = 0
			return "", false, false
		}
		a.lastEOL = b
		line, truncated = string(a.buf), a.truncated
		a.buf = a.buf[:0]
		a.truncated = false
		return line, truncated, true
	}
	a.lastEOL = 0

	switch {
	case b == backspace || b == del:
		a.EraseChar()
	case b == '\t':
		a.append(' ')
	case b < 32:
		// other control bytes never reach the command layer
	default:
		a.append(b)
	}
	return "", false, false
}

func (a *LineAssembler) append(b byte) {
	if len(a.buf) >= a.max {
		a.truncated = true
		return
	}
	a.buf = append(a.buf, b)
}

// EraseChar removes the last character of the partial line.
func (a *LineAssembler) EraseChar() {
	if len(a.buf) == 0 {
		return
	}
	_, size := utf8.DecodeLastRune(a.buf)
	if size <= 0 {
		size = 1
	}
	a.buf = a.buf[:len(a.buf)-size]
}

// EraseLine discards the partial line.
func (a *LineAssembler) EraseLine() {
	a.buf = a.buf[:0]
	a.truncated = false
}

// Pending returns the held-back partial line.
func (a *LineAssembler) Pending() string {
	return string(a.buf)
}

// Reset clears all state.
func (a *LineAssembler) Reset() {
	a.buf = a.buf[:0]
	a.truncated = false
	a.lastEOL = 0
}
