package telnet

// Negotiate returns IAC <verb> <option>.
func Negotiate(verb, option byte) []byte {
	return []byte{IAC, verb, option}
}

// Command returns IAC <cmd>.
func Command(cmd byte) []byte {
	return []byte{IAC, cmd}
}

// Subnegotiation frames payload as IAC SB <option> ... IAC SE, doubling any
// IAC bytes in the payload.
func Subnegotiation(option byte, payload []byte) []byte {
	out := make([]byte, 0, len(payload)+5)
	out = append(out, IAC, SB, option)
	out = AppendEscaped(out, payload)
	return append(out, IAC, SE)
}

// AppendEscaped appends p to dst with every IAC doubled.
func AppendEscaped(dst, p []byte) []byte {
	for _, b := range p {
		if b == IAC {
			dst = append(dst, IAC, IAC)
			continue
		}
		dst = append(dst, b)
	}
	return dst
}

// EscapeIAC returns a copy of p with every IAC doubled.
func EscapeIAC(p []byte) []byte {
	return AppendEscaped(make([]byte, 0, len(p)), p)
}

// TTypeRequest asks the client for its next terminal type.
func TTypeRequest() []byte {
	return Subnegotiation(OptTTYPE, []byte{TTypeSend})
}

// CharsetOffer offers UTF-8, the only character set this layer proposes.
func CharsetOffer() []byte {
	return Subnegotiation(OptCharset, append([]byte{CharsetRequest}, ";UTF-8"...))
}

// ParseTType extracts the name from a TTYPE IS payload.
func ParseTType(payload []byte) (string, bool) {
	if len(payload) < 2 || payload[0] != TTypeIS {
		return "", false
	}
	return string(payload[1:]), true
}
