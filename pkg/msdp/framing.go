package msdp

import (
	"strings"

	"github.com/RealmsMud/RealmsCode-sub003/pkg/telnet"
)

// Framing selects the sub-protocol reports travel over.
type Framing uint8

const (
	// FramingMSDP uses structured VAR/VAL payloads on option 69.
	FramingMSDP Framing = iota
	// FramingATCP uses "MSDP.<NAME> <value>" text on option 200.
	FramingATCP
)

// legacyPrefix is the package name carried by every ATCP message.
const legacyPrefix = "MSDP."

// String returns the framing name.
func (f Framing) String() string {
	switch f {
	case FramingMSDP:
		return "MSDP"
	case FramingATCP:
		return "ATCP"
	default:
		return "UNKNOWN"
	}
}

// Option returns the telnet option the framing is carried on.
func (f Framing) Option() byte {
	if f == FramingATCP {
		return telnet.OptATCP
	}
	return telnet.OptMSDP
}

// Frame returns the complete sub-negotiation carrying name=value.
func (f Framing) Frame(name string, v Value) []byte {
	if f == FramingATCP {
		return telnet.Subnegotiation(telnet.OptATCP, EncodeLegacy(name, v))
	}
	return telnet.Subnegotiation(telnet.OptMSDP, AppendVar(nil, name, v))
}

// Decode parses an inbound payload in this framing.
func (f Framing) Decode(payload []byte) ([]Var, error) {
	if f == FramingATCP {
		return DecodeLegacy(payload), nil
	}
	return Decode(payload)
}

// EncodeLegacy renders name=value as a single ATCP message. Arrays and
// tables are flattened to space separated words; table keys precede their
// values.
func EncodeLegacy(name string, v Value) []byte {
	var sb strings.Builder
	sb.WriteString(legacyPrefix)
	sb.WriteString(name)
	sb.WriteByte(' ')
	writeLegacy(&sb, v)
	return []byte(strings.TrimRight(sb.String(), " "))
}

func writeLegacy(sb *strings.Builder, v Value) {
	switch v.kind {
	case KindArray:
		for i, it := range v.items {
			if i > 0 {
				sb.WriteByte(' ')
			}
			writeLegacy(sb, it)
		}
	case KindTable:
		for i, p := range v.pairs {
			if i > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(p.Name)
			sb.WriteByte(' ')
			writeLegacy(sb, p.Value)
		}
	default:
		sb.WriteString(v.str)
	}
}

// DecodeLegacy parses ATCP messages of the form "MSDP.<COMMAND> arg...".
// Each line is one message; messages for other packages are ignored.
func DecodeLegacy(payload []byte) []Var {
	var vars []Var
	for _, line := range strings.Split(string(payload), "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= len(legacyPrefix) || !strings.EqualFold(line[:len(legacyPrefix)], legacyPrefix) {
			continue
		}
		fields := strings.Fields(line[len(legacyPrefix):])
		if len(fields) == 0 {
			continue
		}
		v := Var{Name: strings.ToUpper(fields[0])}
		for _, arg := range fields[1:] {
			v.Values = append(v.Values, String(arg))
		}
		vars = append(vars, v)
	}
	return vars
}
