package telnet

import "fmt"

// Telnet commands (RFC 854, RFC 885).
const (
	IAC  byte = 255 // Interpret As Command
	DONT byte = 254
	DO   byte = 253
	WONT byte = 252
	WILL byte = 251
	SB   byte = 250 // Subnegotiation Begin
	GA   byte = 249 // Go Ahead
	EL   byte = 248 // Erase Line
	EC   byte = 247 // Erase Character
	AYT  byte = 246 // Are You There
	AO   byte = 245 // Abort Output
	IP   byte = 244 // Interrupt Process
	BRK  byte = 243 // Break
	DM   byte = 242 // Data Mark
	NOP  byte = 241 // No Operation
	SE   byte = 240 // Subnegotiation End
	EOR  byte = 239 // End of Record
)

// Option codes understood by the connection layer.
const (
	OptEcho      byte = 1
	OptTTYPE     byte = 24
	OptEOR       byte = 25
	OptNAWS      byte = 31
	OptCharset   byte = 42
	OptMSDP      byte = 69
	OptMSSP      byte = 70
	OptCompress  byte = 85 // MCCP v1
	OptCompress2 byte = 86 // MCCP v2
	OptMSP       byte = 90
	OptMXP       byte = 91
	OptATCP      byte = 200
)

// TTYPE sub-negotiation codes.
const (
	TTypeIS   byte = 0
	TTypeSend byte = 1
)

// CHARSET sub-negotiation codes (RFC 2066).
const (
	CharsetRequest  byte = 1
	CharsetAccepted byte = 2
	CharsetRejected byte = 3
)

// MSSP sub-negotiation codes.
const (
	MSSPVar byte = 1
	MSSPVal byte = 2
)

// ESC introduces the markup secure-line escape (ESC [ 1 z).
const ESC byte = 27

var commandNames = map[byte]string{
	IAC: "IAC", DONT: "DONT", DO: "DO", WONT: "WONT", WILL: "WILL",
	SB: "SB", GA: "GA", EL: "EL", EC: "EC", AYT: "AYT", AO: "AO",
	IP: "IP", BRK: "BRK", DM: "DM", NOP: "NOP", SE: "SE", EOR: "EOR",
}

var optionNames = map[byte]string{
	OptEcho:      "ECHO",
	OptTTYPE:     "TTYPE",
	OptEOR:       "EOR",
	OptNAWS:      "NAWS",
	OptCharset:   "CHARSET",
	OptMSDP:      "MSDP",
	OptMSSP:      "MSSP",
	OptCompress:  "COMPRESS",
	OptCompress2: "COMPRESS2",
	OptMSP:       "MSP",
	OptMXP:       "MXP",
	OptATCP:      "ATCP",
}

// CommandName returns the mnemonic for a telnet command byte.
func CommandName(cmd byte) string {
	if name, ok := commandNames[cmd]; ok {
		return name
	}
	return fmt.Sprintf("CMD(%d)", cmd)
}

// OptionName returns the mnemonic for an option byte.
func OptionName(opt byte) string {
	if name, ok := optionNames[opt]; ok {
		return name
	}
	return fmt.Sprintf("OPT(%d)", opt)
}
