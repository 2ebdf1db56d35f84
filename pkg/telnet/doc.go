// Package telnet implements the byte-level half of the connection layer:
// wire constants, capability and terminal metadata, and a restartable
// negotiation state machine.
//
// # State Machine
//
// Parser consumes raw socket bytes in arbitrarily sized chunks and turns them
// into Events. Every byte is dispatched exactly once through an explicit
// State; the parse position survives between Feed calls, so a sequence split
// across reads yields the same events as the whole sequence.
//
//	Idle ──IAC──▶ Command ──WILL/WONT/DO/DONT──▶ Option ──▶ Idle
//	  │              └──SB──▶ Subneg ──▶ NAWS | Charset | Collect | Skip ──IAC SE──▶ Idle
//	  └──ESC [ 1 z──▶ SecureLine ──\n──▶ Idle
//
// The parser never writes to the socket and never mutates capability flags;
// callers apply Negotiation and Subnegotiation events to their own state.
//
// # Broken Clients
//
// Some clients fail to double IAC bytes inside NAWS payloads. The parser
// treats an IAC that is not followed by a second IAC as a data byte and
// re-dispatches the following byte. A NAWS dimension of exactly 255 is
// flagged suspicious; a bare SE after such a payload is consumed as the
// terminator instead of being treated as text. The heuristic can misfire on a
// terminal that is legitimately 255 rows tall.
//
// # Lines
//
// Plain text is normalised to LF line endings (CR, CRLF and LFCR all end one
// line), backspace and delete erase the preceding character, other control
// bytes are dropped, and only complete lines are emitted.
package telnet
