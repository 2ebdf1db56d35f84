// Package transport provides the socket layer beneath the telnet connection
// core.
//
// The core is single-threaded and never blocks, so the transport exposes
// each accepted TCP (or TLS) connection as a non-blocking byte socket:
//   - Read returns whatever bytes have arrived, or ErrWouldBlock
//   - Write returns the bytes the kernel accepted within a short deadline,
//     with ErrWouldBlock when the rest must be retried on a later tick
//   - Accept polls for newly accepted connections
//
// Each connection owns one reader goroutine that feeds a bounded channel;
// nothing in the transport calls back into the connection core.
//
// # Keep-Alive
//
// Telnet has no ping/pong. KeepAlive tracks input activity and tells the
// service when to send IAC NOP and when an idle connection should be
// dropped:
//   - NOP interval: 60 seconds
//   - Idle timeout: 30 minutes
package transport
