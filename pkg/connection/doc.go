// Package connection holds the per-client state of the telnet server.
//
// A Conn owns everything one client needs:
//   - Negotiated capabilities and terminal metadata
//   - The input parser and the queue of completed lines
//   - The output pipeline and its compression codec
//   - The reporter, once structured or legacy reporting is negotiated
//
// # Negotiation
//
// Start queues the server's offers. Replies are dispatched by option: a
// capability flag is raised only on a confirmed reply, and requests for
// options the server does not support are refused (DO becomes WONT, WILL
// becomes DONT). Negative replies are never answered.
//
// Terminal types are queried repeatedly while the client keeps reporting a
// new name, up to four queries, so clients that announce an MTTS bitfield
// on a later query are recognised.
//
// # Teardown
//
// Close ends compression, drops reporting subscriptions, attempts a final
// flush and closes the socket. Observers are tracked by the service, which
// severs them when a connection closes.
//
// A Conn is not safe for concurrent use; the service tick owns it.
package connection
