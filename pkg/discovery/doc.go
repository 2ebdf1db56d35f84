// Package discovery advertises the telnet service over mDNS/DNS-SD and
// browses for other servers on the local network.
//
// The service type is _telnet._tcp. One instance is registered per
// listener; the instance name is the configured server name, clipped to the
// DNS label limit. TXT records carry:
//   - N: server name
//   - CB: codebase
//   - PL: connected players (updated while advertising)
//   - TLS: TLS listen port, when a TLS listener is open
//   - CS: charsets offered (e.g. "UTF-8")
//   - RP: reporting protocols offered (e.g. "MSDP,ATCP")
package discovery
