// Package msdp implements structured variable reporting.
//
// Clients subscribe to named server values and receive them as VAR/VAL
// sub-negotiation payloads on option 69, or as "MSDP.<NAME> <value>" text
// on the legacy ATCP option 200. Values are strings, arrays, or ordered
// tables, and may nest.
//
// # Catalog
//
// A Catalog lists every variable the server knows about. It is built once
// at startup with a Builder and shared read-only by all connections. Each
// entry either computes its value from the connection (ValueFunc) or is
// configurable, meaning the client supplies the value with an implicit SET.
//
// # Reporter
//
// Each reporting connection owns a Reporter. It answers LIST, REPORT,
// UNREPORT, SEND and RESET, stores client-configured values, and on every
// Tick recomputes subscribed values, pushing only those that changed and
// whose interval has elapsed. Requests naming unknown or non-reportable
// variables are ignored.
package msdp
