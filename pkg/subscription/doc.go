// Package subscription tracks the variables a client has asked to have
// reported.
//
// A Table holds one Subscription per variable name. The owner recomputes
// each subscribed value once per tick and records it; a value that differs
// from the last recorded one marks the subscription dirty. Process then
// transmits every dirty subscription whose interval has elapsed since its
// previous transmission.
//
// # Timing
//
// Intervals are counted in ticks, not wall-clock time. A subscription whose
// value changes on every tick is transmitted at most once per interval; a
// subscription whose value never changes is transmitted once, when primed.
//
// # Lifecycle
//
// Subscriptions do NOT survive connection loss. A Table belongs to a single
// connection and is not safe for concurrent use.
package subscription
