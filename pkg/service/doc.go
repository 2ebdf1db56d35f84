// Package service runs the telnet server: it owns every connection and
// drives them from a single tick loop.
//
// Each tick the service:
//   - runs queued operator calls
//   - accepts new sockets and sends their initial offers
//   - reads available input and hands completed lines to the command layer
//   - applies finished hostname lookups
//   - runs the reporting tick
//   - sends keepalive probes and drops idle or stalled connections
//   - flushes every output pipeline
//
// Nothing in a tick blocks. Hostname lookups run on their own goroutines
// and report back through a channel drained by the next tick.
//
// The command layer implements CommandHandler. Lines are dispatched by the
// connection's mode, so login, play and editing input never mix:
//
//	svc, err := service.New(cfg, handler)
//	if err := svc.Start(ctx); err != nil { ... }
//	defer svc.Stop()
//	svc.Run(ctx)
//
// Observers ("spies") receive a copy of everything queued for the
// connection they watch. Observed text is never re-observed, so chains of
// observers cannot loop, and either side disconnecting severs the link.
package service
