// Package log provides structured protocol logging for the telnet service.
//
// This package defines the Logger interface and Event types for capturing
// protocol-level events at multiple layers (transport, telnet, reporting,
// service). It is separate from operational logging (slog) - protocol capture
// provides a complete machine-readable trace of every negotiation,
// sub-negotiation and recovered anomaly for debugging misbehaving clients.
//
// # Basic Usage
//
// Applications configure logging by providing a Logger implementation:
//
//	// For development: log to console via slog
//	cfg.ProtocolLogger = log.NewSlogAdapter(slog.Default())
//
//	// For production: write to binary file
//	cfg.ProtocolLogger, _ = log.NewFileLogger("/var/log/realms/telnet.rlog")
//
//	// Both: Combine fans out and drops disabled sinks
//	cfg.ProtocolLogger = log.Combine(
//	    log.NewSlogAdapter(slog.Default()),
//	    fileLogger,
//	)
//
// # Event Types
//
// Events are captured at multiple layers:
//   - Transport: raw bytes and lifecycle (DataEvent, StateChangeEvent)
//   - Telnet: option negotiation (NegotiationEvent) and payloads
//     (SubnegotiationEvent)
//   - Reporting: structured variable requests and pushes
//
// Recovered protocol anomalies and transport failures use AnomalyEvent.
//
// # File Format
//
// Capture files (.rlog) are a CBOR sequence: the text string FileMagic
// followed by one map per event. FileLogger appends to existing captures
// and refuses files that lack the header. The realms-log tool views,
// filters, exports and summarises them.
package log
