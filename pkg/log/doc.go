// Package log provides structured protocol event logging.
//
// Every layer of the library (packet framing, protocol handling,
// connection lifecycle, discovery) emits Events to a Logger. Applications
// choose the sink: NoopLogger to disable, SlogAdapter for console output
// through log/slog, FileLogger for a compact CBOR capture file that can
// be replayed later with Reader, or MultiLogger for several at once.
//
// Logging must never disrupt the protocol: sinks swallow their own
// errors and Log is expected to return quickly.
package log
