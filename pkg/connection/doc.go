// Package connection manages the lifecycle of a receiver connection.
//
// Manager runs the connect loop: dial, and on failure retry forever
// with exponential backoff (1s initial, 1.5x per failure, capped).
// Halt temporarily blocks attempts and drops the live transport;
// Resume lifts the block; Close shuts the manager down for good.
//
// Connection is the high-level entry point: Dial starts a managed
// session that feeds received packets through a protocol.Handler and
// reconnects automatically when the receiver drops the link.
package connection
