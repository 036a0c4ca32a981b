// Package protocol implements the eISCP message layer on top of a TCP
// byte stream.
//
// A Handler owns the receive buffer for one connection: chunks arriving
// from the socket are fed to OnBytesReceived, reassembled into complete
// packets, decoded through the command registry and delivered to the
// Observer in consumption order. Outbound commands are translated and
// framed by Send/SendRaw.
//
// The Handler is transport-agnostic; pkg/connection wires it to a real
// TCP connection and drives the lifecycle callbacks.
package protocol
