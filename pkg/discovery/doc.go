// Package discovery finds eISCP receivers on the local network.
//
// Receivers answer a UDP probe ("!xECNQSTN") sent to the control port
// with their model, control port, sales area and identifier. Discover
// broadcasts the probe on every usable interface, or sends it straight
// to a known host, and streams the deduplicated answers until the
// timeout expires.
package discovery
