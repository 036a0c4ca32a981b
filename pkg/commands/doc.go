// Package commands maps human-readable receiver commands to and from
// ISCP wire opcodes.
//
// Commands are organized into zones (main, zone2, dock, ...), each with
// its own namespace of named commands. A command descriptor carries the
// 3-character wire opcode and a table of accepted argument encodings:
// literal aliases ("on" -> "01"), bounded integer ranges encoded as
// two-digit uppercase hex, or raw pass-through strings.
//
// The registry is an opaque lookup table: it is populated once, either
// from the built-in defaults or from a YAML catalog, and never mutated
// afterwards. Translation never interprets what a command means.
//
// # Command Forms
//
// The translator accepts pre-split triples and free-text forms:
//
//	TranslateToWire("main", "power", "on")
//	TranslateFreeText("main.power=on")
//	TranslateFreeText("zone2 volume 66")
//	TranslateFreeText("power:on")
//
// Zone defaults to "main" when omitted.
package commands
