// Package packet implements the eISCP binary packet codec.
//
// ISCP (Integra Serial Control Protocol) messages are short textual
// commands of the form "!1<opcode><args>". For network delivery they are
// wrapped in an eISCP packet: a 16-byte big-endian header followed by the
// message payload.
//
// # Wire Format
//
//	┌────────────────────────────────┐
//	│  magic "ISCP"          (4B)    │
//	│  header size = 16      (4B)    │
//	│  data size             (4B)    │
//	│  version = 1           (1B)    │
//	│  reserved = 0          (3B)    │
//	├────────────────────────────────┤
//	│  "!1<message>" payload         │
//	│  terminated by CR (outbound)   │
//	│  or 0x1A [CR][LF] (inbound)    │
//	└────────────────────────────────┘
//
// The codec is pure: encoding and parsing have no side effects and hold no
// state. Stream reassembly lives in the protocol package.
package packet
