package packet

import (
	"encoding/binary"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// discoveryReplyPattern matches the payload of a discovery probe answer,
// e.g. "!1ECNTX-NR609/60128/DX/001122334455".
var discoveryReplyPattern = regexp.MustCompile(
	`^!(\d)ECN([^/]*)/(\d{5})/(\w{2})/(.{0,12})`)

// Wire constants.
const (
	// HeaderSize is the fixed eISCP header length in bytes.
	HeaderSize = 16

	// Version is the eISCP protocol version carried in every header.
	Version uint8 = 0x01

	// EOF is the end-of-message byte terminating inbound ISCP payloads.
	EOF byte = 0x1A

	// DefaultPort is the TCP/UDP control port receivers listen on.
	DefaultPort uint16 = 60128

	// UnitReceiver is the destination-unit marker for A/V receivers.
	UnitReceiver byte = '1'
)

// magic is the 4-byte literal opening every eISCP header.
var magic = [4]byte{'I', 'S', 'C', 'P'}

// Codec errors.
var (
	// ErrShortHeader indicates fewer than HeaderSize bytes were supplied.
	ErrShortHeader = errors.New("packet: short header")

	// ErrBadMagic indicates the header does not start with "ISCP".
	ErrBadMagic = errors.New("packet: bad magic")

	// ErrBadHeaderSize indicates the header-size field is not 16.
	ErrBadHeaderSize = errors.New("packet: bad header size")

	// ErrMissingPrefix indicates a payload without the "!1" start marker.
	ErrMissingPrefix = errors.New("packet: missing start marker")

	// ErrMissingTerminator indicates a payload without any terminator byte.
	ErrMissingTerminator = errors.New("packet: missing message terminator")

	// ErrTruncatedPayload indicates the packet is shorter than its header claims.
	ErrTruncatedPayload = errors.New("packet: truncated payload")
)

// Header is the parsed fixed eISCP header.
type Header struct {
	// DataSize is the payload length in bytes.
	DataSize uint32

	// Version is the protocol version byte.
	Version uint8
}

// ParseHeader validates and parses the first HeaderSize bytes of a packet.
// It fails when the magic is not "ISCP" or the header-size field is not 16.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes", ErrShortHeader, len(b))
	}
	if b[0] != magic[0] || b[1] != magic[1] || b[2] != magic[2] || b[3] != magic[3] {
		return Header{}, fmt.Errorf("%w: %q", ErrBadMagic, b[:4])
	}
	if hs := binary.BigEndian.Uint32(b[4:8]); hs != HeaderSize {
		return Header{}, fmt.Errorf("%w: %d", ErrBadHeaderSize, hs)
	}
	return Header{
		DataSize: binary.BigEndian.Uint32(b[8:12]),
		Version:  b[12],
	}, nil
}

// Encode wraps an ISCP message for the receiver unit into a full eISCP
// packet. The payload is "!1<message>\r".
func Encode(message string) []byte {
	return EncodeUnit(UnitReceiver, message)
}

// EncodeUnit wraps an ISCP message for an explicit destination unit.
// Discovery probes use this with the legacy unit markers.
func EncodeUnit(unit byte, message string) []byte {
	payload := make([]byte, 0, 3+len(message))
	payload = append(payload, '!', unit)
	payload = append(payload, message...)
	payload = append(payload, '\r')

	buf := make([]byte, HeaderSize, HeaderSize+len(payload))
	copy(buf[0:4], magic[:])
	binary.BigEndian.PutUint32(buf[4:8], HeaderSize)
	binary.BigEndian.PutUint32(buf[8:12], uint32(len(payload)))
	buf[12] = Version
	return append(buf, payload...)
}

// PacketSize returns the total packet size declared by a header,
// including the header itself.
func PacketSize(h Header) int {
	return HeaderSize + int(h.DataSize)
}

// DecodePayload strips the "!1" start marker and the message terminator
// from an ISCP payload and returns the bare message text.
//
// Inbound messages end with the EOF byte, optionally surrounded by CR
// and/or LF. Outbound messages end with a plain CR, which is accepted too
// so that DecodePayload inverts Encode. A payload with neither terminator
// fails with ErrMissingTerminator.
func DecodePayload(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '!' || data[1] != UnitReceiver {
		return "", fmt.Errorf("%w: %q", ErrMissingPrefix, clip(data, 8))
	}

	end := len(data)
	terminated := false
	for i := 0; i < 2 && end > 2; i++ {
		if c := data[end-1]; c == '\r' || c == '\n' {
			end--
			terminated = true
		}
	}
	if end > 2 && data[end-1] == EOF {
		end--
		terminated = true
		// EOF may itself be followed by CR/LF which were stripped above,
		// or preceded by one more CR.
		if end > 2 && data[end-1] == '\r' {
			end--
		}
	}
	if !terminated {
		return "", fmt.Errorf("%w: %q", ErrMissingTerminator, clip(data, 8))
	}
	return string(data[2:end]), nil
}

// DiscoveryReply is a parsed answer to a UDP discovery probe.
type DiscoveryReply struct {
	// Category is the device category digit ('1' for receivers).
	Category string

	// Model is the device model name, e.g. "TX-NR609".
	Model string

	// Port is the ISCP control port the device listens on.
	Port uint16

	// AreaCode is the two-character sales area code, e.g. "DX".
	AreaCode string

	// Identifier uniquely identifies the device (up to 12 characters,
	// typically the tail of its MAC address).
	Identifier string
}

// ParseDiscoveryReply decodes a full eISCP packet and matches its payload
// against the discovery reply shape:
//
//	!<category digit>ECN<model>/<5-digit port>/<2-char area>/<identifier>
//
// Packets that decode but do not match the shape return ok=false rather
// than an error: devices answer probes with unrelated traffic too.
func ParseDiscoveryReply(pkt []byte) (DiscoveryReply, bool) {
	h, err := ParseHeader(pkt)
	if err != nil {
		return DiscoveryReply{}, false
	}
	if len(pkt) < PacketSize(h) {
		return DiscoveryReply{}, false
	}
	payload := strings.TrimRight(string(pkt[HeaderSize:PacketSize(h)]), "\x1a\r\n\x00 ")

	m := discoveryReplyPattern.FindStringSubmatch(payload)
	if m == nil {
		return DiscoveryReply{}, false
	}

	var port uint16
	for _, c := range m[3] {
		port = port*10 + uint16(c-'0')
	}

	return DiscoveryReply{
		Category:   m[1],
		Model:      m[2],
		Port:       port,
		AreaCode:   m[4],
		Identifier: m[5],
	}, true
}

// clip truncates b for error messages.
func clip(b []byte, n int) []byte {
	if len(b) > n {
		return b[:n]
	}
	return b
}
