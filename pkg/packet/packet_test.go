package packet

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{name: "power command", message: "PWR01"},
		{name: "volume command", message: "MVL32"},
		{name: "query", message: "TFRQSTN"},
		{name: "empty message", message: ""},
		{name: "multi arg", message: "MSG00,01,02"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt := Encode(tt.message)

			h, err := ParseHeader(pkt)
			if err != nil {
				t.Fatalf("ParseHeader failed: %v", err)
			}
			if got := PacketSize(h); got != len(pkt) {
				t.Errorf("PacketSize = %d, want %d", got, len(pkt))
			}
			if h.Version != Version {
				t.Errorf("Version = %d, want %d", h.Version, Version)
			}

			got, err := DecodePayload(pkt[HeaderSize:])
			if err != nil {
				t.Fatalf("DecodePayload failed: %v", err)
			}
			if got != tt.message {
				t.Errorf("round trip = %q, want %q", got, tt.message)
			}
		})
	}
}

func TestEncodeHeaderLayout(t *testing.T) {
	pkt := Encode("PWR01")

	if !bytes.Equal(pkt[0:4], []byte("ISCP")) {
		t.Errorf("magic = %q, want %q", pkt[0:4], "ISCP")
	}
	if hs := binary.BigEndian.Uint32(pkt[4:8]); hs != HeaderSize {
		t.Errorf("header size = %d, want %d", hs, HeaderSize)
	}
	// Payload is "!1PWR01\r" = 8 bytes.
	if ds := binary.BigEndian.Uint32(pkt[8:12]); ds != 8 {
		t.Errorf("data size = %d, want 8", ds)
	}
	if pkt[12] != 0x01 {
		t.Errorf("version byte = %#x, want 0x01", pkt[12])
	}
	if !bytes.Equal(pkt[13:16], []byte{0, 0, 0}) {
		t.Errorf("reserved bytes = %v, want zeros", pkt[13:16])
	}
	if !bytes.Equal(pkt[16:], []byte("!1PWR01\r")) {
		t.Errorf("payload = %q, want %q", pkt[16:], "!1PWR01\r")
	}
}

func TestParseHeaderRejectsMalformed(t *testing.T) {
	valid := Encode("PWR01")

	tests := []struct {
		name    string
		mutate  func([]byte)
		wantErr error
	}{
		{
			name:    "bad magic",
			mutate:  func(b []byte) { b[0] = 'X' },
			wantErr: ErrBadMagic,
		},
		{
			name:    "wrong header size",
			mutate:  func(b []byte) { binary.BigEndian.PutUint32(b[4:8], 32) },
			wantErr: ErrBadHeaderSize,
		},
		{
			name:    "zero header size",
			mutate:  func(b []byte) { binary.BigEndian.PutUint32(b[4:8], 0) },
			wantErr: ErrBadHeaderSize,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pkt := append([]byte(nil), valid...)
			tt.mutate(pkt)
			if _, err := ParseHeader(pkt); !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseHeader error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("short buffer", func(t *testing.T) {
		if _, err := ParseHeader(valid[:10]); !errors.Is(err, ErrShortHeader) {
			t.Errorf("ParseHeader error = %v, want ErrShortHeader", err)
		}
	})
}

func TestDecodePayloadTerminators(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr error
	}{
		{name: "eof only", payload: "!1PWR01\x1a", want: "PWR01"},
		{name: "eof cr", payload: "!1PWR01\x1a\r", want: "PWR01"},
		{name: "eof crlf", payload: "!1PWR01\x1a\r\n", want: "PWR01"},
		{name: "cr eof", payload: "!1PWR01\r\x1a", want: "PWR01"},
		{name: "cr only", payload: "!1PWR01\r", want: "PWR01"},
		{name: "missing prefix", payload: "PWR01\x1a", wantErr: ErrMissingPrefix},
		{name: "wrong unit", payload: "!2PWR01\x1a", wantErr: ErrMissingPrefix},
		{name: "no terminator", payload: "!1PWR01", wantErr: ErrMissingTerminator},
		{name: "empty", payload: "", wantErr: ErrMissingPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodePayload([]byte(tt.payload))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodePayload failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("message = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseDiscoveryReply(t *testing.T) {
	pkt := Encode("ECNTX-NR609/60128/DX/0009B0123456")

	reply, ok := ParseDiscoveryReply(pkt)
	if !ok {
		t.Fatal("ParseDiscoveryReply did not match")
	}
	if reply.Category != "1" {
		t.Errorf("Category = %q, want %q", reply.Category, "1")
	}
	if reply.Model != "TX-NR609" {
		t.Errorf("Model = %q, want %q", reply.Model, "TX-NR609")
	}
	if reply.Port != 60128 {
		t.Errorf("Port = %d, want 60128", reply.Port)
	}
	if reply.AreaCode != "DX" {
		t.Errorf("AreaCode = %q, want %q", reply.AreaCode, "DX")
	}
	if reply.Identifier != "0009B0123456" {
		t.Errorf("Identifier = %q, want %q", reply.Identifier, "0009B0123456")
	}
}

func TestParseDiscoveryReplyNonMatching(t *testing.T) {
	tests := []struct {
		name string
		pkt  []byte
	}{
		{name: "ordinary status packet", pkt: Encode("PWR01")},
		{name: "garbage", pkt: []byte("not a packet at all")},
		{name: "truncated packet", pkt: Encode("ECNTX-NR609/60128/DX/001122")[:20]},
		{name: "empty", pkt: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := ParseDiscoveryReply(tt.pkt); ok {
				t.Error("ParseDiscoveryReply matched, want no match")
			}
		})
	}
}

func TestEncodeUnitProbe(t *testing.T) {
	pkt := EncodeUnit('p', "ECNQSTN")
	if !bytes.Equal(pkt[HeaderSize:], []byte("!pECNQSTN\r")) {
		t.Errorf("probe payload = %q, want %q", pkt[HeaderSize:], "!pECNQSTN\r")
	}
}
