package discovery

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eiscp-protocol/eiscp-go/pkg/packet"
)

// fakeDevice answers every probe it receives with the given ECN record,
// once per probe, so dedup across the two probe units gets exercised.
func fakeDevice(t *testing.T, ecn string) int {
	t.Helper()
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	go func() {
		buf := make([]byte, 1024)
		for {
			n, addr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			header, err := packet.ParseHeader(buf[:n])
			if err != nil || packet.PacketSize(header) != n {
				continue
			}
			_, _ = conn.WriteToUDP(packet.Encode(ecn), addr)
		}
	}()

	return conn.LocalAddr().(*net.UDPAddr).Port
}

func TestDiscoverDirectHost(t *testing.T) {
	port := fakeDevice(t, "ECNTX-NR609/60128/DX/001122334455")

	records, err := DiscoverAll(context.Background(), Config{
		Host:    "127.0.0.1",
		Port:    port,
		Timeout: 500 * time.Millisecond,
	})
	require.NoError(t, err)

	// The device answers both probe units; dedup leaves one record.
	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, "001122334455", r.Identifier)
	assert.Equal(t, "TX-NR609", r.Model)
	assert.Equal(t, "1", r.Category)
	assert.Equal(t, "DX", r.AreaCode)
	assert.Equal(t, "127.0.0.1", r.Host)
	assert.Equal(t, uint16(60128), r.Port)
}

func TestDiscoverTimesOutWithoutAnswers(t *testing.T) {
	// Nothing listens on this socket's port after it closes.
	probe, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	port := probe.LocalAddr().(*net.UDPAddr).Port
	probe.Close()

	start := time.Now()
	records, err := DiscoverAll(context.Background(), Config{
		Host:    "127.0.0.1",
		Port:    port,
		Timeout: 200 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Empty(t, records)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestDiscoverIgnoresUnrelatedTraffic(t *testing.T) {
	port := fakeDevice(t, "PWR01")

	records, err := DiscoverAll(context.Background(), Config{
		Host:    "127.0.0.1",
		Port:    port,
		Timeout: 300 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestDedup(t *testing.T) {
	d := &dedup{ids: make(map[string]struct{})}
	assert.True(t, d.add("a"))
	assert.False(t, d.add("a"))
	assert.True(t, d.add("b"))
}

func TestBroadcastAddr(t *testing.T) {
	tests := []struct {
		cidr string
		want string
	}{
		{"192.168.1.42/24", "192.168.1.255"},
		{"10.0.0.7/8", "10.255.255.255"},
		{"172.16.5.9/20", "172.16.15.255"},
	}
	for _, tt := range tests {
		ip, ipnet, err := net.ParseCIDR(tt.cidr)
		require.NoError(t, err)
		ipnet.IP = ip
		got := broadcastAddr(ipnet)
		assert.Equal(t, tt.want, got.String(), "cidr %s", tt.cidr)
	}
}

func TestRecordFormatting(t *testing.T) {
	r := Record{
		Identifier: "001122334455",
		Model:      "TX-NR609",
		Host:       "192.168.1.20",
		Port:       60128,
	}
	assert.Equal(t, "192.168.1.20:60128", r.Addr())
	assert.Equal(t, "TX-NR609 (001122334455) at 192.168.1.20:60128", r.String())
}
