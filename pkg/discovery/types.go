package discovery

import (
	"fmt"
	"time"

	"github.com/eiscp-protocol/eiscp-go/pkg/log"
	"github.com/eiscp-protocol/eiscp-go/pkg/packet"
)

// DefaultTimeout is how long a discovery run listens for answers.
const DefaultTimeout = 5 * time.Second

// Record describes one discovered receiver.
type Record struct {
	// Identifier uniquely identifies the device (up to 12 characters,
	// typically derived from its MAC address).
	Identifier string

	// Model is the device model name, e.g. "TX-NR609".
	Model string

	// Category is the device category digit ("1" for receivers).
	Category string

	// AreaCode is the two-character sales area code, e.g. "DX".
	AreaCode string

	// Host is the IP address the answer came from.
	Host string

	// Port is the ISCP control port the device advertises.
	Port uint16
}

// Addr returns the receiver's control endpoint in host:port form.
func (r Record) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// String renders the record for display.
func (r Record) String() string {
	return fmt.Sprintf("%s (%s) at %s", r.Model, r.Identifier, r.Addr())
}

// Config configures a discovery run. The zero value broadcasts on all
// interfaces with the default port and timeout.
type Config struct {
	// Timeout is how long to listen for answers. Defaults to
	// DefaultTimeout.
	Timeout time.Duration

	// Host, when set, targets the probe at one address instead of
	// broadcasting on every interface.
	Host string

	// Port is the UDP port probes are sent to. Defaults to the
	// standard eISCP control port.
	Port int

	// Logger receives discovery events. Optional.
	Logger log.Logger
}

// DefaultConfig returns a Config with the standard timeout and port.
func DefaultConfig() Config {
	return Config{
		Timeout: DefaultTimeout,
		Port:    int(packet.DefaultPort),
	}
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Timeout <= 0 {
		out.Timeout = DefaultTimeout
	}
	if out.Port <= 0 {
		out.Port = int(packet.DefaultPort)
	}
	return out
}
