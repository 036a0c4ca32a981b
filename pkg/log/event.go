package log

import "time"

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint,omitempty"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the peer address (IP:port or host:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Raw packets
	Command     *CommandEvent     `cbor:"11,keyasint,omitempty"` // Decoded commands
	StateChange *StateChangeEvent `cbor:"12,keyasint,omitempty"` // Connection state
	Discovery   *DiscoveryEvent   `cbor:"13,keyasint,omitempty"` // Discovered devices
	Error       *ErrorEventData   `cbor:"14,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which protocol layer captured the event.
type Layer uint8

const (
	// LayerTransport is the packet framing layer (raw bytes).
	LayerTransport Layer = 0
	// LayerProtocol is the command translation layer (decoded messages).
	LayerProtocol Layer = 1
	// LayerSession is the connection lifecycle layer.
	LayerSession Layer = 2
	// LayerDiscovery is the UDP discovery layer.
	LayerDiscovery Layer = 3
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerProtocol:
		return "PROTOCOL"
	case LayerSession:
		return "SESSION"
	case LayerDiscovery:
		return "DISCOVERY"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a protocol message.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryError indicates an error event.
	CategoryError Category = 2
	// CategoryDiscovery indicates a discovered device.
	CategoryDiscovery Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	case CategoryDiscovery:
		return "DISCOVERY"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures raw packet bytes at the transport layer.
type FrameEvent struct {
	// Size is the full packet size in bytes (including header).
	Size int `cbor:"1,keyasint"`

	// Data is the raw packet bytes (may be truncated for large packets).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`
}

// CommandEvent captures a translated command at the protocol layer.
type CommandEvent struct {
	// Zone is the zone the command belongs to.
	Zone string `cbor:"1,keyasint"`

	// Command is the human-readable command name.
	Command string `cbor:"2,keyasint"`

	// Value is the rendered command value.
	Value string `cbor:"3,keyasint,omitempty"`

	// Wire is the raw wire form, e.g. "PWR01".
	Wire string `cbor:"4,keyasint,omitempty"`
}

// StateChangeEvent captures a connection state transition.
type StateChangeEvent struct {
	// OldState is the state before the transition.
	OldState string `cbor:"1,keyasint"`

	// NewState is the state after the transition.
	NewState string `cbor:"2,keyasint"`

	// Reason optionally explains the transition.
	Reason string `cbor:"3,keyasint,omitempty"`
}

// DiscoveryEvent captures a device answering a discovery probe.
type DiscoveryEvent struct {
	// Identifier is the device identifier.
	Identifier string `cbor:"1,keyasint"`

	// Model is the device model name.
	Model string `cbor:"2,keyasint,omitempty"`

	// Host is the address the reply came from.
	Host string `cbor:"3,keyasint,omitempty"`

	// Port is the control port the device advertises.
	Port uint16 `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures an error at any layer.
type ErrorEventData struct {
	// Layer is the layer the error occurred at.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error text.
	Message string `cbor:"2,keyasint"`

	// Context optionally carries the offending input.
	Context string `cbor:"3,keyasint,omitempty"`
}
