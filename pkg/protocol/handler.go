package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/eiscp-protocol/eiscp-go/pkg/commands"
	"github.com/eiscp-protocol/eiscp-go/pkg/log"
	"github.com/eiscp-protocol/eiscp-go/pkg/packet"
)

// ErrBadStream indicates the byte stream lost packet alignment and the
// connection cannot be trusted anymore.
var ErrBadStream = errors.New("protocol: unrecoverable stream error")

// compactThreshold is the consumed-byte count above which the receive
// buffer is compacted instead of growing further.
const compactThreshold = 4096

// maxLoggedFrame caps the raw bytes copied into frame log events.
const maxLoggedFrame = 256

// Observer receives decoded protocol activity. All callbacks are invoked
// sequentially from the goroutine that owns the receive buffer, in
// buffer-consumption order. Observers must not block.
type Observer interface {
	// OnUpdate is called for every decoded status update.
	OnUpdate(update commands.Update, source string)

	// OnConnect is called when a transport becomes available.
	OnConnect(source string)

	// OnDisconnect is called when the transport is lost.
	OnDisconnect(source string)
}

// HandlerConfig configures a Handler.
type HandlerConfig struct {
	// Registry translates between command names and wire messages.
	// Defaults to the built-in registry when nil.
	Registry *commands.Registry

	// Observer receives decoded updates and lifecycle callbacks.
	Observer Observer

	// Logger receives protocol events. Optional.
	Logger log.Logger

	// Source identifies this connection in observer callbacks,
	// typically "host:port" of the receiver.
	Source string

	// ConnectionID is stamped on log events.
	ConnectionID string
}

// Handler reassembles and decodes the eISCP packet stream of a single
// connection. Inbound processing (OnConnected, OnBytesReceived,
// OnDisconnected) must happen from one goroutine; Send and SendRaw are
// safe to call from any goroutine.
type Handler struct {
	registry *commands.Registry
	observer Observer
	logger   log.Logger
	source   string
	connID   string

	mu        sync.Mutex
	transport io.Writer

	// Receive buffer with a consumption cursor. Only touched from the
	// reader goroutine.
	buf []byte
	cur int
}

// NewHandler creates a Handler for one connection.
func NewHandler(cfg HandlerConfig) *Handler {
	registry := cfg.Registry
	if registry == nil {
		registry = commands.DefaultRegistry()
	}
	return &Handler{
		registry: registry,
		observer: cfg.Observer,
		logger:   log.OrNoop(cfg.Logger),
		source:   cfg.Source,
		connID:   cfg.ConnectionID,
	}
}

// OnConnected attaches a live transport and resets the receive buffer.
func (h *Handler) OnConnected(transport io.Writer) {
	h.mu.Lock()
	h.transport = transport
	h.mu.Unlock()

	h.buf = h.buf[:0]
	h.cur = 0

	if h.observer != nil {
		h.observer.OnConnect(h.source)
	}
}

// OnDisconnected detaches the transport. Subsequent sends are dropped.
func (h *Handler) OnDisconnected(err error) {
	h.mu.Lock()
	h.transport = nil
	h.mu.Unlock()

	if err != nil {
		h.logError(log.LayerTransport, err, "")
	}
	if h.observer != nil {
		h.observer.OnDisconnect(h.source)
	}
}

// OnBytesReceived appends a chunk from the socket and processes every
// complete packet it now holds. A chunk may contain zero, one or many
// packets, and packets may arrive split across chunks at any byte
// boundary. An untrustworthy header makes the stream unrecoverable and
// returns an error wrapping ErrBadStream.
func (h *Handler) OnBytesReceived(chunk []byte) error {
	h.buf = append(h.buf, chunk...)

	for len(h.buf)-h.cur >= packet.HeaderSize {
		header, err := packet.ParseHeader(h.buf[h.cur:])
		if err != nil {
			h.logError(log.LayerTransport, err, "")
			return fmt.Errorf("%w: %v", ErrBadStream, err)
		}

		size := packet.PacketSize(header)
		if len(h.buf)-h.cur < size {
			break
		}

		pkt := h.buf[h.cur : h.cur+size]
		h.cur += size
		h.handlePacket(pkt)
	}

	h.compact()
	return nil
}

// handlePacket decodes one complete packet. Per-packet decode failures
// are logged and dropped; alignment is already secured by the caller.
func (h *Handler) handlePacket(pkt []byte) {
	h.logFrame(log.DirectionIn, pkt)

	message, err := packet.DecodePayload(pkt[packet.HeaderSize:])
	if err != nil {
		h.logError(log.LayerProtocol, err, string(pkt[packet.HeaderSize:]))
		return
	}

	update, err := h.registry.TranslateFromWire(message)
	if err != nil {
		h.logError(log.LayerProtocol, err, message)
		return
	}

	h.logCommand(log.DirectionIn, update, message)
	if h.observer != nil {
		h.observer.OnUpdate(update, h.source)
	}
}

// Send translates a (zone, command, argument) triple and transmits it.
// Translation errors are returned to the caller; a missing transport is
// logged and the message dropped.
func (h *Handler) Send(zone, command, argument string) error {
	wire, err := h.registry.TranslateToWire(zone, command, argument)
	if err != nil {
		return err
	}
	h.logCommand(log.DirectionOut, commands.Update{
		Zone:    zone,
		Command: command,
		Value:   commands.StringValue(argument),
	}, wire)
	return h.SendRaw(wire)
}

// SendText translates a free-text command ("main.power=on") and
// transmits it.
func (h *Handler) SendText(text string) error {
	wire, err := h.registry.TranslateFreeText(text)
	if err != nil {
		return err
	}
	return h.SendRaw(wire)
}

// SendRaw frames and transmits an already-encoded ISCP message such as
// "PWR01". When no transport is attached the message is logged and
// dropped; outbound messages are never queued.
func (h *Handler) SendRaw(message string) error {
	pkt := packet.Encode(message)

	h.mu.Lock()
	transport := h.transport
	h.mu.Unlock()

	if transport == nil {
		h.logError(log.LayerProtocol, errors.New("no transport, dropping message"), message)
		return nil
	}

	h.logFrame(log.DirectionOut, pkt)
	if _, err := transport.Write(pkt); err != nil {
		return fmt.Errorf("protocol: send %q: %w", message, err)
	}
	return nil
}

// compact reclaims consumed buffer space once the cursor has moved far
// enough that the copy is worth it.
func (h *Handler) compact() {
	if h.cur == 0 {
		return
	}
	if h.cur == len(h.buf) {
		h.buf = h.buf[:0]
		h.cur = 0
		return
	}
	if h.cur >= compactThreshold {
		n := copy(h.buf, h.buf[h.cur:])
		h.buf = h.buf[:n]
		h.cur = 0
	}
}

func (h *Handler) logFrame(dir log.Direction, pkt []byte) {
	data := pkt
	truncated := false
	if len(data) > maxLoggedFrame {
		data = data[:maxLoggedFrame]
		truncated = true
	}
	frame := &log.FrameEvent{
		Size:      len(pkt),
		Data:      append([]byte(nil), data...),
		Truncated: truncated,
	}
	h.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: h.connID,
		Direction:    dir,
		Layer:        log.LayerTransport,
		Category:     log.CategoryMessage,
		RemoteAddr:   h.source,
		Frame:        frame,
	})
}

func (h *Handler) logCommand(dir log.Direction, update commands.Update, wire string) {
	h.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: h.connID,
		Direction:    dir,
		Layer:        log.LayerProtocol,
		Category:     log.CategoryMessage,
		RemoteAddr:   h.source,
		Command: &log.CommandEvent{
			Zone:    update.Zone,
			Command: update.Command,
			Value:   update.Value.String(),
			Wire:    wire,
		},
	})
}

func (h *Handler) logError(layer log.Layer, err error, context string) {
	h.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: h.connID,
		Direction:    log.DirectionIn,
		Layer:        layer,
		Category:     log.CategoryError,
		RemoteAddr:   h.source,
		Error: &log.ErrorEventData{
			Layer:   layer,
			Message: err.Error(),
			Context: context,
		},
	})
}
