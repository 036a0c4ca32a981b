package connection

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/eiscp-protocol/eiscp-go/pkg/commands"
	"github.com/eiscp-protocol/eiscp-go/pkg/log"
	"github.com/eiscp-protocol/eiscp-go/pkg/packet"
	"github.com/eiscp-protocol/eiscp-go/pkg/protocol"
)

// ErrNoHost indicates Dial was called without a host.
var ErrNoHost = errors.New("connection: no host given")

// DefaultDialTimeout bounds a single TCP dial attempt.
const DefaultDialTimeout = 10 * time.Second

// readBufferSize is the socket read chunk size.
const readBufferSize = 4096

// Option customizes a Connection.
type Option func(*options)

type options struct {
	registry      *commands.Registry
	observer      protocol.Observer
	logger        log.Logger
	autoReconnect bool
	backoff       BackoffConfig
	dialTimeout   time.Duration
}

// WithRegistry uses a custom command registry instead of the built-in one.
func WithRegistry(r *commands.Registry) Option {
	return func(o *options) { o.registry = r }
}

// WithObserver registers the observer for updates and lifecycle events.
func WithObserver(obs protocol.Observer) Option {
	return func(o *options) { o.observer = obs }
}

// WithLogger attaches a protocol event logger.
func WithLogger(l log.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithAutoReconnect controls reconnection after transport loss.
// Enabled by default.
func WithAutoReconnect(enabled bool) Option {
	return func(o *options) { o.autoReconnect = enabled }
}

// WithBackoff customizes retry timing.
func WithBackoff(cfg BackoffConfig) Option {
	return func(o *options) { o.backoff = cfg }
}

// WithDialTimeout bounds each TCP dial attempt.
func WithDialTimeout(d time.Duration) Option {
	return func(o *options) { o.dialTimeout = d }
}

// Connection is a managed session with one receiver. Dial starts the
// connect loop and returns immediately; updates flow to the observer
// once the link is up, and the link is re-established automatically
// when the receiver drops it.
type Connection struct {
	id      string
	addr    string
	handler *protocol.Handler
	manager *Manager

	mu sync.Mutex
	// connected is closed while a transport is live and replaced with
	// a fresh channel on loss, so WaitConnected can block on it.
	connected chan struct{}
}

// Dial starts a managed connection to host:port. Port 0 selects the
// standard eISCP control port. Dial does not block on the TCP dial;
// use WaitConnected to wait for the link.
func Dial(host string, port int, opts ...Option) (*Connection, error) {
	if host == "" {
		return nil, ErrNoHost
	}
	if port <= 0 {
		port = int(packet.DefaultPort)
	}

	o := options{
		autoReconnect: true,
		dialTimeout:   DefaultDialTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	id := uuid.NewString()
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	c := &Connection{
		id:        id,
		addr:      addr,
		connected: make(chan struct{}),
	}
	c.handler = protocol.NewHandler(protocol.HandlerConfig{
		Registry:     o.registry,
		Observer:     o.observer,
		Logger:       o.logger,
		Source:       addr,
		ConnectionID: id,
	})

	dialer := &net.Dialer{Timeout: o.dialTimeout}
	c.manager = NewManager(ManagerConfig{
		Dial: func(ctx context.Context) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", addr)
		},
		Backoff:       o.backoff,
		AutoReconnect: o.autoReconnect,
		Logger:        o.logger,
		ConnectionID:  id,
	})
	c.manager.OnConnected(c.transportUp)

	if err := c.manager.Connect(); err != nil {
		return nil, err
	}
	return c, nil
}

// ID returns the session's connection ID, as stamped on log events.
func (c *Connection) ID() string { return c.id }

// RemoteAddr returns the receiver address in host:port form.
func (c *Connection) RemoteAddr() string { return c.addr }

// State returns the current connection state.
func (c *Connection) State() State { return c.manager.State() }

// IsConnected returns true while a transport is live.
func (c *Connection) IsConnected() bool { return c.manager.IsConnected() }

// WaitConnected blocks until the link is up or ctx expires.
func (c *Connection) WaitConnected(ctx context.Context) error {
	c.mu.Lock()
	ch := c.connected
	c.mu.Unlock()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-ch:
		return nil
	}
}

// Send translates a free-text command ("main.power=on", "volume 55")
// and transmits it. Translation errors are returned; when the link is
// down the message is dropped.
func (c *Connection) Send(text string) error {
	return c.handler.SendText(text)
}

// SendCommand translates a pre-split (zone, command, argument) triple
// and transmits it.
func (c *Connection) SendCommand(zone, command, argument string) error {
	return c.handler.Send(zone, command, argument)
}

// SendRaw transmits an already-encoded ISCP message such as "PWR01".
func (c *Connection) SendRaw(message string) error {
	return c.handler.SendRaw(message)
}

// SendUpdate sets a property: SendUpdate("main", "volume", "55").
func (c *Connection) SendUpdate(zone, property, value string) error {
	return c.Send(fmt.Sprintf("%s.%s=%s", zone, property, value))
}

// SendQuery asks the receiver to report a property's current value.
func (c *Connection) SendQuery(zone, property string) error {
	return c.SendUpdate(zone, property, "query")
}

// Halt pauses reconnection and drops the live transport.
func (c *Connection) Halt() { c.manager.Halt() }

// Resume lifts a Halt; the connect loop picks it up shortly.
func (c *Connection) Resume() { c.manager.Resume() }

// Close shuts the session down permanently.
func (c *Connection) Close() { c.manager.Close() }

// transportUp wires a fresh transport into the handler and starts the
// read loop for it.
func (c *Connection) transportUp(conn net.Conn) {
	c.handler.OnConnected(conn)

	c.mu.Lock()
	close(c.connected)
	c.mu.Unlock()

	go c.readLoop(conn)
}

// readLoop pumps socket bytes into the handler until the transport
// dies, then reports the loss so the manager can reconnect.
func (c *Connection) readLoop(conn net.Conn) {
	buf := make([]byte, readBufferSize)

	var cause error
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if herr := c.handler.OnBytesReceived(buf[:n]); herr != nil {
				conn.Close()
				cause = herr
				break
			}
		}
		if err != nil {
			cause = err
			break
		}
	}

	c.mu.Lock()
	c.connected = make(chan struct{})
	c.mu.Unlock()

	c.handler.OnDisconnected(cause)
	c.manager.ConnectionLost(cause)
}
