package connection

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/eiscp-protocol/eiscp-go/pkg/log"
)

// Manager errors.
var (
	ErrClosed = errors.New("connection: manager closed")
)

// HaltPollInterval is how often a halted connect loop re-checks whether
// it may proceed.
const HaltPollInterval = 2 * time.Second

// State represents the connection state.
type State uint8

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// DialFunc establishes the transport. It is called from the connect
// loop; the context is cancelled when the manager closes.
type DialFunc func(ctx context.Context) (net.Conn, error)

// Manager runs the connect loop for one receiver: dial, retry forever
// with backoff on failure, and when the transport is lost schedule a
// fresh loop. The halted flag pauses attempts without losing backoff
// or callbacks; the closing flag shuts everything down permanently.
type Manager struct {
	mu sync.RWMutex

	state   State
	halted  bool
	closing bool

	// loopRunning guards against concurrent connect loops.
	loopRunning bool

	autoReconnect bool
	backoff       *Backoff
	dial          DialFunc

	// Live transport, closed on Halt/Close.
	conn net.Conn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	logger log.Logger
	connID string

	onStateChange func(oldState, newState State)
	onConnected   func(conn net.Conn)
	onRetry       func(attempt int, delay time.Duration)
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Dial establishes the transport. Required.
	Dial DialFunc

	// Backoff customizes retry timing. Zero values take defaults.
	Backoff BackoffConfig

	// AutoReconnect re-runs the connect loop after transport loss.
	// Enabled by default via NewManager.
	AutoReconnect bool

	// Logger receives session state events. Optional.
	Logger log.Logger

	// ConnectionID is stamped on log events.
	ConnectionID string
}

// NewManager creates a connection manager with auto-reconnect enabled.
func NewManager(cfg ManagerConfig) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		state:         StateDisconnected,
		backoff:       NewBackoffWithConfig(cfg.Backoff),
		dial:          cfg.Dial,
		autoReconnect: cfg.AutoReconnect,
		ctx:           ctx,
		cancel:        cancel,
		logger:        log.OrNoop(cfg.Logger),
		connID:        cfg.ConnectionID,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected returns true if a transport is live.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// SetAutoReconnect enables or disables reconnection after transport loss.
func (m *Manager) SetAutoReconnect(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoReconnect = enabled
}

// OnStateChange sets a callback for state transitions.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnConnected sets a callback invoked with each new live transport.
func (m *Manager) OnConnected(fn func(conn net.Conn)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = fn
}

// OnRetry sets a callback invoked before each backoff sleep.
func (m *Manager) OnRetry(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRetry = fn
}

// Connect starts the connect loop. It returns immediately; the loop
// retries forever until it succeeds, the manager halts, or it closes.
// A second call while a loop is running is a no-op.
func (m *Manager) Connect() error {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return ErrClosed
	}
	if m.loopRunning || m.state == StateConnected {
		m.mu.Unlock()
		return nil
	}
	m.loopRunning = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.connectLoop()
	return nil
}

// ConnectionLost reports that the live transport dropped. When
// auto-reconnect is on and the manager is neither halted nor closing,
// a fresh connect loop starts asynchronously.
func (m *Manager) ConnectionLost(err error) {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	m.conn = nil
	reconnect := m.autoReconnect && !m.closing
	m.mu.Unlock()

	reason := ""
	if err != nil {
		reason = err.Error()
	}
	m.setState(StateDisconnected, reason)

	if reconnect {
		// Closing is re-checked inside; the error only signals that.
		_ = m.Connect()
	}
}

// Halt pauses connection attempts and closes the live transport. The
// connect loop keeps polling until Resume or Close.
func (m *Manager) Halt() {
	m.mu.Lock()
	m.halted = true
	conn := m.conn
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Resume lifts a Halt. It does not start a connect loop by itself; a
// loop parked on the halt poll picks the change up within the poll
// interval, and ConnectionLost schedules one when the transport died.
func (m *Manager) Resume() {
	m.mu.Lock()
	m.halted = false
	m.mu.Unlock()
}

// Halted reports whether connection attempts are paused.
func (m *Manager) Halted() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.halted
}

// Close shuts the manager down: no further attempts, live transport
// closed, connect loop drained. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return
	}
	m.closing = true
	conn := m.conn
	m.conn = nil
	m.mu.Unlock()

	m.cancel()
	if conn != nil {
		conn.Close()
	}
	m.wg.Wait()
	m.setState(StateDisconnected, "closed")
}

// connectLoop dials until success. Cancellation and the halted flag
// are observed at every sleep wake-up.
func (m *Manager) connectLoop() {
	defer m.wg.Done()
	defer func() {
		m.mu.Lock()
		m.loopRunning = false
		m.mu.Unlock()
	}()

	for {
		m.mu.RLock()
		closing, halted := m.closing, m.halted
		m.mu.RUnlock()

		if closing {
			return
		}
		if halted {
			if !m.sleep(HaltPollInterval) {
				return
			}
			continue
		}

		m.setState(StateConnecting, "")
		conn, err := m.dial(m.ctx)
		if err != nil {
			m.setState(StateDisconnected, err.Error())
			delay := m.backoff.Next()
			m.mu.RLock()
			onRetry := m.onRetry
			m.mu.RUnlock()
			if onRetry != nil {
				onRetry(m.backoff.Attempts(), delay)
			}
			if !m.sleep(delay) {
				return
			}
			continue
		}

		m.mu.Lock()
		// Halt or Close may have raced with the dial.
		if m.closing || m.halted {
			m.mu.Unlock()
			conn.Close()
			if m.closing {
				return
			}
			continue
		}
		m.conn = conn
		m.backoff.Reset()
		onConnected := m.onConnected
		m.mu.Unlock()

		m.setState(StateConnected, "")
		if onConnected != nil {
			onConnected(conn)
		}
		return
	}
}

// sleep waits for d, returning false when the manager closed meanwhile.
func (m *Manager) sleep(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-m.ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// setState records a state transition and notifies observers.
func (m *Manager) setState(newState State, reason string) {
	m.mu.Lock()
	oldState := m.state
	if oldState == newState {
		m.mu.Unlock()
		return
	}
	m.state = newState
	onStateChange := m.onStateChange
	m.mu.Unlock()

	m.logger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: m.connID,
		Layer:        log.LayerSession,
		Category:     log.CategoryState,
		StateChange: &log.StateChangeEvent{
			OldState: oldState.String(),
			NewState: newState.String(),
			Reason:   reason,
		},
	})

	if onStateChange != nil {
		onStateChange(oldState, newState)
	}
}
