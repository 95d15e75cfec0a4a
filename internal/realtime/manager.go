package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ManagerConfig configures the connection Manager.
type ManagerConfig struct {
	Backoff     Backoff
	DialTimeout time.Duration // Upper bound for one dial attempt (0 = none)
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Backoff:     DefaultBackoff(),
		DialTimeout: 15 * time.Second,
	}
}

// Manager owns the single push connection: it dials, replays the
// subscription registry onto every new connection, reconnects with
// exponential backoff and feeds inbound frames to the Dispatcher.
//
// Every state transition, registry mutation that may produce a frame and
// replay happens under mu, so the server-visible topic set always matches
// the registry after a connect.
type Manager struct {
	cfg        ManagerConfig
	transport  Transport
	registry   *Registry
	dispatcher *Dispatcher
	logger     *zap.Logger

	mu         sync.Mutex
	state      State
	conn       Conn
	connecting bool
	attempts   int
	epoch      uint64 // bumped by Disconnect; stale goroutines compare against it
	cancelDial context.CancelFunc
	retryTimer *time.Timer
	retryID    uint64 // identifies the pending retry; bumped when it is stopped
}

// NewManager creates a Manager in the Closed state. It does not dial.
func NewManager(cfg ManagerConfig, transport Transport, registry *Registry, dispatcher *Dispatcher, logger *zap.Logger) *Manager {
	return &Manager{
		cfg:        cfg,
		transport:  transport,
		registry:   registry,
		dispatcher: dispatcher,
		logger:     logger,
		state:      StateClosed,
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Attempts returns the number of automatic retries since the last
// successful connect.
func (m *Manager) Attempts() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.attempts
}

// Connect starts a dial in the background unless the connection is already
// open or a dial is in flight. An explicit Connect restores the full retry
// budget.
func (m *Manager) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateOpen || m.connecting {
		return
	}

	m.stopRetryLocked()
	m.attempts = 0
	m.dialLocked()
}

// Disconnect closes the connection, cancels any pending dial or retry and
// clears both the subscription registry and the consumer set.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.epoch++
	m.stopRetryLocked()
	if m.cancelDial != nil {
		m.cancelDial()
		m.cancelDial = nil
	}
	conn := m.conn
	m.conn = nil
	m.connecting = false
	m.attempts = 0
	m.state = StateClosed
	m.registry.Clear()
	m.dispatcher.Clear()
	m.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			m.logger.Debug("closing push connection", zap.Error(err))
		}
	}
	m.logger.Info("push client disconnected")
}

// Subscribe registers topic and, if the connection is open, sends a
// subscribe frame for it. Registering a known topic is a no-op. The frame is
// written after the lock is released, so a stalled peer delays only this
// caller, for at most the transport's write timeout.
func (m *Manager) Subscribe(topic string) {
	m.mu.Lock()
	if !m.registry.Add(topic) {
		m.mu.Unlock()
		return
	}
	m.logger.Debug("topic subscribed", zap.String("topic", topic), zap.String("state", m.state.String()))
	frame := buildSubscribeFrame(topic)
	conn := m.openConnLocked(frame)
	m.mu.Unlock()

	m.write(conn, frame)
}

// Unsubscribe removes topic and, if the connection is open, sends an
// unsubscribe frame for it.
func (m *Manager) Unsubscribe(topic string) {
	m.mu.Lock()
	if !m.registry.Remove(topic) {
		m.mu.Unlock()
		return
	}
	m.logger.Debug("topic unsubscribed", zap.String("topic", topic), zap.String("state", m.state.String()))
	frame := buildUnsubscribeFrame(topic)
	conn := m.openConnLocked(frame)
	m.mu.Unlock()

	m.write(conn, frame)
}

// openConnLocked returns the open connection, or nil when frame has to be
// dropped because the client is not open. A topic registered while closed
// is sent by the replay on the next open.
func (m *Manager) openConnLocked(frame []byte) Conn {
	if m.state != StateOpen || m.conn == nil {
		m.logger.Debug("frame not sent",
			zap.String("state", m.state.String()),
			zap.ByteString("frame", frame),
			zap.Error(ErrNotConnected),
		)
		return nil
	}
	return m.conn
}

// write sends frame on conn. Write errors are left for the read loop to
// surface.
func (m *Manager) write(conn Conn, frame []byte) {
	if conn == nil {
		return
	}
	if err := conn.WriteFrame(frame); err != nil {
		m.logger.Warn("failed to send frame", zap.ByteString("frame", frame), zap.Error(err))
	}
}

func (m *Manager) dialLocked() {
	var ctx context.Context
	var cancel context.CancelFunc
	if m.cfg.DialTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), m.cfg.DialTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	m.connecting = true
	m.state = StateConnecting
	m.cancelDial = cancel

	go m.dial(ctx, cancel, m.epoch)
}

func (m *Manager) dial(ctx context.Context, cancel context.CancelFunc, epoch uint64) {
	defer cancel()

	conn, err := m.transport.Dial(ctx)

	m.mu.Lock()
	if epoch != m.epoch {
		m.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}

	m.connecting = false
	m.cancelDial = nil

	if err != nil {
		m.state = StateError
		m.logger.Warn("push connection failed", zap.Int("attempt", m.attempts), zap.Error(err))
		m.scheduleRetryLocked()
		m.mu.Unlock()
		return
	}

	m.conn = conn
	m.attempts = 0
	m.state = StateOpen

	// Replay holds the lock so no subscribe or unsubscribe frame can
	// overtake it.
	topics := m.registry.Topics()
	for _, topic := range topics {
		m.write(conn, buildSubscribeFrame(topic))
	}
	m.mu.Unlock()

	m.logger.Info("push client connected", zap.Int("replayedTopics", len(topics)))

	// Replay is complete before the first inbound frame is read.
	go m.readLoop(conn, epoch)
}

func (m *Manager) readLoop(conn Conn, epoch uint64) {
	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			m.handleDrop(conn, epoch, err)
			return
		}
		m.dispatcher.Dispatch(frame)
	}
}

func (m *Manager) handleDrop(conn Conn, epoch uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if epoch != m.epoch || m.conn != conn {
		return
	}

	m.conn = nil
	m.state = StateClosed
	conn.Close()

	m.logger.Warn("push connection lost", zap.Error(err))
	m.scheduleRetryLocked()
}

func (m *Manager) scheduleRetryLocked() {
	if m.attempts >= m.cfg.Backoff.MaxAttempts {
		m.state = StateClosed
		m.logger.Warn("max reconnection attempts reached", zap.Int("attempts", m.attempts))
		return
	}

	m.attempts++
	delay := m.cfg.Backoff.Delay(m.attempts)
	m.retryID++
	id := m.retryID

	m.logger.Info("scheduling reconnect",
		zap.Int("attempt", m.attempts),
		zap.Duration("delay", delay),
	)

	m.retryTimer = time.AfterFunc(delay, func() {
		m.retry(id)
	})
}

func (m *Manager) retry(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id != m.retryID {
		return
	}
	m.retryTimer = nil
	if m.state == StateOpen || m.connecting {
		return
	}
	m.dialLocked()
}

func (m *Manager) stopRetryLocked() {
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	m.retryID++
}
