// Package conn maintains the duplex event channel to the agent backend. A
// single websocket carries interleaved frames for all sessions; the manager
// owns dialing, bounded reconnection, and inbound dispatch.
package conn

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"github.com/navihq/navi/internal/logging"
	"github.com/navihq/navi/internal/protocol"
)

// ConnectivityError reports that the reconnect budget was exhausted. The
// coordinator surfaces it to every session rather than retrying forever.
type ConnectivityError struct {
	Attempts uint64
	Err      error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connection lost after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// Options configures the connection manager.
type Options struct {
	// URL is the websocket endpoint of the agent backend.
	URL string
	// MaxRetries bounds each (re)connect attempt sequence.
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	// MaxElapsed caps the total time spent in one retry sequence.
	MaxElapsed       time.Duration
	HandshakeTimeout time.Duration
	Logger           *slog.Logger
}

// Manager owns one websocket connection and its read loop. Events are
// delivered to a single handler, invoked inline from the read loop so that
// per-session ordering is preserved without extra buffering.
type Manager struct {
	opts Options
	log  *slog.Logger

	handler     func(protocol.Event)
	onConnect   func()
	onConnLost  func(*ConnectivityError)
	onReconnect func(attempt uint64)

	mu      sync.Mutex
	conn    *websocket.Conn
	closed  bool
	started bool
	cancel  context.CancelFunc

	// writeMu serializes writes; gorilla allows one concurrent writer.
	writeMu sync.Mutex

	wg         sync.WaitGroup
	generation atomic.Uint64
}

// New returns an unstarted manager. Handlers must be registered before
// Start.
func New(opts Options) *Manager {
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 5
	}
	if opts.InitialInterval == 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxInterval == 0 {
		opts.MaxInterval = 15 * time.Second
	}
	if opts.HandshakeTimeout == 0 {
		opts.HandshakeTimeout = 10 * time.Second
	}
	log := opts.Logger
	if log == nil {
		log = logging.Conn()
	}
	return &Manager{opts: opts, log: log}
}

// OnEvent registers the single inbound dispatcher. The handler runs on the
// read loop goroutine; it must not block indefinitely.
func (m *Manager) OnEvent(fn func(protocol.Event)) { m.handler = fn }

// OnConnect registers a callback invoked after each successful (re)connect.
func (m *Manager) OnConnect(fn func()) { m.onConnect = fn }

// OnConnectivityLost registers the callback for exhausted reconnects.
func (m *Manager) OnConnectivityLost(fn func(*ConnectivityError)) { m.onConnLost = fn }

// OnReconnecting registers a callback invoked before each retry attempt.
func (m *Manager) OnReconnecting(fn func(attempt uint64)) { m.onReconnect = fn }

// Start dials the backend and begins the read loop. It returns a
// ConnectivityError when the initial connect budget is exhausted. Subsequent
// disconnects reconnect in the background with the same budget. Calling
// Start on a manager that is already running is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		cancel()
		return fmt.Errorf("connection manager closed")
	}
	if m.started {
		m.mu.Unlock()
		cancel()
		return nil
	}
	m.started = true
	m.cancel = cancel
	m.mu.Unlock()

	if err := m.dialWithRetry(runCtx); err != nil {
		m.mu.Lock()
		m.started = false
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *Manager) newBackoff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.opts.InitialInterval
	bo.MaxInterval = m.opts.MaxInterval
	bo.MaxElapsedTime = m.opts.MaxElapsed
	return backoff.WithContext(backoff.WithMaxRetries(bo, m.opts.MaxRetries), ctx)
}

// dialWithRetry attempts to connect until success or the retry budget runs
// out. On success the read loop is started.
func (m *Manager) dialWithRetry(ctx context.Context) error {
	var attempts uint64
	dial := func() error {
		attempts++
		if attempts > 1 && m.onReconnect != nil {
			m.onReconnect(attempts)
		}
		dialer := websocket.Dialer{HandshakeTimeout: m.opts.HandshakeTimeout}
		c, _, err := dialer.DialContext(ctx, m.opts.URL, nil)
		if err != nil {
			m.log.Warn("dial failed", "url", m.opts.URL, "attempt", attempts, "error", err)
			return err
		}
		m.mu.Lock()
		if m.closed {
			m.mu.Unlock()
			c.Close()
			return backoff.Permanent(fmt.Errorf("connection manager closed"))
		}
		m.conn = c
		gen := m.generation.Add(1)
		m.mu.Unlock()

		m.log.Info("connected", "url", m.opts.URL, "attempt", attempts)
		if m.onConnect != nil {
			m.onConnect()
		}
		m.wg.Add(1)
		go m.readLoop(ctx, c, gen)
		return nil
	}

	if err := backoff.Retry(dial, m.newBackoff(ctx)); err != nil {
		cerr := &ConnectivityError{Attempts: attempts, Err: err}
		m.log.Error("retry budget exhausted", "attempts", attempts, "error", err)
		return cerr
	}
	return nil
}

// readLoop reads frames until the connection fails or the manager closes.
// The registered handler is invoked inline, one event at a time, so frame
// order on the wire is the order of delivery.
func (m *Manager) readLoop(ctx context.Context, c *websocket.Conn, gen uint64) {
	defer m.wg.Done()
	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			m.handleReadFailure(ctx, c, gen, err)
			return
		}
		ev, perr := protocol.ParseEvent(data)
		if perr != nil {
			m.log.Warn("dropping undecodable frame", "error", perr)
			continue
		}
		if m.handler != nil {
			m.handler(ev)
		}
	}
}

func (m *Manager) handleReadFailure(ctx context.Context, c *websocket.Conn, gen uint64, err error) {
	c.Close()
	m.mu.Lock()
	if m.closed || ctx.Err() != nil {
		m.mu.Unlock()
		return
	}
	// A stale loop from a superseded connection must not trigger another
	// reconnect sequence.
	if gen != m.generation.Load() {
		m.mu.Unlock()
		return
	}
	if m.conn == c {
		m.conn = nil
	}
	m.mu.Unlock()

	m.log.Warn("connection lost, reconnecting", "error", err)
	if rerr := m.dialWithRetry(ctx); rerr != nil {
		var cerr *ConnectivityError
		if ce, ok := rerr.(*ConnectivityError); ok {
			cerr = ce
		} else {
			cerr = &ConnectivityError{Err: rerr}
		}
		if m.onConnLost != nil {
			m.onConnLost(cerr)
		}
	}
}

// Send encodes and writes an operation. Sends are fire-and-forget at the
// protocol level; an error here means the frame never left the client.
func (m *Manager) Send(op protocol.Op) error {
	data, err := protocol.EncodeOp(op)
	if err != nil {
		return err
	}
	m.mu.Lock()
	c := m.conn
	m.mu.Unlock()
	if c == nil {
		return fmt.Errorf("send %s: not connected", op.OpName())
	}
	m.writeMu.Lock()
	defer m.writeMu.Unlock()
	if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("send %s: %w", op.OpName(), err)
	}
	return nil
}

// Attach subscribes to an existing backend session. Failures are logged, not
// returned; the attach is retried on the next reconnect by the caller's
// OnConnect hook.
func (m *Manager) Attach(sessionID, backendSessionID string) {
	err := m.Send(protocol.Attach{SessionID: sessionID, BackendSessionID: backendSessionID})
	if err != nil {
		m.log.Warn("attach failed", "session_id", sessionID, "error", err)
	}
}

// Connected reports whether a live connection exists.
func (m *Manager) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn != nil
}

// Close shuts the connection down and stops reconnecting.
func (m *Manager) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	c := m.conn
	m.conn = nil
	cancel := m.cancel
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c != nil {
		c.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.Close()
	}
	m.wg.Wait()
	return nil
}
