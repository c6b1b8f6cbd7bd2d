package client

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"net"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/message"
	"github.com/c360/dashstream/metric"
	"github.com/c360/dashstream/pkg/backoff"
	"github.com/c360/dashstream/router"
)

// ConnectionState reports where the client is in its connection lifecycle
type ConnectionState int

const (
	// StateDisconnected means no connection exists and none is being attempted
	StateDisconnected ConnectionState = iota
	// StateConnecting means a dial or reconnect attempt is in flight
	StateConnecting
	// StateConnected means a live connection is serving frames
	StateConnected
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

const (
	defaultHandshakeTimeout = 10 * time.Second
	defaultCommandTimeout   = 30 * time.Second
	defaultPingInterval     = 30 * time.Second
	pingWriteTimeout        = 5 * time.Second
)

// Client maintains a single logical event stream to the dashboard backend
// across physical connection failures. All inbound frames are normalized and
// fanned out through the router on one goroutine, so subscribers observe
// per-connection ordering: connection_open strictly before the connection's
// frames, connection_closed strictly after its last frame.
type Client struct {
	endpoint         *url.URL
	dialer           Dialer
	policy           backoff.Policy
	logger           *slog.Logger
	registry         *metric.Registry
	metrics          *Metrics
	router           *router.Router
	handshakeTimeout time.Duration
	commandTimeout   time.Duration
	pingInterval     time.Duration

	// warnLimit caps malformed-frame log noise; a misbehaving backend must
	// not flood the log at frame rate
	warnLimit *rate.Limiter

	mu       sync.Mutex
	state    ConnectionState
	conn     Conn
	manual   bool
	attempts int
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}

	// writeMu serializes frame writes; gorilla allows one concurrent writer
	writeMu sync.Mutex

	pendingMu sync.Mutex
	pending   map[string]*pendingCall
}

// New creates a client for the given backend address. The address must use
// the ws or wss scheme; an empty path defaults to /events. The client does
// not connect until Connect is called.
func New(rawURL string, opts ...Option) (*Client, error) {
	c := &Client{
		policy:           backoff.Default(),
		logger:           slog.Default(),
		handshakeTimeout: defaultHandshakeTimeout,
		commandTimeout:   defaultCommandTimeout,
		pingInterval:     defaultPingInterval,
		warnLimit:        rate.NewLimiter(rate.Every(time.Second), 5),
		pending:          make(map[string]*pendingCall),
	}

	endpoint, err := deriveEndpoint(rawURL)
	if err != nil {
		return nil, err
	}
	c.endpoint = endpoint

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.dialer == nil {
		c.dialer = newWSDialer(c.handshakeTimeout)
	}
	c.router = router.New(c.logger)

	metrics, err := newMetrics(c.registry)
	if err != nil {
		return nil, err
	}
	c.metrics = metrics

	return c, nil
}

// Subscribe registers fn for envelopes of the given kind and returns an
// unsubscribe function. Unsubscribing is strict: once it returns, fn is
// never invoked again, including for envelopes already being dispatched.
func (c *Client) Subscribe(kind string, fn router.Listener) func() {
	return c.router.Subscribe(kind, fn)
}

// State returns the current connection state
func (c *Client) State() ConnectionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connect starts the connection loop. It clears any prior manual-disconnect
// flag and resets the reconnect counter, so Connect after a terminal
// max_retries_reached starts a fresh attempt budget. Calling Connect while
// a loop is already running is a no-op.
func (c *Client) Connect() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.manual = false
	c.attempts = 0

	if c.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done
	c.running = true

	go c.run(ctx, done)
}

// Disconnect tears down the connection and suppresses all reconnection. The
// manual flag is set before the socket closes, so the teardown path cannot
// race a retry. Disconnect blocks until the connection loop has exited and
// is idempotent.
func (c *Client) Disconnect() {
	c.mu.Lock()
	c.manual = true
	cancel := c.cancel
	conn := c.conn
	done := c.done
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if conn != nil {
		_ = conn.Close()
	}
	if done != nil {
		<-done
	}

	c.failPending(errors.ErrManuallyClosed)
}

// run owns the connection lifecycle. Dial, serve, tear down, back off,
// repeat; exit on manual disconnect or an exhausted attempt budget.
func (c *Client) run(ctx context.Context, done chan struct{}) {
	defer func() {
		c.mu.Lock()
		c.running = false
		c.cancel = nil
		c.mu.Unlock()
		close(done)
	}()

	for {
		if c.stopped(ctx) {
			c.setState(StateDisconnected)
			return
		}

		c.setState(StateConnecting)

		connID := newConnID()
		conn, err := c.dialer.DialContext(ctx, connURL(c.endpoint, connID))
		if err != nil {
			if c.stopped(ctx) {
				c.setState(StateDisconnected)
				return
			}
			c.setState(StateDisconnected)
			if c.retryOrGiveUp(ctx, "dial", err) {
				continue
			}
			return
		}

		c.mu.Lock()
		if c.manual {
			// Disconnect raced the dial; the new socket must not survive it
			c.mu.Unlock()
			_ = conn.Close()
			c.setState(StateDisconnected)
			return
		}
		c.conn = conn
		c.attempts = 0
		c.state = StateConnected
		c.mu.Unlock()
		c.metrics.stateChanged(StateConnected)

		c.logger.Info("connection established", "conn_id", connID, "url", c.endpoint.String())
		c.dispatchSynthetic(message.KindConnectionOpen, message.ConnectionOpenPayload{
			ConnID: connID,
			URL:    c.endpoint.String(),
		})

		pingCtx, stopPings := context.WithCancel(ctx)
		go c.pingLoop(pingCtx, conn)

		readErr := c.readLoop(conn)
		stopPings()

		c.mu.Lock()
		c.conn = nil
		c.state = StateDisconnected
		c.mu.Unlock()
		c.metrics.stateChanged(StateDisconnected)

		c.failPending(errors.ErrConnectionLost)

		if c.stopped(ctx) {
			return
		}

		// The connection existed and died; tell subscribers before any
		// retry so closed-then-open ordering holds across reconnects
		c.dispatchSynthetic(message.KindConnectionClosed, closedPayload(readErr))
		c.logger.Warn("connection lost", "conn_id", connID, "error", readErr)

		if !c.retryOrGiveUp(ctx, "read", readErr) {
			return
		}
	}
}

// retryOrGiveUp increments the reconnect counter, emits the attempt's
// synthetic envelope, and sleeps the backoff delay. It returns false when
// the budget is exhausted or the loop is being stopped; the terminal
// max_retries_reached envelope fires exactly once, here.
func (c *Client) retryOrGiveUp(ctx context.Context, phase string, cause error) bool {
	c.mu.Lock()
	c.attempts++
	attempt := c.attempts
	c.mu.Unlock()
	c.metrics.reconnectAttempt()

	if phase == "dial" {
		c.dispatchSynthetic(message.KindConnectionError, message.ConnectionErrorPayload{
			Error:   cause.Error(),
			Attempt: attempt,
		})
		c.logger.Warn("dial failed", "attempt", attempt, "error", cause)
	}

	if c.policy.Exhausted(attempt) {
		c.logger.Error("reconnect budget exhausted", "attempts", attempt)
		c.dispatchSynthetic(message.KindMaxRetriesReached, message.MaxRetriesReachedPayload{
			Attempts: attempt,
		})
		return false
	}

	delay := c.policy.Delay(attempt)
	c.logger.Debug("scheduling reconnect", "attempt", attempt, "delay", delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	return !c.stopped(ctx)
}

// readLoop normalizes and dispatches frames until the connection dies.
// It runs on the connection loop goroutine, which is what guarantees
// in-order delivery to subscribers.
func (c *Client) readLoop(conn Conn) error {
	for {
		raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		c.metrics.frameReceived()

		env, err := message.Normalize(raw, time.Now().UTC())
		if err != nil {
			c.metrics.frameDropped()
			if c.warnLimit.Allow() {
				c.logger.Warn("dropping malformed frame", "error", err)
			}
			continue
		}

		if env.Kind == message.KindCommandResponse {
			c.resolvePending(env)
		}

		c.metrics.envelopeDispatched(env.Kind)
		c.router.Dispatch(env)
	}
}

// pingLoop keeps the connection warm so proxies and the backend's idle
// reaper do not cut it. A failed ping closes the socket, which surfaces as
// a read error on the stream goroutine and triggers the normal reconnect.
func (c *Client) pingLoop(ctx context.Context, conn Conn) {
	if c.pingInterval <= 0 {
		return
	}

	ticker := time.NewTicker(c.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.Ping(time.Now().Add(pingWriteTimeout)); err != nil {
				c.logger.Warn("keepalive ping failed", "error", err)
				_ = conn.Close()
				return
			}
		}
	}
}

func (c *Client) dispatchSynthetic(kind string, payload any) {
	env := message.NewSynthetic(kind, payload, time.Now().UTC())
	c.metrics.envelopeDispatched(kind)
	c.router.Dispatch(env)
}

func (c *Client) setState(state ConnectionState) {
	c.mu.Lock()
	c.state = state
	c.mu.Unlock()
	c.metrics.stateChanged(state)
}

// stopped reports whether the loop must exit: context cancelled or the
// manual-disconnect flag set. The flag is checked explicitly so a wakeup
// that races the cancel still observes the disconnect.
func (c *Client) stopped(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.manual
}

// closedPayload extracts the close code and reason when the transport
// reported a websocket close frame; other read errors carry their text as
// the reason with no code.
func closedPayload(err error) message.ConnectionClosedPayload {
	var closeErr *websocket.CloseError
	if stderrors.As(err, &closeErr) {
		return message.ConnectionClosedPayload{
			Code:   closeErr.Code,
			Reason: closeErr.Text,
		}
	}
	if err == nil || stderrors.Is(err, io.EOF) || stderrors.Is(err, net.ErrClosed) {
		return message.ConnectionClosedPayload{
			Code:   websocket.CloseAbnormalClosure,
			Reason: "connection closed",
		}
	}
	return message.ConnectionClosedPayload{
		Code:   websocket.CloseAbnormalClosure,
		Reason: err.Error(),
	}
}
