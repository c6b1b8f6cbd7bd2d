package client

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/c360/dashstream/errors"
)

// defaultEventsPath is appended when the configured backend address has no
// path. The connection path is derived, never configured.
const defaultEventsPath = "/events"

// Conn is one live connection to the backend. Exactly one Conn exists per
// successful dial; a closed Conn is never resumed.
type Conn interface {
	// ReadMessage blocks for the next raw frame
	ReadMessage() ([]byte, error)
	// WriteMessage hands one frame to the transport
	WriteMessage(data []byte) error
	// Ping sends a keepalive probe
	Ping(deadline time.Time) error
	// Close tears down the connection; idempotent
	Close() error
}

// Dialer opens connections to the backend. The production implementation
// wraps gorilla/websocket; tests substitute a fake.
type Dialer interface {
	DialContext(ctx context.Context, rawURL string) (Conn, error)
}

// wsDialer is the production Dialer backed by gorilla/websocket
type wsDialer struct {
	dialer *websocket.Dialer
}

func newWSDialer(handshakeTimeout time.Duration) *wsDialer {
	return &wsDialer{
		dialer: &websocket.Dialer{
			HandshakeTimeout: handshakeTimeout,
		},
	}
}

func (d *wsDialer) DialContext(ctx context.Context, rawURL string) (Conn, error) {
	conn, _, err := d.dialer.DialContext(ctx, rawURL, nil)
	if err != nil {
		return nil, errors.WrapTransient(err, "Transport", "DialContext", "dial websocket")
	}
	return &wsConn{conn: conn}, nil
}

// wsConn adapts *websocket.Conn to the Conn interface
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	return data, err
}

func (c *wsConn) WriteMessage(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Ping(deadline time.Time) error {
	return c.conn.WriteControl(websocket.PingMessage, nil, deadline)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// deriveEndpoint validates the configured base address and fixes the
// connection path. Only ws:// and wss:// schemes are accepted.
func deriveEndpoint(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Client", "New", "parse backend URL")
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: scheme %q (want ws or wss)", errors.ErrInvalidConfig, u.Scheme),
			"Client", "New", "validate backend URL")
	}
	if u.Host == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: missing host", errors.ErrInvalidConfig),
			"Client", "New", "validate backend URL")
	}
	if u.Path == "" {
		u.Path = defaultEventsPath
	}
	return u, nil
}

// newConnID returns a random, time-based identifier appended to each dial so
// the backend can disambiguate successive sessions from the same client.
func newConnID() string {
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}

// connURL derives the URL for one physical connection attempt
func connURL(endpoint *url.URL, connID string) string {
	u := *endpoint
	q := u.Query()
	q.Set("conn_id", connID)
	u.RawQuery = q.Encode()
	return u.String()
}
