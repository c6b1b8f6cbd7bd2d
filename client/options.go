package client

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/metric"
	"github.com/c360/dashstream/pkg/backoff"
)

// Option configures a Client during construction
type Option func(*Client) error

// WithLogger sets the structured logger used by the client and its router
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			return errors.WrapInvalid(
				fmt.Errorf("nil logger"),
				"Client", "WithLogger", "validate option")
		}
		c.logger = logger
		return nil
	}
}

// WithBackoff sets the reconnect policy. The zero fields of the policy are
// filled with defaults; an inconsistent policy is rejected here rather than
// at the first reconnect.
func WithBackoff(policy backoff.Policy) Option {
	return func(c *Client) error {
		if err := policy.Validate(); err != nil {
			return errors.WrapInvalid(err, "Client", "WithBackoff", "validate policy")
		}
		c.policy = policy
		return nil
	}
}

// WithDialer substitutes the transport. Used by tests and by embedders that
// need custom TLS or proxy handling.
func WithDialer(dialer Dialer) Option {
	return func(c *Client) error {
		if dialer == nil {
			return errors.WrapInvalid(
				fmt.Errorf("nil dialer"),
				"Client", "WithDialer", "validate option")
		}
		c.dialer = dialer
		return nil
	}
}

// WithMetrics registers the client's metrics against the given registry
func WithMetrics(registry *metric.Registry) Option {
	return func(c *Client) error {
		if registry == nil {
			return errors.WrapInvalid(
				fmt.Errorf("nil registry"),
				"Client", "WithMetrics", "validate option")
		}
		c.registry = registry
		return nil
	}
}

// WithHandshakeTimeout bounds the websocket handshake on each dial attempt.
// Only applies to the default dialer.
func WithHandshakeTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return errors.WrapInvalid(
				fmt.Errorf("handshake timeout must be positive, got %v", timeout),
				"Client", "WithHandshakeTimeout", "validate option")
		}
		c.handshakeTimeout = timeout
		return nil
	}
}

// WithPingInterval sets how often keepalive pings go out on a live
// connection. Zero disables keepalives.
func WithPingInterval(interval time.Duration) Option {
	return func(c *Client) error {
		if interval < 0 {
			return errors.WrapInvalid(
				fmt.Errorf("ping interval cannot be negative, got %v", interval),
				"Client", "WithPingInterval", "validate option")
		}
		c.pingInterval = interval
		return nil
	}
}

// WithCommandTimeout sets the default deadline applied by Call when the
// caller's context carries none
func WithCommandTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return errors.WrapInvalid(
				fmt.Errorf("command timeout must be positive, got %v", timeout),
				"Client", "WithCommandTimeout", "validate option")
		}
		c.commandTimeout = timeout
		return nil
	}
}
