package client

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/c360/dashstream/errors"
	"github.com/c360/dashstream/message"
)

// pendingCall is one in-flight command awaiting its response. The result
// channel is buffered so the read loop never blocks resolving a call whose
// waiter already gave up.
type pendingCall struct {
	requestID string
	command   string
	enqueued  time.Time
	result    chan callResult
}

type callResult struct {
	payload json.RawMessage
	err     error
}

// Send writes a fire-and-forget command to the backend. It fails fast with
// ErrNotConnected when no live connection exists; commands are never queued
// across reconnects.
func (c *Client) Send(command string, payload any) error {
	conn, err := c.liveConn("Send")
	if err != nil {
		return err
	}

	frame, err := message.EncodeCommand(command, payload, time.Now())
	if err != nil {
		c.metrics.commandFailed()
		return errors.WrapInvalid(err, "Client", "Send", "encode command")
	}

	c.writeMu.Lock()
	err = conn.WriteMessage(frame)
	c.writeMu.Unlock()
	if err != nil {
		c.metrics.commandFailed()
		return errors.WrapTransient(err, "Client", "Send", "write command frame")
	}

	c.metrics.commandSent()
	return nil
}

// Call sends a command and waits for its correlated command_response. A
// request_id is injected into the payload and echoed by the backend; replies
// without one fall back to the oldest pending call for the same command
// name. Call fails fast when disconnected and pending calls are abandoned
// with ErrConnectionLost when the connection drops.
func (c *Client) Call(ctx context.Context, command string, payload any) (json.RawMessage, error) {
	conn, err := c.liveConn("Call")
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.commandTimeout)
		defer cancel()
	}

	requestID := uuid.NewString()
	body, err := injectRequestID(payload, requestID)
	if err != nil {
		c.metrics.commandFailed()
		return nil, err
	}

	frame, err := message.EncodeCommand(command, body, time.Now())
	if err != nil {
		c.metrics.commandFailed()
		return nil, errors.WrapInvalid(err, "Client", "Call", "encode command")
	}

	call := &pendingCall{
		requestID: requestID,
		command:   command,
		enqueued:  time.Now(),
		result:    make(chan callResult, 1),
	}
	c.addPending(call)

	c.writeMu.Lock()
	err = conn.WriteMessage(frame)
	c.writeMu.Unlock()
	if err != nil {
		c.removePending(requestID)
		c.metrics.commandFailed()
		return nil, errors.WrapTransient(err, "Client", "Call", "write command frame")
	}
	c.metrics.commandSent()

	select {
	case res := <-call.result:
		if res.err != nil {
			c.metrics.commandFailed()
			return nil, res.err
		}
		return res.payload, nil
	case <-ctx.Done():
		c.removePending(requestID)
		c.metrics.commandFailed()
		if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, errors.WrapTransient(
				fmt.Errorf("%w: command %q", errors.ErrCommandTimeout, command),
				"Client", "Call", "await command response")
		}
		return nil, errors.WrapTransient(ctx.Err(), "Client", "Call", "await command response")
	}
}

// liveConn returns the current connection or a fail-fast ErrNotConnected
func (c *Client) liveConn(method string) (Conn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnected || c.conn == nil {
		return nil, errors.WrapTransient(errors.ErrNotConnected, "Client", method, "check connection")
	}
	return c.conn, nil
}

func (c *Client) addPending(call *pendingCall) {
	c.pendingMu.Lock()
	c.pending[call.requestID] = call
	c.pendingMu.Unlock()
	c.metrics.pendingDelta(1)
}

func (c *Client) removePending(requestID string) {
	c.pendingMu.Lock()
	_, existed := c.pending[requestID]
	delete(c.pending, requestID)
	c.pendingMu.Unlock()
	if existed {
		c.metrics.pendingDelta(-1)
	}
}

// resolvePending matches a command_response envelope to its waiting call.
// Correlation prefers the echoed request_id; a reply that carries none
// resolves the oldest pending call for the same command name. Unmatched
// responses are not an error, the envelope still reaches subscribers.
func (c *Client) resolvePending(env message.Envelope) {
	var resp message.CommandResponsePayload
	if err := json.Unmarshal(env.Payload, &resp); err != nil {
		if c.warnLimit.Allow() {
			c.logger.Warn("unreadable command response", "error", err)
		}
		return
	}

	c.pendingMu.Lock()
	call := c.matchLocked(resp)
	if call != nil {
		delete(c.pending, call.requestID)
	}
	c.pendingMu.Unlock()

	if call == nil {
		return
	}
	c.metrics.pendingDelta(-1)

	if !resp.Success {
		reason := resp.Error
		if reason == "" {
			reason = "unspecified"
		}
		call.result <- callResult{err: errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrCommandFailed, reason),
			"Client", "Call", "resolve command response")}
		return
	}
	call.result <- callResult{payload: resp.Result}
}

// matchLocked picks the pending call for a response; pendingMu held
func (c *Client) matchLocked(resp message.CommandResponsePayload) *pendingCall {
	if resp.RequestID != "" {
		return c.pending[resp.RequestID]
	}

	var oldest *pendingCall
	for _, call := range c.pending {
		if call.command != resp.Command {
			continue
		}
		if oldest == nil || call.enqueued.Before(oldest.enqueued) {
			oldest = call
		}
	}
	return oldest
}

// failPending abandons every in-flight call with the given cause. Called on
// connection loss and on manual disconnect.
func (c *Client) failPending(cause error) {
	c.pendingMu.Lock()
	calls := make([]*pendingCall, 0, len(c.pending))
	for _, call := range c.pending {
		calls = append(calls, call)
	}
	c.pending = make(map[string]*pendingCall)
	c.pendingMu.Unlock()

	for _, call := range calls {
		c.metrics.pendingDelta(-1)
		call.result <- callResult{err: errors.WrapTransient(
			fmt.Errorf("%w: command %q", cause, call.command),
			"Client", "Call", "abandon pending command")}
	}
}

// injectRequestID adds the correlation key to a command payload. Payloads
// must be JSON objects (or nil); anything else cannot carry the key.
func injectRequestID(payload any, requestID string) (map[string]any, error) {
	body := map[string]any{}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.WrapInvalid(err, "Client", "Call", "marshal command payload")
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: command payload must be a JSON object", errors.ErrInvalidData),
				"Client", "Call", "inject request_id")
		}
	}
	body["request_id"] = requestID
	return body, nil
}
