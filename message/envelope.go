package message

import (
	"encoding/json"
	"time"
)

// Envelope is a normalized inbound message: the mapped public kind, the raw
// payload, and the frame timestamp. Envelopes are immutable once constructed
// and are only produced by Normalize (or NewSynthetic for local lifecycle
// events); downstream code never mutates them.
type Envelope struct {
	Kind      string
	Payload   json.RawMessage
	Timestamp time.Time
}

// wireEnvelope is the inbound frame shape as sent by the backend
type wireEnvelope struct {
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp string          `json:"timestamp"`
}

// Command is the outbound envelope shape expected by the backend.
type Command struct {
	Type      string `json:"type"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// EncodeCommand builds the outbound frame for a command
func EncodeCommand(name string, payload any, now time.Time) ([]byte, error) {
	return json.Marshal(Command{
		Type:      name,
		Payload:   payload,
		Timestamp: now.UTC().Format(time.RFC3339Nano),
	})
}

// NewSynthetic constructs a local-only lifecycle envelope. The payload is
// marshaled eagerly so synthetic envelopes are indistinguishable from
// normalized wire envelopes to listeners.
func NewSynthetic(kind string, payload any, now time.Time) Envelope {
	raw, err := json.Marshal(payload)
	if err != nil {
		// Lifecycle payloads are plain structs; a marshal failure is a
		// programmer error, fall back to an empty object rather than panic.
		raw = json.RawMessage(`{}`)
	}
	return Envelope{
		Kind:      kind,
		Payload:   raw,
		Timestamp: now,
	}
}
