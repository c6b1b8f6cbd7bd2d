package message

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/c360/dashstream/errors"
)

// Normalize parses a raw inbound frame into an Envelope: JSON-decode the
// wire shape, require a kind field, remap the kind to the public vocabulary,
// validate the payload against the kind's schema when one is registered,
// and resolve the timestamp.
//
// All returned errors are classified invalid: the caller drops the single
// frame and keeps the connection. Normalize never terminates a stream.
func Normalize(raw []byte, receivedAt time.Time) (Envelope, error) {
	var wire wireEnvelope
	if err := json.Unmarshal(raw, &wire); err != nil {
		return Envelope{}, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrParsingFailed, err),
			"Normalizer", "Normalize", "unmarshal frame")
	}

	if wire.Kind == "" {
		return Envelope{}, errors.WrapInvalid(
			errors.ErrMissingKind,
			"Normalizer", "Normalize", "validate frame")
	}

	kind := MapKind(wire.Kind)

	if err := ValidatePayload(kind, wire.Payload); err != nil {
		return Envelope{}, err
	}

	return Envelope{
		Kind:      kind,
		Payload:   wire.Payload,
		Timestamp: resolveTimestamp(wire.Timestamp, receivedAt),
	}, nil
}

// resolveTimestamp prefers the frame's own timestamp when it parses as
// RFC 3339; anything else falls back to the receipt instant.
func resolveTimestamp(ts string, receivedAt time.Time) time.Time {
	if ts == "" {
		return receivedAt
	}
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return receivedAt
	}
	return parsed
}
