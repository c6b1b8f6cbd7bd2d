// Package message defines the normalized envelope, the kind vocabulary, and
// the normalizer that turns raw backend frames into envelopes.
//
// # Envelope
//
// Every inbound frame becomes an Envelope{Kind, Payload, Timestamp}.
// Envelopes are immutable values: the normalizer constructs them, the router
// dispatches them, listeners read them.
//
// # Kind mapping
//
// The backend names its events with colon-separated identifiers
// ("worker:registered"); listeners subscribe to a stable public vocabulary
// ("worker_registered"). MapKind performs the translation; kinds the mapping
// does not know pass through verbatim, so new backend events reach listeners
// without a client release.
//
// # Validation
//
// Payloads for known kinds are validated against JSON schemas at the
// normalizer boundary. A frame that fails to parse, lacks a kind, or carries
// a payload violating its schema yields a classified-invalid error; the
// caller drops that single frame and the connection stays open. Malformed
// frames are never fatal.
//
// # Typed payloads
//
// Each public kind has a documented Go shape (WorkerRegisteredPayload,
// MetricsUpdatePayload, ...). DecodePayload returns the typed value for an
// envelope so consumers do not re-parse raw JSON.
package message
