// Package errors provides standardized error handling patterns for dashstream.
//
// # Overview
//
// The errors package implements a three-class error classification system:
// Transient (temporary, retryable), Invalid (bad input, non-retryable), and
// Fatal (unrecoverable, stop processing).
//
// This classification lets the client make informed decisions about
// reconnection, frame handling, and failure reporting without hardcoded
// error string matching at call sites.
//
// # Error Classification
//
// Errors are classified based on their type or content:
//
//   - Transient: connection drops, timeouts, temporary unavailability (reconnect)
//   - Invalid: malformed frames, missing kind fields, schema violations (drop frame)
//   - Fatal: exhausted reconnect attempts, missing configuration (stop)
//
// The classification system integrates with Go's standard error handling,
// supporting errors.Is(), errors.As(), and error wrapping chains.
//
// # Quick Start
//
// Use standard error variables for known conditions:
//
//	if client.State() != client.StateConnected {
//	    return errors.ErrNotConnected
//	}
//
// Wrap errors with context for debugging:
//
//	if err := conn.WriteMessage(data); err != nil {
//	    return errors.WrapTransient(err, "Client", "Send", "write frame")
//	}
//
// Check classification to decide how to react:
//
//	if err := normalize(frame); err != nil {
//	    if errors.IsInvalid(err) {
//	        // drop the single frame, keep the connection
//	    }
//	}
//
// # Error Wrapping Pattern
//
// All error wrapping follows the standardized format:
//
//	"component.method: action failed: <underlying error>"
//
// This gives every error in a log line enough context to locate its origin
// without a stack trace.
package errors
