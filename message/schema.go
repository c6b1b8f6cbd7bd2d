package message

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/c360/dashstream/errors"
)

// Payload schemas per public kind, validated at the normalizer boundary so
// downstream code can rely on the documented shapes instead of re-checking.
// Schemas are deliberately permissive: they pin the required discriminating
// fields and their types, and allow additional properties the backend may
// add between releases.
var payloadSchemaSources = map[string]string{
	KindInitialData: `{
		"type": "object",
		"required": ["workers", "summary"],
		"properties": {
			"workers": {"type": "array"},
			"summary": {"type": "object"}
		}
	}`,
	KindWorkerRegistered: `{
		"type": "object",
		"required": ["worker_id"],
		"properties": {
			"worker_id": {"type": "string"},
			"endpoint": {"type": "string"}
		}
	}`,
	KindWorkerDeregistered: `{
		"type": "object",
		"required": ["worker_id"],
		"properties": {
			"worker_id": {"type": "string"}
		}
	}`,
	KindWorkerStatusChange: `{
		"type": "object",
		"required": ["worker"],
		"properties": {
			"worker": {"type": "object"}
		}
	}`,
	KindWorkerStatusUpdate: `{
		"type": "object",
		"required": ["worker_id", "status"],
		"properties": {
			"worker_id": {"type": "string"},
			"status": {"type": "string"}
		}
	}`,
	KindMetricsUpdate: `{
		"type": "object",
		"required": ["worker_id"],
		"properties": {
			"worker_id": {"type": "string"},
			"metrics": {"type": "object"}
		}
	}`,
	KindResourcesUpdate: `{
		"type": "object",
		"required": ["resources"],
		"properties": {
			"resources": {"type": "object"}
		}
	}`,
	KindCommandResponse: `{
		"type": "object",
		"required": ["command", "success"],
		"properties": {
			"command": {"type": "string"},
			"success": {"type": "boolean"},
			"request_id": {"type": "string"},
			"error": {"type": "string"}
		}
	}`,
}

// payloadSchemas holds the compiled schemas, keyed by public kind.
// Read-only after package initialization.
var payloadSchemas map[string]*gojsonschema.Schema

func init() {
	payloadSchemas = make(map[string]*gojsonschema.Schema, len(payloadSchemaSources))
	for kind, src := range payloadSchemaSources {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
		if err != nil {
			panic("message: invalid payload schema for kind " + kind + ": " + err.Error())
		}
		payloadSchemas[kind] = schema
	}
}

// ValidatePayload checks the payload of a public kind against its registered
// schema. Kinds without a schema (pass-through kinds and synthetic lifecycle
// events) validate trivially. A nil or empty payload for a schema-bearing
// kind is invalid.
func ValidatePayload(kind string, payload json.RawMessage) error {
	schema, ok := payloadSchemas[kind]
	if !ok {
		return nil
	}

	if len(payload) == 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: kind %q requires a payload", errors.ErrInvalidPayload, kind),
			"Normalizer", "ValidatePayload", "check payload presence")
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(payload))
	if err != nil {
		// Payload is not even valid JSON
		return errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrInvalidPayload, err),
			"Normalizer", "ValidatePayload", "load payload")
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return errors.WrapInvalid(
			fmt.Errorf("%w: kind %q: %s", errors.ErrInvalidPayload, kind, strings.Join(details, "; ")),
			"Normalizer", "ValidatePayload", "validate payload")
	}

	return nil
}
