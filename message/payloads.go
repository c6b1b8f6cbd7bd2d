package message

import (
	"encoding/json"
	"fmt"

	"github.com/c360/dashstream/errors"
)

// Typed payload shapes per public kind. Field names mirror the backend's
// wire format; optional fields the backend omits stay zero-valued.

// WorkerInfo describes one worker as reported by the backend.
type WorkerInfo struct {
	Name           string  `json:"name"`
	Endpoint       string  `json:"endpoint"`
	Status         string  `json:"status"`
	Healthy        bool    `json:"healthy"`
	WorkerStatus   string  `json:"worker_status"`
	LastHeartbeat  string  `json:"last_heartbeat,omitempty"`
	ContainerID    string  `json:"container_id,omitempty"`
	TotalProcessed int64   `json:"total_processed"`
	ErrorCount     int64   `json:"error_count"`
	ErrorRate      float64 `json:"error_rate"`
	CPU            float64 `json:"cpu"`
	Memory         float64 `json:"memory"`
	ResponseTime   string  `json:"response_time,omitempty"`
	ErrorMessage   string  `json:"error_message,omitempty"`
	LastChecked    string  `json:"last_checked,omitempty"`
}

// Summary aggregates worker health across the fleet.
type Summary struct {
	TotalWorkers     int     `json:"total_workers"`
	HealthyWorkers   int     `json:"healthy_workers"`
	UnhealthyWorkers int     `json:"unhealthy_workers"`
	TotalProcessed   int64   `json:"total_processed"`
	TotalErrors      int64   `json:"total_errors"`
	OverallErrorRate float64 `json:"overall_error_rate"`
}

// ResourceHealth is one health sample for a monitored resource type.
type ResourceHealth struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp,omitempty"`
}

// InitialDataPayload is the full dashboard snapshot sent on connect.
type InitialDataPayload struct {
	Workers    []WorkerInfo              `json:"workers"`
	Summary    Summary                   `json:"summary"`
	LastUpdate string                    `json:"last_update,omitempty"`
	Timestamp  string                    `json:"timestamp,omitempty"`
	Resources  map[string]ResourceHealth `json:"resources,omitempty"`
}

// WorkerRegisteredPayload announces a worker joining the fleet.
type WorkerRegisteredPayload struct {
	WorkerID     string `json:"worker_id"`
	Endpoint     string `json:"endpoint,omitempty"`
	IsNew        bool   `json:"is_new,omitempty"`
	TotalWorkers int    `json:"total_workers,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
}

// WorkerDeregisteredPayload announces a worker leaving the fleet.
type WorkerDeregisteredPayload struct {
	WorkerID     string `json:"worker_id"`
	Endpoint     string `json:"endpoint,omitempty"`
	TotalWorkers int    `json:"total_workers,omitempty"`
	Timestamp    string `json:"timestamp,omitempty"`
}

// WorkerStatusChangePayload carries a worker whose observed state flipped,
// together with the previous observation.
type WorkerStatusChangePayload struct {
	Worker    WorkerInfo  `json:"worker"`
	Previous  *WorkerInfo `json:"previous,omitempty"`
	Timestamp string      `json:"timestamp,omitempty"`
}

// WorkerStatusUpdatePayload is a worker-initiated status report.
type WorkerStatusUpdatePayload struct {
	WorkerID   string      `json:"worker_id"`
	Status     string      `json:"status"`
	WorkerData *WorkerInfo `json:"worker_data,omitempty"`
	Timestamp  string      `json:"timestamp,omitempty"`
}

// MetricsUpdatePayload is a worker-pushed metrics sample.
type MetricsUpdatePayload struct {
	WorkerID   string         `json:"worker_id"`
	WorkerName string         `json:"worker_name,omitempty"`
	Metrics    map[string]any `json:"metrics,omitempty"`
	Timestamp  string         `json:"timestamp,omitempty"`
}

// ResourcesUpdatePayload reports health for shared resources (queues,
// databases, caches) keyed by resource type.
type ResourcesUpdatePayload struct {
	Resources map[string]ResourceHealth `json:"resources"`
	Timestamp string                    `json:"timestamp,omitempty"`
}

// CommandResponsePayload correlates an asynchronous backend reply to an
// outbound command by name and, when concurrent same-named calls are in
// flight, by the echoed request_id.
type CommandResponsePayload struct {
	Command   string          `json:"command"`
	RequestID string          `json:"request_id,omitempty"`
	Success   bool            `json:"success"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
}

// Synthetic lifecycle payloads, produced locally by the client.

// ConnectionOpenPayload accompanies connection_open.
type ConnectionOpenPayload struct {
	ConnID string `json:"conn_id"`
	URL    string `json:"url"`
}

// ConnectionClosedPayload accompanies connection_closed.
type ConnectionClosedPayload struct {
	Code   int    `json:"code,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// ConnectionErrorPayload accompanies connection_error.
type ConnectionErrorPayload struct {
	Error   string `json:"error"`
	Attempt int    `json:"attempt,omitempty"`
}

// MaxRetriesReachedPayload accompanies the terminal max_retries_reached.
type MaxRetriesReachedPayload struct {
	Attempts int `json:"attempts"`
}

// DecodePayload unmarshals an envelope's payload into the typed struct for
// its kind. Kinds outside the known vocabulary decode into map[string]any so
// pass-through messages remain consumable.
func DecodePayload(env Envelope) (any, error) {
	target := payloadTarget(env.Kind)
	if len(env.Payload) == 0 {
		return target, nil
	}
	if err := json.Unmarshal(env.Payload, target); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: kind %q: %v", errors.ErrInvalidData, env.Kind, err),
			"Message", "DecodePayload", "unmarshal payload")
	}
	return target, nil
}

func payloadTarget(kind string) any {
	switch kind {
	case KindInitialData:
		return &InitialDataPayload{}
	case KindWorkerRegistered:
		return &WorkerRegisteredPayload{}
	case KindWorkerDeregistered:
		return &WorkerDeregisteredPayload{}
	case KindWorkerStatusChange:
		return &WorkerStatusChangePayload{}
	case KindWorkerStatusUpdate:
		return &WorkerStatusUpdatePayload{}
	case KindMetricsUpdate:
		return &MetricsUpdatePayload{}
	case KindResourcesUpdate:
		return &ResourcesUpdatePayload{}
	case KindCommandResponse:
		return &CommandResponsePayload{}
	case KindConnectionOpen:
		return &ConnectionOpenPayload{}
	case KindConnectionClosed:
		return &ConnectionClosedPayload{}
	case KindConnectionError:
		return &ConnectionErrorPayload{}
	case KindMaxRetriesReached:
		return &MaxRetriesReachedPayload{}
	default:
		return &map[string]any{}
	}
}
