package message

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/dashstream/errors"
)

var receiptTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNormalize_RemapsNativeKind(t *testing.T) {
	raw := []byte(`{"kind":"worker:registered","payload":{"worker_id":"w1"},"timestamp":"2025-01-01T00:00:00Z"}`)

	env, err := Normalize(raw, receiptTime)
	require.NoError(t, err)

	assert.Equal(t, KindWorkerRegistered, env.Kind)
	assert.JSONEq(t, `{"worker_id":"w1"}`, string(env.Payload))
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), env.Timestamp)
}

func TestNormalize_UnknownKindPassesThrough(t *testing.T) {
	raw := []byte(`{"kind":"custom:event","payload":{"x":1},"timestamp":"2025-01-01T00:00:00Z"}`)

	env, err := Normalize(raw, receiptTime)
	require.NoError(t, err)
	assert.Equal(t, "custom:event", env.Kind)
}

func TestNormalize_MalformedJSON(t *testing.T) {
	_, err := Normalize([]byte(`{not json`), receiptTime)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrParsingFailed)
	assert.True(t, errors.IsInvalid(err))
}

func TestNormalize_MissingKind(t *testing.T) {
	_, err := Normalize([]byte(`{"payload":{"x":1},"timestamp":"2025-01-01T00:00:00Z"}`), receiptTime)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMissingKind)
	assert.True(t, errors.IsInvalid(err))
}

func TestNormalize_TimestampFallback(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"absent timestamp", `{"kind":"custom:event","payload":{}}`},
		{"garbage timestamp", `{"kind":"custom:event","payload":{},"timestamp":"yesterday"}`},
		{"numeric timestamp", `{"kind":"custom:event","payload":{},"timestamp":"1735689600"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := Normalize([]byte(tt.raw), receiptTime)
			require.NoError(t, err)
			assert.Equal(t, receiptTime, env.Timestamp)
		})
	}
}

func TestNormalize_FractionalTimestamp(t *testing.T) {
	raw := []byte(`{"kind":"custom:event","payload":{},"timestamp":"2025-01-01T00:00:00.250Z"}`)
	env, err := Normalize(raw, receiptTime)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 250_000_000, time.UTC), env.Timestamp)
}

func TestNormalize_SchemaRejectsBadPayload(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"registered without worker_id", `{"kind":"worker:registered","payload":{"endpoint":"http://w1:8081"}}`},
		{"registered with wrong type", `{"kind":"worker:registered","payload":{"worker_id":42}}`},
		{"health update without status", `{"kind":"health:update","payload":{"worker_id":"w1"}}`},
		{"command response without success", `{"kind":"command:response","payload":{"command":"dlq:clear"}}`},
		{"resources update without resources", `{"kind":"resources:update","payload":{"timestamp":"x"}}`},
		{"schema kind with no payload", `{"kind":"metrics:update"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize([]byte(tt.raw), receiptTime)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidPayload)
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestNormalize_SchemaAllowsExtraFields(t *testing.T) {
	raw := []byte(`{"kind":"worker:registered","payload":{"worker_id":"w1","endpoint":"http://w1:8081","is_new":true,"future_field":123}}`)
	_, err := Normalize(raw, receiptTime)
	assert.NoError(t, err)
}

func TestValidatePayload_UnknownKindSkipsValidation(t *testing.T) {
	assert.NoError(t, ValidatePayload("custom:event", nil))
	assert.NoError(t, ValidatePayload("custom:event", []byte(`"not even an object"`)))
}

func TestMapKind(t *testing.T) {
	tests := []struct {
		native   string
		expected string
	}{
		{NativeInitialState, KindInitialData},
		{NativeWorkerRegistered, KindWorkerRegistered},
		{NativeWorkerDeregistered, KindWorkerDeregistered},
		{NativeWorkerDisconnected, KindWorkerStatusChange},
		{NativeHealthUpdate, KindWorkerStatusUpdate},
		{NativeMetricsUpdate, KindMetricsUpdate},
		{NativeResourcesUpdate, KindResourcesUpdate},
		{NativeCommandResponse, KindCommandResponse},
		{"unmapped:kind", "unmapped:kind"},
		{"worker_registered", "worker_registered"}, // public kinds are stable under remapping
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, MapKind(tt.native))
	}
}

func TestIsSynthetic(t *testing.T) {
	assert.True(t, IsSynthetic(KindConnectionOpen))
	assert.True(t, IsSynthetic(KindConnectionClosed))
	assert.True(t, IsSynthetic(KindConnectionError))
	assert.True(t, IsSynthetic(KindMaxRetriesReached))
	assert.False(t, IsSynthetic(KindWorkerRegistered))
	assert.False(t, IsSynthetic("custom:event"))
}
