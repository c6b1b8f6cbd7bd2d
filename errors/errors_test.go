package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(99), "unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.class.String())
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"not connected sentinel", ErrNotConnected, true},
		{"connection lost sentinel", ErrConnectionLost, true},
		{"connection timeout sentinel", ErrConnectionTimeout, true},
		{"command timeout sentinel", ErrCommandTimeout, true},
		{"context deadline", context.DeadlineExceeded, true},
		{"wrapped connection lost", fmt.Errorf("send: %w", ErrConnectionLost), true},
		{"message pattern timeout", stderrors.New("dial tcp: i/o timeout"), true},
		{"message pattern reset", stderrors.New("read: connection reset by peer"), true},
		{"parsing error is not transient", ErrParsingFailed, false},
		{"missing kind is not transient", ErrMissingKind, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsTransient(tt.err))
		})
	}
}

func TestIsInvalid(t *testing.T) {
	assert.True(t, IsInvalid(ErrParsingFailed))
	assert.True(t, IsInvalid(ErrMissingKind))
	assert.True(t, IsInvalid(ErrInvalidPayload))
	assert.True(t, IsInvalid(fmt.Errorf("normalize: %w", ErrMissingKind)))
	assert.False(t, IsInvalid(ErrConnectionLost))
	assert.False(t, IsInvalid(nil))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(ErrMaxRetriesReached))
	assert.True(t, IsFatal(ErrMissingConfig))
	assert.False(t, IsFatal(ErrConnectionLost))
	assert.False(t, IsFatal(nil))
}

func TestClassify(t *testing.T) {
	assert.Equal(t, ErrorTransient, Classify(nil))
	assert.Equal(t, ErrorTransient, Classify(ErrConnectionLost))
	assert.Equal(t, ErrorInvalid, Classify(ErrParsingFailed))
	assert.Equal(t, ErrorFatal, Classify(ErrMaxRetriesReached))
	// Unknown errors default to transient to allow retry
	assert.Equal(t, ErrorTransient, Classify(stderrors.New("mystery")))
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "Client", "Send", "write frame"))

	base := stderrors.New("boom")
	err := Wrap(base, "Client", "Send", "write frame")
	require.Error(t, err)
	assert.Equal(t, "Client.Send: write frame failed: boom", err.Error())
	assert.ErrorIs(t, err, base)
}

func TestWrapClassified(t *testing.T) {
	base := stderrors.New("boom")

	transient := WrapTransient(base, "Client", "dial", "open connection")
	require.Error(t, transient)
	assert.True(t, IsTransient(transient))
	assert.ErrorIs(t, transient, base)

	invalid := WrapInvalid(base, "Normalizer", "Normalize", "parse frame")
	assert.True(t, IsInvalid(invalid))
	assert.False(t, IsTransient(invalid))

	fatal := WrapFatal(base, "Client", "run", "retry budget")
	assert.True(t, IsFatal(fatal))

	// Classification survives another layer of wrapping
	rewrapped := fmt.Errorf("outer: %w", invalid)
	assert.True(t, IsInvalid(rewrapped))

	// nil in, nil out
	assert.NoError(t, WrapTransient(nil, "a", "b", "c"))
	assert.NoError(t, WrapInvalid(nil, "a", "b", "c"))
	assert.NoError(t, WrapFatal(nil, "a", "b", "c"))
}

func TestClassifiedError_Unwrap(t *testing.T) {
	base := ErrConnectionLost
	err := WrapTransient(base, "Client", "readLoop", "read frame")

	var ce *ClassifiedError
	require.True(t, stderrors.As(err, &ce))
	assert.Equal(t, ErrorTransient, ce.Class)
	assert.Equal(t, "Client", ce.Component)
	assert.ErrorIs(t, ce.Unwrap(), base)
}
