package backoff

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicy_Delay_Exponential(t *testing.T) {
	p := Policy{
		Initial:    1 * time.Second,
		Max:        32 * time.Second,
		Multiplier: 2.0,
		Jitter:     false, // Disable for predictable tests
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 1 * time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 8 * time.Second},
		{5, 16 * time.Second},
		{6, 32 * time.Second},
		{7, 32 * time.Second},  // capped
		{20, 32 * time.Second}, // stays capped
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, p.Delay(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestPolicy_Delay_Linear(t *testing.T) {
	p := Linear()

	// Multiplier 1.0 keeps every delay at the initial step
	assert.Equal(t, 3*time.Second, p.Delay(1))
	assert.Equal(t, 3*time.Second, p.Delay(5))
	assert.Equal(t, 3*time.Second, p.Delay(10))
}

func TestPolicy_Delay_AttemptFloor(t *testing.T) {
	p := Policy{Initial: 1 * time.Second, Max: 32 * time.Second, Multiplier: 2.0}

	assert.Equal(t, p.Delay(1), p.Delay(0))
	assert.Equal(t, p.Delay(1), p.Delay(-3))
}

func TestPolicy_Delay_Jitter(t *testing.T) {
	p := Policy{
		Initial:    1 * time.Second,
		Max:        32 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}

	for i := 0; i < 50; i++ {
		d := p.Delay(3) // base 4s
		assert.GreaterOrEqual(t, d, 4*time.Second)
		assert.LessOrEqual(t, d, 5*time.Second) // base + 25%
	}
}

func TestPolicy_Delay_ZeroValueDefaults(t *testing.T) {
	var p Policy

	// Zero value behaves like the canonical policy without jitter surprises
	assert.Equal(t, 1*time.Second, p.Delay(1))
	assert.Equal(t, 32*time.Second, p.Delay(10))
}

func TestPolicy_Exhausted(t *testing.T) {
	p := Default()

	assert.False(t, p.Exhausted(0))
	assert.False(t, p.Exhausted(9))
	assert.True(t, p.Exhausted(10))
	assert.True(t, p.Exhausted(11))

	unlimited := Policy{Initial: time.Second, Max: time.Minute, Multiplier: 2.0}
	assert.False(t, unlimited.Exhausted(1000))
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr bool
	}{
		{"default is valid", Default(), false},
		{"linear is valid", Linear(), false},
		{"zero value is valid", Policy{}, false},
		{"negative initial", Policy{Initial: -1}, true},
		{"negative max", Policy{Max: -1}, true},
		{"negative multiplier", Policy{Multiplier: -1}, true},
		{"negative attempts", Policy{MaxAttempts: -1}, true},
		{"max below initial", Policy{Initial: 10 * time.Second, Max: time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
