package events

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/chatprune/pkg/autoremove"
)

func TestNewRetryPolicy_Defaults(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{})
	assert.Equal(t, DefaultRetryConfig(), p.config)

	p = NewRetryPolicy(RetryConfig{MaxAttempts: 7, BackoffMultiplier: 0.5})
	assert.Equal(t, 7, p.config.MaxAttempts)
	assert.Equal(t, 2.0, p.config.BackoffMultiplier)
}

func TestRetryPolicy_NextRetryDelay(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{
		MaxAttempts:       5,
		InitialDelay:      100 * time.Millisecond,
		MaxDelay:          time.Second,
		BackoffMultiplier: 2.0,
	})

	tests := []struct {
		attempts int
		want     time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{10, time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempts), func(t *testing.T) {
			assert.Equal(t, tt.want, p.NextRetryDelay(tt.attempts))
		})
	}
}

func TestRetryPolicy_ShouldRetry(t *testing.T) {
	p := NewRetryPolicy(RetryConfig{MaxAttempts: 3})
	transient := errors.New("connection reset")

	assert.False(t, p.ShouldRetry(1, nil))
	assert.True(t, p.ShouldRetry(1, transient))
	assert.True(t, p.ShouldRetry(2, transient))
	assert.False(t, p.ShouldRetry(3, transient))

	permanent := []error{
		&autoremove.ContractError{Event: autoremove.EventCategoryUpdated, Err: errors.New("bad")},
		fmt.Errorf("wrapped: %w", &autoremove.ModelNotFoundError{Model: "category", ID: 9}),
		fmt.Errorf("%w: %q", ErrUnknownTrigger, "nope"),
		context.Canceled,
	}
	for _, err := range permanent {
		assert.False(t, p.ShouldRetry(1, err), err.Error())
	}
}
