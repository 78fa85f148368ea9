package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackoffPolicy_Delay(t *testing.T) {
	policy := NewBackoffPolicy(time.Second, 30*time.Second)

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "first attempt", attempt: 1, want: time.Second},
		{name: "second attempt doubles", attempt: 2, want: 2 * time.Second},
		{name: "third attempt doubles again", attempt: 3, want: 4 * time.Second},
		{name: "fifth attempt", attempt: 5, want: 16 * time.Second},
		{name: "capped at max", attempt: 6, want: 30 * time.Second},
		{name: "stays at max", attempt: 20, want: 30 * time.Second},
		{name: "zero attempt treated as first", attempt: 0, want: time.Second},
		{name: "negative attempt treated as first", attempt: -3, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.Delay(tt.attempt))
		})
	}
}

func TestBackoffPolicy_Wait(t *testing.T) {
	t.Run("uses the injected sleep", func(t *testing.T) {
		policy := NewBackoffPolicy(time.Second, 30*time.Second)

		var slept time.Duration
		policy.sleep = func(_ context.Context, d time.Duration) error {
			slept = d
			return nil
		}

		require.NoError(t, policy.Wait(context.Background(), 3))
		assert.Equal(t, 4*time.Second, slept)
	})

	t.Run("returns sleep error", func(t *testing.T) {
		policy := NewBackoffPolicy(time.Second, 30*time.Second)
		policy.sleep = func(_ context.Context, _ time.Duration) error {
			return context.Canceled
		}

		err := policy.Wait(context.Background(), 1)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("real sleep honors cancellation", func(t *testing.T) {
		policy := NewBackoffPolicy(10*time.Second, time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			errCh <- policy.Wait(ctx, 1)
		}()

		cancel()

		select {
		case err := <-errCh:
			assert.True(t, errors.Is(err, context.Canceled))
		case <-time.After(time.Second):
			t.Fatal("wait did not return after cancellation")
		}
	})
}
