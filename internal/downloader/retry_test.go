package downloader

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/billmal071/d5s/internal/portal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorizeError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		want   ErrorCategory
	}{
		{"rate limited", errors.New("x"), http.StatusTooManyRequests, ErrorRateLimited},
		{"server error", errors.New("x"), http.StatusBadGateway, ErrorRetryable},
		{"not found", errors.New("x"), http.StatusNotFound, ErrorNonRetryable},
		{"timeout", &portal.NetworkError{Method: "GET", URL: "u", Timeout: true}, 0, ErrorRetryable},
		{"connection refused", &portal.NetworkError{Method: "GET", URL: "u", Err: errors.New("dial tcp: connection refused")}, 0, ErrorRetryable},
		{"parse error", &portal.ParseError{Field: "asset_number", Err: portal.ErrInvalidNumber}, 0, ErrorNonRetryable},
		{"auth", &portal.AuthError{StatusCode: 0}, 0, ErrorNonRetryable},
		{"unknown", errors.New("disk full"), 0, ErrorNonRetryable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CategorizeError(tt.err, tt.status))
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	cfg := RetryConfig{BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}

	assert.Equal(t, 100*time.Millisecond, CalculateBackoff(0, cfg))

	d := CalculateBackoff(2, cfg)
	assert.GreaterOrEqual(t, d, 300*time.Millisecond)
	assert.LessOrEqual(t, d, 500*time.Millisecond)

	capped := CalculateBackoff(10, cfg)
	assert.LessOrEqual(t, capped, 1250*time.Millisecond)
}

func TestRetryOperation(t *testing.T) {
	fast := RetryConfig{MaxAttempts: 3, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1}

	t.Run("single attempt by default", func(t *testing.T) {
		calls := 0
		err := RetryOperation(context.Background(), RetryConfig{}, func() (int, error) {
			calls++
			return http.StatusServiceUnavailable, errors.New("unavailable")
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := RetryOperation(context.Background(), fast, func() (int, error) {
			calls++
			if calls < 3 {
				return http.StatusBadGateway, fmt.Errorf("attempt %d", calls)
			}
			return http.StatusOK, nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on permanent error", func(t *testing.T) {
		calls := 0
		err := RetryOperation(context.Background(), fast, func() (int, error) {
			calls++
			return http.StatusNotFound, errors.New("gone")
		})
		require.EqualError(t, err, "gone")
		assert.Equal(t, 1, calls)
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryOperation(ctx, fast, func() (int, error) {
			t.Fatal("operation must not run")
			return 0, nil
		})
		assert.ErrorIs(t, err, context.Canceled)
	})
}
