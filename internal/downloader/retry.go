package downloader

import (
	"context"
	"errors"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/billmal071/d5s/internal/config"
	"github.com/billmal071/d5s/internal/portal"
)

// RetryConfig holds retry settings
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
}

// DefaultRetryConfig returns retry config from app settings. One attempt
// means no retry.
func DefaultRetryConfig() RetryConfig {
	cfg := config.Get()
	return RetryConfig{
		MaxAttempts: cfg.Network.RetryAttempts,
		BaseDelay:   cfg.Network.RetryBaseDelay,
		MaxDelay:    cfg.Network.RetryMaxDelay,
		Multiplier:  cfg.Network.RetryMultiplier,
	}
}

// ErrorCategory categorizes errors for retry decisions
type ErrorCategory int

const (
	// ErrorRetryable - temporary errors that should be retried
	ErrorRetryable ErrorCategory = iota
	// ErrorNonRetryable - permanent errors that should not be retried
	ErrorNonRetryable
	// ErrorRateLimited - rate limiting, should wait longer
	ErrorRateLimited
)

// CategorizeError determines how a failed fetch should be handled
func CategorizeError(err error, statusCode int) ErrorCategory {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return ErrorRateLimited
	case statusCode >= 500:
		return ErrorRetryable
	case statusCode >= 400:
		// the asset host answers 403/404 for pages that do not exist
		return ErrorNonRetryable
	}

	if err == nil {
		return ErrorRetryable
	}

	// Markup and auth problems do not go away on a second attempt
	var parseErr *portal.ParseError
	if errors.As(err, &parseErr) || errors.Is(err, portal.ErrAuthRejected) {
		return ErrorNonRetryable
	}

	if errors.Is(err, portal.ErrTimeout) {
		return ErrorRetryable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorRetryable
	}

	// Connection errors
	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection reset",
		"connection refused",
		"no such host",
		"temporary failure",
		"timeout",
		"eof",
		"broken pipe",
	} {
		if strings.Contains(errStr, pattern) {
			return ErrorRetryable
		}
	}

	return ErrorNonRetryable
}

// CalculateBackoff calculates the next backoff duration with jitter
func CalculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	if attempt <= 0 {
		return cfg.BaseDelay
	}

	// base * multiplier^attempt, capped
	delay := float64(cfg.BaseDelay)
	for i := 0; i < attempt; i++ {
		delay *= cfg.Multiplier
	}
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}

	// ±25% jitter
	jitter := delay * 0.25 * (rand.Float64()*2 - 1)
	return time.Duration(delay + jitter)
}

// RetryOperation executes operation up to cfg.MaxAttempts times with
// exponential backoff. operation reports the HTTP status it saw, if any.
func RetryOperation(ctx context.Context, cfg RetryConfig, operation func() (int, error)) error {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}

	var lastErr error
	for attempt := 0; attempt < cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		var statusCode int
		statusCode, lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if attempt == cfg.MaxAttempts-1 {
			break
		}

		var wait time.Duration
		switch CategorizeError(lastErr, statusCode) {
		case ErrorNonRetryable:
			return lastErr
		case ErrorRateLimited:
			wait = cfg.MaxDelay
		case ErrorRetryable:
			wait = CalculateBackoff(attempt, cfg)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}

	return lastErr
}
