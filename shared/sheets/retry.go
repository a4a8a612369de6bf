package sheets

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
)

// isRetryable reports whether a failed call may be sent again. Quota
// rejections are always safe to resend. Server errors and timeouts are only
// retried for reads, since a write may have been applied before it failed.
func isRetryable(err error, idempotent bool) bool {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return true
		case http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return idempotent
		default:
			return false
		}
	}

	return idempotent
}

// withRetry runs fn with a per-attempt timeout and exponential backoff
func (c *Client) withRetry(ctx context.Context, op string, idempotent bool, fn func(ctx context.Context) error) error {
	maxAttempts := c.config.RetryAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	delay := c.config.RetryInterval
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	backoffMult := c.config.BackoffMultiplier
	if backoffMult < 1 {
		backoffMult = 2.0
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = c.attempt(ctx, fn)
		if lastErr == nil {
			if attempt > 1 {
				c.logger.Info("Sheets call succeeded after retry",
					slog.String("operation", op),
					slog.Int("attempt", attempt),
				)
			}
			return nil
		}

		if ctx.Err() != nil || !isRetryable(lastErr, idempotent) || attempt == maxAttempts {
			break
		}

		c.logger.Warn("Sheets call failed, retrying...",
			slog.String("operation", op),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", maxAttempts),
			slog.Duration("retry_after", delay),
			slog.Any("error", lastErr),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * backoffMult)
	}

	c.logger.Error("Sheets call failed",
		slog.String("operation", op),
		slog.Any("error", lastErr),
	)
	return lastErr
}

func (c *Client) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.config.RequestTimeout <= 0 {
		return fn(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, c.config.RequestTimeout)
	defer cancel()

	return fn(attemptCtx)
}
