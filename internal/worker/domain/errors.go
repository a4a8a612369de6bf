package domain

import "errors"

var (
	// ErrInvalidEvent is returned when a delivery body is not a usable job event
	ErrInvalidEvent = errors.New("invalid job event")

	// ErrDeliveriesClosed is returned when the broker closes the delivery channel
	// while the worker is still running
	ErrDeliveriesClosed = errors.New("delivery channel closed")
)

// RetryableError wraps transient errors that should trigger a requeue
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string {
	return "retryable error: " + e.Err.Error()
}

func (e *RetryableError) Unwrap() error {
	return e.Err
}

// NewRetryableError creates a new retryable error
func NewRetryableError(err error) error {
	return &RetryableError{Err: err}
}
