package domain

import "errors"

var (
	// ErrQueueFull is returned by non-blocking enqueue when the queue is at capacity
	ErrQueueFull = errors.New("task queue is full")

	// ErrQueueClosed is returned when enqueueing or dequeueing after close
	ErrQueueClosed = errors.New("task queue is closed")

	// ErrInvalidTask is returned for tasks missing required fields
	ErrInvalidTask = errors.New("invalid task")

	// ErrMaxAttemptsExceeded is recorded when a task exhausts its retry budget
	ErrMaxAttemptsExceeded = errors.New("max attempts exceeded")

	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")
)

// RetryableError wraps transient errors that should trigger a backoff and requeue
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

// IsRetryable reports whether err is marked transient
func IsRetryable(err error) bool {
	var retryable *RetryableError
	return errors.As(err, &retryable)
}
