package notifications

import "errors"

// ErrTemplateNotFound is returned when no template exists for a message type.
var ErrTemplateNotFound = errors.New("notification template not found")

// RetryableError tells the worker whether a failed send is worth retrying.
// Errors that do not carry this information are retried.
type RetryableError struct {
	Err       error
	Retryable bool
}

func NewRetryableError(err error) *RetryableError {
	return &RetryableError{Err: err, Retryable: true}
}

func NewNonRetryableError(err error) *RetryableError {
	return &RetryableError{Err: err, Retryable: false}
}

func (e *RetryableError) Error() string     { return e.Err.Error() }
func (e *RetryableError) Unwrap() error     { return e.Err }
func (e *RetryableError) IsRetryable() bool { return e.Retryable }

func isRetryable(err error) bool {
	var r interface{ IsRetryable() bool }
	if errors.As(err, &r) {
		return r.IsRetryable()
	}
	return true
}
