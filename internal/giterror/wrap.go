package giterror

import "fmt"

// RetryInfoError annotates an error with the retry attempt that produced it.
type RetryInfoError struct {
	Err     error
	Attempt int
	Max     int
}

// Error implements the error interface.
func (e *RetryInfoError) Error() string {
	return fmt.Sprintf("%v (attempt %d of %d)", e.Err, e.Attempt, e.Max)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *RetryInfoError) Unwrap() error {
	return e.Err
}

// WithRetryInfo wraps err with the attempt count that produced it.
func WithRetryInfo(err error, attempt, max int) error {
	if err == nil {
		return nil
	}
	return &RetryInfoError{Err: err, Attempt: attempt, Max: max}
}

// UserActionError pairs an error with a suggested action the user can take.
// The action is appended to the message so it reaches the terminal without
// callers needing to unwrap anything.
type UserActionError struct {
	Err    error
	Action string
}

// Error implements the error interface.
func (e *UserActionError) Error() string {
	return fmt.Sprintf("%v. %s", e.Err, e.Action)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *UserActionError) Unwrap() error {
	return e.Err
}

// WithUserAction wraps err with a human-readable remediation hint.
func WithUserAction(err error, action string) error {
	if err == nil {
		return nil
	}
	return &UserActionError{Err: err, Action: action}
}
