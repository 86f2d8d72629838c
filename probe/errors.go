package probe

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout indicates a probe received no response within its budget.
	ErrTimeout = errors.New("probe: request timed out")

	// ErrNetwork indicates the connection could not be established or was reset.
	ErrNetwork = errors.New("probe: network error")

	// ErrAssertion indicates a response did not meet an expectation.
	ErrAssertion = errors.New("probe: assertion failed")
)

// TimeoutError reports a probe that exceeded its time budget.
type TimeoutError struct {
	Method  string
	URL     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("probe: %s %s: no response within %s", e.Method, e.URL, e.Timeout)
}

// Is reports whether target is ErrTimeout.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// NetworkError reports a connection-level failure.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("probe: %s %s: %v", e.Method, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// AssertionError reports a response that violated an expectation.
type AssertionError struct {
	Msg string
}

func (e *AssertionError) Error() string {
	return e.Msg
}

// Is reports whether target is ErrAssertion.
func (e *AssertionError) Is(target error) bool {
	return target == ErrAssertion
}

// Failf returns an AssertionError with a formatted message.
func Failf(format string, args ...any) error {
	return &AssertionError{Msg: fmt.Sprintf(format, args...)}
}
