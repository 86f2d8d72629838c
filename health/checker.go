package health

import (
	"context"
	"encoding/json"
	"time"
)

// Status is the reachability of a service. Higher values are worse, so the
// overall status of a set of results is the maximum.
type Status int

const (
	// StatusHealthy means the service answered below 500.
	StatusHealthy Status = iota
	// StatusDegraded means the service answered with a server error.
	StatusDegraded
	// StatusUnhealthy means the service could not be reached in time.
	StatusUnhealthy
)

var statusNames = [...]string{"healthy", "degraded", "unhealthy"}

func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// MarshalText renders the status by name in JSON reports.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Mark is the glyph used for the status in progress output.
func (s Status) Mark() string {
	if s == StatusHealthy {
		return "●"
	}
	return "○"
}

// Result is the outcome of probing one service.
type Result struct {
	Status    Status         `json:"status"`
	Message   string         `json:"message,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
	Duration  time.Duration  `json:"duration_ns"`
	Timestamp time.Time      `json:"timestamp"`

	// Error is the probe failure, rendered as a string in JSON.
	Error error `json:"-"`
}

func newResult(status Status, message string, err error) Result {
	return Result{Status: status, Message: message, Error: err, Timestamp: time.Now()}
}

// Healthy creates a healthy result.
func Healthy(message string) Result {
	return newResult(StatusHealthy, message, nil)
}

// Degraded creates a degraded result.
func Degraded(message string) Result {
	return newResult(StatusDegraded, message, nil)
}

// Unhealthy creates an unhealthy result.
func Unhealthy(message string, err error) Result {
	return newResult(StatusUnhealthy, message, err)
}

// WithDetails returns r with details attached.
func (r Result) WithDetails(details map[string]any) Result {
	r.Details = details
	return r
}

// WithDuration returns r with the probe duration set.
func (r Result) WithDuration(d time.Duration) Result {
	r.Duration = d
	return r
}

// OK reports whether the service is healthy.
func (r Result) OK() bool {
	return r.Status == StatusHealthy
}

// Summary is the message, or the status name when there is none.
func (r Result) Summary() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Status.String()
}

// MarshalJSON adds the error text under "error".
func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	out := struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(r)}
	if r.Error != nil {
		out.Error = r.Error.Error()
	}
	return json.Marshal(out)
}

// Checker probes one service.
type Checker interface {
	Name() string
	Check(ctx context.Context) Result
}

// CheckerFunc adapts a named function to Checker.
type CheckerFunc struct {
	name string
	fn   func(context.Context) Result
}

// NewCheckerFunc creates a CheckerFunc.
func NewCheckerFunc(name string, fn func(context.Context) Result) *CheckerFunc {
	return &CheckerFunc{name: name, fn: fn}
}

// Name returns the checker name.
func (f *CheckerFunc) Name() string {
	return f.name
}

// Check calls the function.
func (f *CheckerFunc) Check(ctx context.Context) Result {
	return f.fn(ctx)
}
