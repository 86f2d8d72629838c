package suite

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the classification of one case outcome.
type Status string

const (
	// StatusPassed means the case succeeded within its attempts.
	StatusPassed Status = "PASSED"
	// StatusFailed means every attempt returned an error.
	StatusFailed Status = "FAILED"
	// StatusError means the case could not be evaluated: it panicked, the run
	// was cancelled, or its command could not be launched.
	StatusError Status = "ERROR"
)

// Case targets, used to select subsets of a suite.
const (
	TargetAPI = "api"
	TargetWeb = "web"
)

// Details are optional metrics a case yields, such as response time.
type Details map[string]any

// CaseFunc probes one behavior. It returns a descriptive error on failure.
type CaseFunc func(ctx context.Context) (Details, error)

// Case is a named, independent check.
type Case struct {
	Name   string
	Target string // TargetAPI, TargetWeb or empty
	Fn     CaseFunc
}

// Suite is an ordered list of cases.
type Suite struct {
	Name  string
	Cases []Case
}

// Only returns a copy of s keeping the cases whose target is in targets.
func (s Suite) Only(targets ...string) Suite {
	out := Suite{Name: s.Name}
	for _, c := range s.Cases {
		for _, t := range targets {
			if c.Target == t {
				out.Cases = append(out.Cases, c)
				break
			}
		}
	}
	return out
}

// Outcome is the result of one case.
type Outcome struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Duration time.Duration `json:"duration_ns"`
	Attempts int           `json:"attempts"`
	Err      error         `json:"-"`
	Details  Details       `json:"details,omitempty"`
}

// Passed reports whether the outcome passed.
func (o Outcome) Passed() bool {
	return o.Status == StatusPassed
}

// Summary aggregates the outcomes of one suite.
type Summary struct {
	Suite    string        `json:"suite"`
	Outcomes []Outcome     `json:"outcomes"`
	Passed   int           `json:"passed"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}

// Add appends o and updates the counters. ERROR outcomes count as failed.
func (s *Summary) Add(o Outcome) {
	s.Outcomes = append(s.Outcomes, o)
	if o.Passed() {
		s.Passed++
	} else {
		s.Failed++
	}
}

// Total returns the number of recorded outcomes.
func (s Summary) Total() int {
	return len(s.Outcomes)
}

// OK reports whether no outcome failed.
func (s Summary) OK() bool {
	return s.Failed == 0
}

// HasErrors reports whether any outcome is StatusError.
func (s Summary) HasErrors() bool {
	for _, o := range s.Outcomes {
		if o.Status == StatusError {
			return true
		}
	}
	return false
}

// ErrPanic wraps a panic recovered from a case.
var ErrPanic = errors.New("suite: case panicked")

// classify maps a final case error to a Status.
func classify(ctx context.Context, err error) Status {
	switch {
	case err == nil:
		return StatusPassed
	case errors.Is(err, ErrPanic):
		return StatusError
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		return StatusError
	default:
		return StatusFailed
	}
}

// call invokes fn, converting a panic into an ErrPanic error.
func call(ctx context.Context, fn CaseFunc) (details Details, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return fn(ctx)
}
