package orchestrator

import (
	"errors"
	"fmt"
)

// State is the lifecycle state of one suite within a run.
type State string

const (
	StateNotRun  State = "NOT_RUN"
	StateRunning State = "RUNNING"
	StatePassed  State = "PASSED"
	StateFailed  State = "FAILED"
	StateError   State = "ERROR"
)

// ErrInvalidTransition indicates a state change that would move backwards.
var ErrInvalidTransition = errors.New("orchestrator: invalid state transition")

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == StatePassed || s == StateFailed || s == StateError
}

// CanTransition reports whether s may move to next.
func (s State) CanTransition(next State) bool {
	switch s {
	case StateNotRun:
		return next == StateRunning
	case StateRunning:
		return next.Terminal()
	default:
		return false
	}
}

func transition(from *State, to State) error {
	if !from.CanTransition(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, *from, to)
	}
	*from = to
	return nil
}
