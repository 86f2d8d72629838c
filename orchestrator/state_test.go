package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_Transitions(t *testing.T) {
	all := []State{StateNotRun, StateRunning, StatePassed, StateFailed, StateError}
	allowed := map[State][]State{
		StateNotRun:  {StateRunning},
		StateRunning: {StatePassed, StateFailed, StateError},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
}

func TestTransition_RejectsBackwardMoves(t *testing.T) {
	s := StatePassed
	err := transition(&s, StateRunning)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatePassed, s, "state unchanged on rejection")

	s = StateNotRun
	assert.ErrorIs(t, transition(&s, StatePassed), ErrInvalidTransition, "cannot skip RUNNING")
}
