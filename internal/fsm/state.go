// Package fsm implements the per-hand gesture state machine: pointing at a
// target, drawing circles to activate it, and grabbing and throwing it, with
// a debounce state that tolerates brief pose flicker.
package fsm

import "fmt"

// State is one gesture state of a hand.
type State int

const (
	Idle State = iota
	Point
	Activation
	FinishActivation
	ThrowingAction
	Buffer
)

var stateNames = [...]string{
	Idle:             "idle",
	Point:            "point",
	Activation:       "activation",
	FinishActivation: "finish_activation",
	ThrowingAction:   "throwing",
	Buffer:           "buffer",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name written by MarshalText.
func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown state %q", text)
}

// Transition describes one state change.
type Transition struct {
	Hand       string
	From       State
	To         State
	Reason     string
	Generation uint64
	Angle      float64
}
