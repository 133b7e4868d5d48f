package navigation

import "fmt"

// StateMachine tracks the current shell state and validates transitions.
// It is not safe for concurrent use; the navigator holds its own lock.
type StateMachine interface {
	// State returns the current state
	State() State

	// Fire moves to the trigger's target state, or returns ErrInvalidTransition
	Fire(trigger Trigger) error
}

type stateMachine struct {
	current     State
	transitions map[State]map[Trigger]State
}

// NewShellMachine returns the navigation machine starting with no page loaded.
// Every state may navigate to any page; any state may fail a load.
func NewShellMachine() StateMachine {
	transitions := make(map[State]map[Trigger]State, len(validStates))
	for state := range validStates {
		targets := make(map[Trigger]State, len(Pages)+1)
		for _, page := range Pages {
			targets[page.Trigger()] = page.State()
		}
		targets[TriggerLoadFailed] = StateError
		transitions[state] = targets
	}
	return &stateMachine{current: StateNoPage, transitions: transitions}
}

func (m *stateMachine) State() State {
	return m.current
}

func (m *stateMachine) Fire(trigger Trigger) error {
	next, ok := m.transitions[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = next
	return nil
}
