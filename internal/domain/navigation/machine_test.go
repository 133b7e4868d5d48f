package navigation

import (
	"errors"
	"testing"
)

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"no page", StateNoPage, true},
		{"error", StateError, true},
		{"invalid state", State("DATA"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsPage(t *testing.T) {
	for _, s := range []State{StateNoPage, StateError} {
		if s.IsPage() {
			t.Errorf("%s.IsPage() = true, want false", s)
		}
	}
	for _, p := range Pages {
		if !p.State().IsPage() {
			t.Errorf("%s.IsPage() = false, want true", p.State())
		}
	}
}

func TestParsePage(t *testing.T) {
	p, err := ParsePage("settings")
	if err != nil || p != PageSettings {
		t.Fatalf("ParsePage(settings) = %v, %v", p, err)
	}
	if p.Trigger() != TriggerShowSettings {
		t.Errorf("Trigger() = %v, want %v", p.Trigger(), TriggerShowSettings)
	}

	if _, err := ParsePage("data"); !errors.Is(err, ErrUnknownPage) {
		t.Errorf("ParsePage(data) error = %v, want ErrUnknownPage", err)
	}
}

func TestShellMachine_InitialState(t *testing.T) {
	m := NewShellMachine()
	if m.State() != StateNoPage {
		t.Errorf("initial state = %v, want %v", m.State(), StateNoPage)
	}
}

func TestShellMachine_EveryPageReachableFromEveryState(t *testing.T) {
	starts := []Trigger{TriggerShowDashboard, TriggerShowAutomation, TriggerShowSettings, TriggerLoadFailed}

	for _, start := range starts {
		for _, page := range Pages {
			m := NewShellMachine()
			if err := m.Fire(start); err != nil {
				t.Fatalf("Fire(%s) error = %v", start, err)
			}
			if err := m.Fire(page.Trigger()); err != nil {
				t.Errorf("Fire(%s) after %s error = %v", page.Trigger(), start, err)
			}
			if m.State() != page.State() {
				t.Errorf("state = %v, want %v", m.State(), page.State())
			}
		}
	}
}

func TestShellMachine_LoadFailure(t *testing.T) {
	m := NewShellMachine()

	_ = m.Fire(TriggerShowDashboard)
	if err := m.Fire(TriggerLoadFailed); err != nil {
		t.Fatalf("Fire(LOAD_FAILED) error = %v", err)
	}
	if m.State() != StateError {
		t.Fatalf("state = %v, want ERROR", m.State())
	}

	// a failed load again keeps the shell in ERROR
	if err := m.Fire(TriggerLoadFailed); err != nil || m.State() != StateError {
		t.Errorf("second failure: state = %v, err = %v", m.State(), err)
	}

	if err := m.Fire(TriggerShowAutomation); err != nil || m.State() != StateAutomation {
		t.Errorf("recovery: state = %v, err = %v", m.State(), err)
	}
}

func TestShellMachine_UnknownTrigger(t *testing.T) {
	m := NewShellMachine()
	if err := m.Fire(Trigger("SHOW_DATA")); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire(SHOW_DATA) error = %v, want ErrInvalidTransition", err)
	}
	if m.State() != StateNoPage {
		t.Errorf("state = %v, want %v", m.State(), StateNoPage)
	}
}
