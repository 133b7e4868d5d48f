package navigation

// State is what the content region of the shell currently shows
type State string

const (
	StateNoPage     State = "NO_PAGE"
	StateDashboard  State = "DASHBOARD"
	StateAutomation State = "AUTOMATION"
	StateSettings   State = "SETTINGS"

	// StateError is the degraded state after a fragment failed to load.
	// It is left only by a later navigation; nothing retries automatically.
	StateError State = "ERROR"
)

var validStates = map[State]bool{
	StateNoPage:     true,
	StateDashboard:  true,
	StateAutomation: true,
	StateSettings:   true,
	StateError:      true,
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known shell state
func (s State) IsValid() bool {
	return validStates[s]
}

// IsPage reports whether a page is loaded in this state
func (s State) IsPage() bool {
	return s == StateDashboard || s == StateAutomation || s == StateSettings
}
