package navigation

// Trigger is an event that moves the shell between states
type Trigger string

const (
	TriggerShowDashboard  Trigger = "SHOW_DASHBOARD"
	TriggerShowAutomation Trigger = "SHOW_AUTOMATION"
	TriggerShowSettings   Trigger = "SHOW_SETTINGS"
	TriggerLoadFailed     Trigger = "LOAD_FAILED"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
