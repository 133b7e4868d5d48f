package event

// Type identifies the type of domain event
type Type string

const (
	TypeAutomationSucceeded Type = "automation.succeeded"
	TypeAutomationFailed    Type = "automation.failed"
	TypeSettingsSaved       Type = "settings.saved"
	TypePreviewFailed       Type = "preview.failed"
	TypePickRejected        Type = "pick.rejected"
	TypeNotice              Type = "notice"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeAutomationSucceeded,
		TypeAutomationFailed,
		TypeSettingsSaved,
		TypePreviewFailed,
		TypePickRejected,
		TypeNotice:
		return true
	default:
		return false
	}
}
