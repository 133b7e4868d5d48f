package settings

import "errors"

var (
	// ErrSettingsNotFound is returned by a store when no settings file exists yet
	ErrSettingsNotFound = errors.New("settings file not found")

	// ErrInvalidEmail is returned when a manager email fails validation
	ErrInvalidEmail = errors.New("invalid email address")

	// ErrIndexOutOfRange is returned when removing a manager email that does not exist
	ErrIndexOutOfRange = errors.New("manager email index out of range")

	// ErrNoValidEmails is returned when an email file holds no valid address
	ErrNoValidEmails = errors.New("no valid emails found")

	// ErrInvalidScheduleTime is returned for a schedule time that is not HH:MM
	ErrInvalidScheduleTime = errors.New("invalid schedule time")

	// ErrUnknownField is returned when a picker target names no path field
	ErrUnknownField = errors.New("unknown settings field")
)
