// Package settings holds the user configuration record and the operations
// that derive a changed copy of it. No operation mutates its receiver.
package settings

import (
	"fmt"
	"strings"

	"github.com/garyjia/invoicedesk/pkg/utils"
)

// DefaultScheduleTime is used when no schedule time has been set
const DefaultScheduleTime = "00:00"

// Settings is the persisted user configuration. The JSON keys are the ones
// the backend reads from the automation request body.
type Settings struct {
	InvoicesFolder string   `json:"invoicesFolder"`
	ReportsFolder  string   `json:"reportsFolder"`
	FilePath       string   `json:"filePath"`
	EmailServer    string   `json:"emailServer"`
	EmailUser      string   `json:"emailUser"`
	EmailPassword  string   `json:"emailPassword"`
	ScheduleTime   string   `json:"scheduleTime"`
	ManagerEmails  []string `json:"managerEmails"`
}

// Field names a path-valued setting that can be filled from a picker
type Field string

const (
	FieldInvoicesFolder Field = "invoicesFolder"
	FieldReportsFolder  Field = "reportsFolder"
	FieldFilePath       Field = "filePath"
)

// IsDirectory reports whether the field holds a folder rather than a file
func (f Field) IsDirectory() bool {
	return f == FieldInvoicesFolder || f == FieldReportsFolder
}

// IsValid reports whether f is a known path field
func (f Field) IsValid() bool {
	switch f {
	case FieldInvoicesFolder, FieldReportsFolder, FieldFilePath:
		return true
	}
	return false
}

// Form carries the free-text inputs of the settings page
type Form struct {
	InvoicesFolder string `json:"invoicesFolder"`
	ReportsFolder  string `json:"reportsFolder"`
	EmailServer    string `json:"emailServer"`
	EmailUser      string `json:"emailUser"`
	EmailPassword  string `json:"emailPassword"`
	ScheduleTime   string `json:"scheduleTime"`
}

// Defaults returns the settings used when no file exists yet
func Defaults() Settings {
	return Settings{ManagerEmails: []string{}}
}

// Clone returns a deep copy
func (s Settings) Clone() Settings {
	out := s
	if s.ManagerEmails != nil {
		out.ManagerEmails = append([]string(nil), s.ManagerEmails...)
	}
	return out
}

// ApplyForm returns a copy with the form's text fields written over s.
// An empty schedule time is allowed; a malformed one is rejected.
func (s Settings) ApplyForm(f Form) (Settings, error) {
	if f.ScheduleTime != "" {
		if err := utils.ValidateScheduleTime(f.ScheduleTime); err != nil {
			return s, fmt.Errorf("%w: %s", ErrInvalidScheduleTime, f.ScheduleTime)
		}
	}

	out := s.Clone()
	out.InvoicesFolder = f.InvoicesFolder
	out.ReportsFolder = f.ReportsFolder
	out.EmailServer = f.EmailServer
	out.EmailUser = f.EmailUser
	out.EmailPassword = f.EmailPassword
	out.ScheduleTime = f.ScheduleTime
	return out, nil
}

// WithPath returns a copy with the given path field set
func (s Settings) WithPath(field Field, path string) (Settings, error) {
	out := s.Clone()
	switch field {
	case FieldInvoicesFolder:
		out.InvoicesFolder = path
	case FieldReportsFolder:
		out.ReportsFolder = path
	case FieldFilePath:
		out.FilePath = path
	default:
		return s, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	return out, nil
}

// AddManagerEmail returns a copy with email appended. Duplicates are kept.
func (s Settings) AddManagerEmail(email string) (Settings, error) {
	email = strings.TrimSpace(email)
	if err := utils.ValidateEmail(email); err != nil {
		return s, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	out := s.Clone()
	out.ManagerEmails = append(out.ManagerEmails, email)
	return out, nil
}

// RemoveManagerEmailAt returns a copy without the email at index i; the
// remaining entries keep their relative order.
func (s Settings) RemoveManagerEmailAt(i int) (Settings, error) {
	if i < 0 || i >= len(s.ManagerEmails) {
		return s, fmt.Errorf("%w: %d (have %d)", ErrIndexOutOfRange, i, len(s.ManagerEmails))
	}

	out := s.Clone()
	out.ManagerEmails = append(out.ManagerEmails[:i:i], s.ManagerEmails[i+1:]...)
	return out, nil
}

// AppendManagerEmailsFromText returns a copy with every valid address found in
// text (one per line) appended in file order, and the number appended.
func (s Settings) AppendManagerEmailsFromText(text string) (Settings, int, error) {
	emails := utils.FilterValidEmails(text)
	if len(emails) == 0 {
		return s, 0, ErrNoValidEmails
	}

	out := s.Clone()
	out.ManagerEmails = append(out.ManagerEmails, emails...)
	return out, len(emails), nil
}

// ScheduleClock returns the hour and minute of the schedule time, falling back
// to midnight when unset.
func (s Settings) ScheduleClock() (hour, minute int, err error) {
	value := s.ScheduleTime
	if value == "" {
		value = DefaultScheduleTime
	}
	if err := utils.ValidateScheduleTime(value); err != nil {
		return 0, 0, fmt.Errorf("%w: %s", ErrInvalidScheduleTime, value)
	}
	fmt.Sscanf(value, "%d:%d", &hour, &minute)
	return hour, minute, nil
}
