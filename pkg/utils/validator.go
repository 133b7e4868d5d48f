package utils

import (
	"fmt"
	"regexp"
	"strings"
)

// emailPattern requires a local part, an @, and a domain containing a dot.
// Whitespace and a second @ are rejected anywhere.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

var scheduleTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// ValidateEmail validates an email address
func ValidateEmail(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format: %q", email)
	}
	return nil
}

// IsValidEmail reports whether email passes ValidateEmail
func IsValidEmail(email string) bool {
	return ValidateEmail(email) == nil
}

// FilterValidEmails splits text into lines (LF or CRLF) and keeps the lines
// that are valid email addresses, in their original order. Lines are not
// trimmed, so surrounding spaces or tabs make a line invalid.
func FilterValidEmails(text string) []string {
	var valid []string
	for _, line := range strings.Split(text, "\n") {
		candidate := strings.TrimSuffix(line, "\r")
		if IsValidEmail(candidate) {
			valid = append(valid, candidate)
		}
	}
	return valid
}

// ValidateScheduleTime validates a 24h HH:MM clock time
func ValidateScheduleTime(value string) error {
	if !scheduleTimePattern.MatchString(value) {
		return fmt.Errorf("invalid schedule time %q: expected HH:MM", value)
	}
	return nil
}
