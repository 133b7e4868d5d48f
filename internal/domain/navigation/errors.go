package navigation

import "errors"

var (
	// ErrInvalidTransition is returned when a state transition is not allowed
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrUnknownPage is returned for a page name outside the nav bar
	ErrUnknownPage = errors.New("unknown page")
)
