package backend

import "errors"

// ErrBackendUnavailable covers network failures and bodies that are not the expected JSON
var ErrBackendUnavailable = errors.New("backend unavailable")
