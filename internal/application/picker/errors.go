package picker

import "errors"

var (
	// ErrPickCancelled is returned when the dialog closes without a selection
	ErrPickCancelled = errors.New("no path selected")

	// ErrInvalidFileType is returned when the selection fails the extension check
	ErrInvalidFileType = errors.New("invalid file type")

	// ErrUnknownRequest is returned when a result names no pending request
	ErrUnknownRequest = errors.New("unknown pick request")

	// ErrUnknownKind is returned for an unsupported picker kind
	ErrUnknownKind = errors.New("unknown picker kind")
)

// Alert shown when an email list file is not a .txt file
const (
	TitleInvalidFileType = "Invalid File Type"
	MsgInvalidFileType   = "Please select a valid .txt file."
)
