package port

import (
	"context"
	"io"

	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/preview"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

// AutomationResult is the backend's {status, message} answer
type AutomationResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Succeeded is decided by the body alone, never by the HTTP status code
func (r *AutomationResult) Succeeded() bool {
	return r != nil && r.Status == "success"
}

// Backend is the local automation service
type Backend interface {
	// Trigger posts the full settings snapshot to the action's endpoint
	Trigger(ctx context.Context, action entity.Action, s *settings.Settings) (*AutomationResult, error)

	// FetchHead asks the backend to read the head of a spreadsheet on disk
	FetchHead(ctx context.Context, filePath string) (*preview.Table, error)

	// UploadWorkbook sends a spreadsheet blob and returns its rows
	UploadWorkbook(ctx context.Context, filename string, content io.Reader) (*preview.Table, error)
}

// Picker asks the host to let the user choose a path
type Picker interface {
	PickFile(ctx context.Context) (string, error)
	PickEmailFile(ctx context.Context) (string, error)
	PickDirectory(ctx context.Context) (string, error)
}

// BackendError is a failure the backend reported in an {"error": "..."} body
type BackendError struct {
	StatusCode int
	Message    string
}

func (e *BackendError) Error() string {
	return e.Message
}
