package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"github.com/xuri/excelize/v2"

	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/domain/event"
	"github.com/garyjia/invoicedesk/internal/domain/preview"
)

// User-facing messages of the data preview
const (
	MsgPreviewFailed  = "Failed to load data preview."
	MsgUploadFailed   = "Failed to upload file. Please check the logs for more details."
	MsgNotAWorkbook   = "The selected file is not a valid Excel workbook."
	uploadErrorPrefix = "Error: "
)

// ErrNotAWorkbook is returned when an upload does not open as a spreadsheet
var ErrNotAWorkbook = errors.New("not an excel workbook")

// PreviewResult is one rendered preview. HTML is empty when the previous
// table should stay on screen.
type PreviewResult struct {
	Table  *preview.Table `json:"table,omitempty"`
	HTML   template.HTML  `json:"html"`
	Notice *Notice        `json:"notice,omitempty"`
}

// PreviewService loads spreadsheet heads for the dashboard and data pages
type PreviewService interface {
	// LoadHead previews the data file named in the saved settings
	LoadHead(ctx context.Context) (*PreviewResult, error)

	// Upload previews a workbook chosen by the user
	Upload(ctx context.Context, filename string, content []byte) (*PreviewResult, error)
}

type previewServiceImpl struct {
	store   port.SettingsStore
	backend port.Backend
	notifier
}

// NewPreviewService creates a new PreviewService
func NewPreviewService(store port.SettingsStore, b port.Backend, d dispatcher.Dispatcher, logger Logger) PreviewService {
	return &previewServiceImpl{
		store:    store,
		backend:  b,
		notifier: notifier{dispatcher: d, logger: logger},
	}
}

func rendered(t *preview.Table) *PreviewResult {
	return &PreviewResult{Table: t, HTML: preview.Render(t)}
}

// LoadHead returns ErrNoDataFile when no settings or no file path exist. An
// {"error"} answer renders the empty table; a failed request keeps the old one.
func (s *previewServiceImpl) LoadHead(ctx context.Context) (*PreviewResult, error) {
	current, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Info("No settings for data preview", "error", err)
		return nil, ErrNoDataFile
	}
	if current.FilePath == "" {
		return nil, ErrNoDataFile
	}

	table, err := s.backend.FetchHead(ctx, current.FilePath)
	var backendErr *port.BackendError
	switch {
	case errors.As(err, &backendErr):
		s.logger.Error("Backend rejected data preview", "path", current.FilePath, "error", backendErr.Message)
		return rendered(nil), nil
	case err != nil:
		s.logger.Error("Error fetching head data", "path", current.FilePath, "error", err)
		notice := s.notify(ctx, event.TypePreviewFailed, errorNotice(MsgPreviewFailed), map[string]interface{}{event.KeyPath: current.FilePath})
		return &PreviewResult{Notice: notice}, fmt.Errorf("fetch head: %w", err)
	}

	return rendered(table), nil
}

func (s *previewServiceImpl) Upload(ctx context.Context, filename string, content []byte) (*PreviewResult, error) {
	if err := checkWorkbook(content); err != nil {
		s.logger.Error("Rejected upload", "filename", filename, "error", err)
		notice := s.notify(ctx, event.TypePreviewFailed, errorNotice(uploadErrorPrefix+MsgNotAWorkbook), map[string]interface{}{event.KeyPath: filename})
		return &PreviewResult{Notice: notice}, err
	}

	table, err := s.backend.UploadWorkbook(ctx, filename, bytes.NewReader(content))
	var backendErr *port.BackendError
	switch {
	case errors.As(err, &backendErr):
		s.logger.Error("Error from server", "filename", filename, "error", backendErr.Message)
		notice := s.notify(ctx, event.TypePreviewFailed, errorNotice(uploadErrorPrefix+backendErr.Message), map[string]interface{}{event.KeyPath: filename})
		return &PreviewResult{Notice: notice}, err
	case err != nil:
		s.logger.Error("Error uploading file", "filename", filename, "error", err)
		notice := s.notify(ctx, event.TypePreviewFailed, errorNotice(MsgUploadFailed), map[string]interface{}{event.KeyPath: filename})
		return &PreviewResult{Notice: notice}, fmt.Errorf("upload workbook: %w", err)
	}

	s.logger.Info("Workbook previewed", "filename", filename, "rows", len(table.Rows))
	return rendered(table), nil
}

// checkWorkbook opens the blob as a workbook and requires at least one sheet
func checkWorkbook(content []byte) error {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotAWorkbook, err)
	}
	defer f.Close()

	if len(f.GetSheetList()) == 0 {
		return fmt.Errorf("%w: no sheets", ErrNotAWorkbook)
	}
	return nil
}
