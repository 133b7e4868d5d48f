// Package backend talks to the local automation service over JSON/HTTP.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/preview"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

const uploadPath = "/upload-excel"

// Client implements port.Backend
type Client struct {
	baseURL    string
	uploadURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a backend client. uploadURL may be empty, in which case
// uploads go to baseURL.
func NewClient(baseURL, uploadURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if uploadURL == "" {
		uploadURL = baseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		uploadURL:  strings.TrimRight(uploadURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

var _ port.Backend = (*Client)(nil)

type triggerResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Trigger posts the settings snapshot to the action endpoint. The HTTP status
// is ignored whenever the body parses; an {"error"} body becomes an "error"
// result carrying that text.
func (c *Client) Trigger(ctx context.Context, action entity.Action, s *settings.Settings) (*port.AutomationResult, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownAction, action)
	}

	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal settings: %w", err)
	}

	c.logger.Debug("Triggering automation", zap.String("action", action.String()))

	status, respBody, err := c.do(ctx, c.baseURL+action.Path(), "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var resp triggerResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		c.logger.Error("Automation response is not JSON",
			zap.String("action", action.String()),
			zap.Int("status_code", status),
			zap.ByteString("body", truncate(respBody)))
		return nil, fmt.Errorf("%w: invalid response from %s: %v", ErrBackendUnavailable, action.Path(), err)
	}

	result := &port.AutomationResult{Status: resp.Status, Message: resp.Message}
	if result.Status == "" && resp.Error != "" {
		result.Status = "error"
		result.Message = resp.Error
	}

	c.logger.Info("Automation finished",
		zap.String("action", action.String()),
		zap.Int("status_code", status),
		zap.String("result", result.Status))
	return result, nil
}

// headers come from the spreadsheet's first row and may be numbers
type headResponse struct {
	Head *struct {
		Columns []any   `json:"columns"`
		Rows    [][]any `json:"rows"`
	} `json:"head"`
	Error string `json:"error"`
}

// FetchHead asks the backend for the first rows of the spreadsheet at filePath
func (c *Client) FetchHead(ctx context.Context, filePath string) (*preview.Table, error) {
	body, err := json.Marshal(map[string]string{"filePath": filePath})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	status, respBody, err := c.do(ctx, c.baseURL+uploadPath, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(respBody))
	dec.UseNumber()
	var resp headResponse
	if err := dec.Decode(&resp); err != nil {
		return nil, fmt.Errorf("%w: invalid preview response: %v", ErrBackendUnavailable, err)
	}
	if resp.Error != "" {
		return nil, &port.BackendError{StatusCode: status, Message: resp.Error}
	}
	if resp.Head == nil {
		return &preview.Table{}, nil
	}
	return preview.FromHead(resp.Head.Columns, resp.Head.Rows), nil
}

// UploadWorkbook sends the spreadsheet as multipart field "file" and reads the
// array-of-records answer.
func (c *Client) UploadWorkbook(ctx context.Context, filename string, content io.Reader) (*preview.Table, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	c.logger.Debug("Uploading workbook", zap.String("filename", filename), zap.Int("size", buf.Len()))

	status, respBody, err := c.do(ctx, c.uploadURL+uploadPath, mw.FormDataContentType(), &buf)
	if err != nil {
		return nil, err
	}

	table, backendErr, err := decodeRecords(respBody)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid upload response: %v", ErrBackendUnavailable, err)
	}
	if backendErr != "" {
		return nil, &port.BackendError{StatusCode: status, Message: backendErr}
	}
	return table, nil
}

func (c *Client) do(ctx context.Context, url, contentType string, body io.Reader) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Backend request failed", zap.String("url", url), zap.Error(err))
		return 0, nil, fmt.Errorf("%w: %v", ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: failed to read response: %v", ErrBackendUnavailable, err)
	}
	return resp.StatusCode, respBody, nil
}

func truncate(b []byte) []byte {
	const max = 512
	if len(b) > max {
		return b[:max]
	}
	return b
}
