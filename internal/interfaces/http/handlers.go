package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/garyjia/invoicedesk/internal/application/alert"
	"github.com/garyjia/invoicedesk/internal/application/picker"
	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/application/service"
	"github.com/garyjia/invoicedesk/internal/application/shell"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/navigation"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
	"github.com/garyjia/invoicedesk/internal/interfaces/http/web"
	"github.com/garyjia/invoicedesk/internal/worker"
)

// maxUploadSize bounds a previewed workbook
const maxUploadSize = 32 << 20

// HealthFunc reports whether every component is up, with a status per component
type HealthFunc func(ctx context.Context) (bool, map[string]string)

// Deps are the application services the handlers call
type Deps struct {
	Automation service.AutomationService
	Settings   service.SettingsService
	Preview    service.PreviewService
	Navigator  *shell.Navigator
	Alerts     *alert.Feed
	Store      port.SettingsStore
	Health     HealthFunc
}

// Handlers contains all HTTP request handlers
type Handlers struct {
	Deps
	countdownInterval time.Duration
	now               func() time.Time
	logger            Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(deps Deps, logger Logger) *Handlers {
	return &Handlers{
		Deps:              deps,
		countdownInterval: time.Second,
		now:               time.Now,
		logger:            logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool            `json:"success"`
	Data    interface{}     `json:"data,omitempty"`
	Notice  *service.Notice `json:"notice,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status     string            `json:"status"`
	Timestamp  string            `json:"timestamp"`
	Components map[string]string `json:"components,omitempty"`
}

// EmailRequest is the body of POST /api/settings/manager-emails
type EmailRequest struct {
	Email string `json:"email"`
}

// ImportRequest optionally names the email file directly instead of asking the picker
type ImportRequest struct {
	Path string `json:"path"`
}

// errorStatus maps a use case error to the HTTP status reported with it
func errorStatus(err error) int {
	switch {
	case errors.Is(err, entity.ErrUnknownAction),
		errors.Is(err, settings.ErrUnknownField),
		errors.Is(err, settings.ErrIndexOutOfRange),
		errors.Is(err, service.ErrNoDataFile),
		errors.Is(err, shell.ErrFragmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, settings.ErrInvalidEmail),
		errors.Is(err, settings.ErrInvalidScheduleTime),
		errors.Is(err, settings.ErrNoValidEmails),
		errors.Is(err, picker.ErrInvalidFileType),
		errors.Is(err, service.ErrNotAWorkbook):
		return http.StatusUnprocessableEntity
	case errors.Is(err, picker.ErrPickCancelled):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	var backendErr *port.BackendError
	if errors.As(err, &backendErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respond writes the outcome of a use case that returns data, a notice and an error
func (h *Handlers) respond(c *gin.Context, data interface{}, notice *service.Notice, err error) {
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error("Request failed", "path", c.FullPath(), "error", err)
		}
		c.JSON(status, Response{Success: false, Data: data, Notice: notice, Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: data, Notice: notice})
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	status := http.StatusOK
	if h.Health != nil {
		ok, components := h.Health(c.Request.Context())
		response.Components = components
		if !ok {
			response.Status = "unhealthy"
			status = http.StatusServiceUnavailable
		}
	}

	c.JSON(status, Response{
		Success: status == http.StatusOK,
		Data:    response,
	})
}

// Index handles GET /
func (h *Handlers) Index(c *gin.Context) {
	body, err := web.Index()
	if err != nil {
		h.logger.Error("Failed to read shell page", "error", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", body)
}

// Page handles GET /pages/:page, swapping the content region
func (h *Handlers) Page(c *gin.Context) {
	view, err := h.Navigator.Navigate(c.Request.Context(), c.Param("page"))
	if view == nil {
		c.Data(http.StatusConflict, "text/html; charset=utf-8", []byte(shell.ErrorFragment))
		return
	}

	status := http.StatusOK
	if err != nil {
		status = errorStatus(err)
	}
	c.Header("X-Shell-State", view.State.String())
	c.Data(status, "text/html; charset=utf-8", []byte(view.HTML))
}

// GetSettings handles GET /api/settings
func (h *Handlers) GetSettings(c *gin.Context) {
	s, err := h.Settings.Draft(c.Request.Context())
	h.respond(c, s, nil, err)
}

// UpdateSettings handles PUT /api/settings, editing the draft only
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var form settings.Form
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid settings form"})
		return
	}

	s, err := h.Settings.Update(c.Request.Context(), form)
	h.respond(c, s, nil, err)
}

// SaveSettings handles POST /api/settings/save. A form body is applied
// before saving; an empty body saves the draft as is.
func (h *Handlers) SaveSettings(c *gin.Context) {
	var form *settings.Form
	var body settings.Form
	switch err := c.ShouldBindJSON(&body); {
	case err == nil:
		form = &body
	case !errors.Is(err, io.EOF):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid settings form"})
		return
	}

	s, notice, err := h.Settings.Save(c.Request.Context(), form)
	h.respond(c, s, notice, err)
}

// AddManagerEmail handles POST /api/settings/manager-emails
func (h *Handlers) AddManagerEmail(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	s, notice, err := h.Settings.AddManagerEmail(c.Request.Context(), req.Email)
	h.respond(c, s, notice, err)
}

// RemoveManagerEmail handles DELETE /api/settings/manager-emails/:index
func (h *Handlers) RemoveManagerEmail(c *gin.Context) {
	indexStr := c.Param("index")
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid email index"})
		return
	}

	s, err := h.Settings.RemoveManagerEmail(c.Request.Context(), index)
	h.respond(c, s, nil, err)
}

// ImportManagerEmails handles POST /api/settings/manager-emails/import
func (h *Handlers) ImportManagerEmails(c *gin.Context) {
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}

	if req.Path != "" {
		s, notice, err := h.Settings.ImportManagerEmailsFromFile(c.Request.Context(), req.Path)
		h.respond(c, s, notice, err)
		return
	}
	s, notice, err := h.Settings.ImportManagerEmails(c.Request.Context())
	h.respond(c, s, notice, err)
}

// PickPath handles POST /api/settings/pick/:field. The request stays open
// until the host dialog closes.
func (h *Handlers) PickPath(c *gin.Context) {
	s, notice, err := h.Settings.PickPath(c.Request.Context(), settings.Field(c.Param("field")))
	h.respond(c, s, notice, err)
}

// RunAutomation handles POST /api/automation/:action. A logical failure is
// reported in the body with status 200, the way the backend answers.
func (h *Handlers) RunAutomation(c *gin.Context) {
	action, err := entity.ParseAction(c.Param("action"))
	if err != nil {
		h.respond(c, nil, nil, err)
		return
	}

	outcome, err := h.Automation.Run(c.Request.Context(), action, entity.RunSourceManual)
	if err != nil {
		h.respond(c, nil, nil, err)
		return
	}

	resp := Response{Success: outcome.Succeeded(), Data: outcome.Run, Notice: outcome.Notice}
	if !resp.Success && outcome.Notice != nil {
		resp.Error = outcome.Notice.Text()
	}
	c.JSON(http.StatusOK, resp)
}

// ListRuns handles GET /api/runs
func (h *Handlers) ListRuns(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}

	runs, err := h.Automation.RecentRuns(c.Request.Context(), limit)
	if runs == nil {
		runs = []*entity.Run{}
	}
	h.respond(c, runs, nil, err)
}

// GetPreview handles GET /api/preview
func (h *Handlers) GetPreview(c *gin.Context) {
	res, err := h.Preview.LoadHead(c.Request.Context())
	var notice *service.Notice
	if res != nil {
		notice = res.Notice
	}
	h.respond(c, res, notice, err)
}

// UploadPreview handles POST /api/preview/upload with multipart field "file"
func (h *Handlers) UploadPreview(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing file field"})
		return
	}
	if fh.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, Response{Success: false, Error: "file too large"})
		return
	}

	f, err := fh.Open()
	if err != nil {
		h.respond(c, nil, nil, err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.respond(c, nil, nil, err)
		return
	}

	res, err := h.Preview.Upload(c.Request.Context(), fh.Filename, content)
	var notice *service.Notice
	if res != nil {
		notice = res.Notice
	}
	h.respond(c, res, notice, err)
}

// ListAlerts handles GET /api/alerts?after=<seq>
func (h *Handlers) ListAlerts(c *gin.Context) {
	after, err := strconv.ParseInt(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil || after < 0 {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid after parameter"})
		return
	}

	alerts := h.Alerts.Since(after)
	if alerts == nil {
		alerts = []alert.Alert{}
	}
	c.JSON(http.StatusOK, Response{Success: true, Data: alerts})
}

// Countdown handles GET /api/dashboard/countdown, streaming the time left
// until the schedule time as server-sent events while the dashboard shows
func (h *Handlers) Countdown(c *gin.Context) {
	ctx := c.Request.Context()

	s, err := h.Store.Load(ctx)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		c.Status(http.StatusNoContent)
		return
	}
	if err != nil {
		h.respond(c, nil, nil, err)
		return
	}
	hour, minute, err := s.ScheduleClock()
	if err != nil {
		h.respond(c, nil, nil, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	countdown := worker.Countdown{
		Hour:     hour,
		Minute:   minute,
		Interval: h.countdownInterval,
		Now:      h.now,
		Visible: func() bool {
			return ctx.Err() == nil && h.Navigator.IsShowing(navigation.PageDashboard)
		},
	}

	err = countdown.Run(ctx, func(left string) error {
		c.SSEvent("time-left", left)
		c.Writer.Flush()
		return nil
	})
	if err == nil {
		c.SSEvent("end", "")
		c.Writer.Flush()
	}
}
