package http

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/alert"
	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/application/picker"
	"github.com/garyjia/invoicedesk/internal/application/service"
	"github.com/garyjia/invoicedesk/internal/application/shell"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/navigation"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
	"github.com/garyjia/invoicedesk/internal/infrastructure/external/backend"
	"github.com/garyjia/invoicedesk/internal/infrastructure/storage"
	"github.com/garyjia/invoicedesk/internal/interfaces/http/web"
	"github.com/garyjia/invoicedesk/pkg/utils"
)

type fakePicker struct {
	mu   sync.Mutex
	path string
	err  error
}

func (f *fakePicker) pick() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path, f.err
}

func (f *fakePicker) PickFile(ctx context.Context) (string, error)      { return f.pick() }
func (f *fakePicker) PickEmailFile(ctx context.Context) (string, error) { return f.pick() }
func (f *fakePicker) PickDirectory(ctx context.Context) (string, error) { return f.pick() }

type memRuns struct {
	mu   sync.Mutex
	runs []*entity.Run
}

func (m *memRuns) Create(ctx context.Context, run *entity.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.ID = int64(len(m.runs) + 1)
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRuns) ListRecent(ctx context.Context, limit int) ([]*entity.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*entity.Run
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *memRuns) LastByAction(ctx context.Context, action entity.Action) (*entity.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].Action == action {
			return m.runs[i], nil
		}
	}
	return nil, nil
}

type testEnv struct {
	server    *Server
	store     *storage.JSONSettingsStore
	picker    *fakePicker
	navigator *shell.Navigator
	dir       string
}

func newTestEnv(t *testing.T, backendHandler http.HandlerFunc) *testEnv {
	t.Helper()

	logger := zap.NewNop()
	kv := utils.NewKVLogger(logger)
	dir := t.TempDir()

	be := httptest.NewServer(backendHandler)
	t.Cleanup(be.Close)

	store := storage.NewJSONSettingsStore(filepath.Join(dir, "settings.json"), logger)
	client := backend.NewClient(be.URL, "", 5*time.Second, logger)

	d := dispatcher.NewDispatcher(dispatcher.WithLogger(kv))
	feed := alert.NewFeed(0)
	feed.Subscribe(d)

	pk := &fakePicker{err: picker.ErrPickCancelled}
	automation := service.NewAutomationService(store, client, &memRuns{}, d, kv)
	settingsSvc := service.NewSettingsService(store, pk, d, kv)
	previews := service.NewPreviewService(store, client, d, kv)

	fragments, err := web.NewFragments()
	require.NoError(t, err)
	nav := shell.NewNavigator(fragments, logger)
	nav.Register(navigation.PageDashboard, shell.DashboardInitializer(previews, store, nil))
	nav.Register(navigation.PageAutomation, shell.AutomationInitializer(automation))
	nav.Register(navigation.PageSettings, shell.SettingsInitializer(settingsSvc))

	srv := NewServer(DefaultServerConfig(), Deps{
		Automation: automation,
		Settings:   settingsSvc,
		Preview:    previews,
		Navigator:  nav,
		Alerts:     feed,
		Store:      store,
	}, kv)
	srv.handlers.countdownInterval = 5 * time.Millisecond

	return &testEnv{server: srv, store: store, picker: pk, navigator: nav, dir: dir}
}

func (e *testEnv) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, Response) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Router().ServeHTTP(w, req)

	var resp Response
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func (e *testEnv) saveSettings(t *testing.T, s settings.Settings) {
	t.Helper()
	require.NoError(t, e.store.Save(context.Background(), &s))
}

func backendReplying(status, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": status, "message": message})
	}
}

func settingsData(t *testing.T, resp Response) settings.Settings {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var s settings.Settings
	require.NoError(t, json.Unmarshal(raw, &s))
	return s
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, backendReplying("success", "ok"))

	w, resp := env.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, resp.Success)
}

func TestIndexAndPages(t *testing.T) {
	env := newTestEnv(t, backendReplying("success", "ok"))

	w, _ := env.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `<main id="content"></main>`)

	w, _ = env.do(t, http.MethodGet, "/pages/automation", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AUTOMATION", w.Header().Get("X-Shell-State"))
	assert.Contains(t, w.Body.String(), "Generate Invoices")

	w, _ = env.do(t, http.MethodGet, "/pages/reports", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ERROR", w.Header().Get("X-Shell-State"))
	assert.Equal(t, string(shell.ErrorFragment), w.Body.String())

	w, _ = env.do(t, http.MethodGet, "/pages/dashboard", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "DASHBOARD", w.Header().Get("X-Shell-State"))
	assert.Contains(t, w.Body.String(), "No data available")
}

func TestSettingsEndpoints(t *testing.T) {
	env := newTestEnv(t, backendReplying("success", "ok"))

	w, resp := env.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, settingsData(t, resp).ManagerEmails)

	w, resp = env.do(t, http.MethodPut, "/api/settings", settings.Form{EmailServer: "smtp.example.com", ScheduleTime: "07:30"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "smtp.example.com", settingsData(t, resp).EmailServer)

	w, resp = env.do(t, http.MethodPut, "/api/settings", settings.Form{ScheduleTime: "25:00"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.False(t, resp.Success)

	w, resp = env.do(t, http.MethodPost, "/api/settings/manager-emails", EmailRequest{Email: "boss@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"boss@example.com"}, settingsData(t, resp).ManagerEmails)

	w, resp = env.do(t, http.MethodPost, "/api/settings/manager-emails", EmailRequest{Email: "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, resp.Notice)
	assert.Equal(t, service.MsgInvalidEmail, resp.Notice.Message)

	w, _ = env.do(t, http.MethodDelete, "/api/settings/manager-emails/5", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = env.do(t, http.MethodDelete, "/api/settings/manager-emails/x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// nothing is written before an explicit save
	_, err := env.store.Load(context.Background())
	assert.ErrorIs(t, err, settings.ErrSettingsNotFound)

	w, resp = env.do(t, http.MethodPost, "/api/settings/save", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, resp.Notice)
	assert.Equal(t, service.MsgSettingsSaved, resp.Notice.Message)

	saved, err := env.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "07:30", saved.ScheduleTime)
	assert.Equal(t, []string{"boss@example.com"}, saved.ManagerEmails)

	w, resp = env.do(t, http.MethodGet, "/api/alerts?after=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, service.MsgInvalidEmail)
	assert.Contains(t, body, service.MsgSettingsSaved)
	assert.True(t, resp.Success)
}

func TestImportManagerEmails(t *testing.T) {
	env := newTestEnv(t, backendReplying("success", "ok"))

	path := filepath.Join(env.dir, "managers.txt")
	require.NoError(t, storage.NewLocalFileStorage(env.dir, zap.NewNop()).SaveFile(path, []byte("a@b.co\nnope\nc@d.org\n")))

	w, resp := env.do(t, http.MethodPost, "/api/settings/manager-emails/import", ImportRequest{Path: path})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"a@b.co", "c@d.org"}, settingsData(t, resp).ManagerEmails)
	assert.Equal(t, service.MsgEmailsLoaded, resp.Notice.Message)

	w, resp = env.do(t, http.MethodPost, "/api/settings/manager-emails/import", ImportRequest{Path: filepath.Join(env.dir, "managers.csv")})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "Invalid File Type: Please select a valid .txt file.", resp.Notice.Text())

	// picker cancelled
	w, resp = env.do(t, http.MethodPost, "/api/settings/manager-emails/import", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Nil(t, resp.Notice)
}

func TestPickPath(t *testing.T) {
	env := newTestEnv(t, backendReplying("success", "ok"))

	env.picker.path, env.picker.err = "/srv/invoices", nil
	w, resp := env.do(t, http.MethodPost, "/api/settings/pick/invoicesFolder", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/srv/invoices", settingsData(t, resp).InvoicesFolder)

	env.picker.path, env.picker.err = "", picker.ErrPickCancelled
	w, resp = env.do(t, http.MethodPost, "/api/settings/pick/filePath", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	require.NotNil(t, resp.Notice)
	assert.Equal(t, service.MsgNoFileSelected, resp.Notice.Message)

	w, _ = env.do(t, http.MethodPost, "/api/settings/pick/emailPassword", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRunAutomation(t *testing.T) {
	t.Run("logical failure returns alert text", func(t *testing.T) {
		env := newTestEnv(t, backendReplying("error", "boom"))
		env.saveSettings(t, settings.Settings{EmailServer: "smtp"})

		w, resp := env.do(t, http.MethodPost, "/api/automation/generate-invoices", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.False(t, resp.Success)
		assert.Equal(t, "Error generating invoices: boom", resp.Error)
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t, backendReplying("success", "Reports generated"))
		env.saveSettings(t, settings.Settings{})

		w, resp := env.do(t, http.MethodPost, "/api/automation/generate-reports", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, resp.Success)
		assert.Equal(t, "Reports generated", resp.Notice.Message)

		w, _ = env.do(t, http.MethodGet, "/api/runs?limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"action":"generate-reports"`)
	})

	t.Run("missing settings file", func(t *testing.T) {
		env := newTestEnv(t, backendReplying("success", "ok"))

		_, resp := env.do(t, http.MethodPost, "/api/automation/send-report", nil)
		assert.False(t, resp.Success)
		assert.Equal(t, service.MsgSettingsNotFound, resp.Error)
	})

	t.Run("unknown action", func(t *testing.T) {
		env := newTestEnv(t, backendReplying("success", "ok"))

		w, _ := env.do(t, http.MethodPost, "/api/automation/delete-everything", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func workbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Zeta"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func uploadRequest(t *testing.T, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/preview/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestPreviewEndpoints(t *testing.T) {
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			w.Write([]byte(`{"data":[{"Zeta":1,"Alpha":"x"}]}`))
			return
		}
		w.Write([]byte(`{"head":{"columns":["A","B"],"rows":[[1,2]]}}`))
	})

	w, _ := env.do(t, http.MethodGet, "/api/preview", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	env.saveSettings(t, settings.Settings{FilePath: "/data/clients.xlsx"})
	var resp struct {
		Data service.PreviewResult `json:"data"`
	}
	w, _ = env.do(t, http.MethodGet, "/api/preview", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, string(resp.Data.HTML), "<th>A</th><th>B</th>")

	w = httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, uploadRequest(t, "clients.xlsx", workbook(t)))
	require.Equal(t, http.StatusOK, w.Code)
	resp.Data = service.PreviewResult{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Zeta", "Alpha"}, resp.Data.Table.Columns)
	assert.Contains(t, string(resp.Data.HTML), "<th>Zeta</th><th>Alpha</th>")

	w = httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, uploadRequest(t, "notes.txt", []byte("hello")))
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "Error: "+service.MsgNotAWorkbook)

	req := httptest.NewRequest(http.MethodPost, "/api/preview/upload", nil)
	w = httptest.NewRecorder()
	env.server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListAlerts_BadCursor(t *testing.T) {
	env := newTestEnv(t, backendReplying("success", "ok"))

	w, _ := env.do(t, http.MethodGet, "/api/alerts?after=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCountdown(t *testing.T) {
	t.Run("no settings file", func(t *testing.T) {
		env := newTestEnv(t, backendReplying("success", "ok"))

		w, _ := env.do(t, http.MethodGet, "/api/dashboard/countdown", nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("streams while dashboard shows", func(t *testing.T) {
		env := newTestEnv(t, backendReplying("success", "ok"))
		env.saveSettings(t, settings.Settings{ScheduleTime: "23:59"})
		_, err := env.navigator.Start(context.Background())
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 40*time.Millisecond)
		defer cancel()
		req := httptest.NewRequest(http.MethodGet, "/api/dashboard/countdown", nil).WithContext(ctx)
		w := httptest.NewRecorder()
		env.server.Router().ServeHTTP(w, req)

		assert.Contains(t, w.Body.String(), "event:time-left")
		assert.NotContains(t, w.Body.String(), "event:end")
	})

	t.Run("stops when dashboard is left", func(t *testing.T) {
		env := newTestEnv(t, backendReplying("success", "ok"))
		env.saveSettings(t, settings.Settings{ScheduleTime: "23:59"})
		_, err := env.navigator.Navigate(context.Background(), "settings")
		require.NoError(t, err)

		w, _ := env.do(t, http.MethodGet, "/api/dashboard/countdown", nil)
		assert.Contains(t, w.Body.String(), "event:end")
		assert.NotContains(t, w.Body.String(), "event:time-left")
	})
}

func TestAPI_RejectsCrossSiteWrites(t *testing.T) {
	var hits int
	var mu sync.Mutex
	env := newTestEnv(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		mu.Unlock()
		w.Write([]byte(`{"status":"success","message":"Invoices sent successfully."}`))
	})
	env.saveSettings(t, settings.Settings{EmailServer: "smtp.example.com"})

	send := func(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		w := httptest.NewRecorder()
		env.server.Router().ServeHTTP(w, req)
		return w
	}

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		headers map[string]string
		want    int
	}{
		{
			name:    "foreign origin form post",
			method:  http.MethodPost,
			path:    "/api/automation/send-invoices",
			body:    "x=1",
			headers: map[string]string{"Origin": "http://evil.example", "Content-Type": "application/x-www-form-urlencoded"},
			want:    http.StatusForbidden,
		},
		{
			name:    "cross-site fetch metadata",
			method:  http.MethodPost,
			path:    "/api/automation/send-invoices",
			headers: map[string]string{"Sec-Fetch-Site": "cross-site"},
			want:    http.StatusForbidden,
		},
		{
			name:    "text/plain body without origin",
			method:  http.MethodPost,
			path:    "/api/settings/save",
			body:    `{"emailServer":"attacker.example"}`,
			headers: map[string]string{"Content-Type": "text/plain"},
			want:    http.StatusUnsupportedMediaType,
		},
		{
			name:    "urlencoded body from same origin",
			method:  http.MethodPut,
			path:    "/api/settings",
			body:    "emailServer=attacker.example",
			headers: map[string]string{"Origin": "http://example.com", "Content-Type": "application/x-www-form-urlencoded"},
			want:    http.StatusUnsupportedMediaType,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := send(tt.method, tt.path, tt.body, tt.headers)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	mu.Lock()
	assert.Zero(t, hits, "backend must not be called")
	mu.Unlock()

	got, err := env.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "smtp.example.com", got.EmailServer)

	// same-origin shell requests still work; httptest requests use Host example.com
	w := send(http.MethodPost, "/api/automation/send-invoices", "", map[string]string{
		"Origin":         "http://example.com",
		"Sec-Fetch-Site": "same-origin",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = send(http.MethodGet, "/api/alerts", "", map[string]string{"Origin": "http://evil.example"})
	assert.Equal(t, http.StatusOK, w.Code)
}
