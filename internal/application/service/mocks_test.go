package service

import (
	"context"
	"io"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/alert"
	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/preview"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
	"github.com/garyjia/invoicedesk/pkg/utils"
)

type mockStore struct {
	mu      sync.Mutex
	current *settings.Settings
	loadErr error
	saveErr error
	saves   int
}

func (m *mockStore) Load(ctx context.Context) (*settings.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.current == nil {
		return nil, settings.ErrSettingsNotFound
	}
	c := m.current.Clone()
	return &c, nil
}

func (m *mockStore) Save(ctx context.Context, s *settings.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	c := s.Clone()
	m.current = &c
	m.saves++
	return nil
}

func (m *mockStore) Path() string {
	return "/tmp/settings.json"
}

type mockBackend struct {
	triggerFunc   func(ctx context.Context, action entity.Action, s *settings.Settings) (*port.AutomationResult, error)
	fetchHeadFunc func(ctx context.Context, filePath string) (*preview.Table, error)
	uploadFunc    func(ctx context.Context, filename string, content io.Reader) (*preview.Table, error)
	triggers      int
}

func (m *mockBackend) Trigger(ctx context.Context, action entity.Action, s *settings.Settings) (*port.AutomationResult, error) {
	m.triggers++
	return m.triggerFunc(ctx, action, s)
}

func (m *mockBackend) FetchHead(ctx context.Context, filePath string) (*preview.Table, error) {
	return m.fetchHeadFunc(ctx, filePath)
}

func (m *mockBackend) UploadWorkbook(ctx context.Context, filename string, content io.Reader) (*preview.Table, error) {
	return m.uploadFunc(ctx, filename, content)
}

type mockRunRepo struct {
	runs []*entity.Run
}

func (m *mockRunRepo) Create(ctx context.Context, run *entity.Run) error {
	run.ID = int64(len(m.runs) + 1)
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockRunRepo) ListRecent(ctx context.Context, limit int) ([]*entity.Run, error) {
	out := []*entity.Run{}
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.runs[i])
	}
	return out, nil
}

func (m *mockRunRepo) LastByAction(ctx context.Context, action entity.Action) (*entity.Run, error) {
	for i := len(m.runs) - 1; i >= 0; i-- {
		if m.runs[i].Action == action {
			return m.runs[i], nil
		}
	}
	return nil, nil
}

type mockPicker struct {
	path string
	err  error
	kind string
}

func (m *mockPicker) PickFile(ctx context.Context) (string, error) {
	m.kind = "file"
	return m.path, m.err
}

func (m *mockPicker) PickEmailFile(ctx context.Context) (string, error) {
	m.kind = "email-file"
	return m.path, m.err
}

func (m *mockPicker) PickDirectory(ctx context.Context) (string, error) {
	m.kind = "directory"
	return m.path, m.err
}

// newTestBus returns a dispatcher with an alert feed subscribed to it
func newTestBus(t *testing.T) (dispatcher.Dispatcher, *alert.Feed, Logger) {
	t.Helper()
	logger := utils.NewKVLogger(zap.NewNop())
	d := dispatcher.NewDispatcher(dispatcher.WithLogger(logger))
	feed := alert.NewFeed(0)
	feed.Subscribe(d)
	return d, feed, logger
}
