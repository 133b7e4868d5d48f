package shell

import (
	"context"
	"errors"
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/invoicedesk/internal/application/service"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/preview"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

type stubPreview struct {
	res *service.PreviewResult
	err error
}

func (s *stubPreview) LoadHead(ctx context.Context) (*service.PreviewResult, error) {
	return s.res, s.err
}

func (s *stubPreview) Upload(ctx context.Context, filename string, content []byte) (*service.PreviewResult, error) {
	return s.res, s.err
}

type stubStore struct {
	current *settings.Settings
	err     error
}

func (s *stubStore) Load(ctx context.Context) (*settings.Settings, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := s.current.Clone()
	return &out, nil
}

func (s *stubStore) Save(ctx context.Context, v *settings.Settings) error { return nil }
func (s *stubStore) Path() string                                        { return "settings.json" }

type stubAutomation struct {
	last map[entity.Action]*entity.Run
	runs []*entity.Run
	err  error
}

func (s *stubAutomation) Run(ctx context.Context, action entity.Action, source entity.RunSource) (*service.AutomationOutcome, error) {
	return nil, errors.New("not used")
}

func (s *stubAutomation) RecentRuns(ctx context.Context, limit int) ([]*entity.Run, error) {
	return s.runs, nil
}

func (s *stubAutomation) LastRuns(ctx context.Context) (map[entity.Action]*entity.Run, error) {
	return s.last, s.err
}

func fixedNow() time.Time {
	return time.Date(2024, 3, 1, 17, 0, 0, 0, time.UTC)
}

func TestDashboardInitializer(t *testing.T) {
	ctx := context.Background()
	table := preview.Render(&preview.Table{Columns: []string{"A"}, Rows: [][]any{{"1"}}})

	t.Run("preview and countdown", func(t *testing.T) {
		init := DashboardInitializer(
			&stubPreview{res: &service.PreviewResult{HTML: table}},
			&stubStore{current: &settings.Settings{ScheduleTime: "18:30"}},
			fixedNow,
		)
		data, err := init(ctx)
		require.NoError(t, err)

		page := data.(*DashboardPage)
		assert.Equal(t, table, page.Table)
		assert.Equal(t, "01:30:00", page.TimeLeft)
	})

	t.Run("no data file and no settings", func(t *testing.T) {
		init := DashboardInitializer(
			&stubPreview{err: service.ErrNoDataFile},
			&stubStore{err: settings.ErrSettingsNotFound},
			fixedNow,
		)
		data, err := init(ctx)
		require.NoError(t, err)

		page := data.(*DashboardPage)
		assert.Equal(t, template.HTML("<tr><td>No data available</td></tr>"), page.Table)
		assert.Empty(t, page.TimeLeft)
	})

	t.Run("preview failure keeps placeholder", func(t *testing.T) {
		notice := &service.Notice{Message: service.MsgPreviewFailed}
		init := DashboardInitializer(
			&stubPreview{res: &service.PreviewResult{Notice: notice}, err: errors.New("connection refused")},
			&stubStore{current: &settings.Settings{}},
			fixedNow,
		)
		data, err := init(ctx)
		require.Error(t, err)

		page := data.(*DashboardPage)
		assert.Equal(t, preview.Render(nil), page.Table)
		assert.Same(t, notice, page.Notice)
	})
}

func TestAutomationInitializer(t *testing.T) {
	run := &entity.Run{ID: 7, Action: entity.ActionGenerateReports, Status: entity.RunStatusSuccess}
	init := AutomationInitializer(&stubAutomation{
		last: map[entity.Action]*entity.Run{entity.ActionGenerateReports: run},
		runs: []*entity.Run{run},
	})

	data, err := init(context.Background())
	require.NoError(t, err)

	page := data.(*AutomationPage)
	require.Len(t, page.Actions, len(entity.Actions))
	for _, btn := range page.Actions {
		assert.Equal(t, btn.Action.Label(), btn.Label)
		if btn.Action == entity.ActionGenerateReports {
			assert.Same(t, run, btn.LastRun)
		} else {
			assert.Nil(t, btn.LastRun)
		}
	}
	assert.Len(t, page.Runs, 1)
}

func TestAutomationInitializer_HistoryError(t *testing.T) {
	init := AutomationInitializer(&stubAutomation{err: errors.New("db locked")})

	data, err := init(context.Background())
	require.Error(t, err)
	assert.Len(t, data.(*AutomationPage).Actions, len(entity.Actions))
}
