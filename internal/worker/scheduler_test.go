package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/alert"
	"github.com/garyjia/invoicedesk/internal/application/service"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

type fakeStore struct {
	current *settings.Settings
}

func (f *fakeStore) Load(ctx context.Context) (*settings.Settings, error) {
	if f.current == nil {
		return nil, settings.ErrSettingsNotFound
	}
	c := f.current.Clone()
	return &c, nil
}

func (f *fakeStore) Save(ctx context.Context, s *settings.Settings) error {
	c := s.Clone()
	f.current = &c
	return nil
}

func (f *fakeStore) Path() string { return "settings.json" }

type fakeRunner struct {
	mu     sync.Mutex
	ran    []entity.Action
	failOn entity.Action
}

func (f *fakeRunner) Run(ctx context.Context, action entity.Action, source entity.RunSource) (*service.AutomationOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ran = append(f.ran, action)

	status := entity.RunStatusSuccess
	if action == f.failOn {
		status = entity.RunStatusError
	}
	return &service.AutomationOutcome{
		Run:    &entity.Run{Action: action, Source: source, Status: status},
		Notice: &service.Notice{Level: alert.LevelInfo, Message: "done"},
	}, nil
}

func (f *fakeRunner) actions() []entity.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Action(nil), f.ran...)
}

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 6, day, hour, minute, 15, 0, time.Local)
}

func TestDailyScheduler_CheckOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("fires once per day at the scheduled minute", func(t *testing.T) {
		runner := &fakeRunner{}
		s := NewDailyScheduler(&fakeStore{current: &settings.Settings{ScheduleTime: "22:30"}}, runner, entity.Actions, zap.NewNop())

		assert.False(t, s.checkOnce(ctx, at(1, 22, 29)))
		assert.True(t, s.checkOnce(ctx, at(1, 22, 30)))
		assert.False(t, s.checkOnce(ctx, at(1, 22, 30)))
		assert.False(t, s.checkOnce(ctx, at(1, 22, 31)))
		assert.True(t, s.checkOnce(ctx, at(2, 22, 30)))

		assert.Len(t, runner.actions(), 2*len(entity.Actions))
		assert.Equal(t, entity.Actions, runner.actions()[:len(entity.Actions)])
	})

	t.Run("stops at the first failed action", func(t *testing.T) {
		runner := &fakeRunner{failOn: entity.ActionGenerateReports}
		s := NewDailyScheduler(&fakeStore{current: &settings.Settings{ScheduleTime: "06:00"}}, runner, entity.Actions, zap.NewNop())

		require.True(t, s.checkOnce(ctx, at(3, 6, 0)))
		assert.Equal(t, []entity.Action{entity.ActionGenerateInvoices, entity.ActionGenerateReports}, runner.actions())
	})

	t.Run("no settings or no schedule time", func(t *testing.T) {
		runner := &fakeRunner{}
		assert.False(t, NewDailyScheduler(&fakeStore{}, runner, entity.Actions, zap.NewNop()).checkOnce(ctx, at(1, 0, 0)))
		assert.False(t, NewDailyScheduler(&fakeStore{current: &settings.Settings{}}, runner, entity.Actions, zap.NewNop()).checkOnce(ctx, at(1, 0, 0)))
		assert.False(t, NewDailyScheduler(&fakeStore{current: &settings.Settings{ScheduleTime: "7pm"}}, runner, entity.Actions, zap.NewNop()).checkOnce(ctx, at(1, 19, 0)))
		assert.Empty(t, runner.actions())
	})

	t.Run("saved change applies without restart", func(t *testing.T) {
		runner := &fakeRunner{}
		store := &fakeStore{current: &settings.Settings{ScheduleTime: "08:00"}}
		s := NewDailyScheduler(store, runner, []entity.Action{entity.ActionSendReport}, zap.NewNop())

		require.NoError(t, store.Save(ctx, &settings.Settings{ScheduleTime: "09:15"}))
		assert.False(t, s.checkOnce(ctx, at(4, 8, 0)))
		assert.True(t, s.checkOnce(ctx, at(4, 9, 15)))
	})
}

func TestDailyScheduler_StartStop(t *testing.T) {
	runner := &fakeRunner{}
	fired := at(5, 7, 0)
	s := NewDailyScheduler(
		&fakeStore{current: &settings.Settings{ScheduleTime: "07:00"}},
		runner,
		[]entity.Action{entity.ActionGenerateInvoices},
		zap.NewNop(),
		WithCheckInterval(time.Millisecond),
		WithClock(func() time.Time { return fired }),
	)

	require.NoError(t, s.Start(context.Background()))
	assert.Error(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool { return len(runner.actions()) == 1 }, time.Second, time.Millisecond)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	assert.Equal(t, []entity.Action{entity.ActionGenerateInvoices}, runner.actions())
	assert.Equal(t, "DailyScheduler", s.Name())
}
