package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/application/service"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

// ActionRunner runs one automation action
type ActionRunner interface {
	Run(ctx context.Context, action entity.Action, source entity.RunSource) (*service.AutomationOutcome, error)
}

// DailyScheduler runs the configured actions once a day at the schedule time
// from the saved settings. The settings are re-read on every check, so a
// saved change takes effect without a restart.
type DailyScheduler struct {
	store   port.SettingsStore
	runner  ActionRunner
	actions []entity.Action
	logger  *zap.Logger

	checkInterval time.Duration
	now           func() time.Time

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
	lastDay   string
}

// SchedulerOption configures the scheduler
type SchedulerOption func(*DailyScheduler)

// WithCheckInterval sets how often the clock is compared with the schedule
func WithCheckInterval(d time.Duration) SchedulerOption {
	return func(s *DailyScheduler) {
		if d > 0 {
			s.checkInterval = d
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) SchedulerOption {
	return func(s *DailyScheduler) {
		s.now = now
	}
}

// NewDailyScheduler creates a scheduler for actions, run in the given order
func NewDailyScheduler(store port.SettingsStore, runner ActionRunner, actions []entity.Action, logger *zap.Logger, opts ...SchedulerOption) *DailyScheduler {
	s := &DailyScheduler{
		store:         store,
		runner:        runner,
		actions:       append([]entity.Action(nil), actions...),
		logger:        logger,
		checkInterval: 30 * time.Second,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the worker name for identification
func (s *DailyScheduler) Name() string {
	return "DailyScheduler"
}

// Start launches the check loop
func (s *DailyScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("daily scheduler is already running")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.isRunning = true

	s.logger.Info("DailyScheduler started",
		zap.Duration("check_interval", s.checkInterval),
		zap.Int("actions", len(s.actions)))

	go s.loop(loopCtx, s.done)
	return nil
}

// Stop cancels the loop and waits for a run in progress to return
func (s *DailyScheduler) Stop() error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.cancel()
	done := s.done
	s.mu.Unlock()

	<-done
	s.logger.Info("DailyScheduler stopped")
	return nil
}

func (s *DailyScheduler) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()

	s.checkOnce(ctx, s.now())
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.checkOnce(ctx, s.now())
		}
	}
}

// checkOnce fires the actions when now falls in the scheduled minute and
// they have not fired yet today. It reports whether they fired.
func (s *DailyScheduler) checkOnce(ctx context.Context, now time.Time) bool {
	current, err := s.store.Load(ctx)
	if errors.Is(err, settings.ErrSettingsNotFound) {
		return false
	}
	if err != nil {
		s.logger.Error("Scheduler failed to read settings", zap.Error(err))
		return false
	}
	if current.ScheduleTime == "" {
		return false
	}

	hour, minute, err := current.ScheduleClock()
	if err != nil {
		s.logger.Error("Invalid schedule time", zap.String("schedule_time", current.ScheduleTime), zap.Error(err))
		return false
	}
	if now.Hour() != hour || now.Minute() != minute {
		return false
	}

	day := now.Format("2006-01-02")
	s.mu.Lock()
	if s.lastDay == day {
		s.mu.Unlock()
		return false
	}
	s.lastDay = day
	s.mu.Unlock()

	s.logger.Info("Running scheduled automation", zap.String("day", day), zap.String("schedule_time", current.ScheduleTime))
	s.runAll(ctx)
	return true
}

// runAll runs the actions in order, stopping at the first failure
func (s *DailyScheduler) runAll(ctx context.Context) {
	for _, action := range s.actions {
		if ctx.Err() != nil {
			return
		}
		out, err := s.runner.Run(ctx, action, entity.RunSourceScheduled)
		if err != nil {
			s.logger.Error("Scheduled action failed", zap.String("action", action.String()), zap.Error(err))
			return
		}
		if !out.Succeeded() {
			s.logger.Error("Scheduled action reported failure",
				zap.String("action", action.String()),
				zap.String("message", out.Notice.Text()))
			return
		}
	}
}
