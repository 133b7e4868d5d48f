package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/event"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
)

// MsgSettingsNotFound is shown when an action runs before settings were saved
const MsgSettingsNotFound = "Settings file not found."

// AutomationOutcome is the result of one action run
type AutomationOutcome struct {
	Run    *entity.Run `json:"run"`
	Notice *Notice     `json:"notice"`
}

// Succeeded reports whether the backend answered status "success"
func (o *AutomationOutcome) Succeeded() bool {
	return o != nil && o.Run != nil && o.Run.Succeeded()
}

// AutomationService triggers backend automation actions
type AutomationService interface {
	// Run posts the saved settings to the action endpoint. Every failure is
	// reported through the returned notice; the error is only set for an
	// unknown action.
	Run(ctx context.Context, action entity.Action, source entity.RunSource) (*AutomationOutcome, error)
	RecentRuns(ctx context.Context, limit int) ([]*entity.Run, error)

	// LastRuns returns the latest run of every action that has run
	LastRuns(ctx context.Context) (map[entity.Action]*entity.Run, error)
}

type automationServiceImpl struct {
	store   port.SettingsStore
	backend port.Backend
	runs    port.RunRepository
	notifier
	now func() time.Time
}

// NewAutomationService creates a new AutomationService
func NewAutomationService(
	store port.SettingsStore,
	backend port.Backend,
	runs port.RunRepository,
	d dispatcher.Dispatcher,
	logger Logger,
) AutomationService {
	return &automationServiceImpl{
		store:    store,
		backend:  backend,
		runs:     runs,
		notifier: notifier{dispatcher: d, logger: logger},
		now:      time.Now,
	}
}

func (s *automationServiceImpl) Run(ctx context.Context, action entity.Action, source entity.RunSource) (*AutomationOutcome, error) {
	if !action.IsValid() {
		return nil, entity.ErrUnknownAction
	}

	run := &entity.Run{Action: action, Source: source, StartedAt: s.now()}
	s.logger.Info("Running automation", "action", action.String(), "source", string(source))

	current, err := s.store.Load(ctx)
	if err != nil {
		message := action.FailureText(err.Error())
		if errors.Is(err, settings.ErrSettingsNotFound) {
			message = MsgSettingsNotFound
		}
		s.logger.Error("Failed to read settings", "action", action.String(), "error", err)
		return s.finish(ctx, run, entity.RunStatusError, message), nil
	}

	result, err := s.backend.Trigger(ctx, action, current)
	if err != nil {
		s.logger.Error("Automation request failed", "action", action.String(), "error", err)
		return s.finish(ctx, run, entity.RunStatusError, action.FailureText(err.Error())), nil
	}

	if !result.Succeeded() {
		s.logger.Error("Automation reported failure", "action", action.String(), "message", result.Message)
		return s.finish(ctx, run, entity.RunStatusError, action.FailureText(result.Message)), nil
	}

	s.logger.Info("Automation succeeded", "action", action.String(), "message", result.Message)
	return s.finish(ctx, run, entity.RunStatusSuccess, result.Message), nil
}

func (s *automationServiceImpl) finish(ctx context.Context, run *entity.Run, status entity.RunStatus, message string) *AutomationOutcome {
	run.Status = status
	run.Message = message
	run.FinishedAt = s.now()

	if err := s.runs.Create(ctx, run); err != nil {
		s.logger.Error("Failed to record run", "action", run.Action.String(), "error", err)
	}

	payload := map[string]interface{}{
		event.KeyAction: run.Action.String(),
		event.KeySource: string(run.Source),
	}
	if run.Succeeded() {
		return &AutomationOutcome{Run: run, Notice: s.notify(ctx, event.TypeAutomationSucceeded, infoNotice(message), payload)}
	}
	return &AutomationOutcome{Run: run, Notice: s.notify(ctx, event.TypeAutomationFailed, errorNotice(message), payload)}
}

func (s *automationServiceImpl) RecentRuns(ctx context.Context, limit int) ([]*entity.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	return s.runs.ListRecent(ctx, limit)
}

func (s *automationServiceImpl) LastRuns(ctx context.Context) (map[entity.Action]*entity.Run, error) {
	out := make(map[entity.Action]*entity.Run, len(entity.Actions))
	for _, action := range entity.Actions {
		run, err := s.runs.LastByAction(ctx, action)
		if err != nil {
			return nil, fmt.Errorf("last run of %s: %w", action, err)
		}
		if run != nil {
			out[action] = run
		}
	}
	return out, nil
}
