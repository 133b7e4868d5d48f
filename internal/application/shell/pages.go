package shell

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"time"

	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/application/service"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
	"github.com/garyjia/invoicedesk/internal/domain/preview"
	"github.com/garyjia/invoicedesk/internal/domain/settings"
	"github.com/garyjia/invoicedesk/internal/worker"
)

// RecentRunsShown is how many runs the automation page lists
const RecentRunsShown = 10

// DashboardPage is the data the dashboard fragment renders
type DashboardPage struct {
	Table    template.HTML
	TimeLeft string // empty when no settings file exists
	Notice   *service.Notice
}

// ActionButton is one automation action with its latest result
type ActionButton struct {
	Action  entity.Action
	Label   string
	LastRun *entity.Run
}

// AutomationPage is the data the automation fragment renders
type AutomationPage struct {
	Actions []ActionButton
	Runs    []*entity.Run
}

// SettingsPage is the data the settings fragment renders
type SettingsPage struct {
	Settings settings.Settings
}

// DashboardInitializer loads the data preview and the first countdown value
func DashboardInitializer(previews service.PreviewService, store port.SettingsStore, now func() time.Time) Initializer {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context) (any, error) {
		page := &DashboardPage{Table: preview.Render(nil)}

		res, err := previews.LoadHead(ctx)
		switch {
		case err == nil:
			page.Table = res.HTML
			page.Notice = res.Notice
		case errors.Is(err, service.ErrNoDataFile):
		default:
			if res != nil {
				page.Notice = res.Notice
			}
			return page, fmt.Errorf("load data preview: %w", err)
		}

		s, err := store.Load(ctx)
		if err != nil {
			if errors.Is(err, settings.ErrSettingsNotFound) {
				return page, nil
			}
			return page, fmt.Errorf("load schedule time: %w", err)
		}
		hour, minute, err := s.ScheduleClock()
		if err != nil {
			return page, err
		}
		page.TimeLeft = worker.FormatTimeLeft(worker.TimeLeft(now(), hour, minute))
		return page, nil
	}
}

// AutomationInitializer lists the actions with their last outcome and the
// most recent runs
func AutomationInitializer(automation service.AutomationService) Initializer {
	return func(ctx context.Context) (any, error) {
		page := &AutomationPage{Actions: make([]ActionButton, 0, len(entity.Actions))}

		last, err := automation.LastRuns(ctx)
		if err != nil {
			last = nil
		}
		for _, a := range entity.Actions {
			page.Actions = append(page.Actions, ActionButton{Action: a, Label: a.Label(), LastRun: last[a]})
		}
		if err != nil {
			return page, err
		}

		page.Runs, err = automation.RecentRuns(ctx, RecentRunsShown)
		return page, err
	}
}

// SettingsInitializer reads the stored settings into a fresh draft each time
// the page opens
func SettingsInitializer(svc service.SettingsService) Initializer {
	return func(ctx context.Context) (any, error) {
		s, err := svc.Reload(ctx)
		if err != nil {
			return &SettingsPage{Settings: settings.Defaults()}, err
		}
		return &SettingsPage{Settings: s}, nil
	}
}
