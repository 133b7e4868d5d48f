// Package container provides dependency injection and lifecycle management
// for invoicedesk: ordered initialization and reverse-order teardown.
package container

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/alert"
	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/application/picker"
	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/application/service"
	"github.com/garyjia/invoicedesk/internal/application/shell"
	"github.com/garyjia/invoicedesk/internal/config"
	"github.com/garyjia/invoicedesk/internal/domain/navigation"
	"github.com/garyjia/invoicedesk/internal/infrastructure/external/backend"
	"github.com/garyjia/invoicedesk/internal/infrastructure/external/dialog"
	"github.com/garyjia/invoicedesk/internal/infrastructure/persistence/repository"
	"github.com/garyjia/invoicedesk/internal/infrastructure/persistence/sqlite"
	"github.com/garyjia/invoicedesk/internal/infrastructure/storage"
	infraWorker "github.com/garyjia/invoicedesk/internal/infrastructure/worker"
	"github.com/garyjia/invoicedesk/internal/interfaces/http/web"
	"github.com/garyjia/invoicedesk/internal/worker"
	"github.com/garyjia/invoicedesk/pkg/database"
	"github.com/garyjia/invoicedesk/pkg/utils"
)

// DatabaseBundle holds database-related components.
type DatabaseBundle struct {
	Raw            *database.DB
	TransactionMgr *sqlite.DB
	Runs           *repository.RunRepository
}

// ExternalBundle holds the collaborators outside the process.
type ExternalBundle struct {
	Store   *storage.JSONSettingsStore
	Backend *backend.Client
}

// PickerBundle holds both sides of the picker bridge.
type PickerBundle struct {
	Bridge *picker.Bridge
	Host   *picker.Host
}

// ProvideDatabase opens the run history database, applies pending
// migrations and creates the run repository.
func ProvideDatabase(cfg *config.DatabaseConfig, logger *zap.Logger) (*DatabaseBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	raw, err := database.New(database.Config{
		Path:            cfg.Path,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(raw, logger).RunMigrations(); err != nil {
		raw.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	txMgr := sqlite.NewDB(raw.DB, logger)
	return &DatabaseBundle{
		Raw:            raw,
		TransactionMgr: txMgr,
		Runs:           repository.NewRunRepository(txMgr, cfg.Retention, logger),
	}, nil
}

// ProvideExternal creates the settings store and the backend client.
func ProvideExternal(cfg *config.Config, logger *zap.Logger) (*ExternalBundle, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	return &ExternalBundle{
		Store:   storage.NewJSONSettingsStore(cfg.Settings.Path, logger),
		Backend: backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.UploadURL, cfg.Backend.Timeout, logger),
	}, nil
}

// ProvideDispatcher creates the event dispatcher and subscribes the alert feed.
func ProvideDispatcher(logger *zap.Logger) (dispatcher.Dispatcher, *alert.Feed, error) {
	if logger == nil {
		return nil, nil, fmt.Errorf("logger is required")
	}

	d := dispatcher.NewDispatcher(dispatcher.WithLogger(utils.NewKVLogger(logger)))
	feed := alert.NewFeed(alert.DefaultCapacity)
	feed.Subscribe(d)
	return d, feed, nil
}

// ProvidePicker creates the picker bridge and the host that runs the OS dialog.
func ProvidePicker(d dispatcher.Dispatcher, logger *zap.Logger) *PickerBundle {
	bridge := picker.NewBridge(logger)
	return &PickerBundle{
		Bridge: bridge,
		Host:   picker.NewHost(bridge, dialog.NewCommandDialog(logger), d, logger),
	}
}

// ServiceDeps holds dependencies required for creating services.
type ServiceDeps struct {
	Store      port.SettingsStore
	Backend    port.Backend
	Runs       port.RunRepository
	Picker     port.Picker
	Dispatcher dispatcher.Dispatcher
	Logger     *zap.Logger
}

// ServiceBundle groups all application services.
type ServiceBundle struct {
	Automation service.AutomationService
	Settings   service.SettingsService
	Preview    service.PreviewService
}

// ProvideServices creates the application services.
func ProvideServices(deps *ServiceDeps) (*ServiceBundle, error) {
	if deps == nil {
		return nil, fmt.Errorf("service dependencies are required")
	}
	if deps.Store == nil || deps.Backend == nil || deps.Runs == nil || deps.Picker == nil {
		return nil, fmt.Errorf("store, backend, run repository and picker are required")
	}
	if deps.Dispatcher == nil {
		return nil, fmt.Errorf("dispatcher is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	kv := utils.NewKVLogger(deps.Logger)
	return &ServiceBundle{
		Automation: service.NewAutomationService(deps.Store, deps.Backend, deps.Runs, deps.Dispatcher, kv),
		Settings:   service.NewSettingsService(deps.Store, deps.Picker, deps.Dispatcher, kv),
		Preview:    service.NewPreviewService(deps.Store, deps.Backend, deps.Dispatcher, kv),
	}, nil
}

// ProvideNavigator creates the shell navigator over the embedded page
// fragments and registers every page initializer.
func ProvideNavigator(services *ServiceBundle, store port.SettingsStore, logger *zap.Logger) (*shell.Navigator, error) {
	fragments, err := web.NewFragments()
	if err != nil {
		return nil, err
	}

	nav := shell.NewNavigator(fragments, logger)
	nav.Register(navigation.PageDashboard, shell.DashboardInitializer(services.Preview, store, time.Now))
	nav.Register(navigation.PageAutomation, shell.AutomationInitializer(services.Automation))
	nav.Register(navigation.PageSettings, shell.SettingsInitializer(services.Settings))
	return nav, nil
}

// WorkerDeps holds dependencies required for creating workers.
type WorkerDeps struct {
	PickerHost *picker.Host
	Store      port.SettingsStore
	Runner     worker.ActionRunner
	Scheduler  *config.SchedulerConfig
	Logger     *zap.Logger
}

// ProvideWorkers creates the worker manager with the picker host and, when
// enabled, the daily scheduler.
func ProvideWorkers(deps *WorkerDeps) (*infraWorker.WorkerManager, error) {
	if deps == nil {
		return nil, fmt.Errorf("worker dependencies are required")
	}
	if deps.PickerHost == nil {
		return nil, fmt.Errorf("picker host is required")
	}
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("scheduler config is required")
	}
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	manager := infraWorker.NewWorkerManager(deps.Logger)
	manager.Register(deps.PickerHost)

	if deps.Scheduler.Enabled {
		scheduler := worker.NewDailyScheduler(
			deps.Store,
			deps.Runner,
			deps.Scheduler.ParsedActions(),
			deps.Logger,
			worker.WithCheckInterval(deps.Scheduler.CheckInterval),
		)
		manager.Register(scheduler)
	}

	return manager, nil
}
