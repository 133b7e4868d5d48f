package container

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/application/alert"
	"github.com/garyjia/invoicedesk/internal/application/dispatcher"
	"github.com/garyjia/invoicedesk/internal/application/port"
	"github.com/garyjia/invoicedesk/internal/application/shell"
	"github.com/garyjia/invoicedesk/internal/config"
	"github.com/garyjia/invoicedesk/internal/infrastructure/worker"
)

// Container manages all application dependencies and lifecycle.
// Components are initialized in dependency order and torn down in reverse.
type Container struct {
	config *config.Config
	logger *zap.Logger

	// Infrastructure - Data
	database *DatabaseBundle

	// Infrastructure - External
	external *ExternalBundle

	// Application
	dispatcher dispatcher.Dispatcher
	alerts     *alert.Feed
	picker     *PickerBundle
	services   *ServiceBundle
	navigator  *shell.Navigator

	// Workers
	workers *worker.WorkerManager

	// Lifecycle
	mu     sync.RWMutex
	ctx    context.Context
	cancel context.CancelFunc
	ready  atomic.Bool
	closed atomic.Bool
}

// HealthStatus represents the health of all components.
type HealthStatus struct {
	Overall    bool                       `json:"overall"`
	Components map[string]ComponentHealth `json:"components"`
}

// ComponentHealth represents health of a single component.
type ComponentHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// NewContainer creates a new container from configuration.
// It does not initialize components - call Start() to initialize.
func NewContainer(cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Container{
		config: cfg,
		logger: logger,
	}, nil
}

// Start initializes all components. Components are initialized in
// dependency order:
// 1. Database and run repository
// 2. Settings store and backend client
// 3. Event dispatcher and alert feed
// 4. Picker bridge
// 5. Application services
// 6. Navigation shell
// Workers are created but only started by StartWorkers.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container has been closed")
	}

	if c.ready.Load() {
		return fmt.Errorf("container already started")
	}

	c.ctx, c.cancel = context.WithCancel(ctx)
	c.logger.Info("Starting container initialization")

	// Step 1: database
	db, err := ProvideDatabase(&c.config.Database, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	c.database = db
	c.logger.Info("Database initialized")

	// Step 2: external collaborators
	external, err := ProvideExternal(c.config, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize external clients: %w", err)
	}
	c.external = external
	c.logger.Info("External clients initialized",
		zap.String("settings_path", c.config.Settings.Path),
		zap.String("backend_url", c.config.Backend.BaseURL),
	)

	// Step 3: dispatcher
	c.dispatcher, c.alerts, err = ProvideDispatcher(c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize dispatcher: %w", err)
	}
	c.logger.Info("Dispatcher initialized")

	// Step 4: picker
	c.picker = ProvidePicker(c.dispatcher, c.logger)

	// Step 5: services
	c.services, err = ProvideServices(&ServiceDeps{
		Store:      c.external.Store,
		Backend:    c.external.Backend,
		Runs:       c.database.Runs,
		Picker:     c.picker.Bridge,
		Dispatcher: c.dispatcher,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}
	c.logger.Info("Application services initialized")

	// Step 6: shell
	c.navigator, err = ProvideNavigator(c.services, c.external.Store, c.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize navigation shell: %w", err)
	}

	c.workers, err = ProvideWorkers(&WorkerDeps{
		PickerHost: c.picker.Host,
		Store:      c.external.Store,
		Runner:     c.services.Automation,
		Scheduler:  &c.config.Scheduler,
		Logger:     c.logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize workers: %w", err)
	}

	c.ready.Store(true)
	c.logger.Info("Container started successfully")

	return nil
}

// StartWorkers starts the picker host and the scheduler. One-shot commands
// skip this.
func (c *Container) StartWorkers() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ready.Load() {
		return fmt.Errorf("container not started")
	}
	if err := c.workers.StartAll(c.ctx); err != nil {
		return fmt.Errorf("failed to start workers: %w", err)
	}
	c.logger.Info("Workers started", zap.Int("count", c.workers.GetWorkerCount()))
	return nil
}

// Close gracefully shuts down all components in reverse order.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed.Load() {
		return fmt.Errorf("container already closed")
	}

	c.logger.Info("Closing container")

	var errs []error

	if c.cancel != nil {
		c.cancel()
	}

	// Workers
	if c.workers != nil && c.workers.IsRunning() {
		if err := c.workers.StopAll(); err != nil {
			c.logger.Error("Failed to stop workers", zap.Error(err))
			errs = append(errs, fmt.Errorf("stop workers: %w", err))
		} else {
			c.logger.Info("Workers stopped")
		}
	}

	// Dispatcher
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(); err != nil {
			c.logger.Error("Failed to close dispatcher", zap.Error(err))
			errs = append(errs, fmt.Errorf("close dispatcher: %w", err))
		} else {
			c.logger.Info("Dispatcher closed")
		}
	}

	// Database
	if c.database != nil {
		if err := c.database.Raw.Close(); err != nil {
			c.logger.Error("Failed to close database", zap.Error(err))
			errs = append(errs, fmt.Errorf("close database: %w", err))
		} else {
			c.logger.Info("Database closed")
		}
	}

	c.closed.Store(true)
	c.ready.Store(false)

	if len(errs) > 0 {
		c.logger.Error("Container closed with errors", zap.Int("error_count", len(errs)))
		return errors.Join(errs...)
	}

	c.logger.Info("Container closed successfully")
	return nil
}

// Ready returns true when all components are initialized.
func (c *Container) Ready() bool {
	return c.ready.Load()
}

// Health returns health status of all components.
func (c *Container) Health(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Overall:    true,
		Components: make(map[string]ComponentHealth),
	}
	set := func(name string, h ComponentHealth) {
		status.Components[name] = h
		if !h.Healthy {
			status.Overall = false
		}
	}

	if c.database != nil {
		if err := c.database.Raw.PingContext(ctx); err != nil {
			set("database", ComponentHealth{Healthy: false, Message: fmt.Sprintf("ping failed: %v", err)})
		} else {
			set("database", ComponentHealth{Healthy: true})
		}
	} else {
		set("database", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	// a missing settings file is a normal first-run state
	if c.external != nil {
		msg := "present"
		if _, err := os.Stat(c.external.Store.Path()); errors.Is(err, os.ErrNotExist) {
			msg = "not created yet"
		}
		set("settings", ComponentHealth{Healthy: true, Message: msg})
	} else {
		set("settings", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.workers != nil {
		set("workers", ComponentHealth{
			Healthy: c.workers.IsRunning(),
			Message: strings.Join(c.workers.Names(), ", "),
		})
	} else {
		set("workers", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	if c.dispatcher != nil {
		set("dispatcher", ComponentHealth{Healthy: true})
	} else {
		set("dispatcher", ComponentHealth{Healthy: false, Message: "not initialized"})
	}

	return status
}

// HealthSummary flattens Health for the HTTP health check.
func (c *Container) HealthSummary(ctx context.Context) (bool, map[string]string) {
	status := c.Health(ctx)
	out := make(map[string]string, len(status.Components))
	for name, h := range status.Components {
		switch {
		case h.Healthy && h.Message == "":
			out[name] = "ok"
		case h.Healthy:
			out[name] = "ok: " + h.Message
		default:
			out[name] = "down: " + h.Message
		}
	}
	return status.Overall, out
}

// Getters for accessing container components

// DB returns the transaction manager.
func (c *Container) DB() port.TransactionManager {
	return c.database.TransactionMgr
}

// SettingsStore returns the settings store.
func (c *Container) SettingsStore() port.SettingsStore {
	return c.external.Store
}

// Dispatcher returns the event dispatcher.
func (c *Container) Dispatcher() dispatcher.Dispatcher {
	return c.dispatcher
}

// Alerts returns the alert feed.
func (c *Container) Alerts() *alert.Feed {
	return c.alerts
}

// Services returns all application services.
func (c *Container) Services() *ServiceBundle {
	return c.services
}

// Navigator returns the navigation shell.
func (c *Container) Navigator() *shell.Navigator {
	return c.navigator
}

// Workers returns the worker manager.
func (c *Container) Workers() *worker.WorkerManager {
	return c.workers
}

// Logger returns the container's logger.
func (c *Container) Logger() *zap.Logger {
	return c.logger
}

// Config returns the container's configuration.
func (c *Container) Config() *config.Config {
	return c.config
}
