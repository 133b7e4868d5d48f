package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/container"
	httpapi "github.com/garyjia/invoicedesk/internal/interfaces/http"
	"github.com/garyjia/invoicedesk/pkg/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the automation shell",
	Long: `Start the HTTP server with the navigation shell and JSON API, the
native picker host and, when enabled, the daily scheduler.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("Starting invoicedesk",
		zap.String("version", Version),
		zap.String("addr", cfg.Addr()),
		zap.Bool("scheduler", cfg.Scheduler.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := container.NewContainer(cfg, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.Start(ctx); err != nil {
		return err
	}
	if err := c.StartWorkers(); err != nil {
		return err
	}

	services := c.Services()
	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}, httpapi.Deps{
		Automation: services.Automation,
		Settings:   services.Settings,
		Preview:    services.Preview,
		Navigator:  c.Navigator(),
		Alerts:     c.Alerts(),
		Store:      c.SettingsStore(),
		Health:     c.HealthSummary,
	}, utils.NewKVLogger(logger))

	// blocks until a signal cancels ctx
	if err := server.Start(ctx); err != nil {
		return err
	}

	logger.Info("Server exited successfully")
	return nil
}
