package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/garyjia/invoicedesk/internal/config"
	"github.com/garyjia/invoicedesk/pkg/utils"
)

var (
	Version    = "dev"
	configPath string
)

var rootCmd = &cobra.Command{
	Use:     "invoicedesk",
	Short:   "Invoice and report automation desk",
	Version: Version,
	Long: `invoicedesk serves the automation shell for the local invoice backend.
It keeps the settings file, runs the generate and send actions on demand or
once a day, and previews the client spreadsheet.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file (env INVOICEDESK_* and .env also apply)")
}

// bootstrap loads the configuration and builds the logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}
