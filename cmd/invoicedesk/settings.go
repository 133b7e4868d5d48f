package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/invoicedesk/internal/domain/settings"
	"github.com/garyjia/invoicedesk/internal/infrastructure/storage"
)

const maskedPassword = "********"

var showPassword bool

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect the settings file",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved settings",
	Long: `Print the settings document the automation actions send to the
backend. Defaults are printed when no settings file exists yet.`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

func init() {
	settingsShowCmd.Flags().BoolVar(&showPassword, "show-password", false, "Print the email password instead of a mask")
	settingsCmd.AddCommand(settingsShowCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	store := storage.NewJSONSettingsStore(cfg.Settings.Path, logger)
	current, err := store.Load(cmd.Context())
	switch {
	case errors.Is(err, settings.ErrSettingsNotFound):
		fmt.Fprintf(cmd.ErrOrStderr(), "%s does not exist yet; showing defaults\n", store.Path())
		d := settings.Defaults()
		current = &d
	case err != nil:
		return err
	}

	out := current.Clone()
	if !showPassword && out.EmailPassword != "" {
		out.EmailPassword = maskedPassword
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
