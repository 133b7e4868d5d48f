package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/garyjia/invoicedesk/internal/container"
	"github.com/garyjia/invoicedesk/internal/domain/entity"
)

var runCmd = &cobra.Command{
	Use:   "run <action>",
	Short: "Run one automation action now",
	Long: `Post the saved settings to one backend automation endpoint and print
the result. The run is recorded in the run history.

Actions: ` + actionList(),
	Args:      cobra.ExactArgs(1),
	ValidArgs: validActions(),
	RunE:      runAction,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func validActions() []string {
	names := make([]string, 0, len(entity.Actions))
	for _, a := range entity.Actions {
		names = append(names, a.String())
	}
	return names
}

func actionList() string {
	return strings.Join(validActions(), ", ")
}

func runAction(cmd *cobra.Command, args []string) error {
	action, err := entity.ParseAction(args[0])
	if err != nil {
		return fmt.Errorf("%w (valid: %s)", err, actionList())
	}

	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

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

	outcome, err := c.Services().Automation.Run(ctx, action, entity.RunSourceCLI)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), outcome.Notice.Text())
	if !outcome.Succeeded() {
		return fmt.Errorf("%s failed", action.Label())
	}
	return nil
}
