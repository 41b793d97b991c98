package main

import (
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"kanba/internal/config"
	"kanba/internal/logging"
)

// NewRootCmd creates the root command for the kanba CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kanba",
		Short: "kanba - collaborative kanban boards",
		Long: `kanba serves the REST API behind the kanban frontend: cookie
sessions, projects, columns, tasks and the AI chat proxy.`,
		SilenceUsage: true,
	}

	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSweepCmd())

	return cmd
}

// loadConfig reads and validates the configuration visible to cmd and
// installs the default logger.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}

	logger := logging.Setup("kanba", version, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
