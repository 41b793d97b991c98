package main

import (
	"github.com/spf13/cobra"

	"kanba/internal/adapter/postgres"
	"kanba/internal/app"
)

// NewSweepCmd creates the sweep-sessions subcommand.
func NewSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep-sessions",
		Short: "Delete expired sessions once and exit",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
}

func runSweep(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	sessions := app.NewSessionManager(postgres.NewSessionRepo(db), app.WithSessionLogger(logger))
	n, err := sessions.SweepExpired(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Removed %d expired sessions\n", n)
	return nil
}
