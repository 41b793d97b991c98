package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	adapthttp "kanba/internal/adapter/http"
	"kanba/internal/adapter/openai"
	"kanba/internal/adapter/postgres"
	"kanba/internal/app"
	"kanba/internal/config"
	"kanba/internal/observability"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		Long: `Apply pending migrations, then serve the API, the metrics and probe
endpoints and the expired-session sweeper until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hasher := app.NewPasswordHasher()
	if err := hasher.Init(); err != nil {
		return err
	}

	db, err := postgres.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	m, err := postgres.NewMigrator(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	err = m.Up()
	_ = m.Close()
	if err != nil {
		return err
	}

	var (
		obs     *observability.Server
		metrics *observability.Metrics
	)
	if cfg.MetricsAddr != "" {
		obs = observability.NewServer(cfg.MetricsAddr, db.Ping)
		metrics = obs.Metrics()
	}

	sessions := app.NewSessionManager(postgres.NewSessionRepo(db), app.WithSessionLogger(logger))
	auth := app.NewAuthService(db, sessions, hasher, logger)
	board := app.NewBoardService(db, db)
	chat := app.NewChatService(openai.New(cfg.OpenAIBaseURL, cfg.OpenAIModel), cfg.OpenAIAPIKey)

	api := adapthttp.New(auth, board, chat, adapthttp.Config{
		FrontendURL: cfg.FrontendURL,
		Production:  cfg.Production(),
	}).WithLogger(logger).WithMetrics(metrics)

	if cfg.SSOEnabled() {
		sso, err := newSSO(ctx, cfg)
		if err != nil {
			return err
		}
		api.WithSSO(sso)
	}

	httpSrv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	sweeper := app.NewSweeper(sessions, cfg.SweepInterval, logger, metrics.SessionsRemoved)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api server listening", "addr", cfg.Addr, "environment", cfg.Environment)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return oops.Code("HTTP_SERVE_FAILED").With("addr", cfg.Addr).Wrap(err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("shutting down")
		return httpSrv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return sweeper.Run(gctx)
	})

	if obs != nil {
		errCh, err := obs.Start()
		if err != nil {
			stop()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			select {
			case err, ok := <-errCh:
				if ok {
					return err
				}
				return nil
			case <-gctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return obs.Stop(shutdownCtx)
			}
		})
	}

	if err := g.Wait(); err != nil {
		slog.Error("server stopped with error", "error", err)
		return err
	}
	return nil
}

func newSSO(ctx context.Context, cfg *config.Config) (*adapthttp.SSOConfig, error) {
	discoverCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	return adapthttp.NewSSOConfig(discoverCtx, cfg.OIDCIssuer, cfg.OIDCClientID,
		cfg.OIDCClientSecret, cfg.OIDCRedirectURL, cfg.OIDCName)
}
