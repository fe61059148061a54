package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/calliope-studio/portal/internal/config"
	"github.com/calliope-studio/portal/internal/db"
	"github.com/calliope-studio/portal/internal/engine"
	"github.com/calliope-studio/portal/internal/httpapi"
	"github.com/calliope-studio/portal/internal/service"
	"github.com/spf13/cobra"
)

func newServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the portal HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if err := cfg.ValidateForServe(); err != nil {
				return err
			}
			logger := newLogger(cfg.Logging.Level)

			database, err := db.OpenDB(cfg.Database.Path)
			if err != nil {
				return err
			}
			defer database.Close()

			uow := db.NewSQLiteUnitOfWork(database)
			eng := engine.New(engine.NewLogTransitionObserver(os.Stderr))
			useCaseLog := service.NewLogUseCaseObserver(os.Stderr)

			srv, err := httpapi.NewServer(
				httpapi.Config{
					WebhookSecret:      cfg.Webhook.Secret,
					SignatureTolerance: cfg.SignatureTolerance(),
					Logger:             logger,
				},
				service.NewProjectService(database, uow, eng, useCaseLog),
				service.NewRequirementService(database, uow, eng, useCaseLog),
				service.NewFormService(database, uow, eng, useCaseLog),
				service.NewPaymentWebhookService(uow, eng, useCaseLog),
			)
			if err != nil {
				return err
			}

			httpServer := &http.Server{
				Addr:              cfg.Server.Addr,
				Handler:           srv.Router(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				logger.Info("portal listening", "addr", cfg.Server.Addr)
				errCh <- httpServer.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				logger.Info("shutting down")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := httpServer.Shutdown(shutdownCtx); err != nil {
					return fmt.Errorf("shutdown: %w", err)
				}
				return nil
			}
		},
	}
}
