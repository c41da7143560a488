package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xiaot623/legalflow/internal/app"
	transport "github.com/xiaot623/legalflow/internal/transport/http"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			defer logger.Sync()

			logger.Info("starting legalflow",
				zap.Int("http_port", cfg.Server.HTTPPort),
				zap.String("database", cfg.Database.URL),
				zap.String("mode", cfg.Mode),
			)

			a, err := app.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			e := transport.NewServer(a.Service, logger.Named("http"))

			errCh := make(chan error, 1)
			go func() {
				addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
				if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()
			logger.Info("API started", zap.Int("port", cfg.Server.HTTPPort))

			// Wait for interrupt signal
			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-quit:
			case err := <-errCh:
				return fmt.Errorf("failed to start server: %w", err)
			}

			logger.Info("shutting down legalflow")
			ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			if err := e.Shutdown(ctx); err != nil {
				logger.Error("server forced to shutdown", zap.Error(err))
			}
			return nil
		},
	}
}
