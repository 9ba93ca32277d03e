package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eshaffer321/reconcile-backend/internal/api"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/config"
)

// shutdownTimeout bounds how long in-flight requests may take after a signal
const shutdownTimeout = 30 * time.Second

// RunServe runs the API server until SIGINT or SIGTERM.
func RunServe(cfg *config.Config, flags ServeFlags) error {
	logger := NewLogger(cfg, "api", flags.Verbose)

	app, err := OpenApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = app.Close() }()

	apiCfg := api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}
	if flags.Port != 0 {
		apiCfg.Port = flags.Port
	}

	server := api.NewServer(apiCfg, api.Services{
		Reconciliations:  app.Reconciliations,
		Payments:         app.Payments,
		BankTransactions: app.BankTransactions,
	}, logger)

	// Handle graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		<-quit
		logger.Info("received shutdown signal")

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", slog.Any("error", err))
		}
		close(done)
	}()

	logger.Info("reconciliation API configured",
		"database", cfg.Storage.DatabasePath,
		"date_tolerance_days", cfg.Reconciliation.DateToleranceDays,
	)

	// Start server (blocks until shutdown)
	if err := server.Start(); err != nil {
		return err
	}

	<-done
	logger.Info("server stopped")
	return nil
}
