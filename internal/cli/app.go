package cli

import (
	"fmt"
	"log/slog"

	"github.com/eshaffer321/reconcile-backend/internal/application/service"
	"github.com/eshaffer321/reconcile-backend/internal/domain/matcher"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/config"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/logging"
	"github.com/eshaffer321/reconcile-backend/internal/infrastructure/storage"
)

// App holds the storage and services shared by the commands.
type App struct {
	Store            *storage.Storage
	Reconciliations  *service.ReconciliationService
	Payments         *service.PaymentService
	BankTransactions *service.BankTransactionService
	Logger           *slog.Logger
}

// LoadConfig loads the given file, or config.yaml with an environment
// fallback when path is empty.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadOrEnv(), nil
	}
	return config.Load(path)
}

// NewLogger builds the command logger; verbose forces debug level.
func NewLogger(cfg *config.Config, system string, verbose bool) *slog.Logger {
	loggingCfg := cfg.Observability.Logging
	if verbose {
		loggingCfg.Level = "debug"
	}
	return logging.NewLoggerWithSystem(loggingCfg, system)
}

// OpenApp opens the database and wires the services. Callers must Close it.
func OpenApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	store, err := storage.NewStorage(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Storage.DatabasePath, err)
	}

	matcherCfg := matcher.Config{DateToleranceDays: cfg.Reconciliation.DateToleranceDays}

	return &App{
		Store:            store,
		Reconciliations:  service.NewReconciliationService(store, matcherCfg, logger),
		Payments:         service.NewPaymentService(store, logger),
		BankTransactions: service.NewBankTransactionService(store, logger),
		Logger:           logger,
	}, nil
}

// Close releases the database.
func (a *App) Close() error {
	return a.Store.Close()
}
