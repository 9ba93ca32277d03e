package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/eshaffer321/reconcile-backend/internal/api/handlers"
	"github.com/eshaffer321/reconcile-backend/internal/api/middleware"
	"github.com/eshaffer321/reconcile-backend/internal/application/service"
)

// Config holds API server configuration.
type Config struct {
	Port           int
	AllowedOrigins []string
}

// DefaultConfig returns sensible defaults for the API server.
func DefaultConfig() Config {
	return Config{
		Port:           8080,
		AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
	}
}

// Services bundles the application services the API exposes. Routes for a
// nil service are not registered.
type Services struct {
	Reconciliations  *service.ReconciliationService
	Payments         *service.PaymentService
	BankTransactions *service.BankTransactionService
}

// Server is the HTTP API server.
type Server struct {
	config     Config
	router     chi.Router
	httpServer *http.Server
	logger     *slog.Logger
	services   Services
}

// NewServer creates a new API server.
func NewServer(cfg Config, services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		logger:   logger,
		services: services,
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// setupMiddleware configures global middleware.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.Recoverer)

	// CORS
	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowedOrigins = s.config.AllowedOrigins
	s.router.Use(middleware.CORS(corsConfig))

	// Request logging
	s.router.Use(middleware.Logging(s.logger))
}

// setupRoutes configures all API routes.
func (s *Server) setupRoutes() {
	// Health check (no /api prefix - for load balancers)
	healthHandler := handlers.NewHealthHandler()
	s.router.Get("/health", healthHandler.ServeHTTP)

	// API routes, all scoped to the caller's organization
	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireOrganization)

		// Reconciliation periods
		if s.services.Reconciliations != nil {
			h := handlers.NewReconciliationHandler(s.services.Reconciliations, s.logger)
			r.Route("/reconciliation", func(r chi.Router) {
				r.Post("/", h.Create)
				r.Get("/", h.List)
				r.Get("/unmatched/list", h.Unmatched)
				r.Get("/{id}", h.Get)
				r.Post("/{id}/match", h.Match)
				r.Put("/{id}/complete", h.Complete)
			})
		}

		// Payments
		if s.services.Payments != nil {
			h := handlers.NewPaymentsHandler(s.services.Payments, s.logger)
			r.Post("/payments", h.Create)
			r.Get("/payments", h.List)
			r.Get("/payments/{id}", h.Get)
		}

		// Bank transactions
		if s.services.BankTransactions != nil {
			h := handlers.NewBankTransactionsHandler(s.services.BankTransactions, s.logger)
			r.Post("/bank-transactions", h.Create)
			r.Post("/bank-transactions/import", h.Import)
			r.Get("/bank-transactions", h.List)
			r.Get("/bank-transactions/{id}", h.Get)
		}
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", "addr", addr)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")

	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() chi.Router {
	return s.router
}
