package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tokogudang/backoffice/internal/adapter/http/handler"
	"github.com/tokogudang/backoffice/internal/adapter/http/middleware"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	LedgerHandler         *handler.LedgerHandler
	DebtHandler           *handler.DebtHandler
	StockHandler          *handler.StockHandler
	OperationHandler      *handler.OperationHandler
	ReconciliationHandler *handler.ReconciliationHandler
	AuditHandler          *handler.AuditHandler
	HealthHandler         *handler.HealthHandler
	IdempotencyStore      usecase.IdempotencyStore
	RateLimiter           *middleware.RateLimiter
	Logger                zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Metrics)
	r.Use(middleware.Recovery)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Cash accounts and the entry chain
		r.Route("/accounts", func(r chi.Router) {
			r.Post("/", cfg.LedgerHandler.CreateAccount)
			r.Get("/", cfg.LedgerHandler.ListAccounts)
			r.Get("/{id}", cfg.LedgerHandler.GetAccount)
			r.Get("/{id}/entries", cfg.LedgerHandler.ListEntries)
			r.Get("/{id}/check", cfg.ReconciliationHandler.CheckAccount)
		})

		r.Route("/entries", func(r chi.Router) {
			r.Post("/", cfg.LedgerHandler.AppendEntry)
			r.Put("/{id}", cfg.LedgerHandler.UpdateEntry)
			r.Delete("/{id}", cfg.LedgerHandler.ReverseEntry)
		})

		r.Post("/transfers", cfg.LedgerHandler.Transfer)

		// Debts are mutated through operations, read here
		r.Route("/debts", func(r chi.Router) {
			r.Get("/", cfg.DebtHandler.List)
			r.Get("/{id}", cfg.DebtHandler.Get)
			r.Get("/{id}/payments", cfg.DebtHandler.ListPayments)
			r.Get("/{id}/check", cfg.ReconciliationHandler.CheckDebt)
		})

		// Stock is mutated through operations, read here
		r.Route("/stock", func(r chi.Router) {
			r.Get("/position", cfg.StockHandler.GetPosition)
			r.Get("/movements", cfg.StockHandler.ListMovements)
			r.Get("/check", cfg.ReconciliationHandler.CheckStock)
		})

		r.Route("/consignments", func(r chi.Router) {
			r.Get("/", cfg.OperationHandler.ListConsignments)
			r.Get("/{id}", cfg.OperationHandler.GetConsignment)
		})

		r.Get("/transactions/{id}", cfg.OperationHandler.GetTransaction)

		// Coordinated multi-step operations
		r.Post("/operations/{name}", cfg.OperationHandler.Run)

		// Reconciliation and flag triage
		r.Route("/reconciliation", func(r chi.Router) {
			r.Get("/report", cfg.ReconciliationHandler.Report)
		})

		r.Route("/flags", func(r chi.Router) {
			r.Get("/", cfg.ReconciliationHandler.ListFlags)
			r.Post("/{id}/resolve", cfg.ReconciliationHandler.ResolveFlag)
		})

		// Audit trail
		r.Route("/audit", func(r chi.Router) {
			r.Get("/", cfg.AuditHandler.List)
			r.Get("/{resourceType}/{resourceID}", cfg.AuditHandler.ByResource)
		})
	})

	return r
}
