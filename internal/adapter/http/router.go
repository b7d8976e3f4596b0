package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/adapter/http/handler"
	"github.com/iho/cashledger/internal/adapter/http/middleware"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/auth"
	"github.com/iho/cashledger/internal/infrastructure/metrics"
	"github.com/iho/cashledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	BankHandler           *handler.BankHandler
	RegisterHandler       *handler.RegisterHandler
	ChequeHandler         *handler.ChequeHandler
	CashBookHandler       *handler.CashBookHandler
	ReconciliationHandler *handler.ReconciliationHandler
	AuditHandler          *handler.AuditHandler
	HealthHandler         *handler.HealthHandler

	Logger zerolog.Logger

	// Optional
	JWTManager       *auth.JWTManager
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.PropagateRequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	viewer := middleware.RequireRole(domain.RoleViewer)
	cashier := middleware.RequireRole(domain.RoleCashier)
	admin := middleware.RequireRole(domain.RoleAdmin)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager, cfg.Metrics))
		} else {
			r.Use(middleware.HeaderIdentity)
		}
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Limit)
		}
		if cfg.IdempotencyStore != nil {
			r.Use(middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap)
		}

		// Banks
		r.Route("/banks", func(r chi.Router) {
			h := cfg.BankHandler
			r.With(admin).Post("/", h.Create)
			r.With(viewer).Get("/", h.List)
			r.With(viewer).Get("/total-balance", h.TotalBalance)
			r.With(viewer).Get("/{id}", h.Get)
			r.With(admin).Put("/{id}", h.Update)
			r.With(admin).Post("/{id}/deactivate", h.Deactivate)
			r.With(viewer).Get("/{id}/ledger", h.Ledger)
			r.With(viewer).Get("/{id}/reconciliation", h.Reconcile)
		})

		// Cash registers
		r.Route("/registers", func(r chi.Router) {
			h := cfg.RegisterHandler
			r.With(cashier).Post("/", h.Open)
			r.With(viewer).Get("/", h.List)
			r.With(viewer).Get("/current", h.Current)
			r.With(viewer).Get("/summary", h.DailySummary)
			r.With(viewer).Get("/{id}", h.Get)
			r.With(admin).Delete("/{id}", h.Delete)
			r.With(viewer).Get("/{id}/transactions", h.Transactions)
			r.With(cashier).Post("/{id}/cash-in", h.CashIn)
			r.With(cashier).Post("/{id}/cash-out", h.CashOut)
			r.With(cashier).Post("/{id}/close", h.Close)
			r.With(cashier).Post("/{id}/deposit", h.Deposit)
		})
		r.With(cashier).Post("/sales", cfg.RegisterHandler.Sale)

		// Incoming cheques
		r.Route("/cheques", func(r chi.Router) {
			h := cfg.ChequeHandler
			r.With(cashier).Post("/", h.Create)
			r.With(viewer).Get("/", h.List)
			r.With(viewer).Get("/statistics", h.Statistics)
			r.With(viewer).Get("/{id}", h.Get)
			r.With(cashier).Put("/{id}", h.Update)
			r.With(admin).Delete("/{id}", h.Delete)
			r.With(viewer).Get("/{id}/ledger", h.LedgerEntries)
			r.With(cashier).Post("/{id}/deposit", h.Deposit)
			r.With(cashier).Post("/{id}/clear", h.Clear)
			r.With(cashier).Post("/{id}/bounce", h.Bounce)
			r.With(cashier).Post("/{id}/cancel", h.Cancel)
			r.With(cashier).Post("/{id}/reconcile", h.Reconcile)
		})

		// Cash book
		r.Route("/cash-book/{branchID}", func(r chi.Router) {
			h := cfg.CashBookHandler
			r.Use(viewer)
			r.Get("/", h.List)
			r.Get("/summary", h.Summary)
			r.Get("/verify", h.Verify)
		})

		// Reconciliation
		r.Route("/reconciliation", func(r chi.Router) {
			h := cfg.ReconciliationHandler
			r.Use(viewer)
			r.Get("/banks", h.Banks)
			r.Get("/cash-books", h.CashBooks)
			r.Post("/report", h.Report)
		})

		// Audit trail and event history
		r.With(admin).Get("/audit-logs", cfg.AuditHandler.List)
		r.With(admin).Get("/events/{aggregateType}/{aggregateID}", cfg.AuditHandler.Events)
	})

	return r
}
