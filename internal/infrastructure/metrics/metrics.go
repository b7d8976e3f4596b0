package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Register metrics
	RegistersOpened      prometheus.Counter
	RegistersClosed      *prometheus.CounterVec
	RegisterDeposits     prometheus.Counter
	RegisterTransactions *prometheus.CounterVec
	RegisterDiscrepancy  prometheus.Histogram

	// Cheque metrics
	ChequeTransitions *prometheus.CounterVec
	ChequeAmount      prometheus.Histogram

	// Ledger metrics
	CashBookEntries   prometheus.Counter
	BankLedgerEntries *prometheus.CounterVec

	// Operation metrics
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	RetryAttempts     prometheus.Counter

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Redis metrics
	RedisOperations *prometheus.CounterVec

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Audit and outbox metrics
	AuditLogsCreated *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates all metrics and registers them on reg.
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RegistersOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "cashledger_registers_opened_total",
			Help: "Total number of cash registers opened",
		}),
		RegistersClosed: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_registers_closed_total",
				Help: "Total number of cash registers closed by resulting status",
			},
			[]string{"status"},
		),
		RegisterDeposits: f.NewCounter(prometheus.CounterOpts{
			Name: "cashledger_register_deposits_total",
			Help: "Total number of register deposits to a bank",
		}),
		RegisterTransactions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_register_transactions_total",
				Help: "Total register transactions by type",
			},
			[]string{"type"},
		),
		RegisterDiscrepancy: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashledger_register_discrepancy_abs",
			Help:    "Absolute discrepancy at register close",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000},
		}),

		ChequeTransitions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_cheque_transitions_total",
				Help: "Total cheque status transitions by target status",
			},
			[]string{"status"},
		),
		ChequeAmount: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashledger_cheque_amount",
			Help:    "Amounts of received cheques",
			Buckets: []float64{100, 1000, 10000, 100000, 1000000},
		}),

		CashBookEntries: f.NewCounter(prometheus.CounterOpts{
			Name: "cashledger_cash_book_entries_total",
			Help: "Total cash book entries appended",
		}),
		BankLedgerEntries: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_bank_ledger_entries_total",
				Help: "Total bank ledger entries by side",
			},
			[]string{"side"},
		),

		OperationDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cashledger_operation_duration_seconds",
				Help:    "Duration of engine operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		OperationErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_operation_errors_total",
				Help: "Total failed engine operations by error kind",
			},
			[]string{"operation", "kind"},
		),
		RetryAttempts: f.NewCounter(prometheus.CounterOpts{
			Name: "cashledger_retry_attempts_total",
			Help: "Total retries after serialization failures or deadlocks",
		}),

		HTTPRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cashledger_http_duration_seconds",
				Help:    "HTTP request duration",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: f.NewGauge(prometheus.GaugeOpts{
			Name: "cashledger_http_requests_in_flight",
			Help: "HTTP requests currently being processed",
		}),

		RedisOperations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_redis_operations_total",
				Help: "Total Redis operations",
			},
			[]string{"operation", "status"},
		),

		AuthFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_auth_failures_total",
				Help: "Total authentication failures",
			},
			[]string{"reason"},
		),

		AuditLogsCreated: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_audit_logs_created_total",
				Help: "Total audit logs created",
			},
			[]string{"action"},
		),
		EventsPublished: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_events_published_total",
				Help: "Total outbox events handled by the publisher",
			},
			[]string{"event_type", "status"},
		),
	}
}
