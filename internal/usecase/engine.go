package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/metrics"
)

// Store bundles the persistence ports the engine works against.
type Store struct {
	TxManager    TransactionManager
	Banks        BankRepository
	BankLedger   BankLedgerRepository
	CashBook     CashBookRepository
	Registers    CashRegisterRepository
	RegisterTxns CashRegisterTransactionRepository
	Cheques      ChequeRepository
	Outbox       OutboxRepository
	Audit        AuditRepository
	Locker       Locker
}

// Options carries the ambient collaborators shared by all use cases.
type Options struct {
	IDGen   IDGenerator
	Retrier Retrier
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	Clock   func() time.Time
}

type engine struct {
	store   Store
	retrier Retrier
	idGen   IDGenerator
	logger  zerolog.Logger
	metrics *metrics.Metrics
	clock   func() time.Time
}

func newEngine(store Store, opts Options) engine {
	clock := opts.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}

	return engine{
		store:   store,
		retrier: opts.Retrier,
		idGen:   opts.IDGen,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		clock:   clock,
	}
}

func (e *engine) now() time.Time {
	return e.clock()
}

// inTx runs fn in one transaction, committing only when fn succeeds. The
// whole attempt, including Begin, is re-run by the retrier on transient
// conflicts, so fn must derive everything from what it reads.
func (e *engine) inTx(ctx context.Context, fn func(tx Transaction) error) error {
	attempt := func() error {
		tx, err := e.store.TxManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := fn(tx); err != nil {
			return err
		}

		return tx.Commit(ctx)
	}

	if e.retrier == nil {
		return attempt()
	}

	return e.retrier.Retry(ctx, attempt)
}

func (e *engine) audit(
	ctx context.Context,
	tx Transaction,
	user domain.User,
	action domain.AuditAction,
	resourceType, resourceID string,
	before, after any,
) error {
	log := &domain.AuditLog{
		ID:           e.idGen.Generate(),
		UserID:       user.ID,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    RequestIDFromContext(ctx),
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    e.now(),
	}

	if err := e.store.Audit.CreateTx(ctx, tx, log); err != nil {
		return err
	}

	if e.metrics != nil {
		e.metrics.AuditLogsCreated.WithLabelValues(string(action)).Inc()
	}

	return nil
}

func (e *engine) emit(ctx context.Context, tx Transaction, aggregateType, aggregateID, eventType string, payload any) error {
	return e.store.Outbox.Create(ctx, tx, &domain.OutboxEvent{
		ID:            e.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       domain.MarshalState(payload),
		CreatedAt:     e.now(),
	})
}

// observe records duration and failure kind of an operation. Use it as
// defer e.observe("op", time.Now(), &err).
func (e *engine) observe(op string, start time.Time, errp *error) {
	if e.metrics == nil {
		return
	}

	e.metrics.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	if errp != nil && *errp != nil {
		e.metrics.OperationErrors.WithLabelValues(op, string(domain.KindOf(*errp))).Inc()
	}
}

// dateOr returns the calendar date of t, or today when t is zero.
func (e *engine) dateOr(t time.Time) time.Time {
	if t.IsZero() {
		return domain.DateOf(e.now())
	}
	return domain.DateOf(t)
}

type requestIDKey struct{}

// WithRequestID attaches a request id that audit rows will carry.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id set by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
