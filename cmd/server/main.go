package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/cashledger/internal/adapter/http"
	"github.com/iho/cashledger/internal/adapter/http/handler"
	"github.com/iho/cashledger/internal/adapter/http/middleware"
	"github.com/iho/cashledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/cashledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/cashledger/internal/adapter/repository/redis"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/auth"
	"github.com/iho/cashledger/internal/infrastructure/config"
	"github.com/iho/cashledger/internal/infrastructure/eventpublisher"
	"github.com/iho/cashledger/internal/infrastructure/logger"
	"github.com/iho/cashledger/internal/infrastructure/metrics"
	"github.com/iho/cashledger/internal/infrastructure/postgres"
	"github.com/iho/cashledger/internal/infrastructure/redis"
	"github.com/iho/cashledger/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

// app is the wired service.
type app struct {
	router    http.Handler
	publisher *eventpublisher.EventPublisher
	limiter   *middleware.RateLimiter
	closers   []func()
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	workers, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	if a.publisher != nil {
		go func() {
			if err := a.publisher.Start(workers); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}
	if a.limiter != nil {
		go a.limiter.RunCleanup(workers, 10*time.Minute, time.Hour)
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      a.router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.Storage).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

// buildApp wires storage, caches, use cases and the router from cfg.
func buildApp(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	a := &app{}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewWithRegistry(reg)

	branchList := seedBranches(cfg.Branches)
	checks := map[string]handler.Pinger{}

	var (
		store    usecase.Store
		branches usecase.BranchDirectory
		retrier  usecase.Retrier
	)

	switch cfg.Storage {
	case config.StorageMemory:
		store = memory.NewStore().Ports()
		branches = memory.NewBranchDirectory(branchList...)
		log.Warn().Msg("using in-memory storage; data is lost on restart")

	case config.StoragePostgres:
		if cfg.RunMigrations {
			if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
				return nil, fmt.Errorf("run migrations: %w", err)
			}
		}

		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL: cfg.DatabaseURL,
			MaxConns:    cfg.DatabaseMaxConns,
			MinConns:    cfg.DatabaseMinConns,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		checks["postgres"] = pool
		log.Info().Msg("connected to postgres")

		directory := postgresRepo.NewBranchDirectory(pool)
		for _, b := range branchList {
			if err := directory.UpsertBranch(ctx, b); err != nil {
				a.close()
				return nil, fmt.Errorf("seed branch %s: %w", b.ID, err)
			}
		}

		store = postgresRepo.Ports(pool, cfg.EventsEnabled)
		branches = directory
		retrier = postgresRepo.NewRetrier(postgresRepo.RetrierConfig{
			MaxRetries:      cfg.RetryMaxAttempts,
			InitialInterval: cfg.RetryInitialInterval,
			MaxInterval:     cfg.RetryMaxInterval,
			MaxElapsedTime:  cfg.DatabaseTimeout,
		}, log, m)

	default:
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	var idempotency usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		client, err := redis.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { client.Close() })
		checks["redis"] = redis.NewChecker(client)
		log.Info().Msg("connected to redis")

		idempotency = redisRepo.NewIdempotencyStore(client, m)
		branches = usecase.NewCachedBranchDirectory(branches, redisRepo.NewCache(client, m), cfg.BranchCacheTTL, log)
	}

	opts := usecase.Options{
		IDGen:   postgresRepo.NewULIDGenerator(),
		Retrier: retrier,
		Logger:  log,
		Metrics: m,
	}
	tracker := usecase.NewBankBalanceTracker(store, opts)
	banks := usecase.NewBankUseCase(store, opts)
	cashBook := usecase.NewCashBookUseCase(store, branches, opts)
	registers := usecase.NewCashRegisterUseCase(store, branches, cashBook, tracker, opts)
	cheques := usecase.NewChequeUseCase(store, tracker, opts)
	reconciler := usecase.NewReconciliationUseCase(store, banks, cashBook)

	if cfg.EventsEnabled {
		a.publisher = eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: store.Outbox,
			Publisher:  eventpublisher.NewLogPublisher(log),
			Logger:     log,
			Metrics:    m,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
			Retention:  cfg.OutboxRetention,
		})
	}

	branchIDs := make([]string, len(branchList))
	for i, b := range branchList {
		branchIDs[i] = b.ID
	}

	routerCfg := httpAdapter.RouterConfig{
		BankHandler:           handler.NewBankHandler(banks),
		RegisterHandler:       handler.NewRegisterHandler(registers, usecase.NewSaleRecorder(registers)),
		ChequeHandler:         handler.NewChequeHandler(cheques),
		CashBookHandler:       handler.NewCashBookHandler(cashBook),
		ReconciliationHandler: handler.NewReconciliationHandler(reconciler, branchIDs),
		AuditHandler:          handler.NewAuditHandler(usecase.NewAuditUseCase(store)),
		HealthHandler:         handler.NewHealthHandler(checks),
		Logger:                log,
		Metrics:               m,
		MetricsHandler:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		IdempotencyStore:      idempotency,
		IdempotencyTTL:        cfg.IdempotencyTTL,
	}
	if cfg.AuthEnabled {
		routerCfg.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}
	if cfg.RateLimitRPS > 0 {
		a.limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = a.limiter
	}

	a.router = httpAdapter.NewRouter(routerCfg)
	return a, nil
}

// seedBranches turns the configured id:name pairs into branches sorted by id.
func seedBranches(pairs map[string]string) []domain.Branch {
	out := make([]domain.Branch, 0, len(pairs))
	for id, name := range pairs {
		out = append(out, domain.Branch{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
