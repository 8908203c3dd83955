package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/tokogudang/backoffice/internal/adapter/http"
	"github.com/tokogudang/backoffice/internal/adapter/http/handler"
	"github.com/tokogudang/backoffice/internal/adapter/http/middleware"
	postgresRepo "github.com/tokogudang/backoffice/internal/adapter/repository/postgres"
	redisRepo "github.com/tokogudang/backoffice/internal/adapter/repository/redis"
	"github.com/tokogudang/backoffice/internal/infrastructure/config"
	"github.com/tokogudang/backoffice/internal/infrastructure/eventpublisher"
	"github.com/tokogudang/backoffice/internal/infrastructure/logger"
	"github.com/tokogudang/backoffice/internal/infrastructure/metrics"
	"github.com/tokogudang/backoffice/internal/infrastructure/postgres"
	"github.com/tokogudang/backoffice/internal/infrastructure/redis"
	"github.com/tokogudang/backoffice/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Logger = appLogger

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	debtRepo := postgresRepo.NewDebtRepository(pool)
	paymentRepo := postgresRepo.NewPaymentRepository(pool)
	stockRepo := postgresRepo.NewStockRepository(pool)
	consignmentRepo := postgresRepo.NewConsignmentRepository(pool)
	txnRepo := postgresRepo.NewTransactionRepository(pool)
	flagRepo := postgresRepo.NewFlagRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	retrier := postgresRepo.NewRetrier(appLogger)

	var outboxRepo usecase.OutboxRepository = postgresRepo.NewOutboxRepository(pool)
	if !cfg.OutboxEnabled {
		outboxRepo = postgresRepo.NewNullOutboxRepository()
	}

	appMetrics := metrics.New()

	// Use cases
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo, outboxRepo, idGen, retrier)
	debtUC := usecase.NewDebtUseCase(txManager, debtRepo, paymentRepo, txnRepo, idGen)
	stockUC := usecase.NewStockUseCase(txManager, stockRepo, outboxRepo, idGen, retrier)
	reportCache := redisRepo.NewCache(redisClient)
	reconUC := usecase.NewReconciliationUseCase(accountRepo, entryRepo, debtRepo, paymentRepo, stockRepo, flagRepo, reportCache)
	coordinator := usecase.NewCoordinator(
		ledgerUC, debtUC, stockUC,
		txManager, txnRepo, debtRepo, paymentRepo, consignmentRepo,
		entryRepo, flagRepo, auditRepo, idGen, appMetrics, appLogger,
	)

	// Router
	routerCfg := httpAdapter.RouterConfig{
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC),
		DebtHandler:           handler.NewDebtHandler(debtUC),
		StockHandler:          handler.NewStockHandler(stockUC),
		OperationHandler:      handler.NewOperationHandler(coordinator),
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC),
		AuditHandler:          handler.NewAuditHandler(auditRepo),
		HealthHandler:         handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:      idempotencyStore,
		Logger:                appLogger,
	}
	backgroundCtx, stopBackground := context.WithCancel(ctx)
	defer stopBackground()

	if cfg.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		routerCfg.RateLimiter = rateLimiter
		// Idle clients would otherwise pin a limiter forever.
		go rateLimiter.CleanupLoop(backgroundCtx, cfg.RateLimitCleanupInterval)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", httpAdapter.NewRouter(routerCfg))

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Outbox publisher
	if cfg.OutboxEnabled {
		publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
			OutboxRepo: outboxRepo,
			Publisher:  eventpublisher.NewLogPublisher(appLogger),
			Metrics:    appMetrics,
			Logger:     appLogger,
			BatchSize:  cfg.OutboxBatchSize,
			Interval:   cfg.OutboxInterval,
		})
		go func() {
			if err := publisher.Start(backgroundCtx); err != nil && err != context.Canceled {
				log.Error().Err(err).Msg("event publisher stopped")
			}
		}()
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopBackground()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
