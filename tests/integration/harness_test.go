package integration

import (
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	adaptershttp "github.com/tokogudang/backoffice/internal/adapter/http"
	"github.com/tokogudang/backoffice/internal/adapter/http/handler"
	"github.com/tokogudang/backoffice/internal/adapter/repository/postgres"
	redisrepo "github.com/tokogudang/backoffice/internal/adapter/repository/redis"
	"github.com/tokogudang/backoffice/internal/usecase"
	"github.com/tokogudang/backoffice/tests/testutil"
)

// stack wires the full application against a test database, the same
// way cmd/server does it.
type stack struct {
	ledgerUC *usecase.LedgerUseCase
	debtUC   *usecase.DebtUseCase
	stockUC  *usecase.StockUseCase
	reconUC  *usecase.ReconciliationUseCase
	coord    *usecase.Coordinator
	outbox   usecase.OutboxRepository
	router   http.Handler
}

func newStack(t *testing.T, testDB *testutil.TestDB) *stack {
	t.Helper()

	pool := testDB.Pool
	redisClient := testutil.NewTestRedis(t)

	accountRepo := postgres.NewAccountRepository(pool)
	entryRepo := postgres.NewEntryRepository(pool)
	txnRepo := postgres.NewTransactionRepository(pool)
	debtRepo := postgres.NewDebtRepository(pool)
	paymentRepo := postgres.NewPaymentRepository(pool)
	stockRepo := postgres.NewStockRepository(pool)
	consignmentRepo := postgres.NewConsignmentRepository(pool)
	flagRepo := postgres.NewFlagRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)

	txManager := postgres.NewTxManager(pool)
	idGen := postgres.NewULIDGenerator()
	retrier := postgres.NewRetrier(zerolog.Nop())

	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, entryRepo, outboxRepo, idGen, retrier)
	debtUC := usecase.NewDebtUseCase(txManager, debtRepo, paymentRepo, txnRepo, idGen)
	stockUC := usecase.NewStockUseCase(txManager, stockRepo, outboxRepo, idGen, retrier)
	reconUC := usecase.NewReconciliationUseCase(
		accountRepo, entryRepo, debtRepo, paymentRepo, stockRepo, flagRepo,
		redisrepo.NewCache(redisClient),
	)
	coord := usecase.NewCoordinator(
		ledgerUC, debtUC, stockUC,
		txManager, txnRepo, debtRepo, paymentRepo, consignmentRepo, entryRepo, flagRepo, auditRepo,
		idGen, nil, zerolog.Nop(),
	)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		LedgerHandler:         handler.NewLedgerHandler(ledgerUC),
		DebtHandler:           handler.NewDebtHandler(debtUC),
		StockHandler:          handler.NewStockHandler(stockUC),
		OperationHandler:      handler.NewOperationHandler(coord),
		ReconciliationHandler: handler.NewReconciliationHandler(reconUC),
		AuditHandler:          handler.NewAuditHandler(auditRepo),
		HealthHandler:         handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:      redisrepo.NewIdempotencyStore(redisClient),
		Logger:                zerolog.Nop(),
	})

	return &stack{
		ledgerUC: ledgerUC,
		debtUC:   debtUC,
		stockUC:  stockUC,
		reconUC:  reconUC,
		coord:    coord,
		outbox:   outboxRepo,
		router:   router,
	}
}
