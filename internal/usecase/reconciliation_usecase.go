package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
)

// ReconciliationUseCase verifies the derived projections against their
// sources of truth: account balances against entry chains, paid
// amounts against payment rows, stock quantities against movement
// logs. It also serves the flags the coordinator leaves behind.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	debtRepo    DebtRepository
	paymentRepo PaymentRepository
	stockRepo   StockRepository
	flagRepo    FlagRepository
	cache       Cache
}

// The full report walks every account; a short cache keeps repeated
// dashboard refreshes from rescanning the ledger.
const (
	reportCacheKey = "reconciliation:report"
	reportCacheTTL = 30 * time.Second
)

// NewReconciliationUseCase creates a new ReconciliationUseCase. A nil
// cache disables report caching.
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	debtRepo DebtRepository,
	paymentRepo PaymentRepository,
	stockRepo StockRepository,
	flagRepo FlagRepository,
	cache Cache,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		debtRepo:    debtRepo,
		paymentRepo: paymentRepo,
		stockRepo:   stockRepo,
		flagRepo:    flagRepo,
		cache:       cache,
	}
}

// AccountCheck is the result of verifying one account's entry chain.
type AccountCheck struct {
	AccountID       string
	RecordedBalance decimal.Decimal
	DerivedBalance  decimal.Decimal
	Difference      decimal.Decimal
	ChainIntact     bool
	Consistent      bool
	CheckedAt       time.Time
}

// CheckAccount replays the prefix-sum chain from the seed and compares
// the end of the chain with the stored balance projection.
func (uc *ReconciliationUseCase) CheckAccount(ctx context.Context, accountID string) (*AccountCheck, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	entries, err := uc.allEntries(ctx, accountID)
	if err != nil {
		return nil, err
	}

	running := account.SeedBalance
	chainIntact := true
	for _, e := range entries {
		running = running.Add(e.SignedAmount())
		if !running.Equal(e.RunningBalance) {
			chainIntact = false
			// Keep replaying from the recorded value so the final
			// derived figure reflects the entry log, not the break.
			running = e.RunningBalance
		}
	}

	derived := account.SeedBalance
	for _, e := range entries {
		derived = derived.Add(e.SignedAmount())
	}

	diff := account.Balance.Sub(derived)

	return &AccountCheck{
		AccountID:       accountID,
		RecordedBalance: account.Balance,
		DerivedBalance:  derived,
		Difference:      diff,
		ChainIntact:     chainIntact,
		Consistent:      chainIntact && diff.IsZero(),
		CheckedAt:       time.Now().UTC(),
	}, nil
}

func (uc *ReconciliationUseCase) allEntries(ctx context.Context, accountID string) ([]*domain.LedgerEntry, error) {
	var all []*domain.LedgerEntry

	offset := 0
	for {
		page, err := uc.entryRepo.ListByAccount(ctx, accountID, domain.MaxPageSize, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page...)
		if len(page) < domain.MaxPageSize {
			return all, nil
		}
		offset += len(page)
	}
}

// DebtCheck is the result of verifying a debt record's paid amount.
type DebtCheck struct {
	DebtID       string
	RecordedPaid decimal.Decimal
	DerivedPaid  decimal.Decimal
	Status       domain.DebtStatus
	WantStatus   domain.DebtStatus
	Consistent   bool
}

// CheckDebt compares the stored paid amount and status against the sum
// of the surviving payment rows.
func (uc *ReconciliationUseCase) CheckDebt(ctx context.Context, debtID string) (*DebtCheck, error) {
	debt, err := uc.debtRepo.GetByID(ctx, debtID)
	if err != nil {
		return nil, err
	}

	payments, err := uc.paymentRepo.ListByDebt(ctx, debtID)
	if err != nil {
		return nil, err
	}

	derived := decimal.Zero
	for _, p := range payments {
		derived = derived.Add(p.Amount)
	}

	wantStatus := domain.ClassifyDebt(derived, debt.TotalAmount)

	return &DebtCheck{
		DebtID:       debtID,
		RecordedPaid: debt.PaidAmount,
		DerivedPaid:  derived,
		Status:       debt.Status,
		WantStatus:   wantStatus,
		Consistent:   debt.PaidAmount.Equal(derived) && debt.Status == wantStatus,
	}, nil
}

// StockCheck is the result of verifying one position against its log.
type StockCheck struct {
	ProductID        string
	BranchID         string
	RecordedQuantity decimal.Decimal
	DerivedQuantity  decimal.Decimal
	Consistent       bool
}

// CheckStock sums the signed movement log and compares it with the
// stored position quantity.
func (uc *ReconciliationUseCase) CheckStock(ctx context.Context, productID, branchID string) (*StockCheck, error) {
	pos, err := uc.stockRepo.GetPosition(ctx, productID, branchID)
	if err != nil {
		return nil, err
	}

	derived := decimal.Zero
	offset := 0
	for {
		page, err := uc.stockRepo.ListMovements(ctx, productID, branchID, domain.MaxPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, m := range page {
			derived = derived.Add(m.SignedQuantity())
		}

		if len(page) < domain.MaxPageSize {
			break
		}
		offset += len(page)
	}

	return &StockCheck{
		ProductID:        productID,
		BranchID:         branchID,
		RecordedQuantity: pos.Quantity,
		DerivedQuantity:  derived,
		Consistent:       pos.Quantity.Equal(derived),
	}, nil
}

// Report is a ledger-wide reconciliation summary.
type Report struct {
	TotalAccounts      int
	ConsistentAccounts int
	Discrepancies      []*AccountCheck
	OpenFlags          int
	CheckedAt          time.Time
}

// GenerateReport checks every account and counts open flags.
func (uc *ReconciliationUseCase) GenerateReport(ctx context.Context) (*Report, error) {
	if uc.cache != nil {
		if raw, err := uc.cache.Get(ctx, reportCacheKey); err == nil {
			var cached Report
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	report := &Report{CheckedAt: time.Now().UTC()}

	offset := 0
	for {
		accounts, err := uc.accountRepo.List(ctx, domain.MaxPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			check, err := uc.CheckAccount(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("check account %s: %w", account.ID, err)
			}

			report.TotalAccounts++
			if check.Consistent {
				report.ConsistentAccounts++
			} else {
				report.Discrepancies = append(report.Discrepancies, check)
			}
		}

		if len(accounts) < domain.MaxPageSize {
			break
		}
		offset += len(accounts)
	}

	flags, err := uc.flagRepo.ListOpen(ctx, domain.MaxPageSize, 0)
	if err != nil {
		return nil, err
	}
	report.OpenFlags = len(flags)

	if uc.cache != nil {
		if raw, err := json.Marshal(report); err == nil {
			_ = uc.cache.Set(ctx, reportCacheKey, raw, reportCacheTTL)
		}
	}

	return report, nil
}

// ListFlags lists open reconciliation flags.
func (uc *ReconciliationUseCase) ListFlags(ctx context.Context, limit, offset int) ([]*domain.ReconciliationFlag, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	return uc.flagRepo.ListOpen(ctx, limit, offset)
}

// ResolveFlag marks a flag as manually reconciled.
func (uc *ReconciliationUseCase) ResolveFlag(ctx context.Context, id string) error {
	if _, err := uc.flagRepo.GetByID(ctx, id); err != nil {
		return err
	}

	if err := uc.flagRepo.Resolve(ctx, id, time.Now().UTC()); err != nil {
		return err
	}

	// The cached report counts open flags, so it is stale now.
	if uc.cache != nil {
		_ = uc.cache.Delete(ctx, reportCacheKey)
	}

	return nil
}
