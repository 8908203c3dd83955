package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
)

// DebtUseCase tracks receivables and payables. The paid amount is
// always derived from the surviving payment rows; the stored column is
// a projection and never a source of truth.
type DebtUseCase struct {
	txManager   TransactionManager
	debtRepo    DebtRepository
	paymentRepo PaymentRepository
	txnRepo     TransactionRepository
	idGen       IDGenerator
}

// NewDebtUseCase creates a new DebtUseCase.
func NewDebtUseCase(
	txManager TransactionManager,
	debtRepo DebtRepository,
	paymentRepo PaymentRepository,
	txnRepo TransactionRepository,
	idGen IDGenerator,
) *DebtUseCase {
	return &DebtUseCase{
		txManager:   txManager,
		debtRepo:    debtRepo,
		paymentRepo: paymentRepo,
		txnRepo:     txnRepo,
		idGen:       idGen,
	}
}

// ComputeTotal recomputes a transaction total from its line items.
// Denormalized header totals are ignored to keep drift out.
func (uc *DebtUseCase) ComputeTotal(ctx context.Context, transactionID string) (decimal.Decimal, error) {
	items, err := uc.txnRepo.GetItems(ctx, transactionID)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.SumItems(items), nil
}

// OpenDebtInput represents input for opening a debt record against a
// credit transaction.
type OpenDebtInput struct {
	TransactionID string
	PartyID       string
	Kind          domain.DebtKind
	DueDate       *time.Time
}

// OpenDebt creates the debt record for a transaction posted on credit.
// The total comes from the line items, not from the caller.
func (uc *DebtUseCase) OpenDebt(ctx context.Context, input OpenDebtInput) (*domain.DebtRecord, error) {
	total, err := uc.ComputeTotal(ctx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	if total.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	now := time.Now().UTC()

	debt := &domain.DebtRecord{
		ID:            uc.idGen.Generate(),
		TransactionID: input.TransactionID,
		PartyID:       input.PartyID,
		Kind:          input.Kind,
		TotalAmount:   total,
		PaidAmount:    decimal.Zero,
		Status:        domain.DebtUnpaid,
		DueDate:       input.DueDate,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.debtRepo.Create(ctx, tx, debt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return debt, nil
}

// GetDebt retrieves a debt record by ID.
func (uc *DebtUseCase) GetDebt(ctx context.Context, id string) (*domain.DebtRecord, error) {
	return uc.debtRepo.GetByID(ctx, id)
}

// ListDebts lists debt records of one kind with pagination.
func (uc *DebtUseCase) ListDebts(ctx context.Context, kind domain.DebtKind, limit, offset int) ([]*domain.DebtRecord, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	return uc.debtRepo.List(ctx, kind, limit, offset)
}

// ListPayments lists the payments of one debt record.
func (uc *DebtUseCase) ListPayments(ctx context.Context, debtID string) ([]*domain.Payment, error) {
	return uc.paymentRepo.ListByDebt(ctx, debtID)
}

// RecordPayment inserts a payment row for a debt. The matching ledger
// entry must already exist; sequencing both is the coordinator's job.
func (uc *DebtUseCase) RecordPayment(ctx context.Context, payment *domain.Payment) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.paymentRepo.Create(ctx, tx, payment); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeletePayment removes a payment row, as part of compensation.
func (uc *DebtUseCase) DeletePayment(ctx context.Context, paymentID string) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := uc.paymentRepo.Delete(ctx, tx, paymentID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// RecomputeStatus rebuilds PaidAmount from the surviving payment rows
// and reclassifies the status. It is idempotent, which makes it safe
// both as a forward step and as its own compensation.
func (uc *DebtUseCase) RecomputeStatus(ctx context.Context, debtID string) (*domain.DebtRecord, error) {
	payments, err := uc.paymentRepo.ListByDebt(ctx, debtID)
	if err != nil {
		return nil, err
	}

	paid := decimal.Zero
	for _, p := range payments {
		paid = paid.Add(p.Amount)
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	debt, err := uc.debtRepo.GetByIDForUpdate(ctx, tx, debtID)
	if err != nil {
		return nil, err
	}

	debt.PaidAmount = paid
	debt.Status = domain.ClassifyDebt(paid, debt.TotalAmount)
	debt.UpdatedAt = time.Now().UTC()

	if err := uc.debtRepo.UpdatePaid(ctx, tx, debt.ID, debt.PaidAmount, debt.Status, debt.UpdatedAt); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return debt, nil
}
