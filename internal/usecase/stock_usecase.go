package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
)

// StockUseCase is the only writer of stock quantities. Every change is
// paired with an append-only movement; reversals are recorded as
// opposite-direction movements, never deletions.
type StockUseCase struct {
	txManager  TransactionManager
	stockRepo  StockRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	retrier    Retrier
	locks      *keyedMutex
}

// NewStockUseCase creates a new StockUseCase.
func NewStockUseCase(
	txManager TransactionManager,
	stockRepo StockRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
) *StockUseCase {
	return &StockUseCase{
		txManager:  txManager,
		stockRepo:  stockRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		retrier:    retrier,
		locks:      newKeyedMutex(),
	}
}

// MoveStockInput represents input for one stock movement.
type MoveStockInput struct {
	ProductID   string
	BranchID    string
	Quantity    decimal.Decimal
	UnitCost    decimal.Decimal
	ReferenceID string
	Date        time.Time
}

func stockKey(productID, branchID string) string {
	return productID + "|" + branchID
}

// Decrement takes qty out of a position. The quantity floor is checked
// before any write; an insufficient position fails with the available
// and requested quantities and leaves position and log untouched.
func (uc *StockUseCase) Decrement(ctx context.Context, input MoveStockInput) (*domain.StockMovement, error) {
	return uc.move(ctx, input, domain.DirectionOut)
}

// Increment adds qty to a position, creating it on first receipt.
func (uc *StockUseCase) Increment(ctx context.Context, input MoveStockInput) (*domain.StockMovement, error) {
	return uc.move(ctx, input, domain.DirectionIn)
}

func (uc *StockUseCase) move(ctx context.Context, input MoveStockInput, direction domain.Direction) (*domain.StockMovement, error) {
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	key := stockKey(input.ProductID, input.BranchID)
	uc.locks.Lock(key)
	defer uc.locks.Unlock(key)

	var movement *domain.StockMovement

	err := uc.retrier.Retry(ctx, func() error {
		var err error
		movement, err = uc.moveLocked(ctx, input, direction)
		return err
	})
	if err != nil {
		return nil, err
	}

	return movement, nil
}

func (uc *StockUseCase) moveLocked(ctx context.Context, input MoveStockInput, direction domain.Direction) (*domain.StockMovement, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	now := time.Now().UTC()

	pos, err := uc.stockRepo.GetPositionForUpdate(ctx, tx, input.ProductID, input.BranchID)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrStockNotFound) && direction == domain.DirectionIn:
		// First receipt at this branch.
		pos = &domain.StockPosition{
			ProductID: input.ProductID,
			BranchID:  input.BranchID,
			Quantity:  decimal.Zero,
			Version:   0,
			UpdatedAt: now,
		}
		if err := uc.stockRepo.CreatePosition(ctx, tx, pos); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	var newQty decimal.Decimal
	if direction == domain.DirectionOut {
		if err := pos.ValidateDecrement(input.Quantity); err != nil {
			return nil, err
		}
		newQty = pos.Quantity.Sub(input.Quantity)
	} else {
		newQty = pos.Quantity.Add(input.Quantity)
	}

	if err := uc.stockRepo.UpdateQuantity(ctx, tx, input.ProductID, input.BranchID, newQty, pos.Version, now); err != nil {
		return nil, err
	}

	movement := &domain.StockMovement{
		ID:          uc.idGen.Generate(),
		ProductID:   input.ProductID,
		BranchID:    input.BranchID,
		Direction:   direction,
		Quantity:    input.Quantity,
		UnitCost:    input.UnitCost,
		ReferenceID: input.ReferenceID,
		Date:        input.Date,
		CreatedAt:   now,
	}

	if err := uc.stockRepo.CreateMovement(ctx, tx, movement); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   stockKey(input.ProductID, input.BranchID),
		AggregateType: domain.AggregateTypeStock,
		EventType:     domain.EventTypeStockMoved,
		Payload: domain.MarshalState(domain.StockMovedEvent{
			MovementID: movement.ID,
			ProductID:  movement.ProductID,
			BranchID:   movement.BranchID,
			Direction:  string(movement.Direction),
			Quantity:   movement.Quantity.String(),
		}),
		CreatedAt: now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return movement, nil
}

// Position retrieves the on-hand quantity for one product at a branch.
func (uc *StockUseCase) Position(ctx context.Context, productID, branchID string) (*domain.StockPosition, error) {
	return uc.stockRepo.GetPosition(ctx, productID, branchID)
}

// ListMovements lists the movement log for one position.
func (uc *StockUseCase) ListMovements(ctx context.Context, productID, branchID string, limit, offset int) ([]*domain.StockMovement, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	return uc.stockRepo.ListMovements(ctx, productID, branchID, limit, offset)
}

// MovementsByReference lists the movements a business operation caused.
func (uc *StockUseCase) MovementsByReference(ctx context.Context, referenceID string) ([]*domain.StockMovement, error) {
	return uc.stockRepo.ListMovementsByReference(ctx, referenceID)
}
