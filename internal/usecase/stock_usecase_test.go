package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
	"github.com/tokogudang/backoffice/internal/usecase/mocks"
)

type stockFixture struct {
	stock  *mocks.MockStockRepository
	outbox *mocks.MockOutboxRepository
	uc     *usecase.StockUseCase
}

func newStockFixture() *stockFixture {
	f := &stockFixture{
		stock:  mocks.NewMockStockRepository(),
		outbox: mocks.NewMockOutboxRepository(),
	}
	f.uc = usecase.NewStockUseCase(
		mocks.NewMockTransactionManager(),
		f.stock,
		f.outbox,
		mocks.NewMockIDGenerator(),
		mocks.NewMockRetrier(),
	)
	return f
}

func (f *stockFixture) receive(t *testing.T, productID, branchID string, qty int64) {
	t.Helper()
	_, err := f.uc.Increment(context.Background(), usecase.MoveStockInput{
		ProductID: productID,
		BranchID:  branchID,
		Quantity:  decimal.NewFromInt(qty),
		Date:      time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("receive %d of %s at %s: %v", qty, productID, branchID, err)
	}
}

func TestStockUseCase_IncrementCreatesPosition(t *testing.T) {
	f := newStockFixture()

	f.receive(t, "beras-5kg", "toko", 50)

	pos, err := f.uc.Position(context.Background(), "beras-5kg", "toko")
	if err != nil {
		t.Fatalf("position: %v", err)
	}
	if !pos.Quantity.Equal(decimal.NewFromInt(50)) {
		t.Errorf("quantity = %s, want 50", pos.Quantity)
	}
	if pos.Version != 1 {
		t.Errorf("version = %d, want 1", pos.Version)
	}

	if len(f.outbox.EventsOfType(domain.EventTypeStockMoved)) != 1 {
		t.Error("expected one stock.moved event")
	}
}

func TestStockUseCase_Decrement(t *testing.T) {
	tests := []struct {
		name    string
		onHand  int64
		qty     int64
		wantQty int64
		wantErr bool
	}{
		{name: "take part of the position", onHand: 50, qty: 30, wantQty: 20},
		{name: "take the whole position", onHand: 50, qty: 50, wantQty: 0},
		{name: "past the floor", onHand: 30, qty: 50, wantErr: true},
		{name: "non-positive quantity", onHand: 30, qty: 0, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newStockFixture()
			f.receive(t, "gula-1kg", "gudang", tt.onHand)

			_, err := f.uc.Decrement(context.Background(), usecase.MoveStockInput{
				ProductID: "gula-1kg",
				BranchID:  "gudang",
				Quantity:  decimal.NewFromInt(tt.qty),
			})

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				// The position must be untouched and the log must hold
				// only the receipt.
				pos, _ := f.uc.Position(context.Background(), "gula-1kg", "gudang")
				if !pos.Quantity.Equal(decimal.NewFromInt(tt.onHand)) {
					t.Errorf("quantity = %s, want untouched %d", pos.Quantity, tt.onHand)
				}
				movements, _ := f.uc.ListMovements(context.Background(), "gula-1kg", "gudang", 100, 0)
				if len(movements) != 1 {
					t.Errorf("expected 1 movement, got %d", len(movements))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			pos, _ := f.uc.Position(context.Background(), "gula-1kg", "gudang")
			if !pos.Quantity.Equal(decimal.NewFromInt(tt.wantQty)) {
				t.Errorf("quantity = %s, want %d", pos.Quantity, tt.wantQty)
			}
		})
	}
}

func TestStockUseCase_DecrementReportsShortfall(t *testing.T) {
	f := newStockFixture()
	f.receive(t, "minyak-2l", "toko", 30)

	_, err := f.uc.Decrement(context.Background(), usecase.MoveStockInput{
		ProductID: "minyak-2l",
		BranchID:  "toko",
		Quantity:  decimal.NewFromInt(50),
	})

	var short *domain.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("decrement = %v, want InsufficientStockError", err)
	}
	if !short.Available.Equal(decimal.NewFromInt(30)) || !short.Requested.Equal(decimal.NewFromInt(50)) {
		t.Errorf("error context = available %s requested %s, want 30 and 50", short.Available, short.Requested)
	}
}

func TestStockUseCase_DecrementUnknownPosition(t *testing.T) {
	f := newStockFixture()

	_, err := f.uc.Decrement(context.Background(), usecase.MoveStockInput{
		ProductID: "ghost",
		BranchID:  "toko",
		Quantity:  decimal.NewFromInt(1),
	})
	if !errors.Is(err, domain.ErrStockNotFound) {
		t.Errorf("decrement = %v, want ErrStockNotFound", err)
	}
}

func TestStockUseCase_MovementLogIsAppendOnly(t *testing.T) {
	f := newStockFixture()
	f.receive(t, "kopi-250g", "toko", 100)

	_, err := f.uc.Decrement(context.Background(), usecase.MoveStockInput{
		ProductID:   "kopi-250g",
		BranchID:    "toko",
		Quantity:    decimal.NewFromInt(40),
		ReferenceID: "txn-1",
	})
	if err != nil {
		t.Fatalf("decrement: %v", err)
	}

	movements, err := f.uc.ListMovements(context.Background(), "kopi-250g", "toko", 100, 0)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 2 {
		t.Fatalf("expected 2 movements, got %d", len(movements))
	}

	sum := decimal.Zero
	for _, m := range movements {
		sum = sum.Add(m.SignedQuantity())
	}
	pos, _ := f.uc.Position(context.Background(), "kopi-250g", "toko")
	if !sum.Equal(pos.Quantity) {
		t.Errorf("signed movement sum %s does not match position %s", sum, pos.Quantity)
	}

	byRef, err := f.uc.MovementsByReference(context.Background(), "txn-1")
	if err != nil {
		t.Fatalf("movements by reference: %v", err)
	}
	if len(byRef) != 1 || byRef[0].Direction != domain.DirectionOut {
		t.Errorf("expected one out movement for txn-1, got %v", byRef)
	}
}
