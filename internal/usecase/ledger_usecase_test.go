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

type ledgerFixture struct {
	accounts *mocks.MockAccountRepository
	entries  *mocks.MockEntryRepository
	outbox   *mocks.MockOutboxRepository
	uc       *usecase.LedgerUseCase
}

func newLedgerFixture() *ledgerFixture {
	f := &ledgerFixture{
		accounts: mocks.NewMockAccountRepository(),
		entries:  mocks.NewMockEntryRepository(),
		outbox:   mocks.NewMockOutboxRepository(),
	}
	f.uc = usecase.NewLedgerUseCase(
		mocks.NewMockTransactionManager(),
		f.accounts,
		f.entries,
		f.outbox,
		mocks.NewMockIDGenerator(),
		mocks.NewMockRetrier(),
	)
	return f
}

func (f *ledgerFixture) seedAccount(t *testing.T, name string, seed int64) *domain.Account {
	t.Helper()
	account, err := f.uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:        name,
		SeedBalance: decimal.NewFromInt(seed),
	})
	if err != nil {
		t.Fatalf("seed account %s: %v", name, err)
	}
	return account
}

func (f *ledgerFixture) mustAppend(t *testing.T, accountID string, direction domain.Direction, amount int64) *domain.LedgerEntry {
	t.Helper()
	entry, err := f.uc.Append(context.Background(), usecase.AppendEntryInput{
		AccountID:    accountID,
		Direction:    direction,
		Amount:       decimal.NewFromInt(amount),
		Category:     "operational",
		BusinessDate: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("append %s %d on %s: %v", direction, amount, accountID, err)
	}
	return entry
}

func TestLedgerUseCase_Append(t *testing.T) {
	tests := []struct {
		name      string
		input     usecase.AppendEntryInput
		seed      int64
		wantErr   error
		wantRB    int64
		wantSetup bool
	}{
		{
			name: "inflow advances the balance",
			input: usecase.AppendEntryInput{
				Direction: domain.DirectionIn,
				Amount:    decimal.NewFromInt(500),
				Category:  "sale",
			},
			seed:      1000,
			wantRB:    1500,
			wantSetup: true,
		},
		{
			name: "outflow lowers the balance",
			input: usecase.AppendEntryInput{
				Direction: domain.DirectionOut,
				Amount:    decimal.NewFromInt(200),
				Category:  "purchase",
			},
			seed:      1000,
			wantRB:    800,
			wantSetup: true,
		},
		{
			name: "invalid direction",
			input: usecase.AppendEntryInput{
				Direction: domain.Direction("sideways"),
				Amount:    decimal.NewFromInt(10),
				Category:  "sale",
			},
			wantErr: domain.ErrInvalidDirection,
		},
		{
			name: "non-positive amount",
			input: usecase.AppendEntryInput{
				Direction: domain.DirectionIn,
				Amount:    decimal.Zero,
				Category:  "sale",
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "unknown account",
			input: usecase.AppendEntryInput{
				AccountID: "nope",
				Direction: domain.DirectionIn,
				Amount:    decimal.NewFromInt(10),
				Category:  "sale",
			},
			wantErr: domain.ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newLedgerFixture()

			input := tt.input
			if tt.wantSetup {
				account := f.seedAccount(t, "kas", tt.seed)
				input.AccountID = account.ID
			}

			entry, err := f.uc.Append(context.Background(), input)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			want := decimal.NewFromInt(tt.wantRB)
			if !entry.RunningBalance.Equal(want) {
				t.Errorf("running balance = %s, want %s", entry.RunningBalance, want)
			}

			account, err := f.uc.GetAccount(context.Background(), input.AccountID)
			if err != nil {
				t.Fatalf("get account: %v", err)
			}
			if !account.Balance.Equal(want) {
				t.Errorf("account balance = %s, want %s", account.Balance, want)
			}
			if account.Version != 1 {
				t.Errorf("account version = %d, want 1", account.Version)
			}
		})
	}
}

func TestLedgerUseCase_AppendChain(t *testing.T) {
	f := newLedgerFixture()
	account := f.seedAccount(t, "kas besar", 1000)

	f.mustAppend(t, account.ID, domain.DirectionIn, 500)
	f.mustAppend(t, account.ID, domain.DirectionOut, 200)

	entries, err := f.uc.ListEntries(context.Background(), account.ID, 100, 0)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	wantRunning := []int64{1500, 1300}
	for i, e := range entries {
		if !e.RunningBalance.Equal(decimal.NewFromInt(wantRunning[i])) {
			t.Errorf("entry %d running balance = %s, want %d", i, e.RunningBalance, wantRunning[i])
		}
	}

	got, _ := f.uc.GetAccount(context.Background(), account.ID)
	if !got.Balance.Equal(decimal.NewFromInt(1300)) {
		t.Errorf("balance = %s, want 1300", got.Balance)
	}

	events := f.outbox.EventsOfType(domain.EventTypeEntryAppended)
	if len(events) != 2 {
		t.Errorf("expected 2 appended events, got %d", len(events))
	}
}

func TestLedgerUseCase_ReverseCascades(t *testing.T) {
	f := newLedgerFixture()
	account := f.seedAccount(t, "kas", 0)

	f.mustAppend(t, account.ID, domain.DirectionIn, 100)
	second := f.mustAppend(t, account.ID, domain.DirectionIn, 50)
	f.mustAppend(t, account.ID, domain.DirectionOut, 30)

	if err := f.uc.Reverse(context.Background(), second.ID); err != nil {
		t.Fatalf("reverse: %v", err)
	}

	entries, err := f.uc.ListEntries(context.Background(), account.ID, 100, 0)
	if err != nil {
		t.Fatalf("list entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries after reverse, got %d", len(entries))
	}

	// The reversed entry's delta cascades over everything after it.
	wantRunning := []int64{100, 70}
	for i, e := range entries {
		if !e.RunningBalance.Equal(decimal.NewFromInt(wantRunning[i])) {
			t.Errorf("entry %d running balance = %s, want %d", i, e.RunningBalance, wantRunning[i])
		}
	}

	got, _ := f.uc.GetAccount(context.Background(), account.ID)
	if !got.Balance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("balance = %s, want 70", got.Balance)
	}

	if err := f.uc.Reverse(context.Background(), second.ID); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("re-reverse = %v, want ErrEntryNotFound", err)
	}
}

func TestLedgerUseCase_UpdateCascades(t *testing.T) {
	f := newLedgerFixture()
	account := f.seedAccount(t, "kas", 0)

	first := f.mustAppend(t, account.ID, domain.DirectionIn, 100)
	f.mustAppend(t, account.ID, domain.DirectionOut, 40)

	updated, err := f.uc.Update(context.Background(), usecase.UpdateEntryInput{
		EntryID:   first.ID,
		Direction: domain.DirectionIn,
		Amount:    decimal.NewFromInt(70),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if !updated.RunningBalance.Equal(decimal.NewFromInt(70)) {
		t.Errorf("updated running balance = %s, want 70", updated.RunningBalance)
	}

	entries, _ := f.uc.ListEntries(context.Background(), account.ID, 100, 0)
	wantRunning := []int64{70, 30}
	for i, e := range entries {
		if !e.RunningBalance.Equal(decimal.NewFromInt(wantRunning[i])) {
			t.Errorf("entry %d running balance = %s, want %d", i, e.RunningBalance, wantRunning[i])
		}
	}

	got, _ := f.uc.GetAccount(context.Background(), account.ID)
	if !got.Balance.Equal(decimal.NewFromInt(30)) {
		t.Errorf("balance = %s, want 30", got.Balance)
	}
}

func TestLedgerUseCase_Transfer(t *testing.T) {
	f := newLedgerFixture()
	src := f.seedAccount(t, "kas besar", 1000)
	dst := f.seedAccount(t, "kas kecil", 0)

	result, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: src.ID,
		ToAccountID:   dst.ID,
		Amount:        decimal.NewFromInt(300),
		BusinessDate:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if !result.OutEntry.RunningBalance.Equal(decimal.NewFromInt(700)) {
		t.Errorf("out leg running balance = %s, want 700", result.OutEntry.RunningBalance)
	}
	if !result.InEntry.RunningBalance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("in leg running balance = %s, want 300", result.InEntry.RunningBalance)
	}
	if result.OutEntry.ReferenceID != result.ReferenceID || result.InEntry.ReferenceID != result.ReferenceID {
		t.Error("transfer legs must share the reference ID")
	}
	if !result.OutEntry.CreatedAt.Before(result.InEntry.CreatedAt) {
		t.Error("out leg must order before in leg")
	}

	srcAfter, _ := f.uc.GetAccount(context.Background(), src.ID)
	dstAfter, _ := f.uc.GetAccount(context.Background(), dst.ID)
	if !srcAfter.Balance.Equal(decimal.NewFromInt(700)) {
		t.Errorf("source balance = %s, want 700", srcAfter.Balance)
	}
	if !dstAfter.Balance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("destination balance = %s, want 300", dstAfter.Balance)
	}

	legs, err := f.entries.ListByReference(context.Background(), result.ReferenceID)
	if err != nil {
		t.Fatalf("list by reference: %v", err)
	}
	if len(legs) != 2 {
		t.Errorf("expected 2 legs, got %d", len(legs))
	}

	if len(f.outbox.EventsOfType(domain.EventTypeTransferCreated)) != 1 {
		t.Error("expected one transfer event")
	}
}

func TestLedgerUseCase_TransferRejections(t *testing.T) {
	f := newLedgerFixture()
	src := f.seedAccount(t, "kas besar", 100)
	dst := f.seedAccount(t, "kas kecil", 0)

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: src.ID,
		ToAccountID:   src.ID,
		Amount:        decimal.NewFromInt(10),
	})
	if !errors.Is(err, domain.ErrSameAccount) {
		t.Errorf("same account transfer = %v, want ErrSameAccount", err)
	}

	_, err = f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: src.ID,
		ToAccountID:   dst.ID,
		Amount:        decimal.NewFromInt(500),
	})
	var funds *domain.InsufficientFundsError
	if !errors.As(err, &funds) {
		t.Fatalf("overdraft transfer = %v, want InsufficientFundsError", err)
	}
	if !funds.Balance.Equal(decimal.NewFromInt(100)) || !funds.Requested.Equal(decimal.NewFromInt(500)) {
		t.Errorf("error context = balance %s requested %s, want 100 and 500", funds.Balance, funds.Requested)
	}

	// Nothing may have been written.
	srcAfter, _ := f.uc.GetAccount(context.Background(), src.ID)
	if !srcAfter.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("source balance = %s, want untouched 100", srcAfter.Balance)
	}
	entries, _ := f.uc.ListEntries(context.Background(), src.ID, 100, 0)
	if len(entries) != 0 {
		t.Errorf("expected no entries, got %d", len(entries))
	}
}

func TestLedgerUseCase_TransferCompensatesFailedLeg(t *testing.T) {
	f := newLedgerFixture()
	src := f.seedAccount(t, "kas besar", 1000)
	dst := f.seedAccount(t, "kas kecil", 0)

	errDown := errors.New("storage down")
	f.entries.CreateFunc = func(ctx context.Context, tx usecase.Transaction, e *domain.LedgerEntry) error {
		if e.AccountID == dst.ID {
			return errDown
		}
		return storeEntry(f.entries, ctx, tx, e)
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: src.ID,
		ToAccountID:   dst.ID,
		Amount:        decimal.NewFromInt(300),
	})
	if !errors.Is(err, errDown) {
		t.Fatalf("transfer = %v, want the leg failure", err)
	}

	// A cleanly compensated transfer surfaces the plain cause.
	var pf *domain.PartialFailureError
	if errors.As(err, &pf) {
		t.Fatalf("clean compensation must not report partial failure, got %v", pf)
	}

	srcAfter, _ := f.uc.GetAccount(context.Background(), src.ID)
	if !srcAfter.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("source balance = %s, want restored 1000", srcAfter.Balance)
	}
	entries, _ := f.uc.ListEntries(context.Background(), src.ID, 100, 0)
	if len(entries) != 0 {
		t.Errorf("expected debit reversed, got %d entries", len(entries))
	}
}

func TestLedgerUseCase_TransferRollbackFailure(t *testing.T) {
	f := newLedgerFixture()
	src := f.seedAccount(t, "kas besar", 1000)
	dst := f.seedAccount(t, "kas kecil", 0)

	errDown := errors.New("storage down")
	f.entries.CreateFunc = func(ctx context.Context, tx usecase.Transaction, e *domain.LedgerEntry) error {
		if e.AccountID == dst.ID {
			return errDown
		}
		return storeEntry(f.entries, ctx, tx, e)
	}
	f.entries.DeleteFunc = func(ctx context.Context, tx usecase.Transaction, id string) error {
		return errors.New("delete rejected")
	}

	_, err := f.uc.Transfer(context.Background(), usecase.TransferInput{
		FromAccountID: src.ID,
		ToAccountID:   dst.ID,
		Amount:        decimal.NewFromInt(300),
	})

	var pf *domain.PartialFailureError
	if !errors.As(err, &pf) {
		t.Fatalf("transfer = %v, want PartialFailureError", err)
	}
	if !errors.Is(err, errDown) {
		t.Error("partial failure must wrap the original cause")
	}
	if len(pf.Uncompensated) != 1 || pf.Uncompensated[0] != "debit source" {
		t.Errorf("uncompensated = %v, want [debit source]", pf.Uncompensated)
	}

	// The debit stands until someone reconciles it by hand.
	srcAfter, _ := f.uc.GetAccount(context.Background(), src.ID)
	if !srcAfter.Balance.Equal(decimal.NewFromInt(700)) {
		t.Errorf("source balance = %s, want 700 pending reconciliation", srcAfter.Balance)
	}
}

// storeEntry routes an entry through the mock's default storage from
// inside a CreateFunc override.
func storeEntry(repo *mocks.MockEntryRepository, ctx context.Context, tx usecase.Transaction, e *domain.LedgerEntry) error {
	fn := repo.CreateFunc
	repo.CreateFunc = nil
	defer func() { repo.CreateFunc = fn }()
	return repo.Create(ctx, tx, e)
}
