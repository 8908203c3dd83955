package usecase

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
)

// LedgerUseCase is the only writer of account balances. Every mutation
// keeps the invariant that Account.Balance equals the running balance
// of the account's newest entry, seeding from Account.SeedBalance when
// the chain is empty.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	idGen       IDGenerator
	retrier     Retrier
	locks       *keyedMutex
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	retrier Retrier,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		outboxRepo:  outboxRepo,
		idGen:       idGen,
		retrier:     retrier,
		locks:       newKeyedMutex(),
	}
}

// AppendEntryInput represents input for appending a ledger entry.
type AppendEntryInput struct {
	AccountID    string
	Direction    domain.Direction
	Amount       decimal.Decimal
	Category     string
	BusinessDate time.Time
	Note         string
	ReferenceID  string
}

// Append records a cash movement and advances the account balance.
func (uc *LedgerUseCase) Append(ctx context.Context, input AppendEntryInput) (*domain.LedgerEntry, error) {
	if err := validateAppend(input); err != nil {
		return nil, err
	}

	uc.locks.Lock(input.AccountID)
	defer uc.locks.Unlock(input.AccountID)

	var entry *domain.LedgerEntry

	err := uc.retrier.Retry(ctx, func() error {
		var err error
		entry, err = uc.appendLocked(ctx, input, time.Now().UTC())
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func validateAppend(input AppendEntryInput) error {
	if !input.Direction.Valid() {
		return domain.ErrInvalidDirection
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return err
	}

	return domain.ValidateCategory(input.Category)
}

// appendLocked is the append body. The caller holds the account lock;
// at is the entry's position in the account's total order.
func (uc *LedgerUseCase) appendLocked(ctx context.Context, input AppendEntryInput, at time.Time) (*domain.LedgerEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.AccountID)
	if err != nil {
		return nil, err
	}

	entry := &domain.LedgerEntry{
		ID:           uc.idGen.Generate(),
		AccountID:    account.ID,
		Direction:    input.Direction,
		Category:     input.Category,
		Amount:       input.Amount,
		BusinessDate: input.BusinessDate,
		Note:         input.Note,
		ReferenceID:  input.ReferenceID,
		CreatedAt:    at,
	}
	entry.RunningBalance = account.Balance.Add(entry.SignedAmount())

	if err := uc.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, entry.RunningBalance, account.Version, at); err != nil {
		return nil, err
	}

	if err := uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeEntryAppended,
		Payload: domain.MarshalState(domain.EntryAppendedEvent{
			EntryID:        entry.ID,
			AccountID:      account.ID,
			Direction:      string(entry.Direction),
			Amount:         entry.Amount.String(),
			RunningBalance: entry.RunningBalance.String(),
		}),
		CreatedAt: at,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// Reverse deletes an entry and cascades its inverse delta over every
// later entry of the account, then rewrites the balance projection.
func (uc *LedgerUseCase) Reverse(ctx context.Context, entryID string) error {
	entry, err := uc.entryRepo.GetByID(ctx, entryID)
	if err != nil {
		return err
	}

	uc.locks.Lock(entry.AccountID)
	defer uc.locks.Unlock(entry.AccountID)

	return uc.retrier.Retry(ctx, func() error {
		return uc.reverseLocked(ctx, entryID)
	})
}

func (uc *LedgerUseCase) reverseLocked(ctx context.Context, entryID string) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDTx(ctx, tx, entryID)
	if err != nil {
		return err
	}

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, entry.AccountID)
	if err != nil {
		return err
	}

	delta := entry.SignedAmount().Neg()

	if err := uc.entryRepo.Delete(ctx, tx, entry.ID); err != nil {
		return err
	}

	if err := uc.entryRepo.ShiftRunningBalances(ctx, tx, entry.AccountID, entry.CreatedAt, delta); err != nil {
		return err
	}

	// Removing one link shifts every later running balance by delta,
	// so the projection moves by the same delta.
	now := time.Now().UTC()
	newBalance := account.Balance.Add(delta)

	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version, now); err != nil {
		return err
	}

	if err := uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeEntryReversed,
		Payload: domain.MarshalState(domain.EntryReversedEvent{
			EntryID:   entry.ID,
			AccountID: account.ID,
			Amount:    entry.Amount.String(),
		}),
		CreatedAt: now,
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UpdateEntryInput represents input for editing an existing entry.
type UpdateEntryInput struct {
	EntryID      string
	Direction    domain.Direction
	Amount       decimal.Decimal
	Category     string
	BusinessDate time.Time
	Note         string
}

// Update rewrites an entry in place and cascades the signed-amount
// delta over the entry itself and everything after it.
func (uc *LedgerUseCase) Update(ctx context.Context, input UpdateEntryInput) (*domain.LedgerEntry, error) {
	if !input.Direction.Valid() {
		return nil, domain.ErrInvalidDirection
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	existing, err := uc.entryRepo.GetByID(ctx, input.EntryID)
	if err != nil {
		return nil, err
	}

	uc.locks.Lock(existing.AccountID)
	defer uc.locks.Unlock(existing.AccountID)

	var updated *domain.LedgerEntry

	err = uc.retrier.Retry(ctx, func() error {
		var err error
		updated, err = uc.updateLocked(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (uc *LedgerUseCase) updateLocked(ctx context.Context, input UpdateEntryInput) (*domain.LedgerEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.entryRepo.GetByIDTx(ctx, tx, input.EntryID)
	if err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, entry.AccountID)
	if err != nil {
		return nil, err
	}

	oldSigned := entry.SignedAmount()

	entry.Direction = input.Direction
	entry.Amount = input.Amount
	if input.Category != "" {
		if err := domain.ValidateCategory(input.Category); err != nil {
			return nil, err
		}
		entry.Category = input.Category
	}
	if !input.BusinessDate.IsZero() {
		entry.BusinessDate = input.BusinessDate
	}
	if input.Note != "" {
		entry.Note = input.Note
	}

	delta := entry.SignedAmount().Sub(oldSigned)
	entry.RunningBalance = entry.RunningBalance.Add(delta)

	if err := uc.entryRepo.Update(ctx, tx, entry); err != nil {
		return nil, err
	}

	if err := uc.entryRepo.ShiftRunningBalances(ctx, tx, entry.AccountID, entry.CreatedAt, delta); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if err := uc.accountRepo.UpdateBalance(ctx, tx, account.ID, account.Balance.Add(delta), account.Version, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// TransferInput represents input for moving cash between two accounts.
type TransferInput struct {
	FromAccountID string
	ToAccountID   string
	Amount        decimal.Decimal
	BusinessDate  time.Time
	Note          string
}

// TransferResult holds the two legs of a completed transfer.
type TransferResult struct {
	ReferenceID string
	OutEntry    *domain.LedgerEntry
	InEntry     *domain.LedgerEntry
}

// Transfer debits the source and credits the destination as two chained
// appends, the destination leg one millisecond after the source leg so
// the legs order deterministically. A failed second leg is compensated
// by reversing the first before the error is surfaced.
func (uc *LedgerUseCase) Transfer(ctx context.Context, input TransferInput) (*TransferResult, error) {
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccount
	}

	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	keys := []string{input.FromAccountID, input.ToAccountID}
	sort.Strings(keys)
	uc.locks.LockAll(keys)
	defer uc.locks.UnlockAll(keys)

	source, err := uc.accountRepo.GetByID(ctx, input.FromAccountID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.accountRepo.GetByID(ctx, input.ToAccountID); err != nil {
		return nil, err
	}

	if err := source.ValidateWithdrawal(input.Amount); err != nil {
		return nil, err
	}

	referenceID := uc.idGen.Generate()
	now := time.Now().UTC()

	outEntry, err := uc.appendLocked(ctx, AppendEntryInput{
		AccountID:    input.FromAccountID,
		Direction:    domain.DirectionOut,
		Amount:       input.Amount,
		Category:     "transfer",
		BusinessDate: input.BusinessDate,
		Note:         transferNote(input.Note, "to", input.ToAccountID),
		ReferenceID:  referenceID,
	}, now)
	if err != nil {
		return nil, err
	}

	inEntry, err := uc.appendLocked(ctx, AppendEntryInput{
		AccountID:    input.ToAccountID,
		Direction:    domain.DirectionIn,
		Amount:       input.Amount,
		Category:     "transfer",
		BusinessDate: input.BusinessDate,
		Note:         transferNote(input.Note, "from", input.FromAccountID),
		ReferenceID:  referenceID,
	}, now.Add(time.Millisecond))
	if err != nil {
		// Second leg failed after the first committed: undo the debit.
		if rbErr := uc.reverseLocked(ctx, outEntry.ID); rbErr != nil {
			return nil, &domain.PartialFailureError{
				Operation:     "ledger.transfer",
				FailedStep:    "credit destination",
				Cause:         err,
				Uncompensated: []string{"debit source"},
				RollbackErrs:  []error{rbErr},
			}
		}
		return nil, err
	}

	if err := uc.publishTransferEvent(ctx, input, referenceID, outEntry, inEntry); err != nil {
		return nil, err
	}

	return &TransferResult{ReferenceID: referenceID, OutEntry: outEntry, InEntry: inEntry}, nil
}

func (uc *LedgerUseCase) publishTransferEvent(ctx context.Context, input TransferInput, referenceID string, outEntry, inEntry *domain.LedgerEntry) error {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = uc.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   referenceID,
		AggregateType: domain.AggregateTypeAccount,
		EventType:     domain.EventTypeTransferCreated,
		Payload: domain.MarshalState(domain.TransferCreatedEvent{
			FromAccountID: input.FromAccountID,
			ToAccountID:   input.ToAccountID,
			OutEntryID:    outEntry.ID,
			InEntryID:     inEntry.ID,
			Amount:        input.Amount.String(),
		}),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func transferNote(note, preposition, accountID string) string {
	base := fmt.Sprintf("transfer %s account %s", preposition, accountID)
	if note == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, note)
}

// GetAccount retrieves an account by ID.
func (uc *LedgerUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// CreateAccountInput represents input for creating a cash account.
type CreateAccountInput struct {
	Name        string
	SeedBalance decimal.Decimal
}

// CreateAccount creates a new cash account with a seed balance.
func (uc *LedgerUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	if err := domain.ValidateName(input.Name); err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	account := &domain.Account{
		ID:          uc.idGen.Generate(),
		Name:        input.Name,
		SeedBalance: input.SeedBalance,
		Balance:     input.SeedBalance,
		Version:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// ListAccounts lists accounts with pagination.
func (uc *LedgerUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	return uc.accountRepo.List(ctx, limit, offset)
}

// ListEntries lists an account's entries with pagination.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	limit, offset, err := domain.ValidatePagination(limit, offset)
	if err != nil {
		return nil, err
	}

	return uc.entryRepo.ListByAccount(ctx, accountID, limit, offset)
}
