// Package mocks provides in-memory implementations of the usecase
// interfaces for tests. State-backed methods can be overridden per
// test through the exported Func fields.
package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// MockAccountRepository is an in-memory AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	CreateFunc        func(ctx context.Context, account *domain.Account) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.Account, error)
	UpdateBalanceFunc func(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[string]*domain.Account)}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *account
	m.accounts[account.ID] = &cp
	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if acc, ok := m.accounts[id]; ok {
		cp := *acc
		return &cp, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	return m.GetByID(ctx, id)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
	if m.UpdateBalanceFunc != nil {
		return m.UpdateBalanceFunc(ctx, tx, id, balance, expectedVersion, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	acc, ok := m.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if acc.Version != expectedVersion {
		return &domain.VersionConflictError{Resource: "account", ID: id}
	}
	acc.Balance = balance
	acc.Version++
	acc.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*domain.Account, 0, len(m.accounts))
	for _, acc := range m.accounts {
		cp := *acc
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, limit, offset), nil
}

// MockEntryRepository is an in-memory EntryRepository.
type MockEntryRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.LedgerEntry

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
	DeleteFunc func(ctx context.Context, tx usecase.Transaction, id string) error
}

func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{entries: make(map[string]*domain.LedgerEntry)}
}

func (m *MockEntryRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries[entry.ID] = &cp
	return nil
}

func (m *MockEntryRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e, ok := m.entries[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockEntryRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.LedgerEntry, error) {
	return m.GetByID(ctx, id)
}

func (m *MockEntryRepository) Update(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return domain.ErrEntryNotFound
	}
	cp := *entry
	m.entries[entry.ID] = &cp
	return nil
}

func (m *MockEntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, tx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return domain.ErrEntryNotFound
	}
	delete(m.entries, id)
	return nil
}

func (m *MockEntryRepository) ShiftRunningBalances(ctx context.Context, tx usecase.Transaction, accountID string, after time.Time, delta decimal.Decimal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.AccountID == accountID && e.CreatedAt.After(after) {
			e.RunningBalance = e.RunningBalance.Add(delta)
		}
	}
	return nil
}

func (m *MockEntryRepository) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.AccountID == accountID {
			cp := *e
			all = append(all, &cp)
		}
	}
	sortEntries(all)
	return paginate(all, limit, offset), nil
}

func (m *MockEntryRepository) ListByReference(ctx context.Context, referenceID string) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.LedgerEntry
	for _, e := range m.entries {
		if e.ReferenceID == referenceID {
			cp := *e
			all = append(all, &cp)
		}
	}
	sortEntries(all)
	return all, nil
}

func sortEntries(entries []*domain.LedgerEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].ID < entries[j].ID
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
}

// MockDebtRepository is an in-memory DebtRepository.
type MockDebtRepository struct {
	mu    sync.RWMutex
	debts map[string]*domain.DebtRecord

	UpdatePaidFunc func(ctx context.Context, tx usecase.Transaction, id string, paid decimal.Decimal, status domain.DebtStatus, updatedAt time.Time) error
}

func NewMockDebtRepository() *MockDebtRepository {
	return &MockDebtRepository{debts: make(map[string]*domain.DebtRecord)}
}

func (m *MockDebtRepository) Create(ctx context.Context, tx usecase.Transaction, debt *domain.DebtRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *debt
	m.debts[debt.ID] = &cp
	return nil
}

func (m *MockDebtRepository) GetByID(ctx context.Context, id string) (*domain.DebtRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if d, ok := m.debts[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, domain.ErrDebtNotFound
}

func (m *MockDebtRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.DebtRecord, error) {
	return m.GetByID(ctx, id)
}

func (m *MockDebtRepository) GetByTransaction(ctx context.Context, transactionID string) (*domain.DebtRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.debts {
		if d.TransactionID == transactionID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrDebtNotFound
}

func (m *MockDebtRepository) UpdatePaid(ctx context.Context, tx usecase.Transaction, id string, paid decimal.Decimal, status domain.DebtStatus, updatedAt time.Time) error {
	if m.UpdatePaidFunc != nil {
		return m.UpdatePaidFunc(ctx, tx, id, paid, status, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.debts[id]
	if !ok {
		return domain.ErrDebtNotFound
	}
	d.PaidAmount = paid
	d.Status = status
	d.UpdatedAt = updatedAt
	return nil
}

func (m *MockDebtRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.debts[id]; !ok {
		return domain.ErrDebtNotFound
	}
	delete(m.debts, id)
	return nil
}

func (m *MockDebtRepository) List(ctx context.Context, kind domain.DebtKind, limit, offset int) ([]*domain.DebtRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.DebtRecord
	for _, d := range m.debts {
		if d.Kind == kind {
			cp := *d
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, limit, offset), nil
}

// MockPaymentRepository is an in-memory PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment

	CreateFunc func(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

func (m *MockPaymentRepository) Create(ctx context.Context, tx usecase.Transaction, payment *domain.Payment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, payment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *payment
	m.payments[payment.ID] = &cp
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.payments[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrPaymentNotFound
}

func (m *MockPaymentRepository) ListByDebt(ctx context.Context, debtID string) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.Payment
	for _, p := range m.payments {
		if p.DebtID == debtID {
			cp := *p
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all, nil
}

func (m *MockPaymentRepository) CountByDebt(ctx context.Context, debtID string) (int, error) {
	payments, err := m.ListByDebt(ctx, debtID)
	if err != nil {
		return 0, err
	}
	return len(payments), nil
}

func (m *MockPaymentRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[id]; !ok {
		return domain.ErrPaymentNotFound
	}
	delete(m.payments, id)
	return nil
}

// MockStockRepository is an in-memory StockRepository.
type MockStockRepository struct {
	mu        sync.RWMutex
	positions map[string]*domain.StockPosition
	movements []*domain.StockMovement

	UpdateQuantityFunc func(ctx context.Context, tx usecase.Transaction, productID, branchID string, qty decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	CreateMovementFunc func(ctx context.Context, tx usecase.Transaction, movement *domain.StockMovement) error
}

func NewMockStockRepository() *MockStockRepository {
	return &MockStockRepository{positions: make(map[string]*domain.StockPosition)}
}

func posKey(productID, branchID string) string {
	return productID + "|" + branchID
}

func (m *MockStockRepository) GetPosition(ctx context.Context, productID, branchID string) (*domain.StockPosition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.positions[posKey(productID, branchID)]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrStockNotFound
}

func (m *MockStockRepository) GetPositionForUpdate(ctx context.Context, tx usecase.Transaction, productID, branchID string) (*domain.StockPosition, error) {
	return m.GetPosition(ctx, productID, branchID)
}

func (m *MockStockRepository) CreatePosition(ctx context.Context, tx usecase.Transaction, pos *domain.StockPosition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *pos
	m.positions[posKey(pos.ProductID, pos.BranchID)] = &cp
	return nil
}

func (m *MockStockRepository) UpdateQuantity(ctx context.Context, tx usecase.Transaction, productID, branchID string, qty decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
	if m.UpdateQuantityFunc != nil {
		return m.UpdateQuantityFunc(ctx, tx, productID, branchID, qty, expectedVersion, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.positions[posKey(productID, branchID)]
	if !ok {
		return domain.ErrStockNotFound
	}
	if p.Version != expectedVersion {
		return &domain.VersionConflictError{Resource: "stock_position", ID: posKey(productID, branchID)}
	}
	p.Quantity = qty
	p.Version++
	p.UpdatedAt = updatedAt
	return nil
}

func (m *MockStockRepository) CreateMovement(ctx context.Context, tx usecase.Transaction, movement *domain.StockMovement) error {
	if m.CreateMovementFunc != nil {
		return m.CreateMovementFunc(ctx, tx, movement)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *movement
	m.movements = append(m.movements, &cp)
	return nil
}

func (m *MockStockRepository) ListMovements(ctx context.Context, productID, branchID string, limit, offset int) ([]*domain.StockMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.StockMovement
	for _, mv := range m.movements {
		if mv.ProductID == productID && mv.BranchID == branchID {
			cp := *mv
			all = append(all, &cp)
		}
	}
	return paginate(all, limit, offset), nil
}

func (m *MockStockRepository) ListMovementsByReference(ctx context.Context, referenceID string) ([]*domain.StockMovement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.StockMovement
	for _, mv := range m.movements {
		if mv.ReferenceID == referenceID {
			cp := *mv
			all = append(all, &cp)
		}
	}
	return all, nil
}

// MockConsignmentRepository is an in-memory ConsignmentRepository.
type MockConsignmentRepository struct {
	mu           sync.RWMutex
	consignments map[string]*domain.Consignment

	CreateFunc         func(ctx context.Context, consignment *domain.Consignment) error
	UpdateCountersFunc func(ctx context.Context, tx usecase.Transaction, id string, sold, remaining decimal.Decimal, updatedAt time.Time) error
}

func NewMockConsignmentRepository() *MockConsignmentRepository {
	return &MockConsignmentRepository{consignments: make(map[string]*domain.Consignment)}
}

func (m *MockConsignmentRepository) Create(ctx context.Context, consignment *domain.Consignment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, consignment)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *consignment
	m.consignments[consignment.ID] = &cp
	return nil
}

func (m *MockConsignmentRepository) GetByID(ctx context.Context, id string) (*domain.Consignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if c, ok := m.consignments[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrConsignmentNotFound
}

func (m *MockConsignmentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Consignment, error) {
	return m.GetByID(ctx, id)
}

func (m *MockConsignmentRepository) UpdateCounters(ctx context.Context, tx usecase.Transaction, id string, sold, remaining decimal.Decimal, updatedAt time.Time) error {
	if m.UpdateCountersFunc != nil {
		return m.UpdateCountersFunc(ctx, tx, id, sold, remaining, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.consignments[id]
	if !ok {
		return domain.ErrConsignmentNotFound
	}
	c.Sold = sold
	c.Remaining = remaining
	c.UpdatedAt = updatedAt
	return nil
}

func (m *MockConsignmentRepository) List(ctx context.Context, limit, offset int) ([]*domain.Consignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]*domain.Consignment, 0, len(m.consignments))
	for _, c := range m.consignments {
		cp := *c
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, limit, offset), nil
}

// MockTransactionRepository is an in-memory TransactionRepository.
type MockTransactionRepository struct {
	mu    sync.RWMutex
	txns  map[string]*domain.Transaction
	items map[string][]*domain.TransactionItem

	CreateFunc     func(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error
	SetAppliedFunc func(ctx context.Context, tx usecase.Transaction, id string, stockApplied, cashApplied bool, updatedAt time.Time) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		txns:  make(map[string]*domain.Transaction),
		items: make(map[string][]*domain.TransactionItem),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, txn *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, txn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *txn
	m.txns[txn.ID] = &cp
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.txns[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) CreateItem(ctx context.Context, tx usecase.Transaction, item *domain.TransactionItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *item
	m.items[item.TransactionID] = append(m.items[item.TransactionID], &cp)
	return nil
}

func (m *MockTransactionRepository) GetItems(ctx context.Context, transactionID string) ([]*domain.TransactionItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	items := m.items[transactionID]
	out := make([]*domain.TransactionItem, 0, len(items))
	for _, it := range items {
		cp := *it
		out = append(out, &cp)
	}
	return out, nil
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	t.Status = status
	t.UpdatedAt = updatedAt
	return nil
}

func (m *MockTransactionRepository) SetApplied(ctx context.Context, tx usecase.Transaction, id string, stockApplied, cashApplied bool, updatedAt time.Time) error {
	if m.SetAppliedFunc != nil {
		return m.SetAppliedFunc(ctx, tx, id, stockApplied, cashApplied, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	t.StockApplied = stockApplied
	t.CashApplied = cashApplied
	t.UpdatedAt = updatedAt
	return nil
}

func (m *MockTransactionRepository) DeleteItems(ctx context.Context, tx usecase.Transaction, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, transactionID)
	return nil
}

func (m *MockTransactionRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.txns[id]; !ok {
		return domain.ErrTransactionNotFound
	}
	delete(m.txns, id)
	return nil
}

// MockFlagRepository is an in-memory FlagRepository.
type MockFlagRepository struct {
	mu    sync.RWMutex
	flags map[string]*domain.ReconciliationFlag

	CreateFunc func(ctx context.Context, flag *domain.ReconciliationFlag) error
}

func NewMockFlagRepository() *MockFlagRepository {
	return &MockFlagRepository{flags: make(map[string]*domain.ReconciliationFlag)}
}

func (m *MockFlagRepository) Create(ctx context.Context, flag *domain.ReconciliationFlag) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, flag)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *flag
	m.flags[flag.ID] = &cp
	return nil
}

func (m *MockFlagRepository) GetByID(ctx context.Context, id string) (*domain.ReconciliationFlag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if f, ok := m.flags[id]; ok {
		cp := *f
		return &cp, nil
	}
	return nil, domain.ErrFlagNotFound
}

func (m *MockFlagRepository) ListOpen(ctx context.Context, limit, offset int) ([]*domain.ReconciliationFlag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.ReconciliationFlag
	for _, f := range m.flags {
		if f.Status == domain.FlagOpen {
			cp := *f
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, limit, offset), nil
}

func (m *MockFlagRepository) Resolve(ctx context.Context, id string, resolvedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.flags[id]
	if !ok {
		return domain.ErrFlagNotFound
	}
	f.Status = domain.FlagResolved
	f.ResolvedAt = &resolvedAt
	return nil
}

// MockOutboxRepository is an in-memory OutboxRepository.
type MockOutboxRepository struct {
	mu     sync.RWMutex
	events map[string]*domain.OutboxEvent
}

func NewMockOutboxRepository() *MockOutboxRepository {
	return &MockOutboxRepository{events: make(map[string]*domain.OutboxEvent)}
}

func (m *MockOutboxRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *event
	m.events[event.ID] = &cp
	return nil
}

func (m *MockOutboxRepository) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.OutboxEvent
	for _, e := range m.events {
		if !e.Published {
			cp := *e
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.events[id]
	if !ok {
		return fmt.Errorf("outbox event %s not found", id)
	}
	e.Published = true
	e.PublishedAt = &publishedAt
	return nil
}

func (m *MockOutboxRepository) GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.OutboxEvent
	for _, e := range m.events {
		if e.AggregateType == aggregateType && e.AggregateID == aggregateID {
			cp := *e
			all = append(all, &cp)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return paginate(all, limit, offset), nil
}

func (m *MockOutboxRepository) DeletePublished(ctx context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.events {
		if e.Published && e.PublishedAt != nil && e.PublishedAt.Before(before) {
			delete(m.events, id)
		}
	}
	return nil
}

// EventsOfType returns stored events of one type, for assertions.
func (m *MockOutboxRepository) EventsOfType(eventType string) []*domain.OutboxEvent {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.OutboxEvent
	for _, e := range m.events {
		if e.EventType == eventType {
			cp := *e
			all = append(all, &cp)
		}
	}
	return all
}

// MockAuditRepository is an in-memory AuditRepository.
type MockAuditRepository struct {
	mu   sync.RWMutex
	logs []*domain.AuditLog
}

func NewMockAuditRepository() *MockAuditRepository {
	return &MockAuditRepository{}
}

func (m *MockAuditRepository) Create(ctx context.Context, log *domain.AuditLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *log
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *MockAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.AuditLog
	for _, l := range m.logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ResourceType != "" && l.ResourceType != filter.ResourceType {
			continue
		}
		cp := *l
		all = append(all, &cp)
	}
	return all, nil
}

func (m *MockAuditRepository) GetByResourceID(ctx context.Context, resourceType, resourceID string) ([]*domain.AuditLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.AuditLog
	for _, l := range m.logs {
		if l.ResourceType == resourceType && l.ResourceID == resourceID {
			cp := *l
			all = append(all, &cp)
		}
	}
	return all, nil
}

// MockTransactionManager is a no-op TransactionManager: mock repos
// apply writes immediately, so Commit and Rollback do nothing.
type MockTransactionManager struct{}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	return &MockTransaction{}, nil
}

// MockTransaction is a no-op Transaction.
type MockTransaction struct{}

func (t *MockTransaction) Commit(ctx context.Context) error   { return nil }
func (t *MockTransaction) Rollback(ctx context.Context) error { return nil }

// MockIDGenerator hands out sequential IDs.
type MockIDGenerator struct {
	mu      sync.Mutex
	counter int

	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (g *MockIDGenerator) Generate() string {
	if g.GenerateFunc != nil {
		return g.GenerateFunc()
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.counter++
	return fmt.Sprintf("id-%06d", g.counter)
}

// MockRetrier invokes the operation once, without retries.
type MockRetrier struct{}

func NewMockRetrier() *MockRetrier {
	return &MockRetrier{}
}

func (r *MockRetrier) Retry(ctx context.Context, operation func() error) error {
	return operation()
}

func paginate[T any](all []T, limit, offset int) []T {
	if offset >= len(all) {
		return nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all
}
