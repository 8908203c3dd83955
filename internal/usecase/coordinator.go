package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/infrastructure/metrics"
)

// Coordinator operation names.
const (
	OpTransactionPost   = "transaction.post"
	OpStockTransfer     = "stock.transfer"
	OpDebtPay           = "debt.pay"
	OpConsignmentCreate = "consignment.create"
	OpConsignmentSell   = "consignment.sell"
	OpTransactionCancel = "transaction.cancel"
)

// step is one forward action of a saga paired with its inverse. A nil
// compensate means the action needs no undo.
type step struct {
	name       string
	forward    func(ctx context.Context) error
	compensate func(ctx context.Context) error
}

// Coordinator sequences multi-step business operations across the
// ledger, debt tracker, and stock ledger. The backing store offers no
// cross-statement transaction spanning these components, so a failed
// step is answered by explicitly undoing whatever already committed,
// in reverse order.
type Coordinator struct {
	ledgerUC        *LedgerUseCase
	debtUC          *DebtUseCase
	stockUC         *StockUseCase
	txManager       TransactionManager
	txnRepo         TransactionRepository
	debtRepo        DebtRepository
	paymentRepo     PaymentRepository
	consignmentRepo ConsignmentRepository
	entryRepo       EntryRepository
	flagRepo        FlagRepository
	auditRepo       AuditRepository
	idGen           IDGenerator
	metrics         *metrics.Metrics
	logger          zerolog.Logger
	locks           *keyedMutex
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator(
	ledgerUC *LedgerUseCase,
	debtUC *DebtUseCase,
	stockUC *StockUseCase,
	txManager TransactionManager,
	txnRepo TransactionRepository,
	debtRepo DebtRepository,
	paymentRepo PaymentRepository,
	consignmentRepo ConsignmentRepository,
	entryRepo EntryRepository,
	flagRepo FlagRepository,
	auditRepo AuditRepository,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *Coordinator {
	return &Coordinator{
		ledgerUC:        ledgerUC,
		debtUC:          debtUC,
		stockUC:         stockUC,
		txManager:       txManager,
		txnRepo:         txnRepo,
		debtRepo:        debtRepo,
		paymentRepo:     paymentRepo,
		consignmentRepo: consignmentRepo,
		entryRepo:       entryRepo,
		flagRepo:        flagRepo,
		auditRepo:       auditRepo,
		idGen:           idGen,
		metrics:         metrics,
		logger:          logger,
		locks:           newKeyedMutex(),
	}
}

// Run dispatches a named operation with a JSON payload, the entry
// point used by the HTTP adapter.
func (c *Coordinator) Run(ctx context.Context, operation string, payload []byte) (any, error) {
	start := time.Now()
	result, err := c.dispatch(ctx, operation, payload)

	// Unknown names never become metric labels.
	if c.metrics != nil && !errors.Is(err, domain.ErrUnknownOperation) {
		c.metrics.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		if err != nil {
			c.metrics.OperationFailures.WithLabelValues(operation).Inc()
		} else {
			c.metrics.OperationsRun.WithLabelValues(operation).Inc()
		}
	}

	return result, err
}

func (c *Coordinator) dispatch(ctx context.Context, operation string, payload []byte) (any, error) {
	switch operation {
	case OpTransactionPost:
		var input PostTransactionInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", operation, err)
		}
		return c.PostTransaction(ctx, input)
	case OpStockTransfer:
		var input StockTransferInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", operation, err)
		}
		return c.StockTransfer(ctx, input)
	case OpDebtPay:
		var input PayDebtInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", operation, err)
		}
		return c.PayDebt(ctx, input)
	case OpConsignmentCreate:
		var input CreateConsignmentInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", operation, err)
		}
		return c.CreateConsignment(ctx, input)
	case OpConsignmentSell:
		var input SellConsignmentInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", operation, err)
		}
		return c.SellConsignment(ctx, input)
	case OpTransactionCancel:
		var input CancelTransactionInput
		if err := json.Unmarshal(payload, &input); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", operation, err)
		}
		return nil, c.CancelTransaction(ctx, input)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOperation, operation)
	}
}

// execute runs the steps in order. On failure at step k it compensates
// k-1..1 in reverse; the original error is surfaced as-is when every
// prior step undid cleanly, and as a PartialFailureError when prior
// steps had committed (carrying what was and was not rolled back).
func (c *Coordinator) execute(ctx context.Context, operation, resourceType, resourceID string, steps []step) error {
	for i, s := range steps {
		if err := s.forward(ctx); err != nil {
			c.logger.Warn().
				Str("operation", operation).
				Str("step", s.name).
				Err(err).
				Msg("saga step failed, compensating")

			return c.compensate(ctx, operation, resourceType, resourceID, steps[:i], s.name, err)
		}
	}

	return nil
}

func (c *Coordinator) compensate(ctx context.Context, operation, resourceType, resourceID string, done []step, failedStep string, cause error) error {
	if len(done) == 0 {
		// Nothing committed; the failure is a plain validation error.
		return cause
	}

	var (
		compensated   []string
		uncompensated []string
		rollbackErrs  []error
	)

	for i := len(done) - 1; i >= 0; i-- {
		s := done[i]
		if s.compensate == nil {
			continue
		}

		if err := s.compensate(ctx); err != nil {
			c.logger.Error().
				Str("operation", operation).
				Str("step", s.name).
				Err(err).
				Msg("compensation failed, flagging for manual reconciliation")

			uncompensated = append(uncompensated, s.name)
			rollbackErrs = append(rollbackErrs, err)
			if c.metrics != nil {
				c.metrics.CompensationErrors.Inc()
			}
			continue
		}

		compensated = append(compensated, s.name)
		if c.metrics != nil {
			c.metrics.StepsCompensated.Inc()
		}
	}

	pf := &domain.PartialFailureError{
		Operation:     operation,
		FailedStep:    failedStep,
		Cause:         cause,
		Compensated:   compensated,
		Uncompensated: uncompensated,
		RollbackErrs:  rollbackErrs,
	}

	if len(uncompensated) > 0 {
		c.flagForReconciliation(ctx, operation, resourceType, resourceID, failedStep, pf)
	}

	return pf
}

// flagForReconciliation persists the queryable marker for an entity
// left partially reversed. Never retried automatically.
func (c *Coordinator) flagForReconciliation(ctx context.Context, operation, resourceType, resourceID, failedStep string, pf *domain.PartialFailureError) {
	if c.metrics != nil {
		c.metrics.FlagsRaised.Inc()
	}

	flag := &domain.ReconciliationFlag{
		ID:            c.idGen.Generate(),
		Operation:     operation,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		FailedStep:    failedStep,
		Detail:        pf.Error(),
		Uncompensated: pf.Uncompensated,
		Status:        domain.FlagOpen,
		CreatedAt:     time.Now().UTC(),
	}

	if err := c.flagRepo.Create(ctx, flag); err != nil {
		// Last resort: the flag write itself failed. Log loudly; the
		// reconciliation report will still catch the drift.
		c.logger.Error().
			Str("operation", operation).
			Str("resource_id", resourceID).
			Err(err).
			Msg("failed to persist reconciliation flag")
	}
}

func (c *Coordinator) audit(ctx context.Context, action domain.AuditAction, resourceType, resourceID string, before, after any, runErr error) {
	status := string(domain.AuditStatusSuccess)
	errMsg := ""
	if runErr != nil {
		status = string(domain.AuditStatusError)
		errMsg = runErr.Error()
	}

	log := &domain.AuditLog{
		ID:           c.idGen.Generate(),
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		Status:       status,
		ErrorMessage: errMsg,
		CreatedAt:    time.Now().UTC(),
	}

	if err := c.auditRepo.Create(ctx, log); err != nil {
		c.logger.Warn().Err(err).Str("action", string(action)).Msg("failed to write audit log")
	}
}

// PostItemInput is one line of a posted transaction.
type PostItemInput struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	UnitCost  decimal.Decimal `json:"unit_cost,omitempty"`
}

// PostTransactionInput posts a purchase or sale, on cash or credit
// terms.
type PostTransactionInput struct {
	Type      domain.TransactionType `json:"type"`
	PartyID   string                 `json:"party_id"`
	BranchID  string                 `json:"branch_id"`
	AccountID string                 `json:"account_id,omitempty"`
	Credit    bool                   `json:"credit"`
	DueDate   *time.Time             `json:"due_date,omitempty"`
	Date      time.Time              `json:"date"`
	Note      string                 `json:"note,omitempty"`
	Items     []PostItemInput        `json:"items"`
}

// PostTransaction executes the posting saga: draft header with items,
// stock application per line, then either a cash entry or a debt
// record, then commit. A purchase receives stock and pays out; a sale
// issues stock and takes in.
func (c *Coordinator) PostTransaction(ctx context.Context, input PostTransactionInput) (txn *domain.Transaction, err error) {
	defer func() {
		c.audit(ctx, domain.AuditActionTxnPost, domain.AggregateTypeTransaction, transferResourceID(txn), input, txn, err)
	}()

	if input.Type != domain.TransactionPurchase && input.Type != domain.TransactionSale {
		return nil, fmt.Errorf("%w: cannot post type %q", domain.ErrUnknownOperation, input.Type)
	}

	if len(input.Items) == 0 {
		return nil, domain.ErrInvalidQuantity
	}

	items := make([]*domain.TransactionItem, 0, len(input.Items))
	total := decimal.Zero
	for _, it := range input.Items {
		if it.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, domain.ErrInvalidQuantity
		}
		total = total.Add(it.Quantity.Mul(it.UnitPrice))
		items = append(items, &domain.TransactionItem{
			ID:        c.idGen.Generate(),
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			UnitCost:  it.UnitCost,
		})
	}

	if total.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	// Side-effect-free preconditions: every sale line must be covered
	// by on-hand stock, and a cash settlement needs a funded account.
	if input.Type == domain.TransactionSale {
		for _, it := range input.Items {
			pos, err := c.stockUC.Position(ctx, it.ProductID, input.BranchID)
			if err != nil {
				return nil, err
			}
			if err := pos.ValidateDecrement(it.Quantity); err != nil {
				return nil, err
			}
		}
	}

	cashDirection := domain.DirectionIn
	if input.Type == domain.TransactionPurchase {
		cashDirection = domain.DirectionOut
	}

	if !input.Credit {
		account, err := c.ledgerUC.GetAccount(ctx, input.AccountID)
		if err != nil {
			return nil, err
		}
		if cashDirection == domain.DirectionOut {
			if err := account.ValidateWithdrawal(total); err != nil {
				return nil, err
			}
		}
	}

	now := time.Now().UTC()
	txn = &domain.Transaction{
		ID:        c.idGen.Generate(),
		Type:      input.Type,
		Status:    domain.TransactionDraft,
		PartyID:   input.PartyID,
		BranchID:  input.BranchID,
		AccountID: input.AccountID,
		Date:      input.Date,
		Note:      input.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, item := range items {
		item.TransactionID = txn.ID
	}

	stockDirection := domain.DirectionOut
	if input.Type == domain.TransactionPurchase {
		stockDirection = domain.DirectionIn
	}

	var (
		entry *domain.LedgerEntry
		debt  *domain.DebtRecord
	)

	steps := []step{
		{
			name: "create transaction record",
			forward: func(ctx context.Context) error {
				return c.createTransaction(ctx, txn, items)
			},
			compensate: func(ctx context.Context) error {
				return c.deleteTransaction(ctx, txn.ID)
			},
		},
	}

	// One step per line item. A failed decrement mid-list must not
	// strand the items already applied, so each movement carries its
	// own inverse.
	for _, item := range items {
		steps = append(steps, step{
			name: "apply stock " + item.ProductID,
			forward: func(ctx context.Context) error {
				return c.moveItemStock(ctx, txn.ID, input.BranchID, item, stockDirection, input.Date)
			},
			compensate: func(ctx context.Context) error {
				return c.moveItemStock(ctx, txn.ID, input.BranchID, item, inverseOf(stockDirection), input.Date)
			},
		})
	}

	steps = append(steps,
		step{
			name: "settle cash or open debt",
			forward: func(ctx context.Context) error {
				if input.Credit {
					kind := domain.DebtReceivable
					if input.Type == domain.TransactionPurchase {
						kind = domain.DebtPayable
					}
					var err error
					debt, err = c.debtUC.OpenDebt(ctx, OpenDebtInput{
						TransactionID: txn.ID,
						PartyID:       input.PartyID,
						Kind:          kind,
						DueDate:       input.DueDate,
					})
					return err
				}

				var err error
				entry, err = c.ledgerUC.Append(ctx, AppendEntryInput{
					AccountID:    input.AccountID,
					Direction:    cashDirection,
					Amount:       total,
					Category:     string(input.Type),
					BusinessDate: input.Date,
					Note:         input.Note,
					ReferenceID:  txn.ID,
				})
				return err
			},
			compensate: func(ctx context.Context) error {
				if input.Credit {
					return c.deleteDebt(ctx, debt.ID)
				}
				return c.ledgerUC.Reverse(ctx, entry.ID)
			},
		},
		step{
			name: "commit transaction",
			forward: func(ctx context.Context) error {
				if err := c.setApplied(ctx, txn.ID, true, !input.Credit); err != nil {
					return err
				}
				return c.updateStatus(ctx, txn.ID, domain.TransactionCommitted)
			},
			compensate: nil,
		},
	)

	if err := c.execute(ctx, OpTransactionPost, domain.AggregateTypeTransaction, txn.ID, steps); err != nil {
		return nil, err
	}

	txn.Status = domain.TransactionCommitted
	txn.StockApplied = true
	txn.CashApplied = !input.Credit

	return txn, nil
}

func (c *Coordinator) moveItemStock(ctx context.Context, transactionID, branchID string, item *domain.TransactionItem, direction domain.Direction, date time.Time) error {
	move := MoveStockInput{
		ProductID:   item.ProductID,
		BranchID:    branchID,
		Quantity:    item.Quantity,
		UnitCost:    item.UnitCost,
		ReferenceID: transactionID,
		Date:        date,
	}

	var err error
	if direction == domain.DirectionOut {
		_, err = c.stockUC.Decrement(ctx, move)
	} else {
		_, err = c.stockUC.Increment(ctx, move)
	}
	return err
}

func (c *Coordinator) deleteDebt(ctx context.Context, debtID string) error {
	tx, err := c.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := c.debtRepo.Delete(ctx, tx, debtID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (c *Coordinator) updateStatus(ctx context.Context, transactionID string, status domain.TransactionStatus) error {
	tx, err := c.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := c.txnRepo.UpdateStatus(ctx, tx, transactionID, status, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// StockTransferInput moves quantity between two positions, such as a
// branch unload or a bulk-to-repackaged conversion.
type StockTransferInput struct {
	ProductID   string          `json:"product_id"`
	ToProductID string          `json:"to_product_id,omitempty"`
	FromBranch  string          `json:"from_branch"`
	ToBranch    string          `json:"to_branch"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	Date        time.Time       `json:"date"`
	Note        string          `json:"note,omitempty"`
}

// StockTransfer executes the transfer saga: header, decrement source,
// increment destination. Quantity availability is validated before the
// first write.
func (c *Coordinator) StockTransfer(ctx context.Context, input StockTransferInput) (txn *domain.Transaction, err error) {
	toProduct := input.ToProductID
	if toProduct == "" {
		toProduct = input.ProductID
	}

	defer func() {
		c.audit(ctx, domain.AuditActionStockTransfer, domain.AggregateTypeTransaction, transferResourceID(txn), input, txn, err)
	}()

	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	if toProduct == input.ProductID && input.FromBranch == input.ToBranch {
		return nil, domain.ErrSameBranch
	}

	// Precondition, checked side-effect-free before any mutation.
	source, err := c.stockUC.Position(ctx, input.ProductID, input.FromBranch)
	if err != nil {
		return nil, err
	}

	if err := source.ValidateDecrement(input.Quantity); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	txn = &domain.Transaction{
		ID:           c.idGen.Generate(),
		Type:         domain.TransactionStockTransfer,
		Status:       domain.TransactionCommitted,
		BranchID:     input.FromBranch,
		Date:         input.Date,
		Note:         input.Note,
		StockApplied: true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	steps := []step{
		{
			name: "create transfer record",
			forward: func(ctx context.Context) error {
				return c.createTransaction(ctx, txn, nil)
			},
			compensate: func(ctx context.Context) error {
				return c.deleteTransaction(ctx, txn.ID)
			},
		},
		{
			name: "decrement source position",
			forward: func(ctx context.Context) error {
				_, err := c.stockUC.Decrement(ctx, MoveStockInput{
					ProductID:   input.ProductID,
					BranchID:    input.FromBranch,
					Quantity:    input.Quantity,
					UnitCost:    input.UnitCost,
					ReferenceID: txn.ID,
					Date:        input.Date,
				})
				return err
			},
			compensate: func(ctx context.Context) error {
				_, err := c.stockUC.Increment(ctx, MoveStockInput{
					ProductID:   input.ProductID,
					BranchID:    input.FromBranch,
					Quantity:    input.Quantity,
					UnitCost:    input.UnitCost,
					ReferenceID: txn.ID,
					Date:        input.Date,
				})
				return err
			},
		},
		{
			name: "increment destination position",
			forward: func(ctx context.Context) error {
				_, err := c.stockUC.Increment(ctx, MoveStockInput{
					ProductID:   toProduct,
					BranchID:    input.ToBranch,
					Quantity:    input.Quantity,
					UnitCost:    input.UnitCost,
					ReferenceID: txn.ID,
					Date:        input.Date,
				})
				return err
			},
			compensate: func(ctx context.Context) error {
				_, err := c.stockUC.Decrement(ctx, MoveStockInput{
					ProductID:   toProduct,
					BranchID:    input.ToBranch,
					Quantity:    input.Quantity,
					UnitCost:    input.UnitCost,
					ReferenceID: txn.ID,
					Date:        input.Date,
				})
				return err
			},
		},
	}

	if err := c.execute(ctx, OpStockTransfer, domain.AggregateTypeTransaction, txn.ID, steps); err != nil {
		return nil, err
	}

	return txn, nil
}

func transferResourceID(txn *domain.Transaction) string {
	if txn == nil {
		return ""
	}
	return txn.ID
}

// PayDebtInput applies one installment against a debt record.
type PayDebtInput struct {
	DebtID    string          `json:"debt_id"`
	AccountID string          `json:"account_id"`
	Amount    decimal.Decimal `json:"amount"`
	Date      time.Time       `json:"date"`
	Note      string          `json:"note,omitempty"`
}

// PayDebt executes the installment saga: cash entry, payment row,
// derived status recompute. Receivable payments credit the account,
// payable payments debit it.
func (c *Coordinator) PayDebt(ctx context.Context, input PayDebtInput) (payment *domain.Payment, err error) {
	defer func() {
		c.audit(ctx, domain.AuditActionPaymentApply, domain.AggregateTypeDebt, input.DebtID, input, payment, err)
	}()

	// Installments on one debt serialize, so concurrent payments
	// cannot both validate against the same paid-amount snapshot.
	c.locks.Lock("debt:" + input.DebtID)
	defer c.locks.Unlock("debt:" + input.DebtID)

	debt, err := c.debtUC.GetDebt(ctx, input.DebtID)
	if err != nil {
		return nil, err
	}

	if err := debt.ValidatePayment(input.Amount); err != nil {
		return nil, err
	}

	account, err := c.ledgerUC.GetAccount(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	direction := domain.DirectionIn
	if debt.Kind == domain.DebtPayable {
		direction = domain.DirectionOut
		if err := account.ValidateWithdrawal(input.Amount); err != nil {
			return nil, err
		}
	}

	var entry *domain.LedgerEntry

	payment = &domain.Payment{
		ID:        c.idGen.Generate(),
		DebtID:    debt.ID,
		AccountID: input.AccountID,
		Amount:    input.Amount,
		Date:      input.Date,
		Note:      input.Note,
		CreatedAt: time.Now().UTC(),
	}

	steps := []step{
		{
			name: "append cash entry",
			forward: func(ctx context.Context) error {
				var err error
				entry, err = c.ledgerUC.Append(ctx, AppendEntryInput{
					AccountID:    input.AccountID,
					Direction:    direction,
					Amount:       input.Amount,
					Category:     "installment",
					BusinessDate: input.Date,
					Note:         paymentNote(debt, input.Note),
					ReferenceID:  debt.TransactionID,
				})
				if err == nil {
					payment.EntryID = entry.ID
				}
				return err
			},
			compensate: func(ctx context.Context) error {
				return c.ledgerUC.Reverse(ctx, entry.ID)
			},
		},
		{
			name: "record payment",
			forward: func(ctx context.Context) error {
				return c.debtUC.RecordPayment(ctx, payment)
			},
			compensate: func(ctx context.Context) error {
				return c.debtUC.DeletePayment(ctx, payment.ID)
			},
		},
		{
			name: "recompute debt status",
			forward: func(ctx context.Context) error {
				_, err := c.debtUC.RecomputeStatus(ctx, debt.ID)
				return err
			},
			// Recompute derives from the payment rows, so running it
			// again after the payment row is gone restores the record.
			compensate: func(ctx context.Context) error {
				_, err := c.debtUC.RecomputeStatus(ctx, debt.ID)
				return err
			},
		},
	}

	if err := c.execute(ctx, OpDebtPay, domain.AggregateTypeDebt, debt.ID, steps); err != nil {
		return nil, err
	}

	return payment, nil
}

func paymentNote(debt *domain.DebtRecord, note string) string {
	kind := "receivable"
	if debt.Kind == domain.DebtPayable {
		kind = "payable"
	}
	base := fmt.Sprintf("installment on %s %s", kind, debt.ID)
	if note == "" {
		return base
	}
	return fmt.Sprintf("%s: %s", base, note)
}

// CreateConsignmentInput registers goods received on consignment.
type CreateConsignmentInput struct {
	ProductID   string          `json:"product_id"`
	ConsigneeID string          `json:"consignee_id"`
	BranchID    string          `json:"branch_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	UnitCost    decimal.Decimal `json:"unit_cost,omitempty"`
	Date        time.Time       `json:"date"`
}

// CreateConsignment executes the intake saga: the goods enter the
// branch stock, then the consignment record opens with the full
// quantity remaining. No cash moves until a sale.
func (c *Coordinator) CreateConsignment(ctx context.Context, input CreateConsignmentInput) (consignment *domain.Consignment, err error) {
	defer func() {
		id := ""
		if consignment != nil {
			id = consignment.ID
		}
		c.audit(ctx, domain.AuditActionConsignCreate, domain.AggregateTypeConsignment, id, input, consignment, err)
	}()

	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidQuantity
	}

	now := time.Now().UTC()
	record := &domain.Consignment{
		ID:          c.idGen.Generate(),
		ProductID:   input.ProductID,
		ConsigneeID: input.ConsigneeID,
		BranchID:    input.BranchID,
		Quantity:    input.Quantity,
		Sold:        decimal.Zero,
		Remaining:   input.Quantity,
		UnitPrice:   input.UnitPrice,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	move := MoveStockInput{
		ProductID:   input.ProductID,
		BranchID:    input.BranchID,
		Quantity:    input.Quantity,
		UnitCost:    input.UnitCost,
		ReferenceID: record.ID,
		Date:        input.Date,
	}

	steps := []step{
		{
			name: "receive stock",
			forward: func(ctx context.Context) error {
				_, err := c.stockUC.Increment(ctx, move)
				return err
			},
			compensate: func(ctx context.Context) error {
				_, err := c.stockUC.Decrement(ctx, move)
				return err
			},
		},
		{
			name: "create consignment record",
			forward: func(ctx context.Context) error {
				return c.consignmentRepo.Create(ctx, record)
			},
			compensate: nil,
		},
	}

	if err := c.execute(ctx, OpConsignmentCreate, domain.AggregateTypeConsignment, record.ID, steps); err != nil {
		return nil, err
	}

	return record, nil
}

// GetTransaction retrieves a transaction header by ID.
func (c *Coordinator) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return c.txnRepo.GetByID(ctx, id)
}

// GetConsignment retrieves a consignment by ID.
func (c *Coordinator) GetConsignment(ctx context.Context, id string) (*domain.Consignment, error) {
	return c.consignmentRepo.GetByID(ctx, id)
}

// ListConsignments lists consignments with pagination.
func (c *Coordinator) ListConsignments(ctx context.Context, limit, offset int) ([]*domain.Consignment, error) {
	return c.consignmentRepo.List(ctx, limit, offset)
}

// SellConsignmentInput sells quantity out of a consignment.
type SellConsignmentInput struct {
	ConsignmentID string          `json:"consignment_id"`
	AccountID     string          `json:"account_id"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price,omitempty"`
	Date          time.Time       `json:"date"`
	Note          string          `json:"note,omitempty"`
}

// SellConsignment executes the consignment sale saga: sale record,
// counter update, stock decrement, cash entry.
func (c *Coordinator) SellConsignment(ctx context.Context, input SellConsignmentInput) (txn *domain.Transaction, err error) {
	defer func() {
		c.audit(ctx, domain.AuditActionConsignSell, domain.AggregateTypeTransaction, transferResourceID(txn), input, txn, err)
	}()

	consignment, err := c.consignmentRepo.GetByID(ctx, input.ConsignmentID)
	if err != nil {
		return nil, err
	}

	if err := consignment.ValidateSale(input.Quantity); err != nil {
		return nil, err
	}

	if _, err := c.ledgerUC.GetAccount(ctx, input.AccountID); err != nil {
		return nil, err
	}

	unitPrice := input.UnitPrice
	if unitPrice.IsZero() {
		unitPrice = consignment.UnitPrice
	}

	saleAmount := input.Quantity.Mul(unitPrice)
	now := time.Now().UTC()

	txn = &domain.Transaction{
		ID:        c.idGen.Generate(),
		Type:      domain.TransactionConsignmentSale,
		Status:    domain.TransactionCommitted,
		PartyID:   consignment.ConsigneeID,
		BranchID:  consignment.BranchID,
		AccountID: input.AccountID,
		Date:      input.Date,
		Note:      input.Note,
		CreatedAt: now,
		UpdatedAt: now,
	}

	item := &domain.TransactionItem{
		ID:            c.idGen.Generate(),
		TransactionID: txn.ID,
		ProductID:     consignment.ProductID,
		Quantity:      input.Quantity,
		UnitPrice:     unitPrice,
	}

	var entry *domain.LedgerEntry

	steps := []step{
		{
			name: "insert sale record",
			forward: func(ctx context.Context) error {
				return c.createTransaction(ctx, txn, []*domain.TransactionItem{item})
			},
			compensate: func(ctx context.Context) error {
				return c.deleteTransaction(ctx, txn.ID)
			},
		},
		{
			name: "update consignment counters",
			forward: func(ctx context.Context) error {
				return c.shiftConsignmentCounters(ctx, consignment.ID, input.Quantity)
			},
			compensate: func(ctx context.Context) error {
				return c.shiftConsignmentCounters(ctx, consignment.ID, input.Quantity.Neg())
			},
		},
		{
			name: "decrement stock position",
			forward: func(ctx context.Context) error {
				_, err := c.stockUC.Decrement(ctx, MoveStockInput{
					ProductID:   consignment.ProductID,
					BranchID:    consignment.BranchID,
					Quantity:    input.Quantity,
					ReferenceID: txn.ID,
					Date:        input.Date,
				})
				return err
			},
			compensate: func(ctx context.Context) error {
				_, err := c.stockUC.Increment(ctx, MoveStockInput{
					ProductID:   consignment.ProductID,
					BranchID:    consignment.BranchID,
					Quantity:    input.Quantity,
					ReferenceID: txn.ID,
					Date:        input.Date,
				})
				return err
			},
		},
		{
			name: "append cash entry",
			forward: func(ctx context.Context) error {
				var err error
				entry, err = c.ledgerUC.Append(ctx, AppendEntryInput{
					AccountID:    input.AccountID,
					Direction:    domain.DirectionIn,
					Amount:       saleAmount,
					Category:     "consignment",
					BusinessDate: input.Date,
					Note:         fmt.Sprintf("consignment sale %s", txn.ID),
					ReferenceID:  txn.ID,
				})
				return err
			},
			compensate: func(ctx context.Context) error {
				return c.ledgerUC.Reverse(ctx, entry.ID)
			},
		},
		{
			name: "mark applied flags",
			forward: func(ctx context.Context) error {
				return c.setApplied(ctx, txn.ID, true, true)
			},
			compensate: nil,
		},
	}

	if err := c.execute(ctx, OpConsignmentSell, domain.AggregateTypeTransaction, txn.ID, steps); err != nil {
		return nil, err
	}

	txn.StockApplied = true
	txn.CashApplied = true

	return txn, nil
}

// shiftConsignmentCounters moves qty from remaining to sold (or back
// for negative qty). State is re-fetched under lock rather than
// trusting a pre-image, so it is safe to call during compensation.
func (c *Coordinator) shiftConsignmentCounters(ctx context.Context, consignmentID string, qty decimal.Decimal) error {
	tx, err := c.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	consignment, err := c.consignmentRepo.GetByIDForUpdate(ctx, tx, consignmentID)
	if err != nil {
		return err
	}

	sold := consignment.Sold.Add(qty)
	remaining := consignment.Remaining.Sub(qty)
	if sold.IsNegative() || remaining.IsNegative() {
		return domain.ErrInvalidQuantity
	}

	if err := c.consignmentRepo.UpdateCounters(ctx, tx, consignmentID, sold, remaining, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CancelTransactionInput cancels a committed transaction.
type CancelTransactionInput struct {
	TransactionID string `json:"transaction_id"`
}

// CancelTransaction reverses a committed transaction: stock back via
// inverse movements, cash back via entry reversal, then the dependent
// rows and the header are deleted. Cancellation is itself the
// compensation for the original posting, so a partial failure here is
// flagged and surfaced, never silently retried. A missing or already
// cancelled transaction yields ErrTransactionNotFound.
func (c *Coordinator) CancelTransaction(ctx context.Context, input CancelTransactionInput) (err error) {
	defer func() {
		c.audit(ctx, domain.AuditActionTxnCancel, domain.AggregateTypeTransaction, input.TransactionID, input, nil, err)
	}()

	txn, err := c.txnRepo.GetByID(ctx, input.TransactionID)
	if err != nil {
		return err
	}

	if txn.Status == domain.TransactionCancelled {
		return domain.ErrTransactionNotFound
	}

	// Hard stop: a debt with payments cannot be unwound from here.
	debt, err := c.debtRepo.GetByTransaction(ctx, txn.ID)
	if err != nil && !errorsIsNotFound(err) {
		return err
	}

	if debt != nil {
		n, err := c.paymentRepo.CountByDebt(ctx, debt.ID)
		if err != nil {
			return err
		}
		if n > 0 {
			return domain.ErrPaymentsExist
		}
	}

	var performed []string

	fail := func(stepName string, cause error) error {
		pf := &domain.PartialFailureError{
			Operation:     OpTransactionCancel,
			FailedStep:    stepName,
			Cause:         cause,
			Compensated:   nil,
			Uncompensated: performed,
		}
		c.flagForReconciliation(ctx, OpTransactionCancel, domain.AggregateTypeTransaction, txn.ID, stepName, pf)
		return pf
	}

	if txn.StockApplied {
		inverted, rerr := c.reverseStock(ctx, txn.ID)
		if rerr != nil {
			// inverted counts this attempt's inverses plus any a prior
			// attempt left behind; either way the stock is partially
			// reversed and must be surfaced, not reported clean.
			if inverted == 0 && len(performed) == 0 {
				return rerr
			}
			if inverted > 0 {
				performed = append(performed, "reverse stock (partial)")
			}
			return fail("reverse stock", rerr)
		}
		performed = append(performed, "reverse stock")
	}

	if txn.CashApplied {
		if err := c.reverseCash(ctx, txn.ID); err != nil {
			if len(performed) == 0 {
				return err
			}
			return fail("reverse cash", err)
		}
		performed = append(performed, "reverse cash")
	}

	if err := c.deleteTransactionCascade(ctx, txn.ID, debt); err != nil {
		if len(performed) == 0 {
			return err
		}
		return fail("delete transaction", err)
	}

	return nil
}

// reverseStock applies an inverse movement for every movement the
// transaction caused. The log keeps both directions; history is never
// deleted. Inverses already written under the cancel reference are
// skipped, so retrying a failed cancellation never re-inverts a
// movement. Returns how many of the inverses exist when it stops.
func (c *Coordinator) reverseStock(ctx context.Context, transactionID string) (inverted int, err error) {
	movements, err := c.stockUC.MovementsByReference(ctx, transactionID)
	if err != nil {
		return 0, err
	}

	cancelRef := transactionID + ":cancel"

	prior, err := c.stockUC.MovementsByReference(ctx, cancelRef)
	if err != nil {
		return 0, err
	}

	done := make(map[string]int, len(prior))
	for _, m := range prior {
		done[movementKey(m.ProductID, m.BranchID, m.Direction, m.Quantity)]++
	}

	for _, m := range movements {
		inverseDirection := inverseOf(m.Direction)

		key := movementKey(m.ProductID, m.BranchID, inverseDirection, m.Quantity)
		if done[key] > 0 {
			done[key]--
			inverted++
			continue
		}

		inverse := MoveStockInput{
			ProductID:   m.ProductID,
			BranchID:    m.BranchID,
			Quantity:    m.Quantity,
			UnitCost:    m.UnitCost,
			ReferenceID: cancelRef,
			Date:        time.Now().UTC(),
		}

		if inverseDirection == domain.DirectionOut {
			_, err = c.stockUC.Decrement(ctx, inverse)
		} else {
			_, err = c.stockUC.Increment(ctx, inverse)
		}
		if err != nil {
			return inverted, err
		}
		inverted++
	}

	return inverted, nil
}

func inverseOf(d domain.Direction) domain.Direction {
	if d == domain.DirectionIn {
		return domain.DirectionOut
	}
	return domain.DirectionIn
}

func movementKey(productID, branchID string, direction domain.Direction, qty decimal.Decimal) string {
	return productID + "|" + branchID + "|" + string(direction) + "|" + qty.String()
}

// reverseCash reverses every ledger entry the transaction caused.
func (c *Coordinator) reverseCash(ctx context.Context, transactionID string) error {
	entries, err := c.entryRepo.ListByReference(ctx, transactionID)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if err := c.ledgerUC.Reverse(ctx, e.ID); err != nil {
			return err
		}
	}

	return nil
}

func (c *Coordinator) deleteTransactionCascade(ctx context.Context, transactionID string, debt *domain.DebtRecord) error {
	tx, err := c.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if debt != nil {
		if err := c.debtRepo.Delete(ctx, tx, debt.ID); err != nil {
			return err
		}
	}

	if err := c.txnRepo.DeleteItems(ctx, tx, transactionID); err != nil {
		return err
	}

	if err := c.txnRepo.Delete(ctx, tx, transactionID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (c *Coordinator) createTransaction(ctx context.Context, txn *domain.Transaction, items []*domain.TransactionItem) error {
	tx, err := c.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := c.txnRepo.Create(ctx, tx, txn); err != nil {
		return err
	}

	for _, item := range items {
		if err := c.txnRepo.CreateItem(ctx, tx, item); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (c *Coordinator) deleteTransaction(ctx context.Context, transactionID string) error {
	tx, err := c.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := c.txnRepo.DeleteItems(ctx, tx, transactionID); err != nil {
		return err
	}

	if err := c.txnRepo.Delete(ctx, tx, transactionID); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (c *Coordinator) setApplied(ctx context.Context, transactionID string, stockApplied, cashApplied bool) error {
	tx, err := c.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := c.txnRepo.SetApplied(ctx, tx, transactionID, stockApplied, cashApplied, time.Now().UTC()); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func errorsIsNotFound(err error) bool {
	return domain.KindOf(err) == domain.KindNotFound
}
