package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokogudang/backoffice/internal/adapter/http/dto"
	"github.com/tokogudang/backoffice/internal/domain"
)

// DebtService defines the behavior needed by DebtHandler.
type DebtService interface {
	GetDebt(ctx context.Context, id string) (*domain.DebtRecord, error)
	ListDebts(ctx context.Context, kind domain.DebtKind, limit, offset int) ([]*domain.DebtRecord, error)
	ListPayments(ctx context.Context, debtID string) ([]*domain.Payment, error)
}

// DebtHandler handles debt record requests. Payments are applied
// through the operations endpoint, never here.
type DebtHandler struct {
	debtUC DebtService
}

// NewDebtHandler creates a new DebtHandler.
func NewDebtHandler(debtUC DebtService) *DebtHandler {
	return &DebtHandler{debtUC: debtUC}
}

// Get retrieves a debt record by ID.
func (h *DebtHandler) Get(w http.ResponseWriter, r *http.Request) {
	debt, err := h.debtUC.GetDebt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.DebtFromDomain(debt))
}

// List lists debt records of one kind.
func (h *DebtHandler) List(w http.ResponseWriter, r *http.Request) {
	kind := domain.DebtKind(r.URL.Query().Get("kind"))
	if kind != domain.DebtReceivable && kind != domain.DebtPayable {
		writeBadRequest(w, "kind must be receivable or payable")
		return
	}

	limit, offset := pagination(r)

	debts, err := h.debtUC.ListDebts(r.Context(), kind, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.DebtsFromDomain(debts))
}

// ListPayments lists the installments applied against a debt.
func (h *DebtHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.debtUC.ListPayments(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.PaymentsFromDomain(payments))
}
