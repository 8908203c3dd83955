package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokogudang/backoffice/internal/adapter/http/dto"
	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// ReconciliationService defines the behavior needed by
// ReconciliationHandler.
type ReconciliationService interface {
	CheckAccount(ctx context.Context, accountID string) (*usecase.AccountCheck, error)
	CheckDebt(ctx context.Context, debtID string) (*usecase.DebtCheck, error)
	CheckStock(ctx context.Context, productID, branchID string) (*usecase.StockCheck, error)
	GenerateReport(ctx context.Context) (*usecase.Report, error)
	ListFlags(ctx context.Context, limit, offset int) ([]*domain.ReconciliationFlag, error)
	ResolveFlag(ctx context.Context, id string) error
}

// ReconciliationHandler handles consistency checks and flag triage.
type ReconciliationHandler struct {
	reconUC ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler.
func NewReconciliationHandler(reconUC ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{reconUC: reconUC}
}

// Report generates the ledger-wide reconciliation summary.
func (h *ReconciliationHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.GenerateReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, report)
}

// CheckAccount verifies one account's entry chain.
func (h *ReconciliationHandler) CheckAccount(w http.ResponseWriter, r *http.Request) {
	check, err := h.reconUC.CheckAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, check)
}

// CheckDebt verifies one debt's paid amount against its payments.
func (h *ReconciliationHandler) CheckDebt(w http.ResponseWriter, r *http.Request) {
	check, err := h.reconUC.CheckDebt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, check)
}

// CheckStock verifies one position against its movement log.
func (h *ReconciliationHandler) CheckStock(w http.ResponseWriter, r *http.Request) {
	productID, branchID, ok := productBranch(w, r)
	if !ok {
		return
	}

	check, err := h.reconUC.CheckStock(r.Context(), productID, branchID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, check)
}

// ListFlags lists open reconciliation flags.
func (h *ReconciliationHandler) ListFlags(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	flags, err := h.reconUC.ListFlags(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.FlagsFromDomain(flags))
}

// ResolveFlag closes a flag after manual reconciliation.
func (h *ReconciliationHandler) ResolveFlag(w http.ResponseWriter, r *http.Request) {
	if err := h.reconUC.ResolveFlag(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}
