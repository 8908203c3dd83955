package handler

import (
	"context"
	"net/http"

	"github.com/tokogudang/backoffice/internal/adapter/http/dto"
	"github.com/tokogudang/backoffice/internal/domain"
)

// StockService defines the behavior needed by StockHandler. Mutations
// go through the operations endpoint; this surface is read-only.
type StockService interface {
	Position(ctx context.Context, productID, branchID string) (*domain.StockPosition, error)
	ListMovements(ctx context.Context, productID, branchID string, limit, offset int) ([]*domain.StockMovement, error)
	MovementsByReference(ctx context.Context, referenceID string) ([]*domain.StockMovement, error)
}

// StockHandler handles stock position and movement requests.
type StockHandler struct {
	stockUC StockService
}

// NewStockHandler creates a new StockHandler.
func NewStockHandler(stockUC StockService) *StockHandler {
	return &StockHandler{stockUC: stockUC}
}

// GetPosition retrieves the on-hand quantity of a product at a branch.
func (h *StockHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	productID, branchID, ok := productBranch(w, r)
	if !ok {
		return
	}

	pos, err := h.stockUC.Position(r.Context(), productID, branchID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.PositionFromDomain(pos))
}

// ListMovements lists the movement log of a product at a branch, or
// of one reference when ?reference_id= is given.
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	if ref := r.URL.Query().Get("reference_id"); ref != "" {
		movements, err := h.stockUC.MovementsByReference(r.Context(), ref)
		if err != nil {
			writeError(w, err)
			return
		}
		writeData(w, http.StatusOK, dto.MovementsFromDomain(movements))
		return
	}

	productID, branchID, ok := productBranch(w, r)
	if !ok {
		return
	}

	limit, offset := pagination(r)

	movements, err := h.stockUC.ListMovements(r.Context(), productID, branchID, limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.MovementsFromDomain(movements))
}

func productBranch(w http.ResponseWriter, r *http.Request) (productID, branchID string, ok bool) {
	productID = r.URL.Query().Get("product_id")
	branchID = r.URL.Query().Get("branch_id")
	if productID == "" || branchID == "" {
		writeBadRequest(w, "product_id and branch_id are required")
		return "", "", false
	}
	return productID, branchID, true
}
