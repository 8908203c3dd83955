package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokogudang/backoffice/internal/adapter/http/dto"
	"github.com/tokogudang/backoffice/internal/domain"
)

// OperationService defines the behavior needed by OperationHandler.
type OperationService interface {
	Run(ctx context.Context, operation string, payload []byte) (any, error)
	GetConsignment(ctx context.Context, id string) (*domain.Consignment, error)
	ListConsignments(ctx context.Context, limit, offset int) ([]*domain.Consignment, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
}

// OperationHandler dispatches coordinated multi-step operations.
type OperationHandler struct {
	coordinator OperationService
}

// NewOperationHandler creates a new OperationHandler.
func NewOperationHandler(coordinator OperationService) *OperationHandler {
	return &OperationHandler{coordinator: coordinator}
}

// Run executes the named operation with the request body as payload.
func (h *OperationHandler) Run(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "unreadable request body")
		return
	}

	result, err := h.coordinator.Run(r.Context(), chi.URLParam(r, "name"), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, operationResult(result))
}

// GetConsignment retrieves a consignment by ID.
func (h *OperationHandler) GetConsignment(w http.ResponseWriter, r *http.Request) {
	consignment, err := h.coordinator.GetConsignment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.ConsignmentFromDomain(consignment))
}

// ListConsignments lists consignments with pagination.
func (h *OperationHandler) ListConsignments(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	consignments, err := h.coordinator.ListConsignments(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.ConsignmentsFromDomain(consignments))
}

// GetTransaction retrieves a transaction header by ID.
func (h *OperationHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	txn, err := h.coordinator.GetTransaction(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.TransactionFromDomain(txn))
}

// operationResult converts the coordinator's untyped result into the
// matching response shape.
func operationResult(result any) any {
	switch v := result.(type) {
	case *domain.Transaction:
		return dto.TransactionFromDomain(v)
	case *domain.Payment:
		return dto.PaymentFromDomain(v)
	case *domain.Consignment:
		return dto.ConsignmentFromDomain(v)
	case nil:
		return nil
	default:
		return v
	}
}
