package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tokogudang/backoffice/internal/adapter/http/dto"
	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	CreateAccount(ctx context.Context, input usecase.CreateAccountInput) (*domain.Account, error)
	GetAccount(ctx context.Context, id string) (*domain.Account, error)
	ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error)
	Append(ctx context.Context, input usecase.AppendEntryInput) (*domain.LedgerEntry, error)
	Update(ctx context.Context, input usecase.UpdateEntryInput) (*domain.LedgerEntry, error)
	Reverse(ctx context.Context, entryID string) error
	Transfer(ctx context.Context, input usecase.TransferInput) (*usecase.TransferResult, error)
	ListEntries(ctx context.Context, accountID string, limit, offset int) ([]*domain.LedgerEntry, error)
}

// LedgerHandler handles cash account and ledger entry requests.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// CreateAccount creates a new cash account.
func (h *LedgerHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	account, err := h.ledgerUC.CreateAccount(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, dto.AccountFromDomain(account))
}

// GetAccount retrieves an account by ID.
func (h *LedgerHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.ledgerUC.GetAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ListAccounts lists accounts with pagination.
func (h *LedgerHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	accounts, err := h.ledgerUC.ListAccounts(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// AppendEntry records a cash movement.
func (h *LedgerHandler) AppendEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.AppendEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	entry, err := h.ledgerUC.Append(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// UpdateEntry rewrites an entry in place.
func (h *LedgerHandler) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	entry, err := h.ledgerUC.Update(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.EntryFromDomain(entry))
}

// ReverseEntry deletes an entry and cascades the balance correction.
func (h *LedgerHandler) ReverseEntry(w http.ResponseWriter, r *http.Request) {
	if err := h.ledgerUC.Reverse(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, nil)
}

// ListEntries lists an account's entries in chain order.
func (h *LedgerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	entries, err := h.ledgerUC.ListEntries(r.Context(), chi.URLParam(r, "id"), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Transfer moves cash between two accounts.
func (h *LedgerHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	result, err := h.ledgerUC.Transfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusCreated, dto.TransferFromResult(result))
}
