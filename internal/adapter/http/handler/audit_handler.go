package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// AuditHandler exposes the audit trail read-only.
type AuditHandler struct {
	auditRepo usecase.AuditRepository
}

// NewAuditHandler creates a new AuditHandler.
func NewAuditHandler(auditRepo usecase.AuditRepository) *AuditHandler {
	return &AuditHandler{auditRepo: auditRepo}
}

// List lists audit rows matching the query filters.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	filter := domain.AuditFilter{
		Actor:        r.URL.Query().Get("actor"),
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resource_type"),
		ResourceID:   r.URL.Query().Get("resource_id"),
		Limit:        limit,
		Offset:       offset,
	}

	if v := r.URL.Query().Get("start_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "start_date must be RFC 3339")
			return
		}
		filter.StartDate = &t
	}
	if v := r.URL.Query().Get("end_date"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "end_date must be RFC 3339")
			return
		}
		filter.EndDate = &t
	}

	logs, err := h.auditRepo.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, logs)
}

// ByResource lists the audit trail of one resource.
func (h *AuditHandler) ByResource(w http.ResponseWriter, r *http.Request) {
	logs, err := h.auditRepo.GetByResourceID(r.Context(),
		chi.URLParam(r, "resourceType"), chi.URLParam(r, "resourceID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, logs)
}
