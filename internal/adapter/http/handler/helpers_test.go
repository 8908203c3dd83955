package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/tokogudang/backoffice/internal/adapter/http/dto"
	"github.com/tokogudang/backoffice/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestStatusOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"flag not found", domain.ErrFlagNotFound, http.StatusNotFound},
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"unknown operation", domain.ErrUnknownOperation, http.StatusBadRequest},
		{"insufficient funds", &domain.InsufficientFundsError{AccountID: "acc-1"}, http.StatusUnprocessableEntity},
		{"insufficient stock", &domain.InsufficientStockError{ProductID: "prd-1"}, http.StatusUnprocessableEntity},
		{"overpayment", &domain.OverpaymentError{DebtID: "debt-1"}, http.StatusUnprocessableEntity},
		{"version conflict", &domain.VersionConflictError{Resource: "account", ID: "acc-1"}, http.StatusConflict},
		{"partial failure", &domain.PartialFailureError{Operation: "sale.create", Cause: errors.New("boom")}, http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := statusOf(domain.KindOf(tt.err)); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteData(t *testing.T) {
	rr := httptest.NewRecorder()

	writeData(rr, http.StatusCreated, map[string]string{"status": "ok"})

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var env struct {
		OK   bool              `json:"ok"`
		Data map[string]string `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if !env.OK {
		t.Fatalf("expected ok=true, got %+v", env)
	}
	if env.Data["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", env)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, &domain.InsufficientFundsError{AccountID: "acc-1"})

	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}

	var env dto.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if env.OK {
		t.Fatalf("expected ok=false, got %+v", env)
	}
	if env.ErrorKind != string(domain.KindInsufficientFunds) {
		t.Fatalf("expected error_kind insufficient_funds, got %s", env.ErrorKind)
	}
	if env.ErrorDetail == "" {
		t.Fatalf("expected error_detail to carry the message")
	}
}

func TestWriteBadRequest(t *testing.T) {
	rr := httptest.NewRecorder()

	writeBadRequest(rr, "kind must be receivable or payable")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var env dto.Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if env.ErrorKind != string(domain.KindValidation) {
		t.Fatalf("expected error_kind validation, got %s", env.ErrorKind)
	}
}
