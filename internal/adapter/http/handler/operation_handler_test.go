package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tokogudang/backoffice/internal/adapter/http/dto"
	"github.com/tokogudang/backoffice/internal/domain"
)

type operationServiceStub struct {
	runFn              func(ctx context.Context, operation string, payload []byte) (any, error)
	getConsignmentFn   func(ctx context.Context, id string) (*domain.Consignment, error)
	listConsignmentsFn func(ctx context.Context, limit, offset int) ([]*domain.Consignment, error)
	getTransactionFn   func(ctx context.Context, id string) (*domain.Transaction, error)
}

func (s *operationServiceStub) Run(ctx context.Context, operation string, payload []byte) (any, error) {
	return s.runFn(ctx, operation, payload)
}

func (s *operationServiceStub) GetConsignment(ctx context.Context, id string) (*domain.Consignment, error) {
	return s.getConsignmentFn(ctx, id)
}

func (s *operationServiceStub) ListConsignments(ctx context.Context, limit, offset int) ([]*domain.Consignment, error) {
	return s.listConsignmentsFn(ctx, limit, offset)
}

func (s *operationServiceStub) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return s.getTransactionFn(ctx, id)
}

func TestOperationHandler_Run_Success(t *testing.T) {
	var gotOperation string
	var gotPayload []byte
	handler := NewOperationHandler(&operationServiceStub{
		runFn: func(ctx context.Context, operation string, payload []byte) (any, error) {
			gotOperation = operation
			gotPayload = payload
			return &domain.Transaction{ID: "txn-1", Status: domain.TransactionCommitted}, nil
		},
	})

	payload := `{"branch_id":"toko","items":[]}`
	req := withURLParam(
		httptest.NewRequest(http.MethodPost, "/operations/sale.create", bytes.NewBufferString(payload)),
		"name", "sale.create")
	rec := httptest.NewRecorder()

	handler.Run(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	if gotOperation != "sale.create" {
		t.Fatalf("expected operation sale.create, got %q", gotOperation)
	}
	if string(gotPayload) != payload {
		t.Fatalf("expected payload to pass through untouched, got %s", gotPayload)
	}

	var env struct {
		OK   bool                    `json:"ok"`
		Data dto.TransactionResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.Data.ID != "txn-1" {
		t.Fatalf("expected transaction txn-1, got %+v", env.Data)
	}
}

func TestOperationHandler_Run_UnknownOperation(t *testing.T) {
	handler := NewOperationHandler(&operationServiceStub{
		runFn: func(ctx context.Context, operation string, payload []byte) (any, error) {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOperation, operation)
		},
	})

	req := withURLParam(
		httptest.NewRequest(http.MethodPost, "/operations/debt.forgive", bytes.NewBufferString(`{}`)),
		"name", "debt.forgive")
	rec := httptest.NewRecorder()

	handler.Run(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var env dto.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.ErrorKind != string(domain.KindValidation) {
		t.Fatalf("expected error_kind validation, got %s", env.ErrorKind)
	}
}

func TestOperationHandler_Run_PartialFailure(t *testing.T) {
	handler := NewOperationHandler(&operationServiceStub{
		runFn: func(ctx context.Context, operation string, payload []byte) (any, error) {
			return nil, &domain.PartialFailureError{
				Operation:     operation,
				FailedStep:    "apply payment",
				Cause:         errors.New("connection reset"),
				Uncompensated: []string{"decrement stock"},
			}
		},
	})

	req := withURLParam(
		httptest.NewRequest(http.MethodPost, "/operations/sale.create", bytes.NewBufferString(`{}`)),
		"name", "sale.create")
	rec := httptest.NewRecorder()

	handler.Run(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	var env dto.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.ErrorKind != string(domain.KindPartialFailure) {
		t.Fatalf("expected error_kind partial_failure, got %s", env.ErrorKind)
	}
}

func TestOperationHandler_GetConsignment(t *testing.T) {
	handler := NewOperationHandler(&operationServiceStub{
		getConsignmentFn: func(ctx context.Context, id string) (*domain.Consignment, error) {
			if id != "csg-1" {
				t.Fatalf("expected id csg-1, got %q", id)
			}
			return &domain.Consignment{ID: "csg-1", ProductID: "prd-1"}, nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/consignments/csg-1", nil), "id", "csg-1")
	rec := httptest.NewRecorder()

	handler.GetConsignment(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var env struct {
		OK   bool                    `json:"ok"`
		Data dto.ConsignmentResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if env.Data.ID != "csg-1" {
		t.Fatalf("expected consignment csg-1, got %+v", env.Data)
	}
}
