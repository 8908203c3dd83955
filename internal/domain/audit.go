package domain

import (
	"encoding/json"
	"time"
)

// AuditLog represents an audit trail entry for compliance and debugging
type AuditLog struct {
	ID           string
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	RequestID    string
	BeforeState  JSON
	AfterState   JSON
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionEntryAppend   AuditAction = "ledger.append"
	AuditActionEntryReverse  AuditAction = "ledger.reverse"
	AuditActionEntryUpdate   AuditAction = "ledger.update"
	AuditActionTransfer      AuditAction = "ledger.transfer"
	AuditActionPaymentApply  AuditAction = "debt.pay"
	AuditActionStockTransfer AuditAction = "stock.transfer"
	AuditActionConsignCreate AuditAction = "consignment.create"
	AuditActionConsignSell   AuditAction = "consignment.sell"
	AuditActionTxnPost       AuditAction = "transaction.post"
	AuditActionTxnCancel     AuditAction = "transaction.cancel"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
	AuditStatusError   AuditStatus = "error"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter defines filters for querying audit logs
type AuditFilter struct {
	Actor        string
	Action       string
	ResourceType string
	ResourceID   string
	StartDate    *time.Time
	EndDate      *time.Time
	Limit        int
	Offset       int
}
