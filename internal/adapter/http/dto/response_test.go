package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tokogudang/backoffice/internal/domain"
)

func TestDebtFromDomainComputesOutstanding(t *testing.T) {
	now := time.Now().UTC()
	debt := &domain.DebtRecord{
		ID:          "debt-1",
		PartyID:     "supp-1",
		Kind:        domain.DebtPayable,
		TotalAmount: decimal.NewFromInt(500),
		PaidAmount:  decimal.NewFromInt(200),
		Status:      domain.DebtPartial,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	resp := DebtFromDomain(debt)
	assert.True(t, resp.Outstanding.Equal(decimal.NewFromInt(300)),
		"outstanding = %s, want 300", resp.Outstanding)
	assert.Nil(t, resp.DueDate)

	// An overpaid record never reports a negative remainder.
	debt.PaidAmount = decimal.NewFromInt(600)
	resp = DebtFromDomain(debt)
	assert.True(t, resp.Outstanding.IsZero(),
		"overpaid outstanding = %s, want 0", resp.Outstanding)
}

func TestEnvelopeOmitsErrorFieldsOnSuccess(t *testing.T) {
	raw, err := json.Marshal(Envelope{OK: true, Data: map[string]string{"id": "acc-1"}})
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "error_kind")
	assert.NotContains(t, fields, "error_detail")

	raw, err = json.Marshal(Envelope{OK: false, ErrorKind: "not_found", ErrorDetail: "account not found"})
	require.NoError(t, err)
	fields = nil
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "data")
	assert.Contains(t, fields, "error_kind")
}
