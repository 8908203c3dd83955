package integration

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/usecase"
	"github.com/tokogudang/backoffice/tests/testutil"
)

func TestCheckAccountDetectsDrift(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := newStack(t, testDB)
	account := testDB.CreateTestAccount(ctx, "kas-toko", decimal.NewFromInt(1000))

	for _, amount := range []int64{250, 120} {
		if _, err := s.ledgerUC.Append(ctx, usecase.AppendEntryInput{
			AccountID:    account.ID,
			Direction:    "in",
			Amount:       decimal.NewFromInt(amount),
			Category:     "sales",
			BusinessDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
		}); err != nil {
			t.Fatalf("append entry: %v", err)
		}
	}

	check, err := s.reconUC.CheckAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("check account: %v", err)
	}
	if !check.Consistent || !check.ChainIntact {
		t.Fatalf("fresh account reported inconsistent: %+v", check)
	}
	if !check.DerivedBalance.Equal(decimal.NewFromInt(1370)) {
		t.Errorf("derived balance = %s, want 1370", check.DerivedBalance)
	}

	// Corrupt the denormalized balance behind the ledger's back.
	if _, err := testDB.Pool.Exec(ctx,
		"UPDATE accounts SET balance = balance + 100 WHERE id = $1", account.ID); err != nil {
		t.Fatalf("corrupt balance: %v", err)
	}

	check, err = s.reconUC.CheckAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("check account: %v", err)
	}
	if check.Consistent {
		t.Fatal("drifted account reported consistent")
	}
	if !check.Difference.Equal(decimal.NewFromInt(100)) {
		t.Errorf("difference = %s, want 100", check.Difference)
	}
	if !check.ChainIntact {
		t.Error("chain reported broken when only the header drifted")
	}
}

func TestGenerateReportUsesCache(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := newStack(t, testDB)
	account := testDB.CreateTestAccount(ctx, "kas-toko", decimal.NewFromInt(1000))

	report, err := s.reconUC.GenerateReport(ctx)
	if err != nil {
		t.Fatalf("generate report: %v", err)
	}
	if report.TotalAccounts != 1 || report.ConsistentAccounts != 1 {
		t.Fatalf("report = %+v, want 1 consistent account", report)
	}

	// Drift introduced after the first report stays invisible until
	// the cache expires.
	if _, err := testDB.Pool.Exec(ctx,
		"UPDATE accounts SET balance = balance + 100 WHERE id = $1", account.ID); err != nil {
		t.Fatalf("corrupt balance: %v", err)
	}

	cached, err := s.reconUC.GenerateReport(ctx)
	if err != nil {
		t.Fatalf("generate cached report: %v", err)
	}
	if cached.ConsistentAccounts != 1 {
		t.Errorf("cached report recomputed: %+v", cached)
	}
}
