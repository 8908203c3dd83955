package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/adapter/http/dto"
	"github.com/tokogudang/backoffice/tests/testutil"
)

func postJSON(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}

	r := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()

	var envelope struct {
		OK   bool            `json:"ok"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if !envelope.OK {
		t.Fatalf("response not ok: %s", w.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestLedgerFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := newStack(t, testDB)
	businessDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	var account dto.AccountResponse

	w := postJSON(t, s.router, "/api/v1/accounts/", dto.CreateAccountRequest{
		Name:        "kas-toko",
		SeedBalance: decimal.NewFromInt(1000),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create account status = %d, body %s", w.Code, w.Body.String())
	}
	decodeData(t, w, &account)
	if !account.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("seed balance = %s, want 1000", account.Balance)
	}

	var entry dto.EntryResponse

	w = postJSON(t, s.router, "/api/v1/entries/", dto.AppendEntryRequest{
		AccountID:    account.ID,
		Direction:    "in",
		Amount:       decimal.NewFromInt(250),
		Category:     "sales",
		BusinessDate: businessDate,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("append entry status = %d, body %s", w.Code, w.Body.String())
	}
	decodeData(t, w, &entry)
	if !entry.RunningBalance.Equal(decimal.NewFromInt(1250)) {
		t.Errorf("running balance = %s, want 1250", entry.RunningBalance)
	}

	// Overdraw is rejected and leaves the chain untouched.
	w = postJSON(t, s.router, "/api/v1/entries/", dto.AppendEntryRequest{
		AccountID:    account.ID,
		Direction:    "out",
		Amount:       decimal.NewFromInt(999999),
		Category:     "purchase",
		BusinessDate: businessDate,
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("overdraw status = %d, want 422", w.Code)
	}

	var failed dto.Envelope
	if err := json.Unmarshal(w.Body.Bytes(), &failed); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	if failed.ErrorKind != "insufficient_funds" {
		t.Errorf("error_kind = %q, want insufficient_funds", failed.ErrorKind)
	}

	got, err := s.ledgerUC.GetAccount(ctx, account.ID)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if !got.Balance.Equal(decimal.NewFromInt(1250)) {
		t.Errorf("balance after rejected overdraw = %s, want 1250", got.Balance)
	}
}

func TestLedgerTransferAndReversal(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := newStack(t, testDB)
	businessDate := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	register := testDB.CreateTestAccount(ctx, "kas-kasir", decimal.NewFromInt(500))
	vault := testDB.CreateTestAccount(ctx, "brankas", decimal.NewFromInt(0))

	var transfer dto.TransferResponse

	w := postJSON(t, s.router, "/api/v1/transfers", dto.TransferRequest{
		FromAccountID: register.ID,
		ToAccountID:   vault.ID,
		Amount:        decimal.NewFromInt(300),
		BusinessDate:  businessDate,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("transfer status = %d, body %s", w.Code, w.Body.String())
	}
	decodeData(t, w, &transfer)

	if !transfer.OutEntry.RunningBalance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("out leg running balance = %s, want 200", transfer.OutEntry.RunningBalance)
	}
	if !transfer.InEntry.RunningBalance.Equal(decimal.NewFromInt(300)) {
		t.Errorf("in leg running balance = %s, want 300", transfer.InEntry.RunningBalance)
	}
	if transfer.OutEntry.ReferenceID != transfer.InEntry.ReferenceID {
		t.Errorf("legs carry different reference ids: %q vs %q",
			transfer.OutEntry.ReferenceID, transfer.InEntry.ReferenceID)
	}

	// Reversing the in leg puts the vault back to zero.
	r := httptest.NewRequest(http.MethodDelete, "/api/v1/entries/"+transfer.InEntry.ID, nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, r)
	if rec.Code != http.StatusOK {
		t.Fatalf("reverse status = %d, body %s", rec.Code, rec.Body.String())
	}

	vaultAfter, err := s.ledgerUC.GetAccount(ctx, vault.ID)
	if err != nil {
		t.Fatalf("get vault: %v", err)
	}
	if !vaultAfter.Balance.Equal(decimal.Zero) {
		t.Errorf("vault balance after reversal = %s, want 0", vaultAfter.Balance)
	}
}

func TestIdempotentReplay(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := newStack(t, testDB)

	body, _ := json.Marshal(dto.CreateAccountRequest{
		Name:        "kas-cabang",
		SeedBalance: decimal.NewFromInt(100),
	})

	send := func() *httptest.ResponseRecorder {
		r := httptest.NewRequest(http.MethodPost, "/api/v1/accounts/", bytes.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
		r.Header.Set("Idempotency-Key", "create-kas-cabang-1")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, r)
		return w
	}

	first := send()
	if first.Code != http.StatusCreated {
		t.Fatalf("first request status = %d, body %s", first.Code, first.Body.String())
	}

	second := send()
	if second.Code != http.StatusOK {
		t.Fatalf("replay status = %d, body %s", second.Code, second.Body.String())
	}
	if second.Header().Get("X-Idempotency-Replay") != "true" {
		t.Error("replay response missing X-Idempotency-Replay header")
	}
	if !bytes.Equal(first.Body.Bytes(), second.Body.Bytes()) {
		t.Error("replay body differs from original response")
	}

	accounts, err := s.ledgerUC.ListAccounts(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list accounts: %v", err)
	}
	if len(accounts) != 1 {
		t.Errorf("accounts created = %d, want 1", len(accounts))
	}
}
