package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/infrastructure/eventpublisher"
	"github.com/tokogudang/backoffice/internal/usecase"
	"github.com/tokogudang/backoffice/tests/testutil"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*domain.OutboxEvent
}

func (p *recordingPublisher) Publish(_ context.Context, event *domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func TestOutboxPublisherDrainsPendingEvents(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	s := newStack(t, testDB)
	account := testDB.CreateTestAccount(ctx, "kas-toko", decimal.NewFromInt(1000))

	if _, err := s.ledgerUC.Append(ctx, usecase.AppendEntryInput{
		AccountID:    account.ID,
		Direction:    "in",
		Amount:       decimal.NewFromInt(250),
		Category:     "sales",
		BusinessDate: time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC),
	}); err != nil {
		t.Fatalf("append entry: %v", err)
	}

	pending, err := s.outbox.GetUnpublished(ctx, 10)
	if err != nil {
		t.Fatalf("get unpublished: %v", err)
	}
	if len(pending) == 0 {
		t.Fatal("append produced no outbox event")
	}

	sink := &recordingPublisher{}
	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: s.outbox,
		Publisher:  sink,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   50 * time.Millisecond,
	})

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		publisher.Start(runCtx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for {
		remaining, err := s.outbox.GetUnpublished(ctx, 10)
		if err != nil {
			t.Fatalf("get unpublished: %v", err)
		}
		if len(remaining) == 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("outbox not drained, %d events still pending", len(remaining))
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop after cancel")
	}

	if sink.count() != len(pending) {
		t.Errorf("delivered %d events, want %d", sink.count(), len(pending))
	}
}
