package eventpublisher

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/usecase/mocks"
)

type capturingPublisher struct {
	mu        sync.Mutex
	published []string
	failFirst map[string]int
}

func (p *capturingPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if remaining := p.failFirst[event.ID]; remaining > 0 {
		p.failFirst[event.ID] = remaining - 1
		return errors.New("broker unavailable")
	}

	p.published = append(p.published, event.ID)
	return nil
}

func seedEvent(t *testing.T, repo *mocks.MockOutboxRepository, id string) {
	t.Helper()
	err := repo.Create(context.Background(), nil, &domain.OutboxEvent{
		ID:            id,
		AggregateID:   "acc-1",
		AggregateType: domain.AggregateTypeAccount,
		EventType:     "ledger.entry_appended",
		Payload:       map[string]any{"entry_id": "ent-1"},
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed event: %v", err)
	}
}

func TestEventPublisher_PublishesAndMarks(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	seedEvent(t, repo, "evt-1")
	seedEvent(t, repo, "evt-2")

	pub := &capturingPublisher{}
	ep := NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
	})

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents: %v", err)
	}

	if len(pub.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(pub.published))
	}

	pending, err := repo.GetUnpublished(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetUnpublished: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected all events marked published, %d still pending", len(pending))
	}
}

func TestEventPublisher_RetriesTransientFailure(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	seedEvent(t, repo, "evt-1")

	pub := &capturingPublisher{failFirst: map[string]int{"evt-1": 2}}
	ep := NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
	})

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected event to publish after retries, got %d", len(pub.published))
	}
}

func TestEventPublisher_FailedEventStaysPending(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	seedEvent(t, repo, "evt-1")
	seedEvent(t, repo, "evt-2")

	// evt-1 never succeeds within the retry budget; evt-2 must still
	// go out.
	pub := &capturingPublisher{failFirst: map[string]int{"evt-1": 1 << 20}}
	ep := NewEventPublisher(Config{
		OutboxRepo:  repo,
		Publisher:   pub,
		Logger:      zerolog.Nop(),
		RetryBudget: 200 * time.Millisecond,
	})

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents: %v", err)
	}

	if len(pub.published) != 1 || pub.published[0] != "evt-2" {
		t.Fatalf("expected only evt-2 to publish, got %v", pub.published)
	}

	pending, err := repo.GetUnpublished(context.Background(), 10)
	if err != nil {
		t.Fatalf("GetUnpublished: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "evt-1" {
		t.Fatalf("expected evt-1 to stay pending, got %v", pending)
	}
}

func TestEventPublisher_StartStopsOnCancel(t *testing.T) {
	repo := mocks.NewMockOutboxRepository()
	ep := NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  &capturingPublisher{},
		Logger:     zerolog.Nop(),
		Interval:   10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- ep.Start(ctx) }()

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}
