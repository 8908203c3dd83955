package eventpublisher

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/tokogudang/backoffice/internal/domain"
	"github.com/tokogudang/backoffice/internal/infrastructure/metrics"
	"github.com/tokogudang/backoffice/internal/usecase"
)

// Publisher delivers an event to an external system.
type Publisher interface {
	Publish(ctx context.Context, event *domain.OutboxEvent) error
}

// EventPublisher polls the outbox and publishes pending events. Rows
// are marked published only after delivery, so a crash mid-batch
// re-delivers rather than drops. Consumers must tolerate duplicates.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	publisher  Publisher
	metrics    *metrics.Metrics
	logger      zerolog.Logger
	batchSize   int
	interval    time.Duration
	retryBudget time.Duration
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo  usecase.OutboxRepository
	Publisher   Publisher
	Metrics     *metrics.Metrics
	Logger      zerolog.Logger
	BatchSize   int
	Interval    time.Duration
	RetryBudget time.Duration // per-event retry window before the next poll takes over
}

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.RetryBudget == 0 {
		cfg.RetryBudget = 10 * time.Second
	}

	return &EventPublisher{
		outboxRepo:  cfg.OutboxRepo,
		publisher:   cfg.Publisher,
		metrics:     cfg.Metrics,
		logger:      cfg.Logger,
		batchSize:   cfg.BatchSize,
		interval:    cfg.Interval,
		retryBudget: cfg.RetryBudget,
	}
}

// Start runs the polling loop until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	// Drain whatever accumulated before startup.
	if err := ep.processEvents(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("error processing events on start")
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if err := ep.processEvents(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("error processing events")
			}
		}
	}
}

// processEvents fetches and publishes one batch of unpublished events.
func (ep *EventPublisher) processEvents(ctx context.Context) error {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return err
	}

	if ep.metrics != nil {
		ep.metrics.OutboxBacklogEvents.Set(float64(len(events)))
	}

	if len(events) == 0 {
		return nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing outbox events")

	for _, event := range events {
		if err := ep.publishWithRetry(ctx, event); err != nil {
			ep.logger.Error().
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Err(err).
				Msg("failed to publish event")
			if ep.metrics != nil {
				ep.metrics.EventPublishErrors.Inc()
			}
			// Leave the row unpublished; the next poll retries it.
			continue
		}

		if ep.metrics != nil {
			ep.metrics.EventsPublished.Inc()
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, time.Now().UTC()); err != nil {
			// The event went out but the row still reads unpublished,
			// so the next poll will deliver it again.
			ep.logger.Error().
				Str("event_id", event.ID).
				Err(err).
				Msg("failed to mark event as published")
		}
	}

	return nil
}

// publishWithRetry retries transient publish failures with exponential
// backoff before giving the event back to the next poll.
func (ep *EventPublisher) publishWithRetry(ctx context.Context, event *domain.OutboxEvent) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxInterval = 2 * time.Second
	b.MaxElapsedTime = ep.retryBudget

	return backoff.Retry(func() error {
		return ep.publisher.Publish(ctx, event)
	}, backoff.WithContext(b, ctx))
}

// LogPublisher writes events to the log, the default sink until a real
// broker is attached.
type LogPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a new LogPublisher.
func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("event published")

	return nil
}
