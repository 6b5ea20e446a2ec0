package notify

import (
	"context"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout/store"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
)

const outboxBatchSize = 100

type OutboxStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*store.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error
}

// OutboxPoller drains the outbox into a Publisher. A failed publish stays
// unprocessed and is retried on the next tick.
type OutboxPoller struct {
	tick      time.Duration
	timeout   time.Duration
	store     OutboxStore
	publisher Publisher
}

func NewOutboxPoller(st OutboxStore, publisher Publisher) *OutboxPoller {
	return &OutboxPoller{
		tick:      time.Second,
		timeout:   10 * time.Second,
		store:     st,
		publisher: publisher,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.processUnpublishedEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// processUnpublishedEvents returns how many events were published.
func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) int {
	log := logger.FromContext(ctx)
	events, err := p.store.GetUnprocessedEvents(ctx, outboxBatchSize)
	if err != nil {
		log.WithError(err).Error("failed to fetch outbox events")
		return 0
	}

	published := 0
	for _, event := range events {
		pubCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := p.publisher.Publish(pubCtx, event)
		cancel()
		if err != nil {
			log.WithError(err).WithField("event_id", event.ID).Warn("failed to publish outbox event")
			continue
		}

		if err := p.store.MarkEventAsProcessed(ctx, event.ID); err != nil {
			log.WithError(err).WithField("event_id", event.ID).Error("failed to mark outbox event processed")
			continue
		}
		published++
	}
	return published
}
