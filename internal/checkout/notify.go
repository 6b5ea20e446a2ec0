package checkout

import (
	"context"
	"encoding/json"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout/store"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"github.com/google/uuid"
)

// notificationNamespace seeds notification event ids so that a resumed
// attempt enqueues the same ids again.
var notificationNamespace = uuid.MustParse("5f0c7e0a-3c55-4a8e-9f43-2d1f0b7c6a91")

func notificationEventID(orderID, producerID string) string {
	return uuid.NewSHA1(notificationNamespace, []byte(orderID+"/"+producerID)).String()
}

// notifyProducers enqueues one notification per distinct producer. It never
// fails the checkout.
func (o *Orchestrator) notifyProducers(ctx context.Context, cc *Context, attempt *domain.CheckoutAttempt, items []domain.OrderItem) {
	log := logger.FromContext(ctx).WithField("order_id", attempt.OrderID)
	producers, grouped := domain.GroupByProducer(items)
	now := o.deps.Now()

	events := make([]*store.OutboxEvent, 0, len(producers))
	for _, producerID := range producers {
		payload, err := json.Marshal(domain.ProducerNotification{
			OrderID:         attempt.OrderID,
			ProducerID:      producerID,
			OrderItems:      grouped[producerID],
			CustomerEmail:   cc.Identity.Email,
			DeliveryAddress: cc.Delivery.Address,
		})
		if err != nil {
			log.WithError(err).WithField("farmer_id", producerID).Warn("failed to encode producer notification")
			continue
		}
		events = append(events, &store.OutboxEvent{
			ID:          notificationEventID(attempt.OrderID, producerID),
			AggregateID: attempt.OrderID,
			EventType:   store.EventProducerNotification,
			Payload:     payload,
			CreatedAt:   now,
		})
	}

	stepCtx, cancel := o.stepContext(ctx)
	defer cancel()
	err := o.deps.Store.EnqueueEvents(stepCtx, events)
	o.observe(StepNotifyProducers, err)
	if err != nil {
		log.WithError(err).Warn("failed to enqueue producer notifications")
		return
	}
	log.WithField("producers", len(events)).Debug("producer notifications enqueued")
}
