// Package notify delivers producer notifications enqueued by checkout.
// Events leave the outbox through a Publisher; the Kafka and AMQP
// publishers hand them to a broker and a Consumer delivers them later.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout/store"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
)

const SendOrderNotification = "send-order-notification"

var ErrMalformedEvent = errors.New("malformed notification event")

type Publisher interface {
	Publish(ctx context.Context, event *store.OutboxEvent) error
	Close() error
}

type FunctionInvoker interface {
	Invoke(ctx context.Context, name string, body any) (*gateway.Envelope, error)
}

// decode checks the payload before anything is sent.
func decode(payload []byte) (*domain.ProducerNotification, error) {
	var n domain.ProducerNotification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if n.ProducerID == "" {
		return nil, fmt.Errorf("%w: missing farmer_id", ErrMalformedEvent)
	}
	return &n, nil
}

// Deliver sends one notification payload to the backend function.
func Deliver(ctx context.Context, functions FunctionInvoker, payload []byte) error {
	n, err := decode(payload)
	if err != nil {
		return err
	}
	env, err := functions.Invoke(ctx, SendOrderNotification, n)
	if err != nil {
		return err
	}
	if _, err := env.Result(); err != nil {
		return err
	}
	return nil
}

// FunctionPublisher delivers straight from the outbox, with no broker in
// between.
type FunctionPublisher struct {
	functions FunctionInvoker
}

func NewFunctionPublisher(functions FunctionInvoker) *FunctionPublisher {
	return &FunctionPublisher{functions: functions}
}

func (p *FunctionPublisher) Publish(ctx context.Context, event *store.OutboxEvent) error {
	return Deliver(ctx, p.functions, event.Payload)
}

func (p *FunctionPublisher) Close() error { return nil }
