package notify

import (
	"context"
	"errors"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"github.com/segmentio/kafka-go"
)

const ConsumerGroup = "storefront-notifier"

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads notification events from Kafka and delivers them to the
// backend. A message is committed once it is delivered, found malformed, or
// has used up its delivery attempts.
type Consumer struct {
	reader      messageReader
	functions   FunctionInvoker
	maxAttempts int
	backoff     time.Duration
	timeout     time.Duration
}

func NewConsumer(functions FunctionInvoker, topic string, brokers ...string) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  ConsumerGroup,
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{
		reader:      reader,
		functions:   functions,
		maxAttempts: 3,
		backoff:     500 * time.Millisecond,
		timeout:     10 * time.Second,
	}
}

func (c *Consumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}

func (c *Consumer) processMessage(ctx context.Context) {
	log := logger.FromContext(ctx)
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return
		}
		log.WithError(err).Error("error reading message")
		return
	}
	log = log.WithField("order_id", string(m.Key)).WithField("offset", m.Offset)

	if err := c.deliver(ctx, m.Value); err != nil {
		if errors.Is(err, ErrMalformedEvent) {
			log.WithError(err).Warn("skipping malformed notification")
		} else if ctx.Err() != nil {
			return
		} else {
			log.WithError(err).Error("giving up on producer notification")
		}
	} else {
		log.Debug("producer notification delivered")
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
		log.WithError(err).Error("failed to commit message")
	}
}

func (c *Consumer) deliver(ctx context.Context, payload []byte) error {
	backoff := c.backoff
	var err error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		err = Deliver(callCtx, c.functions, payload)
		cancel()
		if err == nil || errors.Is(err, ErrMalformedEvent) || attempt == c.maxAttempts {
			return err
		}

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}
