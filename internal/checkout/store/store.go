// Package store persists checkout saga cursors and the producer
// notification outbox.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
)

var (
	ErrAttemptNotFound  = errors.New("checkout attempt not found")
	ErrDuplicateAttempt = errors.New("checkout attempt already exists")
	// ErrStaleAttempt means the attempt changed status since it was read.
	ErrStaleAttempt = errors.New("checkout attempt was modified concurrently")
)

const EventProducerNotification = "producer_notification"

type OutboxEvent struct {
	ID          string
	AggregateID string
	EventType   string
	Payload     []byte
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type Store interface {
	CreateAttempt(ctx context.Context, a *domain.CheckoutAttempt) error
	GetAttempt(ctx context.Context, id string) (*domain.CheckoutAttempt, error)
	// UpdateAttempt writes a only if its stored status is still expected.
	UpdateAttempt(ctx context.Context, a *domain.CheckoutAttempt, expected domain.CheckoutStatus) error
	ListStaleAttempts(ctx context.Context, statuses []domain.CheckoutStatus, before time.Time, limit int) ([]*domain.CheckoutAttempt, error)

	EnqueueEvents(ctx context.Context, events []*OutboxEvent) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id string) error

	Close() error
}
