package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout/store"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"github.com/sirupsen/logrus"
)

type compensator struct {
	orders  repository.OrderRepository
	store   store.Store
	timeout time.Duration
	now     func() time.Time
	metrics StepObserver
}

// voidOrder runs even when the caller's context is already cancelled.
func (c compensator) voidOrder(ctx context.Context, orderID string) error {
	voidCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
	defer cancel()

	err := c.orders.SetStatus(voidCtx, orderID, domain.OrderStatusCancelled)
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	c.metrics.ObserveStep(StepCompensate, outcome)
	if err != nil {
		return fmt.Errorf("failed to cancel order %s: %w", orderID, err)
	}
	return nil
}

// abort claims the attempt, voids its order, if any, and marks the attempt
// failed. The order is only touched once the claim has won against any saga
// still running on the attempt. When voiding fails the attempt stays
// compensating and the reaper retries it.
func (c compensator) abort(ctx context.Context, attempt *domain.CheckoutAttempt, reason string) error {
	writeCtx := context.WithoutCancel(ctx)
	if attempt.Status != domain.CheckoutStatusCompensating {
		err := advance(writeCtx, c.store, c.now, attempt, domain.CheckoutStatusCompensating, func(n *domain.CheckoutAttempt) {
			n.FailureReason = reason
		})
		if err != nil {
			return fmt.Errorf("failed to claim checkout attempt: %w", err)
		}
	}

	if attempt.OrderID != "" {
		if err := c.voidOrder(ctx, attempt.OrderID); err != nil {
			return err
		}
	}

	if err := advance(writeCtx, c.store, c.now, attempt, domain.CheckoutStatusFailed, nil); err != nil {
		return fmt.Errorf("failed to mark checkout attempt failed: %w", err)
	}

	logger.FromContext(ctx).WithFields(logrus.Fields{
		"attempt_id": attempt.ID,
		"order_id":   attempt.OrderID,
		"reason":     attempt.FailureReason,
	}).Info("checkout attempt compensated")
	return nil
}
