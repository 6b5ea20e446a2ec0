package checkout

import (
	"context"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
)

// createOrderItems inserts one row per cart line. On failure the order is
// voided so no pending order is left without items.
func (o *Orchestrator) createOrderItems(ctx context.Context, cc *Context, attempt *domain.CheckoutAttempt) ([]domain.OrderItem, error) {
	items := cc.orderItems(attempt.OrderID)

	stepCtx, cancel := o.stepContext(ctx)
	_, err := o.deps.Orders.CreateItems(stepCtx, items)
	cancel()
	o.observe(StepCreateOrderItems, err)
	if err != nil {
		if cerr := o.comp.abort(ctx, attempt, "create order items: "+err.Error()); cerr != nil {
			logger.FromContext(ctx).WithError(cerr).Warn("compensation failed, order left for the reaper")
		}
		return nil, &StepError{Step: StepCreateOrderItems, Err: err}
	}

	if err := o.advance(ctx, attempt, domain.CheckoutStatusItemsConfirmed, nil); err != nil {
		return nil, &StepError{Step: StepCreateOrderItems, Err: err}
	}
	return items, nil
}
