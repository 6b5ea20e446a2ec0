package checkout

import (
	"context"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
)

func (o *Orchestrator) createOrder(ctx context.Context, cc *Context, attempt *domain.CheckoutAttempt) error {
	order := domain.Order{
		CustomerID:       cc.Identity.ID,
		TotalAmount:      attempt.TotalAmount,
		DeliveryLocation: cc.Delivery.Location,
		DeliveryAddress:  domain.DeliveryAddress(cc.Delivery.Address, cc.Delivery.Directions),
		PhoneNumber:      cc.Delivery.Phone,
		Status:           domain.OrderStatusPending,
	}

	stepCtx, cancel := o.stepContext(ctx)
	created, err := o.deps.Orders.CreateOrder(stepCtx, order)
	cancel()
	o.observe(StepCreateOrder, err)
	if err != nil {
		o.fail(ctx, attempt, "create order: "+err.Error())
		return &StepError{Step: StepCreateOrder, Err: err}
	}

	err = o.advance(ctx, attempt, domain.CheckoutStatusDraft, func(n *domain.CheckoutAttempt) {
		n.OrderID = created.ID
	})
	if err != nil {
		// The cursor does not know about this order, so nobody else will
		// void it.
		if cerr := o.comp.voidOrder(ctx, created.ID); cerr != nil {
			logger.FromContext(ctx).WithError(cerr).WithField("order_id", created.ID).Error("order left pending without a checkout attempt")
		}
		return &StepError{Step: StepCreateOrder, Err: err}
	}
	return nil
}
