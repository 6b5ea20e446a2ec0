package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout/store"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
)

const (
	verifyPaymentFunction = "verify-payment"
	verifiedStatus        = "success"
)

type verifyRequest struct {
	Reference string `json:"reference"`
	OrderID   string `json:"orderId"`
}

// VerifyPayment reconciles the return from the payment gateway. On success
// the attempt is paid and the user's cart is emptied. Any other outcome
// leaves the attempt in payment_initiated so the return can be retried.
func (o *Orchestrator) VerifyPayment(ctx context.Context, identity *domain.Identity, attemptID, reference string) (*domain.CheckoutAttempt, error) {
	if attemptID == "" || reference == "" {
		return nil, ErrVerificationIncomplete
	}

	attempt, err := o.lookup(ctx, identity, attemptID)
	if err != nil {
		if errors.Is(err, ErrAttemptNotFound) {
			return nil, ErrVerificationIncomplete
		}
		return nil, err
	}
	ctx = logger.With(ctx, "attempt_id", attempt.ID)

	switch attempt.Status {
	case domain.CheckoutStatusPaid:
		return attempt, nil
	case domain.CheckoutStatusPaymentInitiated:
	default:
		return nil, fmt.Errorf("%w: attempt is %s", ErrVerificationIncomplete, attempt.Status)
	}

	stepCtx, cancel := o.stepContext(ctx)
	env, err := o.deps.Functions.Invoke(stepCtx, verifyPaymentFunction, verifyRequest{
		Reference: reference,
		OrderID:   attempt.OrderID,
	})
	cancel()

	var v *gateway.Verification
	if err == nil {
		v, err = env.Verification()
	}
	if err == nil && v.Status != verifiedStatus {
		err = fmt.Errorf("gateway reported status %q", v.Status)
	}
	o.observe(StepVerifyPayment, err)
	if err != nil {
		if errors.Is(err, gateway.ErrUnavailable) {
			return nil, err
		}
		logger.FromContext(ctx).WithError(err).Info("payment not verified")
		return nil, fmt.Errorf("%w: %v", ErrPaymentNotVerified, err)
	}

	err = o.advance(ctx, attempt, domain.CheckoutStatusPaid, func(n *domain.CheckoutAttempt) {
		n.Reference = reference
	})
	if err != nil {
		if !errors.Is(err, store.ErrStaleAttempt) {
			return nil, err
		}
		// A concurrent return verified it first.
		current, gerr := o.deps.Store.GetAttempt(ctx, attempt.ID)
		if gerr != nil || current.Status != domain.CheckoutStatusPaid {
			return nil, err
		}
		return current, nil
	}

	if err := o.deps.Cart.ClearCart(ctx, attempt.UserID); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to clear cart after payment")
	}
	return attempt, nil
}
