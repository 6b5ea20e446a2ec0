package checkout

import (
	"context"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
)

// persistPendingReference records the hand-off so the return from the
// gateway can find this attempt by id.
func (o *Orchestrator) persistPendingReference(ctx context.Context, attempt *domain.CheckoutAttempt, method domain.PaymentMethod, init *gateway.PaymentInit) error {
	err := o.advance(ctx, attempt, domain.CheckoutStatusPaymentInitiated, func(n *domain.CheckoutAttempt) {
		n.Reference = init.Reference
		n.AuthorizationURL = init.AuthorizationURL
		n.PaymentMethod = method
		n.FailureReason = ""
	})
	o.observe(StepPersistReference, err)
	if err != nil {
		return &StepError{Step: StepPersistReference, Err: err}
	}
	return nil
}
