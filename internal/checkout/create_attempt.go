package checkout

import (
	"context"
	"fmt"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
)

// createAttempt persists a draft cursor. The total is fixed here for the
// lifetime of the attempt.
func (o *Orchestrator) createAttempt(ctx context.Context, cc *Context) (*domain.CheckoutAttempt, error) {
	now := o.deps.Now()
	attempt := &domain.CheckoutAttempt{
		ID:            o.deps.NewID(),
		UserID:        cc.Identity.ID,
		Status:        domain.CheckoutStatusDraft,
		PaymentMethod: cc.PaymentMethod,
		TotalAmount:   cc.Total(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err := o.deps.Store.CreateAttempt(ctx, attempt)
	o.observe(StepCreateAttempt, err)
	if err != nil {
		return nil, &StepError{Step: StepCreateAttempt, Err: fmt.Errorf("failed to persist checkout attempt: %w", err)}
	}
	return attempt, nil
}
