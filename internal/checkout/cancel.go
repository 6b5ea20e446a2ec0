package checkout

import (
	"context"
	"fmt"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
)

const reasonCancelled = "cancelled"

// Cancel voids the order of a non-terminal attempt and marks it failed.
func (o *Orchestrator) Cancel(ctx context.Context, identity *domain.Identity, attemptID string) (*domain.CheckoutAttempt, error) {
	attempt, err := o.lookup(ctx, identity, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: attempt is %s", ErrIllegalTransition, attempt.Status)
	}

	if err := o.comp.abort(ctx, attempt, reasonCancelled); err != nil {
		return nil, err
	}
	return attempt, nil
}
