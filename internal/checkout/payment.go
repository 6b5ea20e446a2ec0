package checkout

import (
	"context"
	"net/url"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
)

type paymentMetadata struct {
	OrderID       string               `json:"order_id"`
	CustomerID    string               `json:"customer_id"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
}

// paymentRequest carries the amount in naira, as a JSON number.
type paymentRequest struct {
	Email       string          `json:"email"`
	Amount      float64         `json:"amount"`
	Currency    string          `json:"currency"`
	CallbackURL string          `json:"callback_url"`
	Metadata    paymentMetadata `json:"metadata"`
}

func (o *Orchestrator) callbackURL(attemptID string) string {
	return o.deps.PublicURL + "/payment-success?attempt=" + url.QueryEscape(attemptID)
}

func (o *Orchestrator) initializePayment(ctx context.Context, cc *Context, attempt *domain.CheckoutAttempt) (*gateway.PaymentInit, error) {
	req := paymentRequest{
		Email:       cc.Identity.Email,
		Amount:      attempt.TotalAmount.InexactFloat64(),
		Currency:    domain.Currency,
		CallbackURL: o.callbackURL(attempt.ID),
		Metadata: paymentMetadata{
			OrderID:       attempt.OrderID,
			CustomerID:    cc.Identity.ID,
			PaymentMethod: cc.PaymentMethod,
		},
	}

	stepCtx, cancel := o.stepContext(ctx)
	env, err := o.deps.Functions.Invoke(stepCtx, cc.PaymentMethod.InitFunction(), req)
	cancel()

	var init *gateway.PaymentInit
	if err == nil {
		init, err = env.PaymentInit()
	}
	o.observe(StepInitializePayment, err)
	if err != nil {
		if cerr := o.comp.abort(ctx, attempt, "initialize payment: "+err.Error()); cerr != nil {
			logger.FromContext(ctx).WithError(cerr).Warn("compensation failed, order left for the reaper")
		}
		return nil, &StepError{Step: StepInitializePayment, Err: err}
	}
	return init, nil
}
