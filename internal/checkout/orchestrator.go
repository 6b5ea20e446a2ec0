// Package checkout turns a cart into an order and hands it off to a payment
// gateway. Each checkout is a saga whose cursor is persisted in the store
// package, so a failed or interrupted checkout is resumed or compensated
// instead of duplicated.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout/store"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"github.com/google/uuid"
)

const (
	StepCreateAttempt     = "create_attempt"
	StepCreateOrder       = "create_order"
	StepCreateOrderItems  = "create_order_items"
	StepNotifyProducers   = "notify_producers"
	StepInitializePayment = "initialize_payment"
	StepPersistReference  = "persist_reference"
	StepVerifyPayment     = "verify_payment"
	StepCompensate        = "compensate"

	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

const defaultStepTimeout = 15 * time.Second

type FunctionInvoker interface {
	Invoke(ctx context.Context, name string, body any) (*gateway.Envelope, error)
}

type CartClearer interface {
	ClearCart(ctx context.Context, userID string) error
}

// StepObserver counts step outcomes.
type StepObserver interface {
	ObserveStep(step, outcome string)
}

type Deps struct {
	Orders    repository.OrderRepository
	Store     store.Store
	Functions FunctionInvoker
	Cart      CartClearer
	Metrics   StepObserver

	PublicURL   string
	StepTimeout time.Duration
	Now         func() time.Time
	NewID       func() string
}

type Orchestrator struct {
	deps Deps
	comp compensator
}

func New(deps Deps) *Orchestrator {
	if deps.StepTimeout <= 0 {
		deps.StepTimeout = defaultStepTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.Metrics == nil {
		deps.Metrics = nopObserver{}
	}
	return &Orchestrator{
		deps: deps,
		comp: compensator{
			orders:  deps.Orders,
			store:   deps.Store,
			timeout: deps.StepTimeout,
			now:     deps.Now,
			metrics: deps.Metrics,
		},
	}
}

type nopObserver struct{}

func (nopObserver) ObserveStep(string, string) {}

// Result is what the caller needs to redirect the browser.
type Result struct {
	AttemptID        string `json:"attempt_id"`
	OrderID          string `json:"order_id"`
	AuthorizationURL string `json:"authorization_url"`
	Resumed          bool   `json:"resumed"`
}

// Checkout validates cc and runs the saga from wherever its attempt left
// off. No remote call is made when validation fails.
func (o *Orchestrator) Checkout(ctx context.Context, cc *Context) (*Result, error) {
	if err := cc.Validate(); err != nil {
		return nil, err
	}
	ctx = logger.With(ctx, "user_id", cc.Identity.ID)

	attempt, err := o.resume(ctx, cc)
	if err != nil {
		return nil, err
	}
	resumed := attempt != nil
	if attempt == nil {
		if attempt, err = o.createAttempt(ctx, cc); err != nil {
			return nil, err
		}
	}
	ctx = logger.With(ctx, "attempt_id", attempt.ID)

	if attempt.Status == domain.CheckoutStatusPaymentInitiated {
		return resultOf(attempt, resumed), nil
	}

	if attempt.OrderID == "" {
		if err := o.createOrder(ctx, cc, attempt); err != nil {
			return nil, err
		}
	}

	var items []domain.OrderItem
	if attempt.Status == domain.CheckoutStatusDraft {
		if items, err = o.createOrderItems(ctx, cc, attempt); err != nil {
			return nil, err
		}
	} else {
		items = cc.orderItems(attempt.OrderID)
	}

	o.notifyProducers(ctx, cc, attempt, items)

	init, err := o.initializePayment(ctx, cc, attempt)
	if err != nil {
		return nil, err
	}

	if err := o.persistPendingReference(ctx, attempt, cc.PaymentMethod, init); err != nil {
		return nil, err
	}
	return resultOf(attempt, resumed), nil
}

func resultOf(a *domain.CheckoutAttempt, resumed bool) *Result {
	return &Result{
		AttemptID:        a.ID,
		OrderID:          a.OrderID,
		AuthorizationURL: a.AuthorizationURL,
		Resumed:          resumed,
	}
}

// resume returns the attempt to continue, or nil when a fresh one is needed.
func (o *Orchestrator) resume(ctx context.Context, cc *Context) (*domain.CheckoutAttempt, error) {
	if cc.AttemptID == "" {
		return nil, nil
	}
	attempt, err := o.lookup(ctx, cc.Identity, cc.AttemptID)
	if err != nil {
		return nil, err
	}

	switch attempt.Status {
	case domain.CheckoutStatusPaid:
		return nil, ErrAlreadyPaid
	case domain.CheckoutStatusFailed, domain.CheckoutStatusCompensating:
		return nil, nil
	case domain.CheckoutStatusPaymentInitiated:
		return attempt, nil
	}

	// The order total was fixed when the attempt started. A cart that changed
	// since then gets a fresh attempt and the old one is voided.
	if !attempt.TotalAmount.Equal(cc.Total()) {
		logger.FromContext(ctx).WithField("attempt_id", attempt.ID).Info("cart changed since attempt started, starting over")
		if err := o.comp.abort(ctx, attempt, "cart changed"); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return attempt, nil
}

// lookup hides attempts of other users behind ErrAttemptNotFound.
func (o *Orchestrator) lookup(ctx context.Context, identity *domain.Identity, attemptID string) (*domain.CheckoutAttempt, error) {
	if identity == nil {
		return nil, ErrAttemptNotFound
	}
	attempt, err := o.deps.Store.GetAttempt(ctx, attemptID)
	if err != nil {
		if errors.Is(err, store.ErrAttemptNotFound) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to load checkout attempt: %w", err)
	}
	if attempt.UserID != identity.ID {
		return nil, ErrAttemptNotFound
	}
	return attempt, nil
}

// Get returns an attempt owned by identity.
func (o *Orchestrator) Get(ctx context.Context, identity *domain.Identity, attemptID string) (*domain.CheckoutAttempt, error) {
	return o.lookup(ctx, identity, attemptID)
}

func (o *Orchestrator) stepContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, o.deps.StepTimeout)
}

func (o *Orchestrator) observe(step string, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
	}
	o.deps.Metrics.ObserveStep(step, outcome)
}

// advance moves the cursor to status and persists it together with any
// field changes made by mutate.
func advance(ctx context.Context, st store.Store, now func() time.Time, a *domain.CheckoutAttempt, to domain.CheckoutStatus, mutate func(*domain.CheckoutAttempt)) error {
	from := a.Status
	if from != to && !domain.CanTransitionTo(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from, to)
	}

	next := *a
	next.Status = to
	next.UpdatedAt = now()
	if mutate != nil {
		mutate(&next)
	}
	if err := st.UpdateAttempt(ctx, &next, from); err != nil {
		return err
	}
	*a = next
	return nil
}

func (o *Orchestrator) advance(ctx context.Context, a *domain.CheckoutAttempt, to domain.CheckoutStatus, mutate func(*domain.CheckoutAttempt)) error {
	return advance(ctx, o.deps.Store, o.deps.Now, a, to, mutate)
}

// fail marks a failed step on the cursor. Nothing was created that needs
// undoing.
func (o *Orchestrator) fail(ctx context.Context, a *domain.CheckoutAttempt, reason string) {
	err := o.advance(ctx, a, domain.CheckoutStatusFailed, func(n *domain.CheckoutAttempt) {
		n.FailureReason = reason
	})
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to mark checkout attempt failed")
	}
}
