package http

import (
	"context"
	"net/http"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CheckoutService interface {
	Checkout(ctx context.Context, cc *checkout.Context) (*checkout.Result, error)
	VerifyPayment(ctx context.Context, identity *domain.Identity, attemptID, reference string) (*domain.CheckoutAttempt, error)
	Cancel(ctx context.Context, identity *domain.Identity, attemptID string) (*domain.CheckoutAttempt, error)
	Get(ctx context.Context, identity *domain.Identity, attemptID string) (*domain.CheckoutAttempt, error)
}

type CartReader interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type CheckoutHandler struct {
	checkout CheckoutService
	cart     CartReader
	timeout  time.Duration
}

func NewCheckoutHandler(svc CheckoutService, cart CartReader, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: svc,
		cart:     cart,
		timeout:  timeout,
	}
}

type InitiateCheckoutRequestDTO struct {
	checkout.Delivery
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	// AttemptID resumes an earlier attempt.
	AttemptID string `json:"attempt_id,omitempty"`
}

type VerifyPaymentRequestDTO struct {
	AttemptID string `json:"attempt_id"`
	Reference string `json:"reference"`
}

type AttemptResponseDTO struct {
	AttemptID        string                `json:"attempt_id"`
	OrderID          string                `json:"order_id,omitempty"`
	Status           domain.CheckoutStatus `json:"status"`
	TotalAmount      decimal.Decimal       `json:"total_amount"`
	PaymentMethod    domain.PaymentMethod  `json:"payment_method,omitempty"`
	AuthorizationURL string                `json:"authorization_url,omitempty"`
	FailureReason    string                `json:"failure_reason,omitempty"`
}

func attemptResponse(a *domain.CheckoutAttempt) AttemptResponseDTO {
	return AttemptResponseDTO{
		AttemptID:        a.ID,
		OrderID:          a.OrderID,
		Status:           a.Status,
		TotalAmount:      a.TotalAmount,
		PaymentMethod:    a.PaymentMethod,
		AuthorizationURL: a.AuthorizationURL,
		FailureReason:    a.FailureReason,
	}
}

func identity(r *http.Request) *domain.Identity {
	return session.SnapshotFromContext(r.Context()).Identity
}

// POST /api/v1/checkout
func (h *CheckoutHandler) InitiateCheckout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req InitiateCheckoutRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	cc := &checkout.Context{
		Identity:      identity(r),
		Delivery:      req.Delivery,
		PaymentMethod: req.PaymentMethod,
		AttemptID:     req.AttemptID,
	}
	if cc.Identity != nil {
		c, err := h.cart.GetCart(ctx, cc.Identity.ID)
		if err != nil {
			handleError(w, r, err)
			return
		}
		cc.Lines = c.Lines
	}

	result, err := h.checkout.Checkout(ctx, cc)
	if err != nil {
		handleError(w, r, err)
		return
	}
	status := http.StatusCreated
	if result.Resumed {
		status = http.StatusOK
	}
	respondJSON(w, r, status, result)
}

// POST /api/v1/checkout/verify
func (h *CheckoutHandler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VerifyPaymentRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	attempt, err := h.checkout.VerifyPayment(ctx, identity(r), req.AttemptID, req.Reference)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, attemptResponse(attempt))
}

// GET /api/v1/checkout/{attempt_id}
func (h *CheckoutHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	attempt, err := h.checkout.Get(ctx, identity(r), chi.URLParam(r, "attempt_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, attemptResponse(attempt))
}

// POST /api/v1/checkout/{attempt_id}/cancel
func (h *CheckoutHandler) CancelAttempt(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	attempt, err := h.checkout.Cancel(ctx, identity(r), chi.URLParam(r, "attempt_id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, attemptResponse(attempt))
}
