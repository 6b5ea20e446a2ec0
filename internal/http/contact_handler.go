package http

import (
	"context"
	"net/http"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/contact"
)

type ContactService interface {
	Send(ctx context.Context, form contact.Form) error
	SendDonationInquiry(ctx context.Context, inquiry contact.DonationInquiry) error
	SendInvestorInquiry(ctx context.Context, inquiry contact.InvestorInquiry) error
}

type ContactHandler struct {
	contact ContactService
	timeout time.Duration
}

func NewContactHandler(svc ContactService, timeout time.Duration) *ContactHandler {
	return &ContactHandler{contact: svc, timeout: timeout}
}

// POST /api/v1/contact
func (h *ContactHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form contact.Form
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := h.contact.Send(ctx, form); err != nil {
		handleError(w, r, err)
		return
	}
	respondOK(w, r, "Thank you for your message. We will get back to you soon.")
}

// POST /api/v1/contact/donation
func (h *ContactHandler) Donation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var inquiry contact.DonationInquiry
	if !decodeJSON(w, r, &inquiry) {
		return
	}
	if err := h.contact.SendDonationInquiry(ctx, inquiry); err != nil {
		handleError(w, r, err)
		return
	}
	respondOK(w, r, "Your donation inquiry has been sent successfully. We'll contact you soon with donation instructions.")
}

// POST /api/v1/contact/investor
func (h *ContactHandler) Investor(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var inquiry contact.InvestorInquiry
	if !decodeJSON(w, r, &inquiry) {
		return
	}
	if err := h.contact.SendInvestorInquiry(ctx, inquiry); err != nil {
		handleError(w, r, err)
		return
	}
	respondOK(w, r, "Your message has been sent successfully. We'll get back to you soon.")
}
