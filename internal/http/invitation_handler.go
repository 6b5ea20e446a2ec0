package http

import (
	"context"
	"net/http"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/invitation"
	"github.com/go-chi/chi/v5"
)

type InvitationService interface {
	Send(ctx context.Context, email string) (*domain.AdminInvitation, error)
	List(ctx context.Context) ([]domain.AdminInvitation, error)
	Delete(ctx context.Context, id string) error
	Validate(ctx context.Context, token string) (*domain.AdminInvitation, error)
	Accept(ctx context.Context, token string, form invitation.Signup, signer invitation.SignUpper) (*domain.Identity, error)
}

type InvitationHandler struct {
	invitations InvitationService
	auth        *AuthHandler
	timeout     time.Duration
}

func NewInvitationHandler(invitations InvitationService, auth *AuthHandler, timeout time.Duration) *InvitationHandler {
	return &InvitationHandler{
		invitations: invitations,
		auth:        auth,
		timeout:     timeout,
	}
}

type SendInvitationRequestDTO struct {
	Email string `json:"email"`
}

type InvitationListResponseDTO struct {
	Invitations []domain.AdminInvitation `json:"invitations"`
}

type InvitationStatusDTO struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GET /api/v1/admin/invitations
func (h *InvitationHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	list, err := h.invitations.List(ctx)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if list == nil {
		list = []domain.AdminInvitation{}
	}
	respondJSON(w, r, http.StatusOK, InvitationListResponseDTO{Invitations: list})
}

// POST /api/v1/admin/invitations
func (h *InvitationHandler) Send(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SendInvitationRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.invitations.Send(ctx, req.Email)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, inv)
}

// DELETE /api/v1/admin/invitations/{id}
func (h *InvitationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.invitations.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		handleError(w, r, err)
		return
	}
	respondOK(w, r, "invitation deleted")
}

// GET /api/v1/invitations/{token}
func (h *InvitationHandler) Validate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	inv, err := h.invitations.Validate(ctx, chi.URLParam(r, "token"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, InvitationStatusDTO{Email: inv.Email, ExpiresAt: inv.ExpiresAt})
}

// POST /api/v1/invitations/{token}/accept
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var form invitation.Signup
	if !decodeJSON(w, r, &form) {
		return
	}

	st := h.auth.sessions.New()
	identity, err := h.invitations.Accept(ctx, chi.URLParam(r, "token"), form, st)
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := h.auth.register(ctx, st)
	if resp.User == nil {
		resp.User = identity
	}
	respondJSON(w, r, http.StatusCreated, resp)
}
