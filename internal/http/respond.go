package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/IGSolution/carehappyfarmsdemo/internal/cart"
	"github.com/IGSolution/carehappyfarmsdemo/internal/catalog"
	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout"
	"github.com/IGSolution/carehappyfarmsdemo/internal/contact"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/internal/invitation"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/IGSolution/carehappyfarmsdemo/internal/session"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContext(r.Context()).WithError(err).Warn("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondJSON(w, r, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func respondOK(w http.ResponseWriter, r *http.Request, message string) {
	respondJSON(w, r, http.StatusOK, SuccessResponse{Success: true, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// handleError converts service errors to HTTP status codes. Messages of
// user-facing errors are passed through; anything unrecognized is logged
// and hidden behind internal_error.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		checkoutValidation *checkout.ValidationError
		catalogValidation  *catalog.ValidationError
		contactField       *contact.FieldError
		fnErr              *gateway.FunctionError
		apiErr             *gateway.APIError
	)

	switch {
	case errors.As(err, &checkoutValidation):
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: checkoutValidation.Message, Code: "invalid_argument", Details: checkoutValidation.Field})
	case errors.As(err, &catalogValidation):
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: catalogValidation.Message, Code: "invalid_argument", Details: catalogValidation.Field})
	case errors.As(err, &contactField):
		respondJSON(w, r, http.StatusBadRequest, ErrorResponse{Error: contactField.Message, Code: "invalid_argument", Details: contactField.Field})

	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, cart.ErrMissingOwner),
		errors.Is(err, invitation.ErrInvalidEmail),
		errors.Is(err, invitation.ErrPasswordMismatch),
		errors.Is(err, invitation.ErrPasswordTooShort),
		errors.Is(err, checkout.ErrVerificationIncomplete),
		errors.Is(err, session.ErrNoUser):
		respondError(w, r, http.StatusBadRequest, "invalid_argument", err.Error())

	case errors.Is(err, session.ErrEmailNotConfirmed):
		respondError(w, r, http.StatusForbidden, "email_not_confirmed", err.Error())
	case errors.Is(err, session.ErrNotAuthenticated), errors.Is(err, session.ErrInvalidToken):
		respondError(w, r, http.StatusUnauthorized, "unauthenticated", "please sign in to continue")

	case errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, cart.ErrItemNotFound),
		errors.Is(err, checkout.ErrAttemptNotFound),
		errors.Is(err, repository.ErrNotFound):
		respondError(w, r, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, invitation.ErrInvalidInvitation):
		respondError(w, r, http.StatusNotFound, "invalid_invitation", err.Error())

	case errors.Is(err, invitation.ErrActiveInvitationExists),
		errors.Is(err, checkout.ErrAlreadyPaid),
		errors.Is(err, checkout.ErrIllegalTransition),
		errors.Is(err, repository.ErrDuplicate):
		respondError(w, r, http.StatusConflict, "already_exists", err.Error())

	case errors.Is(err, checkout.ErrPaymentNotVerified):
		respondError(w, r, http.StatusPaymentRequired, "payment_not_verified", checkout.ErrPaymentNotVerified.Error())
	case errors.Is(err, contact.ErrDeliveryFailed):
		respondError(w, r, http.StatusBadGateway, "delivery_failed", contact.ErrDeliveryFailed.Error())

	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, r, http.StatusGatewayTimeout, "timeout", "the request timed out")
	case errors.Is(err, gateway.ErrUnavailable):
		respondError(w, r, http.StatusServiceUnavailable, "service_unavailable", "the service is temporarily unavailable")
	case errors.Is(err, gateway.ErrUnauthorized):
		respondError(w, r, http.StatusUnauthorized, "unauthenticated", "please sign in to continue")
	case errors.As(err, &fnErr):
		respondError(w, r, http.StatusBadGateway, "upstream_error", fnErr.Message)
	case errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500:
		// Auth failures such as bad credentials arrive as 4xx with a
		// message meant for the user.
		respondError(w, r, http.StatusBadRequest, "invalid_argument", apiErr.Message)

	default:
		logger.FromContext(r.Context()).WithError(err).Error("unhandled request error")
		respondError(w, r, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
