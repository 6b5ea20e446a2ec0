package http

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/guard"
	"github.com/IGSolution/carehappyfarmsdemo/internal/session"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
)

const minPasswordLength = 6

// SessionRegistry hands out fresh stores for sign-in flows and keeps the
// ones that ended up authenticated.
type SessionRegistry interface {
	New() *session.Store
	Put(key string, st *session.Store)
	Remove(key string)
}

type AuthHandler struct {
	sessions SessionRegistry
	tokens   TokenParser
	timeout  time.Duration
}

func NewAuthHandler(sessions SessionRegistry, tokens TokenParser, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		sessions: sessions,
		tokens:   tokens,
		timeout:  timeout,
	}
}

type SignUpRequestDTO struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	FullName string          `json:"full_name"`
	Phone    string          `json:"phone"`
	Role     domain.Role     `json:"role"`
	Location domain.Location `json:"location"`
}

type SignInRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequestDTO struct {
	TokenHash string `json:"token_hash"`
}

// SessionResponseDTO describes the caller's session. AccessToken is only
// set by the flows that create a session.
type SessionResponseDTO struct {
	AccessToken string           `json:"access_token,omitempty"`
	State       string           `json:"state"`
	Loading     bool             `json:"loading"`
	User        *domain.Identity `json:"user"`
	Profile     *domain.Profile  `json:"profile"`
	Landing     string           `json:"landing"`
}

func sessionResponse(snap session.Snapshot) SessionResponseDTO {
	return SessionResponseDTO{
		State:   snap.State.String(),
		Loading: snap.Loading(),
		User:    snap.Identity,
		Profile: snap.Profile,
		Landing: guard.Landing(snap),
	}
}

// register keeps an authenticated store so that later requests bearing its
// token find it without another session check.
func (h *AuthHandler) register(ctx context.Context, st *session.Store) SessionResponseDTO {
	resp := sessionResponse(st.Snapshot())
	token := st.AccessToken()
	if token == "" {
		return resp
	}
	resp.AccessToken = token

	claims, err := h.tokens.Parse(token)
	if err != nil {
		logger.FromContext(ctx).WithError(err).Warn("backend issued a token this service cannot verify")
		return resp
	}
	h.sessions.Put(claims.Key(), st)
	return resp
}

func currentStore(w http.ResponseWriter, r *http.Request) (*session.Store, bool) {
	st, ok := session.FromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "unauthenticated", "please sign in to continue")
		return nil, false
	}
	return st, true
}

// POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SignUpRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if !domain.ValidEmail(req.Email) {
		respondError(w, r, http.StatusBadRequest, "invalid_email", "Please enter a valid email address")
		return
	}
	if len(req.Password) < minPasswordLength {
		respondError(w, r, http.StatusBadRequest, "invalid_password", "Password must be at least 6 characters long")
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleCustomer
	}
	// Administrators only sign up through an invitation.
	if req.Role != domain.RoleCustomer && req.Role != domain.RoleFarmer {
		respondError(w, r, http.StatusBadRequest, "invalid_role", "role must be customer or farmer")
		return
	}
	if req.Location != "" && !req.Location.Valid() {
		respondError(w, r, http.StatusBadRequest, "invalid_location", "unknown location")
		return
	}

	st := h.sessions.New()
	identity, err := st.SignUp(ctx, req.Email, req.Password, domain.SignUpFields{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Role:     req.Role,
		Location: req.Location,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}

	resp := h.register(ctx, st)
	if resp.User == nil {
		resp.User = identity
	}
	respondJSON(w, r, http.StatusCreated, resp)
}

// POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req SignInRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "email and password are required")
		return
	}

	st := h.sessions.New()
	if _, err := st.SignIn(ctx, strings.TrimSpace(req.Email), req.Password); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, h.register(ctx, st))
}

// POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	st, ok := currentStore(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := st.SignOut(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	if key := sessionKeyFromContext(r.Context()); key != "" {
		h.sessions.Remove(key)
	}
	respondOK(w, r, "signed out")
}

// POST /api/v1/auth/verify
func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req VerifyEmailRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.TokenHash == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_request", "token_hash is required")
		return
	}

	st := h.sessions.New()
	_, err := st.VerifyEmail(ctx, req.TokenHash)
	// A profile that could not be marked verified still leaves a valid
	// session behind.
	resp := h.register(ctx, st)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// POST /api/v1/auth/resend
func (h *AuthHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	st, ok := session.FromContext(r.Context())
	if !ok {
		handleError(w, r, session.ErrNoUser)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := st.ResendConfirmation(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondOK(w, r, "Confirmation email sent successfully")
}

// GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, sessionResponse(session.SnapshotFromContext(r.Context())))
}

// GET /api/v1/auth/landing
func (h *AuthHandler) Landing(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{
		"location": guard.Landing(session.SnapshotFromContext(r.Context())),
	})
}

// PATCH /api/v1/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	st, ok := currentStore(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var patch domain.ProfilePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if patch.Location != nil && !patch.Location.Valid() {
		respondError(w, r, http.StatusBadRequest, "invalid_location", "unknown location")
		return
	}

	if err := st.UpdateProfile(ctx, patch); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionResponse(st.Snapshot()))
}

// POST /api/v1/auth/profile/refresh
func (h *AuthHandler) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	st, ok := currentStore(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := st.RefreshProfile(ctx); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sessionResponse(st.Snapshot()))
}
