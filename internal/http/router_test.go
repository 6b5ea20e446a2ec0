package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout"
	"github.com/IGSolution/carehappyfarmsdemo/internal/contact"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/internal/invitation"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealth(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthenticate_InvalidToken(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodGet, "/api/v1/auth/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthenticated", decodeError(t, rec).Code)
}

func TestMe_AnonymousIsUnauthenticated(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "unauthenticated", resp.State)
	assert.Nil(t, resp.User)
	assert.Equal(t, "/", resp.Landing)
}

func TestMe_SessionIsRestoredOnce(t *testing.T) {
	f := setupRouter(t)
	token := f.signIn(t, "farmer-1", domain.RoleFarmer, true)

	for i := 0; i < 3; i++ {
		rec := do(t, f.handler, http.MethodGet, "/api/v1/auth/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp SessionResponseDTO
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "ready", resp.State)
		assert.Equal(t, "/dashboard", resp.Landing)
	}
	assert.Equal(t, 1, f.auth.getUsers)
}

func TestSignIn_UnconfirmedEmail(t *testing.T) {
	f := setupRouter(t)
	f.auth.session = &gateway.Session{
		AccessToken: signToken(t, "u-1"),
		User:        &gateway.User{ID: "u-1", Email: "u-1@example.com"},
	}

	rec := do(t, f.handler, http.MethodPost, "/api/v1/auth/signin", "", SignInRequestDTO{Email: "u-1@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "email_not_confirmed", resp.Code)
	assert.Contains(t, resp.Error, "Please confirm your email")
	assert.Equal(t, 0, f.registry.Len())
}

func TestSignIn_RegistersSession(t *testing.T) {
	f := setupRouter(t)
	token := signToken(t, "u-1")
	f.profiles.profiles["u-1"] = &domain.Profile{ID: "u-1", Role: domain.RoleCustomer}
	f.auth.session = &gateway.Session{
		AccessToken: token,
		User:        &gateway.User{ID: "u-1", Email: "u-1@example.com", EmailConfirmedAt: &confirmedAt},
	}

	rec := do(t, f.handler, http.MethodPost, "/api/v1/auth/signin", "", SignInRequestDTO{Email: "u-1@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp SessionResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, token, resp.AccessToken)
	assert.Equal(t, "/marketplace", resp.Landing)
	assert.Equal(t, 1, f.registry.Len())

	// The registered store serves the next request without a session check.
	rec = do(t, f.handler, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.auth.getUsers)

	rec = do(t, f.handler, http.MethodPost, "/api/v1/auth/signout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, f.registry.Len())
}

func TestSignUp_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  SignUpRequestDTO
		code string
	}{
		{"bad email", SignUpRequestDTO{Email: "nope", Password: "secret1"}, "invalid_email"},
		{"short password", SignUpRequestDTO{Email: "a@example.com", Password: "abc"}, "invalid_password"},
		{"admin role", SignUpRequestDTO{Email: "a@example.com", Password: "secret1", Role: domain.RoleAdmin}, "invalid_role"},
		{"unknown location", SignUpRequestDTO{Email: "a@example.com", Password: "secret1", Location: "paris"}, "invalid_location"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupRouter(t)
			rec := do(t, f.handler, http.MethodPost, "/api/v1/auth/signup", "", tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestSignUp_WithoutSessionReturnsUser(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodPost, "/api/v1/auth/signup", "", SignUpRequestDTO{
		Email: "new@example.com", Password: "secret1", FullName: "New", Location: domain.LocationLagos,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp SessionResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.AccessToken)
	require.NotNil(t, resp.User)
	assert.Equal(t, "new@example.com", resp.User.Email)
}

func TestResend_WithoutSession(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodPost, "/api/v1/auth/resend", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No user found", decodeError(t, rec).Error)
}

func TestGetCart_GuestGetsCookie(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodGet, "/api/v1/cart", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == GuestCookie {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, []string{cookie.Value}, f.cart.guests)

	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Guest)
	assert.Empty(t, resp.Lines)
}

func TestAddItem_GuestReusesCookie(t *testing.T) {
	f := setupRouter(t)
	guestID := "7b0c7a6e-3f0a-4c43-9f3e-2f7f4c1b2a10"

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", bytes.NewBufferString(`{"product_id":"p1","quantity":2}`))
	req.AddCookie(&http.Cookie{Name: GuestCookie, Value: guestID})
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Len(t, f.cart.guest[guestID], 1)
}

func TestAddItem_SignedInUsesUserCart(t *testing.T) {
	f := setupRouter(t)
	token := f.signIn(t, "c-1", domain.RoleCustomer, true)

	rec := do(t, f.handler, http.MethodPost, "/api/v1/cart/items", token, AddItemRequestDTO{ProductID: "p1", Quantity: 1})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Guest)
	assert.Len(t, f.cart.user["c-1"], 1)
}

func TestAddItem_Validation(t *testing.T) {
	tests := []struct {
		name string
		body AddItemRequestDTO
		code string
	}{
		{"missing product", AddItemRequestDTO{Quantity: 1}, "invalid_product_id"},
		{"negative quantity", AddItemRequestDTO{ProductID: "p1", Quantity: -1}, "invalid_quantity"},
		{"too many", AddItemRequestDTO{ProductID: "p1", Quantity: 100}, "invalid_quantity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupRouter(t)
			rec := do(t, f.handler, http.MethodPost, "/api/v1/cart/items", "", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decodeError(t, rec).Code)
		})
	}
}

func TestAddItem_DefaultsToOneUnit(t *testing.T) {
	f := setupRouter(t)
	token := f.signIn(t, "c-1", domain.RoleCustomer, true)

	rec := do(t, f.handler, http.MethodPost, "/api/v1/cart/items", token, map[string]string{"product_id": "p1"})
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, f.cart.user["c-1"], 1)
	assert.Equal(t, 1, f.cart.user["c-1"][0].Quantity)
}

func TestUpdateQuantity_NegativeRemovesLine(t *testing.T) {
	f := setupRouter(t)
	token := f.signIn(t, "c-1", domain.RoleCustomer, true)
	rec := do(t, f.handler, http.MethodPost, "/api/v1/cart/items", token, AddItemRequestDTO{ProductID: "p1", Quantity: 2})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, f.handler, http.MethodPut, "/api/v1/cart/items/item-p1", token, UpdateQuantityRequestDTO{Quantity: -1})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp CartResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Lines)
	assert.Empty(t, f.cart.user["c-1"])
}

func TestUpdateQuantity_Cap(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodPut, "/api/v1/cart/items/p1", "", UpdateQuantityRequestDTO{Quantity: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_quantity", decodeError(t, rec).Code)
}

func TestCheckout_RequiresSignIn(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodPost, "/api/v1/checkout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Empty(t, f.checkout.contexts)
}

func TestCheckout_UnconfirmedIsSentToSignIn(t *testing.T) {
	f := setupRouter(t)
	token := f.signIn(t, "c-1", domain.RoleCustomer, false)

	rec := do(t, f.handler, http.MethodPost, "/api/v1/checkout", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "/auth", rec.Header().Get("Location"))
}

func TestCheckout_Success(t *testing.T) {
	f := setupRouter(t)
	token := f.signIn(t, "c-1", domain.RoleCustomer, true)
	f.cart.user["c-1"] = []domain.CartLine{{
		ID: "i1", ProductID: "p1", Quantity: 2,
		Product: &domain.Product{ID: "p1", ProducerID: "farmer-1", Price: decimal.NewFromInt(1500), IsAvailable: true},
	}}
	f.checkout.result = &checkout.Result{AttemptID: "a1", OrderID: "o1", AuthorizationURL: "https://pay.example.com/x"}

	rec := do(t, f.handler, http.MethodPost, "/api/v1/checkout", token, InitiateCheckoutRequestDTO{
		Delivery: checkout.Delivery{
			Location: domain.LocationLagos, Address: "1 Farm Road", Directions: "blue gate", Phone: "0800",
		},
		PaymentMethod: domain.PaymentPaystack,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var result checkout.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	assert.Equal(t, "https://pay.example.com/x", result.AuthorizationURL)

	require.Len(t, f.checkout.contexts, 1)
	cc := f.checkout.contexts[0]
	assert.Equal(t, "c-1", cc.Identity.ID)
	assert.Equal(t, "blue gate", cc.Delivery.Directions)
	assert.Len(t, cc.Lines, 1)
}

func TestCheckout_ValidationMessage(t *testing.T) {
	f := setupRouter(t)
	token := f.signIn(t, "c-1", domain.RoleCustomer, true)

	rec := do(t, f.handler, http.MethodPost, "/api/v1/checkout", token, InitiateCheckoutRequestDTO{
		Delivery: checkout.Delivery{Location: domain.LocationLagos, Address: "1 Farm Road", Phone: "0800"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, "Your cart is empty", resp.Error)
	assert.Equal(t, "cart", resp.Details)
}

func TestCheckout_ErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{checkout.ErrAttemptNotFound, http.StatusNotFound},
		{checkout.ErrAlreadyPaid, http.StatusConflict},
		{fmt.Errorf("verify: %w", checkout.ErrPaymentNotVerified), http.StatusPaymentRequired},
		{checkout.ErrVerificationIncomplete, http.StatusBadRequest},
		{fmt.Errorf("init: %w", gateway.ErrUnavailable), http.StatusServiceUnavailable},
		{&gateway.FunctionError{Function: "verify-payment", Message: "declined"}, http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			f := setupRouter(t)
			token := f.signIn(t, "c-1", domain.RoleCustomer, true)
			f.checkout.err = tt.err

			rec := do(t, f.handler, http.MethodPost, "/api/v1/checkout/verify", token, VerifyPaymentRequestDTO{AttemptID: "a1", Reference: "ref"})
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestCheckout_GetAttempt(t *testing.T) {
	f := setupRouter(t)
	token := f.signIn(t, "c-1", domain.RoleCustomer, true)
	f.checkout.attempt = &domain.CheckoutAttempt{ID: "a1", Status: domain.CheckoutStatusPaymentInitiated, TotalAmount: decimal.NewFromInt(3000)}

	rec := do(t, f.handler, http.MethodGet, "/api/v1/checkout/a1", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp AttemptResponseDTO
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, domain.CheckoutStatusPaymentInitiated, resp.Status)
	assert.True(t, resp.TotalAmount.Equal(decimal.NewFromInt(3000)))
}

func TestDashboard_RoleGuard(t *testing.T) {
	f := setupRouter(t)
	customer := f.signIn(t, "c-1", domain.RoleCustomer, true)
	farmer := f.signIn(t, "farmer-1", domain.RoleFarmer, true)

	rec := do(t, f.handler, http.MethodGet, "/api/v1/dashboard/products", customer, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "forbidden_role", decodeError(t, rec).Code)

	rec = do(t, f.handler, http.MethodPost, "/api/v1/dashboard/products", farmer, domain.ProductInput{
		Name: "Yams", Price: decimal.NewFromInt(2000), Unit: "tuber", Category: domain.CategoryVegetables,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, []string{"farmer-1"}, f.catalog.producers)
}

func TestProducts_NotFound(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodGet, "/api/v1/products/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeError(t, rec).Code)
}

func TestProducts_ListIsNeverNull(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodGet, "/api/v1/products?category=all", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"products":[]}`, rec.Body.String())
}

func TestAdmin_Invitations(t *testing.T) {
	f := setupRouter(t)
	admin := f.signIn(t, "admin-1", domain.RoleAdmin, true)
	farmer := f.signIn(t, "farmer-1", domain.RoleFarmer, true)

	rec := do(t, f.handler, http.MethodPost, "/api/v1/admin/invitations", farmer, SendInvitationRequestDTO{Email: "x@example.com"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, f.handler, http.MethodPost, "/api/v1/admin/invitations", admin, SendInvitationRequestDTO{Email: "x@example.com"})
	assert.Equal(t, http.StatusCreated, rec.Code)

	f.invitations.err = invitation.ErrActiveInvitationExists
	rec = do(t, f.handler, http.MethodPost, "/api/v1/admin/invitations", admin, SendInvitationRequestDTO{Email: "x@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "An active invitation already exists for this email", decodeError(t, rec).Error)
}

func TestInvitation_AcceptUsesFreshSession(t *testing.T) {
	f := setupRouter(t)
	rec := do(t, f.handler, http.MethodPost, "/api/v1/invitations/tok/accept", "", invitation.Signup{
		FullName: "Ada", Password: "secret1", ConfirmPassword: "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, f.invitations.signers)

	f.invitations.err = invitation.ErrInvalidInvitation
	rec = do(t, f.handler, http.MethodGet, "/api/v1/invitations/tok", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "invalid_invitation", decodeError(t, rec).Code)
}

func TestContact(t *testing.T) {
	f := setupRouter(t)
	form := contact.Form{Name: "Ada", Email: "ada@example.com", Subject: "Hi", Message: "Hello"}

	rec := do(t, f.handler, http.MethodPost, "/api/v1/contact", "", form)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.contact.err = fmt.Errorf("%w: smtp down", contact.ErrDeliveryFailed)
	rec = do(t, f.handler, http.MethodPost, "/api/v1/contact", "", form)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Please try again later or contact us directly.", decodeError(t, rec).Error)
}

func TestContact_Inquiries(t *testing.T) {
	f := setupRouter(t)

	rec := do(t, f.handler, http.MethodPost, "/api/v1/contact/donation", "",
		map[string]any{"name": "Ada", "email": "ada@example.com", "amount": 100})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, f.handler, http.MethodPost, "/api/v1/contact/donation", "",
		map[string]any{"name": "Ada", "email": "ada@example.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "amount", decodeError(t, rec).Details)

	rec = do(t, f.handler, http.MethodPost, "/api/v1/contact/investor", "",
		contact.InvestorInquiry{Name: "Ada", Email: "ada@example.com", Message: "Tell me more"})
	assert.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, f.contact.forms, 2)
	assert.Equal(t, "Donation Inquiry - $100.00", f.contact.forms[0].Subject)
	assert.Equal(t, "Investor Inquiry", f.contact.forms[1].Subject)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	h := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	other := httptest.NewRequest(http.MethodPost, "/", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
