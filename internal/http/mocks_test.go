package http

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/catalog"
	"github.com/IGSolution/carehappyfarmsdemo/internal/checkout"
	"github.com/IGSolution/carehappyfarmsdemo/internal/contact"
	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/internal/invitation"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/IGSolution/carehappyfarmsdemo/internal/session"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-jwt-secret"

var confirmedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type mockAuth struct {
	mu       sync.RWMutex
	users    map[string]*gateway.User
	session  *gateway.Session
	err      error
	getUsers int
}

func (m *mockAuth) SignUp(ctx context.Context, email, password, redirectTo string, metadata any) (*gateway.User, *gateway.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, nil, m.err
	}
	return &gateway.User{ID: "new-user", Email: email}, nil, nil
}

func (m *mockAuth) SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.err
}

func (m *mockAuth) SignOut(ctx context.Context, accessToken string) error { return nil }

func (m *mockAuth) VerifyOTP(ctx context.Context, typ gateway.OTPType, tokenHash string) (*gateway.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.err
}

func (m *mockAuth) Resend(ctx context.Context, typ gateway.OTPType, email, redirectTo string) error {
	return nil
}

func (m *mockAuth) GetUser(ctx context.Context, accessToken string) (*gateway.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getUsers++
	u, ok := m.users[accessToken]
	if !ok {
		return nil, gateway.ErrUnauthorized
	}
	return u, nil
}

type mockProfiles struct {
	mu       sync.RWMutex
	profiles map[string]*domain.Profile
}

func (m *mockProfiles) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProfiles) UpdateProfile(ctx context.Context, id string, patch any) error { return nil }

type mockCatalog struct {
	mu        sync.RWMutex
	products  []domain.Product
	err       error
	producers []string
}

func (m *mockCatalog) record(producerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.producers = append(m.producers, producerID)
}

func (m *mockCatalog) ListProducts(ctx context.Context, f catalog.Filter) ([]domain.Product, error) {
	return m.products, m.err
}

func (m *mockCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.products {
		if m.products[i].ID == id {
			return &m.products[i], nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

func (m *mockCatalog) ListProducerProducts(ctx context.Context, producerID string) ([]domain.Product, error) {
	m.record(producerID)
	return m.products, m.err
}

func (m *mockCatalog) CreateProduct(ctx context.Context, producerID string, in domain.ProductInput) (*domain.Product, error) {
	m.record(producerID)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Product{ID: "p-new", ProducerID: producerID, Name: in.Name, Price: in.Price}, nil
}

func (m *mockCatalog) UpdateProduct(ctx context.Context, producerID, id string, in domain.ProductInput) (*domain.Product, error) {
	m.record(producerID)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Product{ID: id, ProducerID: producerID, Name: in.Name}, nil
}

func (m *mockCatalog) DeleteProduct(ctx context.Context, producerID, id string) error {
	m.record(producerID)
	return m.err
}

func (m *mockCatalog) ToggleAvailability(ctx context.Context, producerID, id string) (*domain.Product, error) {
	m.record(producerID)
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Product{ID: id, ProducerID: producerID}, nil
}

func (m *mockCatalog) ListProducerOrderItems(ctx context.Context, producerID string) ([]domain.OrderItem, error) {
	m.record(producerID)
	return nil, m.err
}

type mockCart struct {
	mu     sync.RWMutex
	user   map[string][]domain.CartLine
	guest  map[string][]domain.CartLine
	err    error
	guests []string
}

func newMockCart() *mockCart {
	return &mockCart{user: map[string][]domain.CartLine{}, guest: map[string][]domain.CartLine{}}
}

func (m *mockCart) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Cart{UserID: userID, Lines: m.user[userID]}, nil
}

func (m *mockCart) AddToCart(ctx context.Context, userID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user[userID] = append(m.user[userID], domain.CartLine{ID: "item-" + productID, ProductID: productID, Quantity: quantity})
	return m.err
}

func (m *mockCart) SetQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.user[userID] = setLine(m.user[userID], itemID, quantity)
	return m.err
}

// setLine mirrors the cart service: zero or less drops the line.
func setLine(lines []domain.CartLine, id string, quantity int) []domain.CartLine {
	out := lines[:0]
	for _, l := range lines {
		if l.ID == id {
			if quantity <= 0 {
				continue
			}
			l.Quantity = quantity
		}
		out = append(out, l)
	}
	return out
}

func (m *mockCart) RemoveItem(ctx context.Context, userID, itemID string) error {
	return m.err
}

func (m *mockCart) GetGuestCart(ctx context.Context, guestID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guests = append(m.guests, guestID)
	return &domain.Cart{GuestID: guestID, Lines: m.guest[guestID]}, m.err
}

func (m *mockCart) AddToGuestCart(ctx context.Context, guestID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guest[guestID] = append(m.guest[guestID], domain.CartLine{ID: productID, ProductID: productID, Quantity: quantity})
	return m.err
}

func (m *mockCart) SetGuestQuantity(ctx context.Context, guestID, productID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.guest[guestID] = setLine(m.guest[guestID], productID, quantity)
	return m.err
}

func (m *mockCart) RemoveGuestItem(ctx context.Context, guestID, productID string) error {
	return m.err
}

func (m *mockCart) ResolveGuestCart(ctx context.Context, cart *domain.Cart) *domain.Cart {
	return cart
}

type mockCheckout struct {
	mu       sync.RWMutex
	contexts []*checkout.Context
	result   *checkout.Result
	attempt  *domain.CheckoutAttempt
	err      error
}

func (m *mockCheckout) Checkout(ctx context.Context, cc *checkout.Context) (*checkout.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts = append(m.contexts, cc)
	if err := cc.Validate(); err != nil {
		return nil, err
	}
	return m.result, m.err
}

func (m *mockCheckout) VerifyPayment(ctx context.Context, identity *domain.Identity, attemptID, reference string) (*domain.CheckoutAttempt, error) {
	return m.attempt, m.err
}

func (m *mockCheckout) Cancel(ctx context.Context, identity *domain.Identity, attemptID string) (*domain.CheckoutAttempt, error) {
	return m.attempt, m.err
}

func (m *mockCheckout) Get(ctx context.Context, identity *domain.Identity, attemptID string) (*domain.CheckoutAttempt, error) {
	return m.attempt, m.err
}

type mockInvitations struct {
	err     error
	signers int
}

func (m *mockInvitations) Send(ctx context.Context, email string) (*domain.AdminInvitation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.AdminInvitation{ID: "inv-1", Email: email}, nil
}

func (m *mockInvitations) List(ctx context.Context) ([]domain.AdminInvitation, error) {
	return nil, m.err
}

func (m *mockInvitations) Delete(ctx context.Context, id string) error { return m.err }

func (m *mockInvitations) Validate(ctx context.Context, token string) (*domain.AdminInvitation, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &domain.AdminInvitation{Email: "invitee@example.com", Token: token}, nil
}

func (m *mockInvitations) Accept(ctx context.Context, token string, form invitation.Signup, signer invitation.SignUpper) (*domain.Identity, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.signers++
	return signer.SignUp(ctx, "invitee@example.com", form.Password, domain.SignUpFields{Role: domain.RoleAdmin})
}

type mockContact struct {
	forms []contact.Form
	err   error
}

func (m *mockContact) Send(ctx context.Context, form contact.Form) error {
	m.forms = append(m.forms, form)
	return m.err
}

func (m *mockContact) SendDonationInquiry(ctx context.Context, inquiry contact.DonationInquiry) error {
	form, err := inquiry.Form()
	if err != nil {
		return err
	}
	return m.Send(ctx, form)
}

func (m *mockContact) SendInvestorInquiry(ctx context.Context, inquiry contact.InvestorInquiry) error {
	return m.Send(ctx, inquiry.Form())
}

type fixture struct {
	handler     http.Handler
	registry    *session.Registry
	auth        *mockAuth
	profiles    *mockProfiles
	catalog     *mockCatalog
	cart        *mockCart
	checkout    *mockCheckout
	invitations *mockInvitations
	contact     *mockContact
}

func setupRouter(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		auth:        &mockAuth{users: map[string]*gateway.User{}},
		profiles:    &mockProfiles{profiles: map[string]*domain.Profile{}},
		catalog:     &mockCatalog{},
		cart:        newMockCart(),
		checkout:    &mockCheckout{},
		invitations: &mockInvitations{},
		contact:     &mockContact{},
	}
	f.registry = session.NewRegistry(func() *session.Store {
		return session.NewStore(session.Deps{
			Auth:      f.auth,
			Profiles:  f.profiles,
			PublicURL: "https://shop.example.com",
		})
	}, time.Hour, time.Minute)
	t.Cleanup(func() { _ = f.registry.Close() })

	f.handler = NewRouter(Deps{
		Tokens:      session.NewVerifier(testSecret),
		Sessions:    f.registry,
		Catalog:     f.catalog,
		Cart:        f.cart,
		Checkout:    f.checkout,
		Invitations: f.invitations,
		Contact:     f.contact,
		Limiter:     NewRateLimiter(1000, 1000),
	})
	return f
}

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := session.Claims{
		Email: userID + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

// signIn registers a backend user with a profile of the given role and
// returns a bearer token for it.
func (f *fixture) signIn(t *testing.T, userID string, role domain.Role, confirmed bool) string {
	t.Helper()
	token := signToken(t, userID)
	u := &gateway.User{ID: userID, Email: userID + "@example.com"}
	if confirmed {
		u.EmailConfirmedAt = &confirmedAt
	}
	f.auth.mu.Lock()
	f.auth.users[token] = u
	f.auth.mu.Unlock()

	f.profiles.mu.Lock()
	f.profiles.profiles[userID] = &domain.Profile{ID: userID, FullName: "Test " + userID, Role: role}
	f.profiles.mu.Unlock()
	return token
}
