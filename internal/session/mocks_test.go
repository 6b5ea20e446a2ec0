package session

import (
	"context"
	"sync"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
)

type mockAuth struct {
	mu sync.RWMutex

	session    *gateway.Session
	signUpUser *gateway.User
	user       *gateway.User
	err        error
	getUserErr error

	signOuts []string
	resends  []string
}

func (m *mockAuth) SignUp(ctx context.Context, email, password, redirectTo string, metadata any) (*gateway.User, *gateway.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.err != nil {
		return nil, nil, m.err
	}
	return m.signUpUser, nil, nil
}

func (m *mockAuth) SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.err
}

func (m *mockAuth) SignOut(ctx context.Context, accessToken string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.signOuts = append(m.signOuts, accessToken)
	return nil
}

func (m *mockAuth) VerifyOTP(ctx context.Context, typ gateway.OTPType, tokenHash string) (*gateway.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.err
}

func (m *mockAuth) Resend(ctx context.Context, typ gateway.OTPType, email, redirectTo string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resends = append(m.resends, email+"|"+redirectTo)
	return nil
}

func (m *mockAuth) GetUser(ctx context.Context, accessToken string) (*gateway.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user, m.getUserErr
}

type mockProfiles struct {
	mu       sync.RWMutex
	profiles map[string]*domain.Profile
	getErr   error
	patchErr error
	patches  []any
	gets     int
	delay    time.Duration
}

func newMockProfiles() *mockProfiles {
	return &mockProfiles{profiles: make(map[string]*domain.Profile)}
}

func (m *mockProfiles) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	m.mu.Lock()
	m.gets++
	delay, err := m.delay, m.getErr
	var cp *domain.Profile
	if p, ok := m.profiles[id]; ok {
		c := *p
		cp = &c
	}
	m.mu.Unlock()

	time.Sleep(delay)
	if err != nil {
		return nil, err
	}
	if cp == nil {
		return nil, repository.ErrNotFound
	}
	return cp, nil
}

func (m *mockProfiles) fetches() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gets
}

func (m *mockProfiles) UpdateProfile(ctx context.Context, id string, patch any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.patchErr != nil {
		return m.patchErr
	}
	m.patches = append(m.patches, patch)
	return nil
}

var confirmedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func testSession(userID string, confirmed bool) *gateway.Session {
	u := &gateway.User{ID: userID, Email: userID + "@example.com"}
	if confirmed {
		u.EmailConfirmedAt = &confirmedAt
	}
	return &gateway.Session{
		AccessToken:  "token-" + userID,
		RefreshToken: "refresh",
		ExpiresAt:    time.Now().Add(time.Hour).Unix(),
		User:         u,
	}
}
