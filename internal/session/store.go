// Package session holds the per-browser-session identity, profile and auth
// state, driven by an explicit state machine.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Authenticator is the subset of the backend auth API a Store uses.
type Authenticator interface {
	SignUp(ctx context.Context, email, password, redirectTo string, metadata any) (*gateway.User, *gateway.Session, error)
	SignInWithPassword(ctx context.Context, email, password string) (*gateway.Session, error)
	SignOut(ctx context.Context, accessToken string) error
	VerifyOTP(ctx context.Context, typ gateway.OTPType, tokenHash string) (*gateway.Session, error)
	Resend(ctx context.Context, typ gateway.OTPType, email, redirectTo string) error
	GetUser(ctx context.Context, accessToken string) (*gateway.User, error)
}

type Deps struct {
	Auth     Authenticator
	Profiles repository.ProfileRepository
	Tokens   TokenCache
	// PublicURL is the origin used for email confirmation links.
	PublicURL string
	Now       func() time.Time
}

// Snapshot is a consistent read of a Store.
type Snapshot struct {
	State    State
	Identity *domain.Identity
	Profile  *domain.Profile
}

func (s Snapshot) Loading() bool { return s.State.Loading() }

func (s Snapshot) Confirmed() bool { return s.Identity.Confirmed() }

// Role is empty when there is no profile.
func (s Snapshot) Role() domain.Role {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.Role
}

type Store struct {
	deps Deps

	mu       sync.RWMutex
	state    State
	identity *domain.Identity
	tokens   *domain.Tokens
	profile  *domain.Profile

	// fetches collapses concurrent profile loads for one user.
	fetches singleflight.Group
}

func NewStore(deps Deps) *Store {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Store{deps: deps, state: StateInitializing}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{State: s.state, Identity: s.identity, Profile: s.profile}
}

func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) Loading() bool { return s.State().Loading() }

func (s *Store) AccessToken() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return ""
	}
	return s.tokens.AccessToken
}

func (s *Store) tokenExpiry() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.tokens == nil {
		return time.Time{}
	}
	return s.tokens.ExpiresAt
}

func (s *Store) confirmRedirect() string {
	return s.deps.PublicURL + "/auth?confirmed=true"
}

// authed returns ctx carrying the session's access token for row calls.
func (s *Store) authed(ctx context.Context) context.Context {
	if token := s.AccessToken(); token != "" {
		return gateway.WithAccessToken(ctx, token)
	}
	return ctx
}

func (s *Store) transition(to State) error {
	if !CanTransition(s.state, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, s.state, to)
	}
	s.state = to
	return nil
}

// onSessionResolved applies the outcome of a session check. A nil identity
// clears everything.
func (s *Store) onSessionResolved(ctx context.Context, identity *domain.Identity, tokens *domain.Tokens) error {
	s.mu.Lock()
	previous := s.identity
	if identity == nil {
		if err := s.transition(StateUnauthenticated); err != nil {
			s.mu.Unlock()
			return err
		}
		s.identity, s.tokens, s.profile = nil, nil, nil
		s.mu.Unlock()

		if previous != nil {
			s.dropToken(ctx, previous.ID)
		}
		return nil
	}

	next := StateAuthenticatedUnconfirmed
	if identity.Confirmed() {
		next = StateAuthenticatedConfirmed
	}
	if err := s.transition(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.identity, s.tokens = identity, tokens
	if previous != nil && previous.ID != identity.ID {
		s.profile = nil
	}
	s.mu.Unlock()

	if identity.Confirmed() && tokens != nil {
		s.storeToken(ctx, identity.ID, *tokens)
	} else {
		s.dropToken(ctx, identity.ID)
	}
	return nil
}

func (s *Store) onProfileRequested() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return "", ErrNotAuthenticated
	}
	if err := s.transition(StateProfileLoading); err != nil {
		return "", err
	}
	return s.identity.ID, nil
}

func (s *Store) onProfileResolved(profile *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.transition(StateReady); err != nil {
		return err
	}
	s.profile = profile
	return nil
}

// onTokenRefreshed swaps in a newer access token for the same identity
// without leaving Ready. It reports false when the identity's standing
// changed and the session has to be resolved again.
func (s *Store) onTokenRefreshed(ctx context.Context, identity *domain.Identity, tokens *domain.Tokens) bool {
	s.mu.Lock()
	current := s.identity
	if s.state != StateReady || current == nil || current.ID != identity.ID || current.Confirmed() != identity.Confirmed() {
		s.mu.Unlock()
		return false
	}
	s.identity, s.tokens = identity, tokens
	s.mu.Unlock()

	if identity.Confirmed() {
		s.storeToken(ctx, identity.ID, *tokens)
	}
	return true
}

// onProfileRefreshed replaces the profile while staying Ready. A result
// for an identity that has since changed is dropped.
func (s *Store) onProfileRefreshed(userID string, profile *domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateReady && s.identity != nil && s.identity.ID == userID {
		s.profile = profile
	}
}

// loadProfile fetches the profile once. A failed fetch leaves the store Ready
// with no profile.
func (s *Store) loadProfile(ctx context.Context) error {
	s.mu.RLock()
	identity := s.identity
	s.mu.RUnlock()
	if identity == nil {
		return ErrNotAuthenticated
	}

	// Callers arriving while a load is in flight wait for it instead of
	// requesting ProfileLoading a second time.
	_, err, _ := s.fetches.Do("load:"+identity.ID, func() (interface{}, error) {
		userID, err := s.onProfileRequested()
		if err != nil {
			return nil, err
		}

		profile, err := s.deps.Profiles.GetProfile(s.authed(ctx), userID)
		if err != nil {
			logger.FromContext(ctx).WithError(err).WithField("user_id", userID).Warn("profile fetch failed")
			profile = nil
		}
		return nil, s.onProfileResolved(profile)
	})
	return err
}

func (s *Store) resolve(ctx context.Context, sess *gateway.Session) error {
	tokens := sess.Tokens()
	if err := s.onSessionResolved(ctx, sess.User.Identity(), &tokens); err != nil {
		return err
	}
	return s.loadProfile(ctx)
}

func (s *Store) storeToken(ctx context.Context, userID string, tokens domain.Tokens) {
	if s.deps.Tokens == nil {
		return
	}
	ttl := tokens.ExpiresAt.Sub(s.deps.Now())
	if err := s.deps.Tokens.Set(ctx, userID, tokens.AccessToken, ttl); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("token cache write failed")
	}
}

func (s *Store) dropToken(ctx context.Context, userID string) {
	if s.deps.Tokens == nil {
		return
	}
	if err := s.deps.Tokens.Delete(ctx, userID); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("token cache delete failed")
	}
}

// Restore performs the session check for an access token. On a Ready store
// holding the same identity it only swaps the token, so a refreshed JWT for
// a known session never sends the store back through loading.
func (s *Store) Restore(ctx context.Context, accessToken string, tokens domain.Tokens) error {
	user, err := s.deps.Auth.GetUser(ctx, accessToken)
	if errors.Is(err, gateway.ErrUnauthorized) || errors.Is(err, gateway.ErrNotFound) {
		return s.onSessionResolved(ctx, nil, nil)
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}

	tokens.AccessToken = accessToken
	identity := user.Identity()
	if s.onTokenRefreshed(ctx, identity, &tokens) {
		return nil
	}
	if err := s.onSessionResolved(ctx, identity, &tokens); err != nil {
		return err
	}
	return s.loadProfile(ctx)
}

// SignUp registers an identity. When the backend confirms immediately and
// returns a session, the store becomes authenticated.
func (s *Store) SignUp(ctx context.Context, email, password string, fields domain.SignUpFields) (*domain.Identity, error) {
	user, sess, err := s.deps.Auth.SignUp(ctx, email, password, s.confirmRedirect(), fields)
	if err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	if sess != nil {
		if err := s.resolve(ctx, sess); err != nil {
			return nil, err
		}
	}
	return user.Identity(), nil
}

// SignIn authenticates with a password. Unconfirmed identities are signed
// back out and rejected with ErrEmailNotConfirmed.
func (s *Store) SignIn(ctx context.Context, email, password string) (*domain.Identity, error) {
	sess, err := s.deps.Auth.SignInWithPassword(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}

	identity := sess.User.Identity()
	if !identity.Confirmed() {
		if err := s.deps.Auth.SignOut(ctx, sess.AccessToken); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("sign out of unconfirmed session failed")
		}
		if err := s.onSessionResolved(ctx, nil, nil); err != nil {
			return nil, err
		}
		return nil, ErrEmailNotConfirmed
	}

	if err := s.resolve(ctx, sess); err != nil {
		return nil, err
	}
	return identity, nil
}

func (s *Store) SignOut(ctx context.Context) error {
	if token := s.AccessToken(); token != "" {
		if err := s.deps.Auth.SignOut(ctx, token); err != nil {
			logger.FromContext(ctx).WithError(err).Warn("backend sign out failed")
		}
	}
	return s.onSessionResolved(ctx, nil, nil)
}

// VerifyEmail completes signup confirmation and marks the profile verified.
func (s *Store) VerifyEmail(ctx context.Context, tokenHash string) (*domain.Identity, error) {
	sess, err := s.deps.Auth.VerifyOTP(ctx, gateway.OTPSignup, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("verify email: %w", err)
	}
	if err := s.resolve(ctx, sess); err != nil {
		return nil, err
	}

	now := s.deps.Now().UTC()
	patch := map[string]any{
		"is_verified":                  true,
		"verification_code":            tokenHash,
		"verification_code_expires_at": now,
	}
	identity := sess.User.Identity()
	if err := s.deps.Profiles.UpdateProfile(s.authed(ctx), identity.ID, patch); err != nil {
		return identity, fmt.Errorf("mark profile verified: %w", err)
	}

	s.mu.Lock()
	if s.profile != nil {
		p := *s.profile
		p.IsVerified = true
		p.VerificationCode = &tokenHash
		p.VerificationCodeExpiresAt = &now
		s.profile = &p
	}
	s.mu.Unlock()
	return identity, nil
}

func (s *Store) ResendConfirmation(ctx context.Context) error {
	s.mu.RLock()
	identity := s.identity
	s.mu.RUnlock()
	if identity == nil {
		return ErrNoUser
	}
	if err := s.deps.Auth.Resend(ctx, gateway.OTPSignup, identity.Email, s.confirmRedirect()); err != nil {
		return fmt.Errorf("resend confirmation: %w", err)
	}
	return nil
}

// UpdateProfile patches the profile remotely and merges it locally only on
// success.
func (s *Store) UpdateProfile(ctx context.Context, patch domain.ProfilePatch) error {
	s.mu.RLock()
	identity := s.identity
	s.mu.RUnlock()
	if identity == nil {
		return ErrNotAuthenticated
	}
	if patch.Empty() {
		return nil
	}

	if err := s.deps.Profiles.UpdateProfile(s.authed(ctx), identity.ID, patch); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	s.mu.Lock()
	if s.profile != nil {
		p := patch.Apply(*s.profile)
		s.profile = &p
	}
	s.mu.Unlock()
	return nil
}

// RefreshProfile re-fetches the profile. Without an identity it does nothing.
// A Ready store stays Ready and keeps its current profile when the fetch
// fails.
func (s *Store) RefreshProfile(ctx context.Context) error {
	s.mu.RLock()
	identity, state := s.identity, s.state
	s.mu.RUnlock()
	if identity == nil {
		return nil
	}
	if state != StateReady {
		return s.loadProfile(ctx)
	}

	v, err, _ := s.fetches.Do("refresh:"+identity.ID, func() (interface{}, error) {
		return s.deps.Profiles.GetProfile(s.authed(ctx), identity.ID)
	})
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	s.onProfileRefreshed(identity.ID, v.(*domain.Profile))
	return nil
}
