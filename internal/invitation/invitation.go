// Package invitation manages invitations that let new administrators sign
// up.
package invitation

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
	"github.com/IGSolution/carehappyfarmsdemo/internal/repository"
	"github.com/IGSolution/carehappyfarmsdemo/pkg/logger"
	"github.com/google/uuid"
)

const (
	sendInvitationFunction = "send-admin-invitation"
	minPasswordLength      = 6
)

type FunctionInvoker interface {
	Invoke(ctx context.Context, name string, body any) (*gateway.Envelope, error)
}

// SignUpper registers the invited administrator.
type SignUpper interface {
	SignUp(ctx context.Context, email, password string, fields domain.SignUpFields) (*domain.Identity, error)
}

type Deps struct {
	Repo      repository.InvitationRepository
	Functions FunctionInvoker
	PublicURL string
	Now       func() time.Time
	NewToken  func() string
}

type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewToken == nil {
		deps.NewToken = uuid.NewString
	}
	return &Service{deps: deps}
}

type invitationEmail struct {
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	InviteURL string    `json:"invite_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s *Service) inviteURL(token string) string {
	return s.deps.PublicURL + "/admin-signup?invite=" + url.QueryEscape(token)
}

// Send creates an invitation valid for seven days and emails its link.
func (s *Service) Send(ctx context.Context, email string) (*domain.AdminInvitation, error) {
	email = strings.TrimSpace(email)
	if !domain.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	now := s.deps.Now()

	_, err := s.deps.Repo.FindActiveByEmail(ctx, email, now)
	switch {
	case err == nil:
		return nil, ErrActiveInvitationExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	created, err := s.deps.Repo.Create(ctx, domain.AdminInvitation{
		Email:     email,
		Token:     s.deps.NewToken(),
		ExpiresAt: now.Add(domain.InvitationTTL),
	})
	if err != nil {
		// Another admin invited the same address between the check and
		// the insert.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrActiveInvitationExists
		}
		return nil, err
	}

	env, err := s.deps.Functions.Invoke(ctx, sendInvitationFunction, invitationEmail{
		Email:     created.Email,
		Token:     created.Token,
		InviteURL: s.inviteURL(created.Token),
		ExpiresAt: created.ExpiresAt,
	})
	if err == nil {
		_, err = env.Result()
	}
	if err != nil {
		return nil, fmt.Errorf("invitation saved but email failed: %w", err)
	}

	logger.FromContext(ctx).WithField("invitation_id", created.ID).Info("admin invitation sent")
	return created, nil
}

func (s *Service) List(ctx context.Context) ([]domain.AdminInvitation, error) {
	return s.deps.Repo.List(ctx)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.deps.Repo.Delete(ctx, id)
}

// Validate returns the invitation when it is unused and unexpired.
func (s *Service) Validate(ctx context.Context, token string) (*domain.AdminInvitation, error) {
	if token == "" {
		return nil, ErrInvalidInvitation
	}
	inv, err := s.deps.Repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidInvitation
		}
		return nil, err
	}
	if !inv.Active(s.deps.Now()) {
		return nil, ErrInvalidInvitation
	}
	return inv, nil
}

type Signup struct {
	FullName        string `json:"full_name"`
	Phone           string `json:"phone"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

// Accept signs up the invited address as an administrator and then marks
// the invitation used.
func (s *Service) Accept(ctx context.Context, token string, form Signup, signer SignUpper) (*domain.Identity, error) {
	inv, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if form.Password != form.ConfirmPassword {
		return nil, ErrPasswordMismatch
	}
	if len(form.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	identity, err := signer.SignUp(ctx, inv.Email, form.Password, domain.SignUpFields{
		FullName: form.FullName,
		Phone:    form.Phone,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}

	if err := s.deps.Repo.MarkUsed(ctx, token); err != nil {
		logger.FromContext(ctx).WithError(err).WithField("invitation_id", inv.ID).Error("admin signed up but invitation not marked used")
	}
	return identity, nil
}
