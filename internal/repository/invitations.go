package repository

import (
	"context"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
)

const invitationsTable = "admin_invitations"

type InvitationStore struct {
	client *gateway.Client
}

func NewInvitationStore(client *gateway.Client) *InvitationStore {
	return &InvitationStore{client: client}
}

func (s *InvitationStore) FindActiveByEmail(ctx context.Context, email string, now time.Time) (*domain.AdminInvitation, error) {
	var invs []domain.AdminInvitation
	err := s.client.From(invitationsTable).
		Select("*").
		Eq("email", email).
		Eq("used", false).
		Gt("expires_at", now.UTC().Format(time.RFC3339)).
		Limit(1).
		Execute(ctx, &invs)
	if err != nil {
		return nil, translate("find active invitation", err)
	}
	if len(invs) == 0 {
		return nil, translate("find active invitation", ErrNotFound)
	}
	return &invs[0], nil
}

func (s *InvitationStore) FindByToken(ctx context.Context, token string) (*domain.AdminInvitation, error) {
	var inv domain.AdminInvitation
	err := s.client.From(invitationsTable).
		Select("*").
		Eq("token", token).
		Single().
		Execute(ctx, &inv)
	if err != nil {
		return nil, translate("find invitation", err)
	}
	return &inv, nil
}

func (s *InvitationStore) Create(ctx context.Context, inv domain.AdminInvitation) (*domain.AdminInvitation, error) {
	row := map[string]any{
		"email":      inv.Email,
		"token":      inv.Token,
		"expires_at": inv.ExpiresAt.UTC().Format(time.RFC3339),
	}

	var created []domain.AdminInvitation
	if err := s.client.From(invitationsTable).Insert(ctx, row, &created); err != nil {
		return nil, translate("create invitation", err)
	}
	if len(created) == 0 {
		return nil, translate("create invitation", gateway.ErrMalformedResponse)
	}
	return &created[0], nil
}

func (s *InvitationStore) List(ctx context.Context) ([]domain.AdminInvitation, error) {
	var invs []domain.AdminInvitation
	err := s.client.From(invitationsTable).
		Select("*").
		Order("created_at", false).
		Execute(ctx, &invs)
	if err != nil {
		return nil, translate("list invitations", err)
	}
	return invs, nil
}

func (s *InvitationStore) Delete(ctx context.Context, id string) error {
	return translate("delete invitation", s.client.From(invitationsTable).Eq("id", id).Delete(ctx))
}

func (s *InvitationStore) MarkUsed(ctx context.Context, token string) error {
	err := s.client.From(invitationsTable).
		Eq("token", token).
		Update(ctx, map[string]bool{"used": true}, nil)
	return translate("mark invitation used", err)
}
