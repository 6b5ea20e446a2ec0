package repository

import (
	"context"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/IGSolution/carehappyfarmsdemo/internal/gateway"
)

const profilesTable = "profiles"

type ProfileStore struct {
	client *gateway.Client
}

func NewProfileStore(client *gateway.Client) *ProfileStore {
	return &ProfileStore{client: client}
}

func (s *ProfileStore) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := s.client.From(profilesTable).
		Select("*").
		Eq("id", id).
		Single().
		Execute(ctx, &p)
	if err != nil {
		return nil, translate("get profile", err)
	}
	return &p, nil
}

// UpdateProfile patches the profile row; patch is any JSON-encodable value.
func (s *ProfileStore) UpdateProfile(ctx context.Context, id string, patch any) error {
	err := s.client.From(profilesTable).Eq("id", id).Update(ctx, patch, nil)
	return translate("update profile", err)
}
