package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/redis/go-redis/v9"
)

const GuestCartTTL = 30 * 24 * time.Hour

// GuestStore persists anonymous carts as a JSON array of
// {product_id, quantity}.
type GuestStore interface {
	Load(ctx context.Context, guestID string) ([]domain.GuestCartItem, error)
	Save(ctx context.Context, guestID string, items []domain.GuestCartItem) error
	Clear(ctx context.Context, guestID string) error
}

type RedisGuestStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuestStore(client *redis.Client) *RedisGuestStore {
	return &RedisGuestStore{client: client, ttl: GuestCartTTL}
}

func guestKey(guestID string) string {
	return fmt.Sprintf("guest_cart:%s", guestID)
}

// Load returns an empty cart for unknown guests. A corrupt entry is treated
// as empty too.
func (s *RedisGuestStore) Load(ctx context.Context, guestID string) ([]domain.GuestCartItem, error) {
	data, err := s.client.Get(ctx, guestKey(guestID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return []domain.GuestCartItem{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []domain.GuestCartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return []domain.GuestCartItem{}, nil
	}
	return items, nil
}

func (s *RedisGuestStore) Save(ctx context.Context, guestID string, items []domain.GuestCartItem) error {
	if len(items) == 0 {
		return s.Clear(ctx, guestID)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal guest cart failed: %w", err)
	}
	if err := s.client.Set(ctx, guestKey(guestID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *RedisGuestStore) Clear(ctx context.Context, guestID string) error {
	if err := s.client.Del(ctx, guestKey(guestID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}
