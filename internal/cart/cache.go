package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/IGSolution/carehappyfarmsdemo/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	cartKeyPrefix = "cart:"
	cartTTL       = 15 * time.Minute
	cartTTLJitter = 5 * time.Minute
)

// Cache holds full server carts, products included. It is never written
// outside the owner's mutation lock.
type Cache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// RedisCache stores carts as JSON under cart:<user id>. Expiry is spread
// over [cartTTL, cartTTL+cartTTLJitter) so entries written together do not
// expire together.
type RedisCache struct {
	rdb redis.Cmdable
	ttl func() time.Duration
}

func NewRedisCache(rdb redis.Cmdable) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: jitteredTTL}
}

func jitteredTTL() time.Duration {
	return cartTTL + time.Duration(rand.Int63n(int64(cartTTLJitter)))
}

func cacheKey(userID string) string { return cartKeyPrefix + userID }

func (c *RedisCache) Get(ctx context.Context, userID string) (*domain.Cart, error) {
	raw, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return nil, ErrCacheMiss
	case err != nil:
		return nil, fmt.Errorf("read cached cart %s: %w", userID, err)
	}

	cart := new(domain.Cart)
	if err := json.Unmarshal(raw, cart); err != nil {
		return nil, fmt.Errorf("decode cached cart %s: %w", userID, err)
	}
	return cart, nil
}

func (c *RedisCache) Set(ctx context.Context, userID string, cart *domain.Cart) error {
	raw, err := json.Marshal(cart)
	if err != nil {
		return fmt.Errorf("encode cart %s: %w", userID, err)
	}
	return c.rdb.Set(ctx, cacheKey(userID), raw, c.ttl()).Err()
}

func (c *RedisCache) Delete(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, cacheKey(userID)).Err()
}
