package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenCache mirrors confirmed users' access tokens. It is never consulted
// to authenticate a request.
type TokenCache interface {
	Set(ctx context.Context, userID, token string, ttl time.Duration) error
	Delete(ctx context.Context, userID string) error
}

type RedisTokenCache struct {
	client *redis.Client
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func tokenKey(userID string) string {
	return fmt.Sprintf("auth_token:%s", userID)
}

func (c *RedisTokenCache) Set(ctx context.Context, userID, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return c.Delete(ctx, userID)
	}
	return c.client.Set(ctx, tokenKey(userID), token, ttl).Err()
}

func (c *RedisTokenCache) Delete(ctx context.Context, userID string) error {
	return c.client.Del(ctx, tokenKey(userID)).Err()
}
