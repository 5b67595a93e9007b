package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ndarenkov/pollwise/internal/storage"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps issued refresh tokens in Redis with a TTL matching the
// token lifetime, so expiry needs no sweeper.
type TokenStore struct {
	client *redis.Client
}

func NewTokenStore(client *redis.Client) *TokenStore {
	return &TokenStore{client: client}
}

func tokenKey(token string) string {
	return "refresh:" + token
}

func (s *TokenStore) SaveToken(ctx context.Context, userID, token string, ttl time.Duration) error {
	const op = "redisstore.TokenStore.SaveToken"

	if err := s.client.Set(ctx, tokenKey(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// IsRefreshTokenValid reports whether token was issued to userID and has not
// expired or been revoked.
func (s *TokenStore) IsRefreshTokenValid(ctx context.Context, userID, token string) (bool, error) {
	const op = "redisstore.TokenStore.IsRefreshTokenValid"

	owner, err := s.client.Get(ctx, tokenKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return owner == userID, nil
}

func (s *TokenStore) DeleteRefreshToken(ctx context.Context, userID, token string) error {
	const op = "redisstore.TokenStore.DeleteRefreshToken"

	deleted, err := s.client.Del(ctx, tokenKey(token)).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if deleted == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrTokenNotFound)
	}
	return nil
}
