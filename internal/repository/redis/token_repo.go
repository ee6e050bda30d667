package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepository tracks revoked session tokens in Redis.
// Entries expire alongside the token itself so the set stays bounded.
type TokenRepository struct {
	client *redis.Client
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{client: client}
}

// RevokeToken marks a token ID as revoked until its natural expiry
func (r *TokenRepository) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	key := fmt.Sprintf("revoked:%s", tokenID)
	if err := r.client.Set(ctx, key, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	return nil
}

// IsTokenRevoked reports whether a token ID has been revoked
func (r *TokenRepository) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	key := fmt.Sprintf("revoked:%s", tokenID)

	_, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return true, nil
}
