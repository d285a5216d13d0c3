package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistKeyPrefix = "auth:blacklist:"

// TokenBlacklistRepository records revoked token identifiers in Redis.
// A nil client turns every call into a no-op so the API runs without Redis.
type TokenBlacklistRepository struct {
	client *redis.Client
}

// NewTokenBlacklistRepository constructs the repository.
func NewTokenBlacklistRepository(client *redis.Client) *TokenBlacklistRepository {
	return &TokenBlacklistRepository{client: client}
}

// Enabled reports whether revocations are persisted.
func (r *TokenBlacklistRepository) Enabled() bool {
	return r != nil && r.client != nil
}

// Revoke stores jti until ttl elapses. Non-positive ttls are ignored since the token has already expired.
func (r *TokenBlacklistRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if !r.Enabled() || jti == "" || ttl <= 0 {
		return nil
	}
	if err := r.client.Set(ctx, blacklistKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", jti, err)
	}
	return nil
}

// IsRevoked reports whether jti was revoked.
func (r *TokenBlacklistRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if !r.Enabled() || jti == "" {
		return false, nil
	}
	err := r.client.Get(ctx, blacklistKeyPrefix+jti).Err()
	if err == nil {
		return true, nil
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	return false, fmt.Errorf("redis get %s: %w", jti, err)
}
