package cache

import (
	"context"
	"fmt"
	"time"
)

// TokenBlacklist stores revoked session tokens until they expire on their own.
// Logout writes the token here with TTL equal to its remaining validity; the
// JWT middleware rejects anything it finds.
type TokenBlacklist struct {
	redis *RedisClient
}

// NewTokenBlacklist creates a new TokenBlacklist.
func NewTokenBlacklist(redis *RedisClient) *TokenBlacklist {
	return &TokenBlacklist{redis: redis}
}

func (b *TokenBlacklist) key(token string) string {
	return fmt.Sprintf("auth:blacklist:%s", token)
}

// Revoke blacklists a token for the given remaining lifetime.
func (b *TokenBlacklist) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to store
	}
	return b.redis.Set(ctx, b.key(token), "1", ttl)
}

// IsRevoked reports whether a token has been blacklisted. Redis errors are
// treated as "not revoked" so an outage never locks everyone out.
func (b *TokenBlacklist) IsRevoked(ctx context.Context, token string) bool {
	ok, err := b.redis.Exists(ctx, b.key(token))
	if err != nil {
		return false
	}
	return ok
}
