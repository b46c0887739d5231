package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DenyList records revoked token ids in Redis until they would have
// expired anyway.
type DenyList struct {
	redis *redis.Client
}

// NewDenyList creates a deny list over a Redis client.
func NewDenyList(client *redis.Client) *DenyList {
	return &DenyList{redis: client}
}

func denyKey(jti string) string {
	return fmt.Sprintf("auth:denied:%s", jti)
}

// Revoke marks a token id as revoked for ttl.
func (d *DenyList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // already expired, nothing to deny
	}
	if err := d.redis.Set(ctx, denyKey(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether the token id has been revoked.
func (d *DenyList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	_, err := d.redis.Get(ctx, denyKey(jti)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check token: %w", err)
	}
	return true, nil
}
