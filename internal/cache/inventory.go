package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	UserKeyPrefix         = "user:%d"
	RevokedTokenKeyPrefix = "blacklist:%s"
)

const (
	UserTTL = 5 * time.Minute
)

// ErrUnavailable is returned by writes that need Redis when no client is set.
var ErrUnavailable = errors.New("cache: redis unavailable")

func UserKey(userID uint) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// RevokedTokenKey is the key marking a token ID (jti) as logged out.
func RevokedTokenKey(jti string) string {
	return fmt.Sprintf(RevokedTokenKeyPrefix, jti)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uint) {
	Invalidate(ctx, UserKey(userID))
}

// Revoke marks a token ID as revoked until the token would have expired anyway.
// Without Redis nothing can be revoked and ErrUnavailable is returned.
func Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" || ttl <= 0 {
		return nil
	}
	if client == nil {
		return ErrUnavailable
	}
	return client.Set(ctx, RevokedTokenKey(jti), "1", ttl).Err()
}

// IsRevoked reports whether the token ID was revoked. Without Redis nothing is revoked.
func IsRevoked(ctx context.Context, jti string) (bool, error) {
	if client == nil || jti == "" {
		return false, nil
	}
	n, err := client.Exists(ctx, RevokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
