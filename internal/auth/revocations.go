package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:"

// Revocations is the Redis-backed list of logged-out token IDs.
// A nil Redis client disables revocation.
type Revocations struct {
	rdb *redis.Client
	now func() time.Time
}

// NewRevocations returns a Revocations store.
func NewRevocations(rdb *redis.Client) *Revocations {
	return &Revocations{rdb: rdb, now: time.Now}
}

// Revoke blacklists the token until it would have expired anyway.
func (r *Revocations) Revoke(ctx context.Context, claims *Claims) error {
	if r == nil || r.rdb == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Hour
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(r.now())
	}
	if ttl <= 0 {
		return nil
	}
	return r.rdb.Set(ctx, blacklistPrefix+claims.ID, "1", ttl).Err()
}

// IsRevoked reports whether jti has been revoked.
func (r *Revocations) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r == nil || r.rdb == nil || jti == "" {
		return false, nil
	}
	n, err := r.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
