package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationStore keeps revoked token ids in Redis with a per-entry TTL.
// Key format: revoked:<jti>
type RevocationStore struct {
	client *redis.Client
}

// NewRevocationStore creates a RevocationStore wrapping the given Redis client.
func NewRevocationStore(client *redis.Client) *RevocationStore {
	return &RevocationStore{client: client}
}

// Add marks jti as revoked until expiresAt. The entry's TTL matches the
// token's remaining lifetime, never longer. An already elapsed deadline is a
// no-op: the token fails its own expiry check anyway. Duplicate adds simply
// overwrite the same key.
func (s *RevocationStore) Add(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.key(jti), "1", ttl).Err(); err != nil {
		return fmt.Errorf("revocation add: %w", err)
	}
	return nil
}

// Contains reports whether jti has been revoked. Store unavailability is an
// operational error, never a silent "not revoked".
func (s *RevocationStore) Contains(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, s.key(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("revocation check: %w", err)
	}
	return n > 0, nil
}

func (s *RevocationStore) key(jti string) string {
	return "revoked:" + jti
}
