package redis

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

const codeLength = 6

// VerificationCodeStore keeps at most one active code per key in Redis.
// Codes are stored as bcrypt hashes so a store compromise does not leak
// redeemable codes. Key format: otp:<key>
type VerificationCodeStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewVerificationCodeStore creates a store whose entries expire after ttl.
func NewVerificationCodeStore(client *redis.Client, ttl time.Duration) *VerificationCodeStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &VerificationCodeStore{client: client, ttl: ttl}
}

// Generate produces a fresh 6-digit code for key, replacing any prior entry.
// The latest generated code is authoritative; an in-flight older code
// silently becomes invalid.
func (s *VerificationCodeStore) Generate(ctx context.Context, key string) (string, error) {
	code, err := randomCode(codeLength)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash code: %w", err)
	}
	if err := s.client.Set(ctx, s.key(key), string(hash), s.ttl).Err(); err != nil {
		return "", fmt.Errorf("store code: %w", err)
	}
	return code, nil
}

// Validate reports whether code matches the unexpired entry for key. It is
// side-effect-free: callers decide when to Clear.
func (s *VerificationCodeStore) Validate(ctx context.Context, key, code string) (bool, error) {
	hash, err := s.client.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("read code: %w", err)
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil, nil
}

// Clear deletes the entry for key. Deleting a missing entry is a no-op.
func (s *VerificationCodeStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("clear code: %w", err)
	}
	return nil
}

func (s *VerificationCodeStore) key(key string) string {
	return "otp:" + key
}

// randomCode returns a fixed-length numeric string drawn from crypto/rand.
// Leading zeros are preserved.
func randomCode(length int) (string, error) {
	max := big.NewInt(1)
	for i := 0; i < length; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", length, n), nil
}
