package ports

import (
	"context"
	"time"

	"github.com/habitkit/identity-service/internal/core/domain"
)

// TokenService signs and verifies bearer session tokens.
type TokenService interface {
	// Generate issues a signed token for user with a fresh unique token id.
	Generate(user *domain.User) (string, error)
	// Validate verifies signature and temporal claims, rejects revoked token
	// ids, and re-fetches the authoritative user record so role changes and
	// account deletion take effect immediately for outstanding tokens.
	Validate(ctx context.Context, token string) (*domain.User, error)
	// Invalidate revokes the token's id for the remainder of its lifetime.
	// Expiry is deliberately not checked so an expired token stays revocable.
	Invalidate(ctx context.Context, token string) error
}

// RevocationStore is a durable set of revoked token ids with per-entry expiry.
type RevocationStore interface {
	// Add records jti as revoked until expiresAt. Duplicate adds and already
	// expired deadlines are benign no-ops.
	Add(ctx context.Context, jti string, expiresAt time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// VerificationCodeStore keeps at most one active code per key with a TTL.
type VerificationCodeStore interface {
	// Generate produces a fresh code for key, replacing any prior entry.
	Generate(ctx context.Context, key string) (string, error)
	// Validate reports whether code matches the unexpired entry for key.
	// It never consumes the code; callers Clear on the success path.
	Validate(ctx context.Context, key, code string) (bool, error)
	// Clear deletes the entry for key. Deleting a missing entry is a no-op.
	Clear(ctx context.Context, key string) error
}
