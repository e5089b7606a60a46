package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/habitkit/identity-service/internal/core/domain"
	"github.com/habitkit/identity-service/internal/core/ports"
)

// TokenConfig holds the signing material for session tokens. Injected at
// construction so environments can rotate keys independently.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration
}

// Claims is the session token payload: registered claims plus denormalized
// authorization fields used as fast-path hints by the transport layer.
type Claims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role,omitempty"`
	Tier domain.Tier `json:"tier,omitempty"`
}

// TokenService issues and verifies signed bearer tokens, consulting the
// revocation store and the authoritative user record on every validation.
type TokenService struct {
	cfg        TokenConfig
	users      ports.UserRepository
	revocation ports.RevocationStore
	logger     zerolog.Logger
}

func NewTokenService(cfg TokenConfig, users ports.UserRepository, revocation ports.RevocationStore, logger zerolog.Logger) *TokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	return &TokenService{cfg: cfg, users: users, revocation: revocation, logger: logger}
}

// Generate issues a signed token for user with a fresh jti.
func (s *TokenService) Generate(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
			ID:        uuid.NewString(),
		},
		Role: user.Role,
		Tier: user.Tier,
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("token signing failed")
		return "", domain.OperationError("sign token", err)
	}
	return signed, nil
}

// Validate verifies signature and temporal claims, rejects revoked jtis, and
// re-fetches the user so role changes and deletion bite immediately.
func (s *TokenService) Validate(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.parse(token, false)
	if err != nil {
		return nil, err
	}

	revoked, err := s.revocation.Contains(ctx, claims.ID)
	if err != nil {
		return nil, domain.OperationError("revocation check", err)
	}
	if revoked {
		return nil, domain.ErrTokenRevoked
	}

	user, err := s.users.Read(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: token subject no longer exists", domain.ErrUnauthorized)
		}
		return nil, domain.OperationError("read token subject", err)
	}
	return user, nil
}

// Invalidate revokes the token's jti until the token's own expiry. The
// expiry claim is deliberately not validated: a technically expired token
// must stay revocable to close the race window around expiry.
func (s *TokenService) Invalidate(ctx context.Context, token string) error {
	claims, err := s.parse(token, true)
	if err != nil {
		return err
	}

	if err := s.revocation.Add(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return domain.OperationError("add revocation", err)
	}
	s.logger.Debug().Str("jti", claims.ID).Str("sub", claims.Subject).Msg("token revoked")
	return nil
}

// parse verifies the signature and, unless ignoreExpiry is set, the temporal
// claims. Structural problems (missing sub/jti/exp) are reported as a
// malformed-token failure, distinct from an invalid signature.
func (s *TokenService) parse(token string, ignoreExpiry bool) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if ignoreExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, domain.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, domain.ErrMalformedToken
		default:
			return nil, domain.ErrInvalidToken
		}
	}
	if !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}
	if claims.Subject == "" || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, domain.ErrMalformedToken
	}
	return claims, nil
}
