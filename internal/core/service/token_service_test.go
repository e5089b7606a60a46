package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/habitkit/identity-service/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[string]*domain.User
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		clone := *u
		r.users[u.ID] = &clone
	}
	return r
}

func (r *stubUserRepo) Read(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return user, nil
}

func (r *stubUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return domain.ErrUserNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	delete(r.users, id)
	return nil
}

type stubRevocationStore struct {
	entries map[string]time.Time
	err     error
}

func newStubRevocationStore() *stubRevocationStore {
	return &stubRevocationStore{entries: make(map[string]time.Time)}
}

func (s *stubRevocationStore) Add(_ context.Context, jti string, expiresAt time.Time) error {
	if s.err != nil {
		return s.err
	}
	s.entries[jti] = expiresAt
	return nil
}

func (s *stubRevocationStore) Contains(_ context.Context, jti string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	_, ok := s.entries[jti]
	return ok, nil
}

func testTokenService(users *stubUserRepo, revocation *stubRevocationStore) *TokenService {
	return NewTokenService(TokenConfig{
		Secret: "test-secret",
		Issuer: "identity.test",
		TTL:    time.Hour,
	}, users, revocation, zerolog.Nop())
}

// signToken crafts a token with arbitrary claims using the test secret.
func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTokenService_RoundTrip(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "alice@example.com", Role: domain.RoleUser, Tier: domain.TierMember}
	svc := testTokenService(newStubUserRepo(user), newStubRevocationStore())

	token, err := svc.Generate(user)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	got, err := svc.Validate(context.Background(), token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, got.ID)
	}
}

func TestTokenService_FreshJTIPerToken(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser}
	svc := testTokenService(newStubUserRepo(user), newStubRevocationStore())

	t1, _ := svc.Generate(user)
	t2, _ := svc.Generate(user)
	if t1 == t2 {
		t.Fatalf("two generated tokens should differ")
	}
}

func TestTokenService_RevokedTokenFails(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser}
	revocation := newStubRevocationStore()
	svc := testTokenService(newStubUserRepo(user), revocation)

	token, _ := svc.Generate(user)
	if err := svc.Invalidate(context.Background(), token); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	_, err := svc.Validate(context.Background(), token)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized after revocation, got %v", err)
	}
}

func TestTokenService_RevocationExpiryMatchesToken(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser}
	revocation := newStubRevocationStore()
	svc := testTokenService(newStubUserRepo(user), revocation)

	token, _ := svc.Generate(user)
	if err := svc.Invalidate(context.Background(), token); err != nil {
		t.Fatalf("Invalidate: %v", err)
	}

	if len(revocation.entries) != 1 {
		t.Fatalf("expected one revocation entry, got %d", len(revocation.entries))
	}
	for _, expiresAt := range revocation.entries {
		remaining := time.Until(expiresAt)
		if remaining > time.Hour || remaining < time.Hour-time.Minute {
			t.Fatalf("revocation TTL should match token lifetime, got %v", remaining)
		}
	}
}

func TestTokenService_ExpiredTokenFails(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser}
	svc := testTokenService(newStubUserRepo(user), newStubRevocationStore())

	expired := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			Issuer:    "identity.test",
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			ID:        "jti-expired",
		},
	})

	_, err := svc.Validate(context.Background(), expired)
	if !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestTokenService_ExpiredTokenStillRevocable(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser}
	revocation := newStubRevocationStore()
	svc := testTokenService(newStubUserRepo(user), revocation)

	expired := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			ID:        "jti-late",
		},
	})

	if err := svc.Invalidate(context.Background(), expired); err != nil {
		t.Fatalf("expired token must remain revocable: %v", err)
	}
	if _, ok := revocation.entries["jti-late"]; !ok {
		t.Fatalf("revocation entry not recorded")
	}
}

func TestTokenService_MissingClaimsAreMalformed(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser}
	svc := testTokenService(newStubUserRepo(user), newStubRevocationStore())

	missingSub := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        "jti-1",
		},
	})
	if _, err := svc.Validate(context.Background(), missingSub); !errors.Is(err, domain.ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken for missing sub, got %v", err)
	}

	missingJTI := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	if _, err := svc.Validate(context.Background(), missingJTI); !errors.Is(err, domain.ErrMalformedToken) {
		t.Fatalf("expected ErrMalformedToken for missing jti, got %v", err)
	}
}

func TestTokenService_GarbageTokenIsMalformed(t *testing.T) {
	svc := testTokenService(newStubUserRepo(), newStubRevocationStore())

	_, err := svc.Validate(context.Background(), "not-a-token")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected malformed failure, got %v", err)
	}
}

func TestTokenService_WrongSignatureFails(t *testing.T) {
	svc := testTokenService(newStubUserRepo(), newStubRevocationStore())

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "u1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ID:        "jti-forged",
		},
	}).SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := svc.Validate(context.Background(), forged); !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized for forged signature, got %v", err)
	}
}

func TestTokenService_DeletedSubjectFails(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser}
	users := newStubUserRepo(user)
	svc := testTokenService(users, newStubRevocationStore())

	token, _ := svc.Generate(user)
	_ = users.Delete(context.Background(), "u1")

	_, err := svc.Validate(context.Background(), token)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected Unauthorized for deleted subject, got %v", err)
	}
}

func TestTokenService_RevocationStoreErrorPropagates(t *testing.T) {
	user := &domain.User{ID: "u1", Role: domain.RoleUser}
	revocation := newStubRevocationStore()
	svc := testTokenService(newStubUserRepo(user), revocation)

	token, _ := svc.Generate(user)
	revocation.err = errors.New("redis down")

	_, err := svc.Validate(context.Background(), token)
	if !errors.Is(err, domain.ErrOperationFailed) {
		t.Fatalf("store failure must not read as 'not revoked', got %v", err)
	}
}
