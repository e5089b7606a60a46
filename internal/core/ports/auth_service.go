package ports

import (
	"context"

	"github.com/habitkit/identity-service/internal/core/domain"
)

// CompleteSignInInput carries everything needed to redeem a verification
// code. Current and CurrentToken are set when the caller already holds a
// session (the guest conversion/merge path) and are nil/empty otherwise.
type CompleteSignInInput struct {
	Email        string
	Code         string
	Dashboard    bool
	Current      *domain.User
	CurrentToken string
}

// SignInResult is returned by every flow that establishes a session.
// Outcome names what happened ("signed_in", "created", "converted",
// "merged") for logging and metrics at the transport layer.
type SignInResult struct {
	User    *domain.User
	Token   string
	Outcome string
}

// AuthService orchestrates sign-in, guest conversion/merge, email change,
// account deletion, and sign-out.
type AuthService interface {
	// InitiateSignIn generates and emails a verification code. Dashboard
	// logins require a pre-existing account holding the dashboard permission;
	// this method never creates a user.
	InitiateSignIn(ctx context.Context, email string, dashboard bool) error
	// CompleteSignIn redeems a code. Depending on caller context this signs
	// in an existing account, creates a permanent one, converts a guest in
	// place, or merges a guest into the account owning the email.
	CompleteSignIn(ctx context.Context, input CompleteSignInInput) (*SignInResult, error)
	// SignInAnonymously creates a guest account and issues a session.
	SignInAnonymously(ctx context.Context) (*SignInResult, error)
	// EnsureUserData creates any missing auxiliary documents with defaults.
	// Idempotent; called on every login to self-heal older accounts.
	EnsureUserData(ctx context.Context, userID string) error
	// InitiateEmailUpdate starts a verified email change for a permanent
	// account; the code is keyed by the new address.
	InitiateEmailUpdate(ctx context.Context, user *domain.User, newEmail string) error
	// CompleteEmailUpdate redeems the code and attaches the new address.
	CompleteEmailUpdate(ctx context.Context, user *domain.User, newEmail, code string) (*domain.User, error)
	// DeleteAccount removes the user and cascades to auxiliary documents,
	// device registrations, and media assets.
	DeleteAccount(ctx context.Context, userID string) error
	// SignOut revokes the presented token.
	SignOut(ctx context.Context, token string) error
}

// PermissionChecker answers role-gated authorization questions.
type PermissionChecker interface {
	HasPermission(user *domain.User, permission domain.Permission) bool
}
