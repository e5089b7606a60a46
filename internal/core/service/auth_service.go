package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/habitkit/identity-service/internal/core/domain"
	"github.com/habitkit/identity-service/internal/core/ports"
)

// Sign-in outcomes reported on ports.SignInResult.
const (
	OutcomeSignedIn  = "signed_in"
	OutcomeCreated   = "created"
	OutcomeConverted = "converted"
	OutcomeMerged    = "merged"
)

// AuthServiceDeps bundles the collaborators of the orchestrator.
type AuthServiceDeps struct {
	Users   ports.UserRepository
	Data    ports.UserDataRepositories
	Devices ports.DeviceRepository
	Media   ports.MediaAssetRepository
	Tokens  ports.TokenService
	Codes   ports.VerificationCodeStore
	Perms   ports.PermissionChecker
	Email   ports.EmailSender
	Storage ports.ObjectStorage
	Tasks   ports.TaskRunner
	Logger  zerolog.Logger
}

// AuthService coordinates the authentication lifecycle: passwordless
// sign-in, anonymous sessions, guest conversion and merge, verified email
// change, account deletion, and sign-out.
type AuthService struct {
	deps AuthServiceDeps
	log  zerolog.Logger
}

func NewAuthService(deps AuthServiceDeps) *AuthService {
	return &AuthService{deps: deps, log: deps.Logger}
}

// InitiateSignIn generates a verification code for email and dispatches it.
// Dashboard logins are gated: the account must pre-exist and hold the
// dashboard permission. Never creates a user.
func (s *AuthService) InitiateSignIn(ctx context.Context, email string, dashboard bool) error {
	email = normalizeEmail(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	if dashboard {
		user, err := s.deps.Users.FindByEmail(ctx, email)
		if err != nil {
			return domain.OperationError("find dashboard user", err)
		}
		if user == nil {
			// Dashboard access is a closed set of known accounts, so the
			// distinction is safe to log; the caller still sees Unauthorized.
			s.log.Warn().Str("email", email).Msg("dashboard sign-in for unregistered email")
			return fmt.Errorf("%w: unknown dashboard account", domain.ErrUnauthorized)
		}
		if !s.deps.Perms.HasPermission(user, domain.PermissionDashboardLogin) {
			s.log.Warn().Str("user_id", user.ID).Str("role", string(user.Role)).Msg("dashboard sign-in without permission")
			return fmt.Errorf("%w: dashboard access requires an authorized role", domain.ErrForbidden)
		}
	}

	code, err := s.deps.Codes.Generate(ctx, email)
	if err != nil {
		return domain.OperationError("generate verification code", err)
	}
	if err := s.deps.Email.SendOTPEmail(ctx, email, code); err != nil {
		return domain.OperationError("send verification email", err)
	}

	s.log.Info().Str("email", email).Bool("dashboard", dashboard).Msg("verification code sent")
	return nil
}

// CompleteSignIn redeems a verification code and establishes a session.
func (s *AuthService) CompleteSignIn(ctx context.Context, input ports.CompleteSignInInput) (*ports.SignInResult, error) {
	email := normalizeEmail(input.Email)

	valid, err := s.deps.Codes.Validate(ctx, email, input.Code)
	if err != nil {
		return nil, domain.OperationError("validate verification code", err)
	}
	if !valid {
		// The code stays intact so the caller can retry; the external rate
		// limit bounds abuse.
		return nil, domain.ErrInvalidCode
	}
	if err := s.deps.Codes.Clear(ctx, email); err != nil {
		s.log.Warn().Err(err).Str("email", email).Msg("failed to clear consumed verification code")
	}

	// Guest session redeeming a code for a different email: conversion or merge.
	if input.Current != nil && input.Current.IsAnonymous && !strings.EqualFold(input.Current.Email, email) {
		existing, err := s.deps.Users.FindByEmail(ctx, email)
		if err != nil {
			return nil, domain.OperationError("find account for merge", err)
		}
		// Only a permanent account is a merge target; an anonymous record
		// holding the email cannot absorb the guest.
		if existing != nil && !existing.IsAnonymous && existing.ID != input.Current.ID {
			return s.mergeGuest(ctx, input.Current, existing, input.CurrentToken)
		}
		return s.convertGuest(ctx, input.Current, email, input.CurrentToken)
	}

	user, err := s.deps.Users.FindByEmail(ctx, email)
	if err != nil {
		return nil, domain.OperationError("find user", err)
	}

	if user == nil {
		if input.Dashboard {
			// A dashboard code is only ever issued for an existing account;
			// reaching this point means the precondition broke underneath us.
			s.log.Error().Str("email", email).Msg("dashboard sign-in completed for missing account")
			return nil, fmt.Errorf("%w: unknown dashboard account", domain.ErrUnauthorized)
		}
		return s.createPermanentUser(ctx, email)
	}

	// Close the loophole where a code requested under relaxed rules is
	// redeemed under dashboard rules.
	if input.Dashboard && !s.deps.Perms.HasPermission(user, domain.PermissionDashboardLogin) {
		return nil, fmt.Errorf("%w: dashboard access requires an authorized role", domain.ErrForbidden)
	}

	if err := s.EnsureUserData(ctx, user.ID); err != nil {
		return nil, err
	}
	token, err := s.deps.Tokens.Generate(user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", user.ID).Msg("sign-in completed")
	return &ports.SignInResult{User: user, Token: token, Outcome: OutcomeSignedIn}, nil
}

// SignInAnonymously creates a guest account with a placeholder email and
// issues a session for it.
func (s *AuthService) SignInAnonymously(ctx context.Context) (*ports.SignInResult, error) {
	id := uuid.NewString()
	user := &domain.User{
		ID:          id,
		Email:       fmt.Sprintf("guest-%s@anonymous.habitkit.app", id),
		IsAnonymous: true,
		Role:        domain.RoleUser,
		Tier:        domain.TierGuest,
		CreatedAt:   time.Now().UTC(),
	}

	created, err := s.deps.Users.Create(ctx, user)
	if err != nil {
		return nil, domain.OperationError("create anonymous user", err)
	}
	if err := s.EnsureUserData(ctx, created.ID); err != nil {
		return nil, err
	}
	token, err := s.deps.Tokens.Generate(created)
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Msg("anonymous sign-in")
	return &ports.SignInResult{User: created, Token: token, Outcome: OutcomeCreated}, nil
}

// EnsureUserData creates any missing auxiliary documents with defaults.
// Idempotent, and safe to call on every login: it self-heals accounts
// created before a given document type existed.
func (s *AuthService) EnsureUserData(ctx context.Context, userID string) error {
	if err := ensureDocument(ctx, s.deps.Data.Settings, userID, domain.DefaultSettings); err != nil {
		return domain.OperationError("ensure settings", err)
	}
	if err := ensureDocument(ctx, s.deps.Data.Preferences, userID, domain.DefaultContentPreferences); err != nil {
		return domain.OperationError("ensure content preferences", err)
	}
	if err := ensureDocument(ctx, s.deps.Data.Context, userID, domain.DefaultUserContext); err != nil {
		return domain.OperationError("ensure user context", err)
	}
	if err := ensureDocument(ctx, s.deps.Data.Rewards, userID, domain.DefaultRewards); err != nil {
		return domain.OperationError("ensure rewards", err)
	}
	return nil
}

// InitiateEmailUpdate starts a verified email change for a permanent
// account. The code is keyed by the new address so completion can prove
// ownership of it.
func (s *AuthService) InitiateEmailUpdate(ctx context.Context, user *domain.User, newEmail string) error {
	newEmail = normalizeEmail(newEmail)
	if newEmail == "" {
		return fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	if user == nil || user.IsAnonymous {
		return fmt.Errorf("%w: guest accounts cannot change email", domain.ErrForbidden)
	}
	if strings.EqualFold(user.Email, newEmail) {
		return fmt.Errorf("%w: email is unchanged", domain.ErrInvalidInput)
	}

	owner, err := s.deps.Users.FindByEmail(ctx, newEmail)
	if err != nil {
		return domain.OperationError("check email availability", err)
	}
	if owner != nil && owner.ID != user.ID {
		return domain.ErrEmailTaken
	}

	code, err := s.deps.Codes.Generate(ctx, newEmail)
	if err != nil {
		return domain.OperationError("generate verification code", err)
	}
	if err := s.deps.Email.SendOTPEmail(ctx, newEmail, code); err != nil {
		return domain.OperationError("send verification email", err)
	}
	s.log.Info().Str("user_id", user.ID).Str("new_email", newEmail).Msg("email update initiated")
	return nil
}

// CompleteEmailUpdate redeems the code sent to the new address and attaches
// it to the account.
func (s *AuthService) CompleteEmailUpdate(ctx context.Context, user *domain.User, newEmail, code string) (*domain.User, error) {
	newEmail = normalizeEmail(newEmail)
	if user == nil || user.IsAnonymous {
		return nil, fmt.Errorf("%w: guest accounts cannot change email", domain.ErrForbidden)
	}

	valid, err := s.deps.Codes.Validate(ctx, newEmail, code)
	if err != nil {
		return nil, domain.OperationError("validate verification code", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCode
	}
	if err := s.deps.Codes.Clear(ctx, newEmail); err != nil {
		s.log.Warn().Err(err).Str("email", newEmail).Msg("failed to clear consumed verification code")
	}

	// Re-check: the address may have been claimed between the two steps.
	owner, err := s.deps.Users.FindByEmail(ctx, newEmail)
	if err != nil {
		return nil, domain.OperationError("check email availability", err)
	}
	if owner != nil && owner.ID != user.ID {
		return nil, domain.ErrEmailTaken
	}

	user.Email = newEmail
	if err := s.deps.Users.Update(ctx, user); err != nil {
		return nil, domain.OperationError("update user email", err)
	}
	s.log.Info().Str("user_id", user.ID).Msg("email updated")
	return user, nil
}

// DeleteAccount removes the user and everything attached to it: auxiliary
// documents, device registrations, media assets (object store and database),
// and finally the user record. A failing best-effort step (clearing a stale
// verification code) never aborts the deletion.
func (s *AuthService) DeleteAccount(ctx context.Context, userID string) error {
	user, err := s.deps.Users.Read(ctx, userID)
	if err != nil {
		return err
	}

	if err := s.deps.Data.Settings.Delete(ctx, userID); err != nil {
		return domain.OperationError("delete settings", err)
	}
	if err := s.deps.Data.Preferences.Delete(ctx, userID); err != nil {
		return domain.OperationError("delete content preferences", err)
	}
	if err := s.deps.Data.Context.Delete(ctx, userID); err != nil {
		return domain.OperationError("delete user context", err)
	}
	if err := s.deps.Data.Rewards.Delete(ctx, userID); err != nil {
		return domain.OperationError("delete rewards", err)
	}

	devices, err := s.deps.Devices.FindByUser(ctx, userID)
	if err != nil {
		return domain.OperationError("list devices", err)
	}
	for _, d := range devices {
		if err := s.deps.Devices.Delete(ctx, d.ID); err != nil {
			return domain.OperationError("delete device", err)
		}
	}

	assets, err := s.deps.Media.FindByUser(ctx, userID)
	if err != nil {
		return domain.OperationError("list media assets", err)
	}
	for _, a := range assets {
		if err := s.deps.Storage.DeleteObject(ctx, a.StoragePath); err != nil {
			return domain.OperationError("delete media object", err)
		}
		if err := s.deps.Media.Delete(ctx, a.ID); err != nil {
			return domain.OperationError("delete media record", err)
		}
	}

	// The user record goes last so a crash mid-cascade leaves a resumable
	// account rather than orphaned documents.
	if err := s.deps.Users.Delete(ctx, userID); err != nil {
		return domain.OperationError("delete user", err)
	}

	if err := s.deps.Codes.Clear(ctx, normalizeEmail(user.Email)); err != nil {
		s.log.Warn().Err(err).Str("user_id", userID).Msg("failed to clear outstanding verification code")
	}

	s.log.Info().Str("user_id", userID).Bool("anonymous", user.IsAnonymous).Msg("account deleted")
	return nil
}

// SignOut revokes the presented token. The client discards its own copy.
func (s *AuthService) SignOut(ctx context.Context, token string) error {
	return s.deps.Tokens.Invalidate(ctx, token)
}

// --- internal -------------------------------------------------------------

// convertGuest attaches the verified email to the guest's own record,
// flipping it to a permanent member account with the same user id.
func (s *AuthService) convertGuest(ctx context.Context, guest *domain.User, email, oldToken string) (*ports.SignInResult, error) {
	guest.Email = email
	guest.IsAnonymous = false
	guest.Tier = domain.TierMember
	if err := s.deps.Users.Update(ctx, guest); err != nil {
		return nil, domain.OperationError("convert guest user", err)
	}
	if err := s.EnsureUserData(ctx, guest.ID); err != nil {
		return nil, err
	}
	token, err := s.deps.Tokens.Generate(guest)
	if err != nil {
		return nil, err
	}
	s.scheduleTokenInvalidation(oldToken)

	s.log.Info().Str("user_id", guest.ID).Msg("guest converted to permanent account")
	return &ports.SignInResult{User: guest, Token: token, Outcome: OutcomeConverted}, nil
}

// mergeGuest moves the guest's device registrations to the account already
// owning the email, then retires the guest account in the background. The
// device writes complete before the guest deletion is even scheduled, so a
// crash mid-merge cannot strand a still-referenced device.
func (s *AuthService) mergeGuest(ctx context.Context, guest, target *domain.User, oldToken string) (*ports.SignInResult, error) {
	if err := s.transferDevices(ctx, guest, target); err != nil {
		return nil, domain.OperationError("transfer devices", err)
	}

	guestID := guest.ID
	s.deps.Tasks.Submit("delete-orphaned-guest", func(ctx context.Context) error {
		return s.DeleteAccount(ctx, guestID)
	})

	if err := s.EnsureUserData(ctx, target.ID); err != nil {
		return nil, err
	}
	token, err := s.deps.Tokens.Generate(target)
	if err != nil {
		return nil, err
	}
	s.scheduleTokenInvalidation(oldToken)

	s.log.Info().Str("guest_id", guestID).Str("user_id", target.ID).Msg("guest merged into existing account")
	return &ports.SignInResult{User: target, Token: token, Outcome: OutcomeMerged}, nil
}

// transferDevices reassigns each guest device to target, dropping those
// whose (provider, token) pair the target already holds. All writes run
// concurrently and are jointly awaited.
func (s *AuthService) transferDevices(ctx context.Context, guest, target *domain.User) error {
	guestDevices, err := s.deps.Devices.FindByUser(ctx, guest.ID)
	if err != nil {
		return err
	}
	if len(guestDevices) == 0 {
		return nil
	}
	targetDevices, err := s.deps.Devices.FindByUser(ctx, target.ID)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(guestDevices))
	for _, device := range guestDevices {
		redundant := false
		for _, owned := range targetDevices {
			if device.SharesTokenWith(owned) {
				redundant = true
				break
			}
		}

		wg.Add(1)
		go func(device *domain.DeviceRegistration, redundant bool) {
			defer wg.Done()
			if redundant {
				if err := s.deps.Devices.Delete(ctx, device.ID); err != nil {
					errCh <- fmt.Errorf("delete redundant device %s: %w", device.ID, err)
				}
				return
			}
			device.UserID = target.ID
			if err := s.deps.Devices.Update(ctx, device); err != nil {
				errCh <- fmt.Errorf("reassign device %s: %w", device.ID, err)
			}
		}(device, redundant)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		return err
	}
	return nil
}

// createPermanentUser provisions a brand-new permanent account for a
// verified email on the standard (non-dashboard) path.
func (s *AuthService) createPermanentUser(ctx context.Context, email string) (*ports.SignInResult, error) {
	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Role:      domain.RoleUser,
		Tier:      domain.TierMember,
		CreatedAt: time.Now().UTC(),
	}
	created, err := s.deps.Users.Create(ctx, user)
	if err != nil {
		return nil, domain.OperationError("create user", err)
	}
	if err := s.EnsureUserData(ctx, created.ID); err != nil {
		return nil, err
	}
	token, err := s.deps.Tokens.Generate(created)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", created.ID).Msg("permanent account created")
	return &ports.SignInResult{User: created, Token: token, Outcome: OutcomeCreated}, nil
}

// scheduleTokenInvalidation revokes a superseded token without blocking the
// response. The new token supersedes the old one functionally; a failure
// here leaves the old token valid until natural expiry, which is accepted.
func (s *AuthService) scheduleTokenInvalidation(token string) {
	if token == "" {
		return
	}
	s.deps.Tasks.Submit("invalidate-superseded-token", func(ctx context.Context) error {
		return s.deps.Tokens.Invalidate(ctx, token)
	})
}

func ensureDocument[T any](ctx context.Context, repo ports.DocumentRepository[T], userID string, defaults func(string) *T) error {
	existing, err := repo.Find(ctx, userID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	return repo.Create(ctx, defaults(userID))
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
