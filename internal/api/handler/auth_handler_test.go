package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/habitkit/identity-service/internal/api/middleware"
	"github.com/habitkit/identity-service/internal/core/domain"
	"github.com/habitkit/identity-service/internal/core/ports"
)

type stubAuthService struct {
	initiateSignInFn      func(ctx context.Context, email string, dashboard bool) error
	completeSignInFn      func(ctx context.Context, input ports.CompleteSignInInput) (*ports.SignInResult, error)
	signInAnonymouslyFn   func(ctx context.Context) (*ports.SignInResult, error)
	initiateEmailUpdateFn func(ctx context.Context, user *domain.User, newEmail string) error
	completeEmailUpdateFn func(ctx context.Context, user *domain.User, newEmail, code string) (*domain.User, error)
	deleteAccountFn       func(ctx context.Context, userID string) error
	signOutFn             func(ctx context.Context, token string) error
}

func (s *stubAuthService) InitiateSignIn(ctx context.Context, email string, dashboard bool) error {
	return s.initiateSignInFn(ctx, email, dashboard)
}

func (s *stubAuthService) CompleteSignIn(ctx context.Context, input ports.CompleteSignInInput) (*ports.SignInResult, error) {
	return s.completeSignInFn(ctx, input)
}

func (s *stubAuthService) SignInAnonymously(ctx context.Context) (*ports.SignInResult, error) {
	return s.signInAnonymouslyFn(ctx)
}

func (s *stubAuthService) EnsureUserData(ctx context.Context, userID string) error {
	return nil
}

func (s *stubAuthService) InitiateEmailUpdate(ctx context.Context, user *domain.User, newEmail string) error {
	return s.initiateEmailUpdateFn(ctx, user, newEmail)
}

func (s *stubAuthService) CompleteEmailUpdate(ctx context.Context, user *domain.User, newEmail, code string) (*domain.User, error) {
	return s.completeEmailUpdateFn(ctx, user, newEmail, code)
}

func (s *stubAuthService) DeleteAccount(ctx context.Context, userID string) error {
	return s.deleteAccountFn(ctx, userID)
}

func (s *stubAuthService) SignOut(ctx context.Context, token string) error {
	return s.signOutFn(ctx, token)
}

func newTestContext(t *testing.T, method, path, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	e.Validator = NewValidator()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestAuthHandler_InitiateSignIn_Success(t *testing.T) {
	stub := &stubAuthService{
		initiateSignInFn: func(ctx context.Context, email string, dashboard bool) error {
			if email != "alice@example.com" || !dashboard {
				t.Fatalf("unexpected args: %s %v", email, dashboard)
			}
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/auth/signin/initiate", `{"email":"alice@example.com","dashboard":true}`)
	if err := handler.InitiateSignIn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
}

func TestAuthHandler_InitiateSignIn_InvalidEmail(t *testing.T) {
	stub := &stubAuthService{
		initiateSignInFn: func(ctx context.Context, email string, dashboard bool) error {
			t.Fatalf("should not be called")
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/auth/signin/initiate", `{"email":"not-an-email"}`)
	err := handler.InitiateSignIn(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_InitiateSignIn_ServiceErrorPassesThrough(t *testing.T) {
	stub := &stubAuthService{
		initiateSignInFn: func(ctx context.Context, email string, dashboard bool) error {
			return domain.ErrForbidden
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/auth/signin/initiate", `{"email":"a@example.com","dashboard":true}`)
	err := handler.InitiateSignIn(c)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("service error must reach the error handler unchanged, got %v", err)
	}
}

func TestAuthHandler_CompleteSignIn_Success(t *testing.T) {
	stub := &stubAuthService{
		completeSignInFn: func(ctx context.Context, input ports.CompleteSignInInput) (*ports.SignInResult, error) {
			if input.Email != "alice@example.com" || input.Code != "123456" {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &ports.SignInResult{
				User:    &domain.User{ID: "u1", Email: input.Email, Role: domain.RoleUser, Tier: domain.TierMember},
				Token:   "token123",
				Outcome: "signed_in",
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/auth/signin/complete", `{"email":"alice@example.com","code":"123456"}`)
	if err := handler.CompleteSignIn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["token"] != "token123" {
		t.Fatalf("expected token in response, got %+v", resp)
	}
	user, ok := resp["user"].(map[string]any)
	if !ok || user["id"] != "u1" || user["tier"] != "member" {
		t.Fatalf("unexpected user payload: %+v", resp["user"])
	}
}

func TestAuthHandler_CompleteSignIn_ForwardsSessionUser(t *testing.T) {
	guest := &domain.User{ID: "g1", IsAnonymous: true, Role: domain.RoleUser, Tier: domain.TierGuest}
	stub := &stubAuthService{
		completeSignInFn: func(ctx context.Context, input ports.CompleteSignInInput) (*ports.SignInResult, error) {
			if input.Current == nil || input.Current.ID != "g1" {
				t.Fatalf("session user not forwarded: %+v", input.Current)
			}
			if input.CurrentToken != "guest-token" {
				t.Fatalf("session token not forwarded: %q", input.CurrentToken)
			}
			return &ports.SignInResult{User: guest, Token: "new", Outcome: "converted"}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/auth/signin/complete", `{"email":"a@example.com","code":"123456"}`)
	c.Set(middleware.ContextKeyUser, guest)
	c.Set(middleware.ContextKeyToken, "guest-token")

	if err := handler.CompleteSignIn(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
}

func TestAuthHandler_CompleteSignIn_BadCodeLength(t *testing.T) {
	stub := &stubAuthService{
		completeSignInFn: func(ctx context.Context, input ports.CompleteSignInInput) (*ports.SignInResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/auth/signin/complete", `{"email":"a@example.com","code":"12"}`)
	err := handler.CompleteSignIn(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestAuthHandler_SignInAnonymously(t *testing.T) {
	stub := &stubAuthService{
		signInAnonymouslyFn: func(ctx context.Context) (*ports.SignInResult, error) {
			return &ports.SignInResult{
				User:    &domain.User{ID: "g1", IsAnonymous: true, Role: domain.RoleUser, Tier: domain.TierGuest},
				Token:   "guest-token",
				Outcome: "created",
			}, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/auth/anonymous", "")
	if err := handler.SignInAnonymously(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
}

func TestAuthHandler_SignOut_RequiresAuth(t *testing.T) {
	stub := &stubAuthService{
		signOutFn: func(ctx context.Context, token string) error {
			t.Fatalf("should not be called")
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, _ := newTestContext(t, http.MethodPost, "/auth/signout", "")
	err := handler.SignOut(c)

	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}

func TestAuthHandler_SignOut_Success(t *testing.T) {
	revoked := ""
	stub := &stubAuthService{
		signOutFn: func(ctx context.Context, token string) error {
			revoked = token
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/auth/signout", "")
	c.Set(middleware.ContextKeyUser, &domain.User{ID: "u1", Role: domain.RoleUser})
	c.Set(middleware.ContextKeyToken, "bearer-token")

	if err := handler.SignOut(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if revoked != "bearer-token" {
		t.Fatalf("expected the session token to be revoked, got %q", revoked)
	}
}

func TestAuthHandler_DeleteAccount(t *testing.T) {
	deleted := ""
	stub := &stubAuthService{
		deleteAccountFn: func(ctx context.Context, userID string) error {
			deleted = userID
			return nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodDelete, "/auth/account", "")
	c.Set(middleware.ContextKeyUser, &domain.User{ID: "u1", Role: domain.RoleUser})

	if err := handler.DeleteAccount(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if deleted != "u1" {
		t.Fatalf("expected the session user to be deleted, got %q", deleted)
	}
}

func TestAuthHandler_CompleteEmailUpdate(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "old@example.com", Role: domain.RoleUser, Tier: domain.TierMember}
	stub := &stubAuthService{
		completeEmailUpdateFn: func(ctx context.Context, u *domain.User, newEmail, code string) (*domain.User, error) {
			if newEmail != "new@example.com" || code != "654321" {
				t.Fatalf("unexpected args: %s %s", newEmail, code)
			}
			u.Email = newEmail
			return u, nil
		},
	}
	handler := NewAuthHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/auth/email/complete", `{"new_email":"new@example.com","code":"654321"}`)
	c.Set(middleware.ContextKeyUser, user)

	if err := handler.CompleteEmailUpdate(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp["email"] != "new@example.com" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
