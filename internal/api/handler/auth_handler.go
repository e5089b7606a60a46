package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/habitkit/identity-service/internal/api/metrics"
	"github.com/habitkit/identity-service/internal/core/domain"
	"github.com/habitkit/identity-service/internal/core/ports"
)

// AuthHandler exposes the authentication lifecycle over HTTP.
type AuthHandler struct {
	auth ports.AuthService
}

func NewAuthHandler(auth ports.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		IsAnonymous: u.IsAnonymous,
		Role:        string(u.Role),
		Tier:        string(u.Tier),
	}
}

// InitiateSignIn requests a verification code for an email address.
//
// @Summary      Request a sign-in verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      initiateSignInRequest  true  "Target email and login surface"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/signin/initiate [post]
func (h *AuthHandler) InitiateSignIn(c echo.Context) error {
	var req initiateSignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.auth.InitiateSignIn(c.Request().Context(), req.Email, req.Dashboard); err != nil {
		return err
	}

	metrics.CodesIssuedTotal.WithLabelValues("signin").Inc()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "code_sent"})
}

// CompleteSignIn redeems a verification code and returns a session.
//
// @Summary      Redeem a verification code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      completeSignInRequest  true  "Email and code"
// @Success      200   {object}  sessionResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /auth/signin/complete [post]
func (h *AuthHandler) CompleteSignIn(c echo.Context) error {
	var req completeSignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.auth.CompleteSignIn(c.Request().Context(), ports.CompleteSignInInput{
		Email:        req.Email,
		Code:         req.Code,
		Dashboard:    req.Dashboard,
		Current:      optionalUser(c),
		CurrentToken: currentToken(c),
	})
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCode) {
			metrics.CodeValidationFailuresTotal.Inc()
		}
		return err
	}

	metrics.SignInsCompletedTotal.WithLabelValues(result.Outcome, strconv.FormatBool(req.Dashboard)).Inc()
	return c.JSON(http.StatusOK, sessionResponse{Token: result.Token, User: toUserResponse(result.User)})
}

// SignInAnonymously creates a guest account and session.
//
// @Summary      Create an anonymous guest session
// @Tags         auth
// @Produce      json
// @Success      201  {object}  sessionResponse
// @Failure      500  {object}  map[string]string
// @Router       /auth/anonymous [post]
func (h *AuthHandler) SignInAnonymously(c echo.Context) error {
	result, err := h.auth.SignInAnonymously(c.Request().Context())
	if err != nil {
		return err
	}

	metrics.SignInsCompletedTotal.WithLabelValues(result.Outcome, "false").Inc()
	return c.JSON(http.StatusCreated, sessionResponse{Token: result.Token, User: toUserResponse(result.User)})
}

// SignOut revokes the presented token.
//
// @Summary      Sign out
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	if _, err := currentUser(c); err != nil {
		return err
	}
	if err := h.auth.SignOut(c.Request().Context(), currentToken(c)); err != nil {
		return err
	}

	metrics.TokensRevokedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}

// DeleteAccount removes the authenticated account and everything it owns.
//
// @Summary      Delete the authenticated account
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /auth/account [delete]
func (h *AuthHandler) DeleteAccount(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if err := h.auth.DeleteAccount(c.Request().Context(), user.ID); err != nil {
		return err
	}

	kind := "permanent"
	if user.IsAnonymous {
		kind = "guest"
	}
	metrics.AccountsDeletedTotal.WithLabelValues(kind).Inc()
	return c.NoContent(http.StatusNoContent)
}

// InitiateEmailUpdate requests a verification code for a new address.
//
// @Summary      Request an email change code
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      initiateEmailUpdateRequest  true  "New email address"
// @Success      202   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/email/initiate [post]
func (h *AuthHandler) InitiateEmailUpdate(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req initiateEmailUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.auth.InitiateEmailUpdate(c.Request().Context(), user, req.NewEmail); err != nil {
		return err
	}

	metrics.CodesIssuedTotal.WithLabelValues("email_update").Inc()
	return c.JSON(http.StatusAccepted, map[string]string{"status": "code_sent"})
}

// CompleteEmailUpdate redeems the code and attaches the new address.
//
// @Summary      Confirm an email change
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      completeEmailUpdateRequest  true  "New email and code"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/email/complete [post]
func (h *AuthHandler) CompleteEmailUpdate(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var req completeEmailUpdateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	updated, err := h.auth.CompleteEmailUpdate(c.Request().Context(), user, req.NewEmail, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserResponse(updated))
}
