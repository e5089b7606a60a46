package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/habitkit/identity-service/internal/api/middleware"
	"github.com/habitkit/identity-service/internal/core/domain"
)

// currentUser extracts the user injected by the Auth middleware. Its
// presence proves the middleware ran; endpoints behind Auth fail fast with
// 401 when it is missing.
func currentUser(c echo.Context) (*domain.User, error) {
	user, _ := c.Get(middleware.ContextKeyUser).(*domain.User)
	if user == nil {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return user, nil
}

// optionalUser returns the authenticated user or nil when the request
// carried no token (endpoints behind OptionalAuth).
func optionalUser(c echo.Context) *domain.User {
	user, _ := c.Get(middleware.ContextKeyUser).(*domain.User)
	return user
}

// currentToken returns the raw bearer token for the request, if any.
func currentToken(c echo.Context) string {
	token, _ := c.Get(middleware.ContextKeyToken).(string)
	return token
}
