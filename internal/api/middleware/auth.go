package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/habitkit/identity-service/internal/core/ports"
)

// Context keys set by Auth.
const (
	ContextKeyUser  = "user"
	ContextKeyToken = "token"
)

// Auth resolves the bearer token through the token service and injects the
// authoritative user into context. Revoked and expired tokens fail here,
// before any handler runs.
func Auth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, err := bearerToken(c)
			if err != nil {
				return err
			}

			user, err := tokens.Validate(c.Request().Context(), raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyToken, raw)
			return next(c)
		}
	}
}

// OptionalAuth behaves like Auth when a bearer token is present and passes
// the request through anonymously when it is not. Used by the sign-in
// completion endpoint, where a guest session changes the flow but is not
// required.
func OptionalAuth(tokens ports.TokenService) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Header.Get("Authorization") == "" {
				return next(c)
			}

			raw, err := bearerToken(c)
			if err != nil {
				return err
			}
			user, err := tokens.Validate(c.Request().Context(), raw)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			c.Set(ContextKeyUser, user)
			c.Set(ContextKeyToken, raw)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, error) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
	}
	return parts[1], nil
}
