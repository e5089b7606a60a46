package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/habitkit/identity-service/internal/core/domain"
	"github.com/habitkit/identity-service/internal/core/ports"
)

// RequirePermission enforces a permission check against the user injected
// by Auth. Unknown roles deny (the permission table is fail-closed).
func RequirePermission(perms ports.PermissionChecker, permission domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, _ := c.Get(ContextKeyUser).(*domain.User)
			if !perms.HasPermission(user, permission) {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
