package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/propdeskhq/propdesk/pkg/auth"
)

// RequireAdmin middleware ensures the authenticated user has the admin role.
// This middleware should be applied AFTER JWT authentication middleware.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Get user ID from context (set by JWT middleware)
			if _, ok := c.Get("user_id").(int); !ok {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":   "unauthorized",
					"message": "Authentication required",
				})
			}

			role, _ := c.Get("user_role").(string)
			if role != auth.RoleAdmin {
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"error":   "insufficient_permissions",
					"message": "Admin access required",
					"details": map[string]interface{}{
						"required_role": auth.RoleAdmin,
						"current_role":  role,
					},
				})
			}

			return next(c)
		}
	}
}
