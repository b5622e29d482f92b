package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireAPIKey guards server-to-server endpoints with a shared secret
// passed in the X-API-Key header.
func RequireAPIKey(expectedKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if expectedKey == "" {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"error":   "not_configured",
					"message": "API key authentication is not configured",
				})
			}

			key := c.Request().Header.Get("X-API-Key")
			if subtle.ConstantTimeCompare([]byte(key), []byte(expectedKey)) != 1 {
				return c.JSON(http.StatusUnauthorized, map[string]string{
					"error":   "invalid_api_key",
					"message": "A valid X-API-Key header is required",
				})
			}

			return next(c)
		}
	}
}
