package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// APIKeyMiddleware returns Echo middleware that authenticates requests with
// a shared API key. The key is read from the X-API-Key header first, then
// from Authorization: Bearer. Comparison is constant time.
//
// Requests to public paths (health checks, metrics) are passed through
// without a key.
func APIKeyMiddleware(apiKey string) echo.MiddlewareFunc {
	expected := []byte(apiKey)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if AuthSkipper(c) {
				return next(c)
			}

			presented := extractAPIKey(c)
			if presented == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing api key")
			}
			if subtle.ConstantTimeCompare([]byte(presented), expected) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid api key")
			}

			c.Set("auth_subject", "api-key")
			return next(c)
		}
	}
}

// extractAPIKey returns the raw API key from the request, checking the
// X-API-Key header first and then the Authorization: Bearer header.
func extractAPIKey(c echo.Context) string {
	if key := c.Request().Header.Get("X-API-Key"); key != "" {
		return key
	}

	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
