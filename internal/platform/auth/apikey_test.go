package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func apiKeyEcho(key string) *echo.Echo {
	e := echo.New()
	e.Use(APIKeyMiddleware(key))
	e.GET("/api/v1/claims", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/health", func(c echo.Context) error {
		return c.String(http.StatusOK, "healthy")
	})
	return e
}

func TestAPIKeyMiddleware_ValidKeyHeader(t *testing.T) {
	e := apiKeyEcho("secret-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil)
	req.Header.Set("X-API-Key", "secret-key")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_ValidBearerKey(t *testing.T) {
	e := apiKeyEcho("secret-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil)
	req.Header.Set("Authorization", "Bearer secret-key")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_MissingKey(t *testing.T) {
	e := apiKeyEcho("secret-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_WrongKey(t *testing.T) {
	e := apiKeyEcho("secret-key")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/claims", nil)
	req.Header.Set("X-API-Key", "not-the-key")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
}

func TestAPIKeyMiddleware_SkipsPublicPaths(t *testing.T) {
	e := apiKeyEcho("secret-key")

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for public path without key, got %d", rec.Code)
	}
}
